package models

import "time"

// Allocation is one stay of a resident in a room. Rows are append-only:
// after creation only ended_at is ever set. An unset ended_at marks the
// allocation active; the schema enforces at most one active row per
// resident with a partial unique index.
type Allocation struct {
	ID         string     `db:"id" json:"id"`
	ResidentID string     `db:"resident_id" json:"resident_id"`
	RoomID     string     `db:"room_id" json:"room_id"`
	StartedAt  time.Time  `db:"started_at" json:"started_at"`
	EndedAt    *time.Time `db:"ended_at" json:"ended_at,omitempty"`
	CreatedBy  *string    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// Active reports whether the allocation is still open.
func (a Allocation) Active() bool {
	return a.EndedAt == nil
}

// AllocationRecord extends an allocation with resident and room metadata.
type AllocationRecord struct {
	Allocation
	ResidentName string `db:"resident_name" json:"resident_name"`
	RoomNumber   string `db:"room_number" json:"room_number"`
}

// AllocationFilter scopes allocation listing queries.
type AllocationFilter struct {
	ResidentID string
	RoomID     string
	Active     *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// RoomOccupancy is the recount snapshot returned by mutating allocation
// calls, always recomputed from allocation rows inside the same
// transaction as the write.
type RoomOccupancy struct {
	RoomID        string     `db:"room_id" json:"room_id"`
	OccupantCount int        `db:"occupant_count" json:"occupant_count"`
	Maintenance   bool       `db:"maintenance" json:"maintenance"`
	RoomType      RoomType   `db:"room_type" json:"room_type"`
	Status        RoomStatus `json:"status"`
}

// Derive fills the computed status.
func (o *RoomOccupancy) Derive() {
	o.Status = ComputeRoomStatus(o.Maintenance, o.OccupantCount)
}
