package models

import "time"

// RoomType determines how many residents a room may hold. Capacity is
// derived from the type; there is no independently stored capacity
// column that could drift from it.
type RoomType string

const (
	RoomTypeSingle RoomType = "SINGLE"
	RoomTypeDouble RoomType = "DOUBLE"
	RoomTypeTriple RoomType = "TRIPLE"
	RoomTypeQuad   RoomType = "QUAD"
)

// Capacity returns the maximum simultaneous active allocations for the type.
func (t RoomType) Capacity() int {
	switch t {
	case RoomTypeSingle:
		return 1
	case RoomTypeDouble:
		return 2
	case RoomTypeTriple:
		return 3
	case RoomTypeQuad:
		return 4
	default:
		return 0
	}
}

// Valid reports whether the type is a supported value.
func (t RoomType) Valid() bool {
	return t.Capacity() > 0
}

// RoomStatus is a pure function of the maintenance flag and the live
// occupant count; it is computed on read, never stored.
type RoomStatus string

const (
	RoomStatusVacant      RoomStatus = "VACANT"
	RoomStatusOccupied    RoomStatus = "OCCUPIED"
	RoomStatusMaintenance RoomStatus = "MAINTENANCE"
)

// ComputeRoomStatus derives the visible status. Maintenance overrides.
func ComputeRoomStatus(maintenance bool, occupantCount int) RoomStatus {
	if maintenance {
		return RoomStatusMaintenance
	}
	if occupantCount > 0 {
		return RoomStatusOccupied
	}
	return RoomStatusVacant
}

// Room represents a bookable room.
type Room struct {
	ID          string    `db:"id" json:"id"`
	Number      string    `db:"number" json:"number"`
	Type        RoomType  `db:"room_type" json:"room_type"`
	Block       string    `db:"block" json:"block"`
	Floor       int       `db:"floor" json:"floor"`
	Maintenance bool      `db:"maintenance" json:"maintenance"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// RoomDetail extends a room with its derived occupancy snapshot.
type RoomDetail struct {
	Room
	OccupantCount int        `db:"occupant_count" json:"occupant_count"`
	Capacity      int        `json:"capacity"`
	Status        RoomStatus `json:"status"`
}

// Derive fills the computed fields from the row values.
func (r *RoomDetail) Derive() {
	r.Capacity = r.Type.Capacity()
	r.Status = ComputeRoomStatus(r.Maintenance, r.OccupantCount)
}

// RoomFilter captures listing parameters for rooms.
type RoomFilter struct {
	Search    string
	Block     string
	Type      *RoomType
	Status    *RoomStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// RoomOccupant describes a resident currently allocated to a room.
type RoomOccupant struct {
	ResidentID   string    `db:"resident_id" json:"resident_id"`
	ResidentName string    `db:"resident_name" json:"resident_name"`
	RegNumber    string    `db:"reg_number" json:"reg_number"`
	AllocatedAt  time.Time `db:"allocated_at" json:"allocated_at"`
}
