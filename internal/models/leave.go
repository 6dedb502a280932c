package models

import "time"

// LeaveStatus tracks approval state of a leave request.
type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "PENDING"
	LeaveStatusApproved LeaveStatus = "APPROVED"
	LeaveStatusRejected LeaveStatus = "REJECTED"
)

// Valid reports whether the status is a supported value.
func (s LeaveStatus) Valid() bool {
	switch s {
	case LeaveStatusPending, LeaveStatusApproved, LeaveStatusRejected:
		return true
	default:
		return false
	}
}

// Leave is a resident's absence window. It feeds excused-absence policy
// as information only; attendance marking never consults it implicitly.
type Leave struct {
	ID         string      `db:"id" json:"id"`
	ResidentID string      `db:"resident_id" json:"resident_id"`
	StartDate  time.Time   `db:"start_date" json:"start_date"`
	EndDate    time.Time   `db:"end_date" json:"end_date"`
	Reason     string      `db:"reason" json:"reason"`
	Status     LeaveStatus `db:"status" json:"status"`
	DecidedBy  *string     `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt  *time.Time  `db:"decided_at" json:"decided_at,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}

// LeaveFilter scopes leave listing queries.
type LeaveFilter struct {
	ResidentID string
	Status     *LeaveStatus
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
}
