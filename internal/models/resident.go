package models

import "time"

// Resident represents a person housed in the facility.
type Resident struct {
	ID        string    `db:"id" json:"id"`
	RegNumber string    `db:"reg_number" json:"reg_number"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Course    string    `db:"course" json:"course"`
	Year      *int      `db:"year" json:"year,omitempty"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ResidentFilter encapsulates allowed search parameters for listing residents.
type ResidentFilter struct {
	Search    string
	Course    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ResidentDetail contains resident information with allocation context.
type ResidentDetail struct {
	Resident
	CurrentRoomID     *string    `db:"current_room_id" json:"current_room_id,omitempty"`
	CurrentRoomNumber *string    `db:"current_room_number" json:"current_room_number,omitempty"`
	AllocatedAt       *time.Time `db:"allocated_at" json:"allocated_at,omitempty"`
}
