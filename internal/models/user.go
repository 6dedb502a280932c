package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleStaff     UserRole = "STAFF"
	RoleResident  UserRole = "RESIDENT"
	RoleAnonymous UserRole = "ANONYMOUS"
)

// Valid reports whether the role is one of the assignable roles.
// Anonymous is a resolver fallback, never stored.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleResident:
		return true
	default:
		return false
	}
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// IdentityRoleBinding maps an authenticated identity to its role and,
// for residents, to the resident row used for ownership checks. The
// binding is written at account creation and read outside any
// authorization gate so role resolution cannot recurse into the engine
// it feeds.
type IdentityRoleBinding struct {
	UserID     string    `db:"user_id" json:"user_id"`
	Role       UserRole  `db:"role" json:"role"`
	ResidentID *string   `db:"resident_id" json:"resident_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
