// Package authz is the single stateless permit/deny decision point.
//
// The role is resolved exactly once per request, at token validation,
// from the identity-role binding table and carried in the JWT claims.
// Nothing in this package performs I/O or consults any store that is
// itself access-controlled, so a decision can never trigger another
// role lookup.
package authz

import "github.com/noah-isme/hms-core-api/internal/models"

// Resource identifies the kind of entity an operation targets.
type Resource string

const (
	ResourceResidents   Resource = "residents"
	ResourceRooms       Resource = "rooms"
	ResourceAllocations Resource = "allocations"
	ResourceAttendance  Resource = "attendance"
	ResourceLeaves      Resource = "leaves"
	ResourceIdentities  Resource = "identities"
	ResourceAudit       Resource = "audit"
	ResourceDashboard   Resource = "dashboard"
)

// Operation is the access class being requested.
type Operation string

const (
	OpRead  Operation = "read"
	OpWrite Operation = "write"
)

// Subject is the authenticated caller as established at request entry.
type Subject struct {
	UserID     string
	Role       models.UserRole
	ResidentID *string
}

// operational resources are the kinds staff may mutate. Identity-role
// bindings are deliberately absent: only administrators touch those.
var staffWritable = map[Resource]struct{}{
	ResourceResidents:   {},
	ResourceRooms:       {},
	ResourceAllocations: {},
	ResourceAttendance:  {},
	ResourceLeaves:      {},
}

// Decide returns true when the subject may perform op on the resource.
// ownerResidentID, when non-nil, names the resident that owns the
// target row; ownership is matched against the subject's resident link,
// never against a mutable display field.
func Decide(sub Subject, res Resource, op Operation, ownerResidentID *string) bool {
	switch sub.Role {
	case models.RoleAdmin:
		return true
	case models.RoleStaff:
		if op == OpRead {
			return true
		}
		_, ok := staffWritable[res]
		return ok
	case models.RoleResident:
		if ownerResidentID == nil || sub.ResidentID == nil {
			return false
		}
		return *ownerResidentID == *sub.ResidentID
	default:
		return false
	}
}

// CanAccessResident is a convenience wrapper for row-scoped reads where
// staff and admins see everything and residents only themselves.
func CanAccessResident(sub Subject, residentID string) bool {
	if sub.Role == models.RoleAdmin || sub.Role == models.RoleStaff {
		return true
	}
	return Decide(sub, ResourceResidents, OpRead, &residentID)
}
