package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/hms-core-api/internal/models"
)

func strPtr(s string) *string { return &s }

func TestDecideAdminPermitsEverything(t *testing.T) {
	sub := Subject{UserID: "u1", Role: models.RoleAdmin}
	for _, res := range []Resource{ResourceResidents, ResourceRooms, ResourceAllocations, ResourceAttendance, ResourceLeaves, ResourceIdentities, ResourceAudit} {
		assert.True(t, Decide(sub, res, OpRead, nil), string(res))
		assert.True(t, Decide(sub, res, OpWrite, nil), string(res))
	}
}

func TestDecideStaffReadsAllWritesOperational(t *testing.T) {
	sub := Subject{UserID: "u2", Role: models.RoleStaff}

	assert.True(t, Decide(sub, ResourceIdentities, OpRead, nil))
	assert.True(t, Decide(sub, ResourceAudit, OpRead, nil))

	assert.True(t, Decide(sub, ResourceAllocations, OpWrite, nil))
	assert.True(t, Decide(sub, ResourceAttendance, OpWrite, nil))
	assert.True(t, Decide(sub, ResourceLeaves, OpWrite, nil))

	assert.False(t, Decide(sub, ResourceIdentities, OpWrite, nil))
	assert.False(t, Decide(sub, ResourceAudit, OpWrite, nil))
}

func TestDecideResidentOwnershipOnly(t *testing.T) {
	sub := Subject{UserID: "u3", Role: models.RoleResident, ResidentID: strPtr("res-1")}

	assert.True(t, Decide(sub, ResourceLeaves, OpRead, strPtr("res-1")))
	assert.True(t, Decide(sub, ResourceLeaves, OpWrite, strPtr("res-1")))
	assert.False(t, Decide(sub, ResourceLeaves, OpRead, strPtr("res-2")))
	assert.False(t, Decide(sub, ResourceLeaves, OpRead, nil))
}

func TestDecideResidentWithoutLinkDenied(t *testing.T) {
	sub := Subject{UserID: "u4", Role: models.RoleResident}
	assert.False(t, Decide(sub, ResourceResidents, OpRead, strPtr("res-1")))
}

func TestDecideAnonymousDenied(t *testing.T) {
	sub := Subject{UserID: "", Role: models.RoleAnonymous}
	assert.False(t, Decide(sub, ResourceResidents, OpRead, nil))
	assert.False(t, Decide(sub, ResourceRooms, OpRead, strPtr("res-1")))
}

func TestCanAccessResident(t *testing.T) {
	assert.True(t, CanAccessResident(Subject{Role: models.RoleStaff}, "res-9"))
	assert.True(t, CanAccessResident(Subject{Role: models.RoleResident, ResidentID: strPtr("res-9")}, "res-9"))
	assert.False(t, CanAccessResident(Subject{Role: models.RoleResident, ResidentID: strPtr("res-8")}, "res-9"))
}
