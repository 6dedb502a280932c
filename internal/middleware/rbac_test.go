package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/hms-core-api/internal/authz"
	"github.com/noah-isme/hms-core-api/internal/models"
)

func runAuthorize(t *testing.T, claims *models.JWTClaims, resource authz.Resource, op authz.Operation) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}
	Authorize(resource, op)(c)
	return c, w
}

func TestAuthorizeWithoutClaims(t *testing.T) {
	c, w := runAuthorize(t, nil, authz.ResourceResidents, authz.OpRead)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthorizeResidentDeniedListAccess(t *testing.T) {
	residentID := "res-1"
	claims := &models.JWTClaims{UserID: "user-3", Role: models.RoleResident, ResidentID: &residentID}

	c, w := runAuthorize(t, claims, authz.ResourceResidents, authz.OpRead)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthorizeStaffReadsRooms(t *testing.T) {
	claims := &models.JWTClaims{UserID: "user-2", Role: models.RoleStaff}

	c, w := runAuthorize(t, claims, authz.ResourceRooms, authz.OpRead)

	assert.False(t, c.IsAborted())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesBlocksUnlistedRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set(ContextUserKey, &models.JWTClaims{UserID: "user-3", Role: models.RoleResident})

	RequireRoles(models.RoleAdmin, models.RoleStaff)(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, w.Code)
}
