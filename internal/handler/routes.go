package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hms-core-api/internal/authz"
	"github.com/noah-isme/hms-core-api/internal/middleware"
	"github.com/noah-isme/hms-core-api/internal/models"
	"github.com/noah-isme/hms-core-api/internal/repository"
	"github.com/noah-isme/hms-core-api/internal/service"
)

// Handlers groups every HTTP handler for route registration.
type Handlers struct {
	Auth        *AuthHandler
	Residents   *ResidentHandler
	Rooms       *RoomHandler
	Allocations *AllocationHandler
	Attendance  *AttendanceHandler
	Leaves      *LeaveHandler
	Search      *SearchHandler
	Dashboard   *DashboardHandler
	Metrics     *MetricsHandler
}

// Register wires all routes under the API prefix. Role gates follow the
// resource matrix: admins manage everything, staff run day-to-day
// operations, residents reach only their own rows (enforced in the
// services behind the role gate).
func Register(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService, users *repository.UserRepository) {
	staffUp := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	anyRole := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleResident)

	api := r.Group(prefix)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", middleware.JWT(auth), h.Auth.Logout)
		authGroup.POST("/change-password", middleware.JWT(auth), h.Auth.ChangePassword)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(auth))

	residents := protected.Group("/residents")
	{
		residents.GET("", middleware.Authorize(authz.ResourceResidents, authz.OpRead), h.Residents.List)
		residents.GET("/unallocated", middleware.Authorize(authz.ResourceResidents, authz.OpRead), h.Residents.Unallocated)
		residents.GET("/:id", anyRole, h.Residents.Get)
		residents.GET("/:id/attendance-calendar", anyRole, h.Residents.AttendanceCalendar)
		residents.POST("", adminOnly, h.Residents.Create)
		residents.PUT("/:id", adminOnly, h.Residents.Update)
		residents.DELETE("/:id", adminOnly, h.Residents.Disable)
	}

	rooms := protected.Group("/rooms")
	{
		rooms.GET("", middleware.Authorize(authz.ResourceRooms, authz.OpRead), h.Rooms.List)
		rooms.GET("/:id", middleware.Authorize(authz.ResourceRooms, authz.OpRead), h.Rooms.Get)
		rooms.GET("/:id/occupants", middleware.Authorize(authz.ResourceRooms, authz.OpRead), h.Rooms.Occupants)
		rooms.POST("", adminOnly, h.Rooms.Create)
		rooms.PUT("/:id", adminOnly, h.Rooms.Update)
	}

	allocations := protected.Group("/allocations")
	allocations.Use(staffUp)
	{
		allocations.GET("", h.Allocations.List)
		allocations.POST("", h.Allocations.Allocate)
		allocations.POST("/transfer", h.Allocations.Transfer)
		allocations.POST("/end", h.Allocations.End)
	}

	attendance := protected.Group("/attendance")
	attendance.Use(staffUp)
	{
		attendance.POST("/sessions", h.Attendance.GetOrCreateSession)
		attendance.GET("/sessions/:id/records", h.Attendance.Records)
		attendance.POST("/sessions/:id/records", h.Attendance.BulkMark)
		attendance.GET("/sessions/:id/export",
			middleware.Audit(users, models.AuditActionExport, "attendance"),
			h.Attendance.Export)
	}

	leaves := protected.Group("/leaves")
	{
		leaves.GET("", anyRole, h.Leaves.List)
		leaves.POST("", anyRole, h.Leaves.Request)
		leaves.PUT("/:id/status", adminOnly, h.Leaves.Decide)
	}

	protected.GET("/search", staffUp, h.Search.Search)
	// Dashboard is optional; a nil handler means the feature is switched off.
	if h.Dashboard != nil {
		protected.GET("/dashboard", staffUp, h.Dashboard.Summary)
	}
	protected.GET("/metrics/snapshot", adminOnly, h.Metrics.Snapshot)

	r.GET("/metrics", h.Metrics.Prometheus)
}
