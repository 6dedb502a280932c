package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin           = "LOGIN"
	AuditActionLogout          = "LOGOUT"
	AuditActionPasswordChange  = "PASSWORD_CHANGE"
	AuditActionResidentCreate  = "RESIDENT_CREATE"
	AuditActionResidentUpdate  = "RESIDENT_UPDATE"
	AuditActionResidentDisable = "RESIDENT_DISABLE"
	AuditActionRoomCreate      = "ROOM_CREATE"
	AuditActionRoomUpdate      = "ROOM_UPDATE"
	AuditActionAllocate        = "ROOM_ALLOCATE"
	AuditActionTransfer        = "ROOM_TRANSFER"
	AuditActionAllocationEnd   = "ALLOCATION_END"
	AuditActionSessionCreate   = "ATTENDANCE_SESSION_CREATE"
	AuditActionBulkMark        = "ATTENDANCE_BULK_MARK"
	AuditActionExport          = "ATTENDANCE_EXPORT"
	AuditActionLeaveRequest    = "LEAVE_REQUEST"
	AuditActionLeaveDecision   = "LEAVE_DECISION"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
