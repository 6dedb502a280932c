package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hms-core-api/internal/authz"
	"github.com/noah-isme/hms-core-api/internal/models"
	appErrors "github.com/noah-isme/hms-core-api/pkg/errors"
)

type attendanceRepository interface {
	GetOrCreateSession(ctx context.Context, date time.Time, sessionType models.SessionType, scope models.SessionScope, createdBy *string) (*models.AttendanceSession, bool, error)
	FindSessionByID(ctx context.Context, id string) (*models.AttendanceSession, error)
	BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error
	ListRecords(ctx context.Context, sessionID string) ([]models.AttendanceRecordRow, error)
	Calendar(ctx context.Context, residentID string, month, year int) ([]models.AttendanceCalendarEntry, error)
	SessionSummary(ctx context.Context, sessionID string) (*models.AttendanceSummary, error)
}

// AttendanceService coordinates attendance session and record workflows.
type AttendanceService struct {
	repo      attendanceRepository
	audit     auditRecorder
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, audit auditRecorder, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AttendanceService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
	svc.validator.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(strings.ToUpper(fl.Field().String())).Valid()
	})
	svc.validator.RegisterValidation("session_type", func(fl validator.FieldLevel) bool {
		return models.SessionType(strings.ToUpper(fl.Field().String())).Valid()
	})
	return svc
}

// SessionScopeRequest narrows a session to part of the facility.
type SessionScopeRequest struct {
	Block  string `json:"block"`
	RoomID string `json:"room_id"`
	Course string `json:"course"`
	Year   int    `json:"year" validate:"omitempty,min=1"`
}

// GetOrCreateSessionRequest identifies a session by its key tuple.
type GetOrCreateSessionRequest struct {
	Date  string               `json:"date" validate:"required"`
	Type  string               `json:"type" validate:"required,session_type"`
	Scope *SessionScopeRequest `json:"scope"`
}

// BulkMarkItem holds one resident's record within a batch.
type BulkMarkItem struct {
	ResidentID  string  `json:"resident_id" validate:"required"`
	Status      string  `json:"status" validate:"required,attendance_status"`
	Note        *string `json:"note"`
	LateMinutes int     `json:"late_minutes" validate:"omitempty,min=0"`
}

// BulkMarkRequest describes the bulk mark payload.
type BulkMarkRequest struct {
	Items []BulkMarkItem `json:"items" validate:"required,min=1,dive"`
}

// GetOrCreateSession resolves the session for the key, creating it when
// absent. Idempotent: concurrent callers with the same key receive the
// same session id.
func (s *AttendanceService) GetOrCreateSession(ctx context.Context, req GetOrCreateSessionRequest, claims *models.JWTClaims) (*models.AttendanceSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	scope := models.SessionScope{}
	if req.Scope != nil {
		scope = models.SessionScope{
			Block:  req.Scope.Block,
			RoomID: req.Scope.RoomID,
			Course: req.Scope.Course,
			Year:   req.Scope.Year,
		}
	}

	session, created, err := s.repo.GetOrCreateSession(ctx, date, models.SessionType(strings.ToUpper(req.Type)), scope, actorFromClaims(claims))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve attendance session")
	}

	if created {
		s.recordAudit(ctx, claims, models.AuditActionSessionCreate, "attendance_sessions", session.ID, map[string]interface{}{
			"date": req.Date,
			"type": req.Type,
		})
	}
	return session, nil
}

// BulkMark applies a batch of records to a session as one transaction.
// Re-applying an identical batch is a no-op in effect.
func (s *AttendanceService) BulkMark(ctx context.Context, sessionID string, req BulkMarkRequest, claims *models.JWTClaims) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk mark payload")
	}
	if claims == nil {
		return appErrors.ErrUnauthorized
	}

	if _, err := s.repo.FindSessionByID(ctx, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "attendance session "+sessionID+" not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch attendance session")
	}

	seen := make(map[string]struct{}, len(req.Items))
	records := make([]models.AttendanceRecord, 0, len(req.Items))
	now := time.Now().UTC()
	for _, item := range req.Items {
		// Last entry wins within a batch, matching the upsert semantics.
		if _, dup := seen[item.ResidentID]; dup {
			for i := range records {
				if records[i].ResidentID == item.ResidentID {
					records[i].Status = models.AttendanceStatus(strings.ToUpper(item.Status))
					records[i].Note = item.Note
					records[i].LateMinutes = item.LateMinutes
				}
			}
			continue
		}
		seen[item.ResidentID] = struct{}{}
		records = append(records, models.AttendanceRecord{
			SessionID:   sessionID,
			ResidentID:  item.ResidentID,
			Status:      models.AttendanceStatus(strings.ToUpper(item.Status)),
			Note:        item.Note,
			LateMinutes: item.LateMinutes,
			MarkedBy:    claims.UserID,
			MarkedAt:    now,
		})
	}

	// A typed repository error (missing referenced resident) keeps its
	// code; anything else is an internal failure.
	if err := s.repo.BulkUpsert(ctx, records); err != nil {
		return appErrors.FromError(err)
	}

	s.recordAudit(ctx, claims, models.AuditActionBulkMark, "attendance_records", sessionID, map[string]interface{}{
		"session_id": sessionID,
		"count":      len(records),
	})
	s.invalidate(ctx)

	s.logger.Info("attendance marked", zap.String("session_id", sessionID), zap.Int("records", len(records)))
	return nil
}

// SessionRecords lists a session's records with its summary.
func (s *AttendanceService) SessionRecords(ctx context.Context, sessionID string) ([]models.AttendanceRecordRow, *models.AttendanceSummary, error) {
	if _, err := s.repo.FindSessionByID(ctx, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "attendance session "+sessionID+" not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch attendance session")
	}
	rows, err := s.repo.ListRecords(ctx, sessionID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list records")
	}
	summary, err := s.repo.SessionSummary(ctx, sessionID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise session")
	}
	return rows, summary, nil
}

// Calendar returns a resident's month of attendance, access-checked
// against the caller's resident link.
func (s *AttendanceService) Calendar(ctx context.Context, residentID string, month, year int, claims *models.JWTClaims) ([]models.AttendanceCalendarEntry, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	sub := authz.Subject{UserID: claims.UserID, Role: claims.Role, ResidentID: claims.ResidentID}
	if !authz.CanAccessResident(sub, residentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "residents may only view their own attendance")
	}
	if month < 1 || month > 12 || year < 2000 || year > 2200 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid month or year")
	}
	entries, err := s.repo.Calendar(ctx, residentID, month, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar")
	}
	return entries, nil
}

func (s *AttendanceService) recordAudit(ctx context.Context, claims *models.JWTClaims, action, resource, resourceID string, detail map[string]interface{}) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(detail)
	log := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		NewValues:  payload,
	}
	if claims != nil {
		log.UserID = &claims.UserID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *AttendanceService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}
