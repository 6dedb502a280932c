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

type leaveRepository interface {
	Create(ctx context.Context, leave *models.Leave) error
	FindByID(ctx context.Context, id string) (*models.Leave, error)
	Decide(ctx context.Context, id string, status models.LeaveStatus, decidedBy string, decidedAt time.Time) error
	List(ctx context.Context, filter models.LeaveFilter) ([]models.Leave, int, error)
}

// LeaveService coordinates leave request workflows. Leaves inform
// excused-absence review; nothing here writes attendance.
type LeaveService struct {
	repo      leaveRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLeaveService constructs the leave service.
func NewLeaveService(repo leaveRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaveService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// LeaveRequestPayload opens a leave request.
type LeaveRequestPayload struct {
	ResidentID string `json:"resident_id" validate:"required"`
	StartDate  string `json:"start_date" validate:"required"`
	EndDate    string `json:"end_date" validate:"required"`
	Reason     string `json:"reason" validate:"required"`
}

// LeaveDecisionPayload approves or rejects a pending leave.
type LeaveDecisionPayload struct {
	Status string `json:"status" validate:"required,oneof=APPROVED REJECTED approved rejected"`
}

// Request opens a leave request. Residents may only file for
// themselves; staff and admins may file on behalf of anyone.
func (s *LeaveService) Request(ctx context.Context, req LeaveRequestPayload, claims *models.JWTClaims) (*models.Leave, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrInvalidDateRange, "leave ends before it starts")
	}

	if claims != nil && claims.Role == models.RoleResident {
		sub := authz.Subject{UserID: claims.UserID, Role: claims.Role, ResidentID: claims.ResidentID}
		if !authz.Decide(sub, authz.ResourceLeaves, authz.OpWrite, &req.ResidentID) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "residents may only request leave for themselves")
		}
	}

	leave := &models.Leave{
		ResidentID: req.ResidentID,
		StartDate:  start,
		EndDate:    end,
		Reason:     req.Reason,
		Status:     models.LeaveStatusPending,
	}
	if err := s.repo.Create(ctx, leave); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create leave")
	}

	s.recordAudit(ctx, claims, models.AuditActionLeaveRequest, leave.ID, map[string]interface{}{
		"resident_id": req.ResidentID,
		"start_date":  req.StartDate,
		"end_date":    req.EndDate,
	})
	return leave, nil
}

// Decide approves or rejects a pending leave.
func (s *LeaveService) Decide(ctx context.Context, id string, req LeaveDecisionPayload, claims *models.JWTClaims) (*models.Leave, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}

	status := models.LeaveStatus(strings.ToUpper(req.Status))
	if err := s.repo.Decide(ctx, id, status, claims.UserID, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pending leave "+id+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decide leave")
	}

	s.recordAudit(ctx, claims, models.AuditActionLeaveDecision, id, map[string]interface{}{
		"status": status,
	})

	leave, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch leave")
	}
	return leave, nil
}

// List returns leaves matching the filter. Residents are constrained to
// their own rows.
func (s *LeaveService) List(ctx context.Context, filter models.LeaveFilter, claims *models.JWTClaims) ([]models.Leave, *models.Pagination, error) {
	if claims != nil && claims.Role == models.RoleResident {
		if claims.ResidentID == nil {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "no resident record linked to this account")
		}
		filter.ResidentID = *claims.ResidentID
	}

	leaves, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leaves")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return leaves, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *LeaveService) recordAudit(ctx context.Context, claims *models.JWTClaims, action, resourceID string, detail map[string]interface{}) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(detail)
	log := &models.AuditLog{
		Action:     action,
		Resource:   "leaves",
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
