package service

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hms-core-api/internal/models"
	appErrors "github.com/noah-isme/hms-core-api/pkg/errors"
)

type allocationRepository interface {
	Allocate(ctx context.Context, residentID, roomID string, actorID *string) (*models.Allocation, []models.RoomOccupancy, error)
	Transfer(ctx context.Context, residentID, roomID string, actorID *string) (*models.Allocation, []models.RoomOccupancy, error)
	End(ctx context.Context, residentID string) (*models.Allocation, []models.RoomOccupancy, error)
	List(ctx context.Context, filter models.AllocationFilter) ([]models.AllocationRecord, int, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// AllocationService coordinates room allocation workflows. The
// invariant-preserving work happens inside the repository transaction;
// this layer validates input, emits audit entries and invalidates
// derived caches.
type AllocationService struct {
	repo      allocationRepository
	audit     auditRecorder
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAllocationService constructs the allocation service.
func NewAllocationService(repo allocationRepository, audit auditRecorder, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *AllocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

// AllocateRequest is the payload for allocation and transfer calls.
type AllocateRequest struct {
	ResidentID string `json:"resident_id" validate:"required"`
	RoomID     string `json:"room_id" validate:"required"`
}

// EndAllocationRequest closes a resident's active allocation.
type EndAllocationRequest struct {
	ResidentID string `json:"resident_id" validate:"required"`
}

// AllocationResult returns the written allocation plus the recounted
// occupancy snapshots of every affected room.
type AllocationResult struct {
	Allocation *models.Allocation     `json:"allocation"`
	Rooms      []models.RoomOccupancy `json:"rooms"`
}

// Allocate places a resident into a room. Residents already holding an
// active allocation are rejected; Transfer is the explicit move path.
func (s *AllocationService) Allocate(ctx context.Context, req AllocateRequest, claims *models.JWTClaims) (*AllocationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation payload")
	}

	actorID := actorFromClaims(claims)
	allocation, rooms, err := s.repo.Allocate(ctx, req.ResidentID, req.RoomID, actorID)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, claims, models.AuditActionAllocate, "allocations", allocation.ID, map[string]interface{}{
		"resident_id": req.ResidentID,
		"room_id":     req.RoomID,
	})
	s.invalidate(ctx)

	s.logger.Info("room allocated",
		zap.String("resident_id", req.ResidentID),
		zap.String("room_id", req.RoomID),
	)
	return &AllocationResult{Allocation: allocation, Rooms: rooms}, nil
}

// Transfer moves an allocated resident to a different room, ending the
// previous stay in the same transaction.
func (s *AllocationService) Transfer(ctx context.Context, req AllocateRequest, claims *models.JWTClaims) (*AllocationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transfer payload")
	}

	actorID := actorFromClaims(claims)
	allocation, rooms, err := s.repo.Transfer(ctx, req.ResidentID, req.RoomID, actorID)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, claims, models.AuditActionTransfer, "allocations", allocation.ID, map[string]interface{}{
		"resident_id": req.ResidentID,
		"room_id":     req.RoomID,
	})
	s.invalidate(ctx)

	s.logger.Info("resident transferred",
		zap.String("resident_id", req.ResidentID),
		zap.String("room_id", req.RoomID),
	)
	return &AllocationResult{Allocation: allocation, Rooms: rooms}, nil
}

// End closes a resident's active allocation.
func (s *AllocationService) End(ctx context.Context, req EndAllocationRequest, claims *models.JWTClaims) (*AllocationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end-allocation payload")
	}

	allocation, rooms, err := s.repo.End(ctx, req.ResidentID)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, claims, models.AuditActionAllocationEnd, "allocations", allocation.ID, map[string]interface{}{
		"resident_id": req.ResidentID,
		"room_id":     allocation.RoomID,
	})
	s.invalidate(ctx)

	return &AllocationResult{Allocation: allocation, Rooms: rooms}, nil
}

// List returns allocation history.
func (s *AllocationService) List(ctx context.Context, filter models.AllocationFilter) ([]models.AllocationRecord, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list allocations")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return records, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *AllocationService) recordAudit(ctx context.Context, claims *models.JWTClaims, action, resource, resourceID string, detail map[string]interface{}) {
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

func (s *AllocationService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, pattern := range []string{"search:*", "dashboard:*"} {
		if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
			s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}

func actorFromClaims(claims *models.JWTClaims) *string {
	if claims == nil {
		return nil
	}
	id := claims.UserID
	return &id
}
