package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hms-core-api/internal/models"
	appErrors "github.com/noah-isme/hms-core-api/pkg/errors"
)

type roomRepository interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.RoomDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.RoomDetail, error)
	ExistsByNumber(ctx context.Context, number string, excludeID string) (bool, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	Occupants(ctx context.Context, roomID string) ([]models.RoomOccupant, error)
}

// RoomService coordinates room management workflows.
type RoomService struct {
	repo      roomRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService constructs the room service.
func NewRoomService(repo roomRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &RoomService{repo: repo, audit: audit, validator: validate, logger: logger}
	svc.validator.RegisterValidation("room_type", func(fl validator.FieldLevel) bool {
		return models.RoomType(strings.ToUpper(fl.Field().String())).Valid()
	})
	return svc
}

// RoomRequest is the create/update payload. Capacity is not a field:
// it follows from the type.
type RoomRequest struct {
	Number      string `json:"number" validate:"required"`
	Type        string `json:"type" validate:"required,room_type"`
	Block       string `json:"block"`
	Floor       int    `json:"floor"`
	Maintenance bool   `json:"maintenance"`
}

// Create registers a room.
func (s *RoomService) Create(ctx context.Context, req RoomRequest, claims *models.JWTClaims) (*models.RoomDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}

	exists, err := s.repo.ExistsByNumber(ctx, req.Number, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "room number "+req.Number+" already in use")
	}

	room := &models.Room{
		Number:      req.Number,
		Type:        models.RoomType(strings.ToUpper(req.Type)),
		Block:       req.Block,
		Floor:       req.Floor,
		Maintenance: req.Maintenance,
	}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}

	s.recordAudit(ctx, claims, models.AuditActionRoomCreate, room.ID, map[string]interface{}{
		"number": room.Number,
		"type":   room.Type,
	})
	return s.Get(ctx, room.ID)
}

// Update rewrites a room's mutable fields. Shrinking the type below the
// current occupant count is rejected so the capacity invariant cannot
// be violated retroactively.
func (s *RoomService) Update(ctx context.Context, id string, req RoomRequest, claims *models.JWTClaims) (*models.RoomDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	newType := models.RoomType(strings.ToUpper(req.Type))
	if newType.Capacity() < current.OccupantCount {
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, "room holds more residents than the new type allows")
	}

	exists, err := s.repo.ExistsByNumber(ctx, req.Number, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "room number "+req.Number+" already in use")
	}

	room := &models.Room{
		ID:          id,
		Number:      req.Number,
		Type:        newType,
		Block:       req.Block,
		Floor:       req.Floor,
		Maintenance: req.Maintenance,
	}
	if err := s.repo.Update(ctx, room); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room "+id+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update room")
	}

	s.recordAudit(ctx, claims, models.AuditActionRoomUpdate, id, map[string]interface{}{
		"number":      req.Number,
		"type":        newType,
		"maintenance": req.Maintenance,
	})
	return s.Get(ctx, id)
}

// Get fetches a room with its derived occupancy.
func (s *RoomService) Get(ctx context.Context, id string) (*models.RoomDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room "+id+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch room")
	}
	return detail, nil
}

// List returns rooms with their derived snapshots.
func (s *RoomService) List(ctx context.Context, filter models.RoomFilter) ([]models.RoomDetail, *models.Pagination, error) {
	rooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return rooms, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Occupants lists the residents currently in a room.
func (s *RoomService) Occupants(ctx context.Context, roomID string) ([]models.RoomOccupant, error) {
	if _, err := s.Get(ctx, roomID); err != nil {
		return nil, err
	}
	occupants, err := s.repo.Occupants(ctx, roomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list occupants")
	}
	return occupants, nil
}

func (s *RoomService) recordAudit(ctx context.Context, claims *models.JWTClaims, action, resourceID string, detail map[string]interface{}) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(detail)
	log := &models.AuditLog{
		Action:     action,
		Resource:   "rooms",
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
