package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/hms-core-api/internal/models"
	appErrors "github.com/noah-isme/hms-core-api/pkg/errors"
)

type residentRepository interface {
	List(ctx context.Context, filter models.ResidentFilter) ([]models.ResidentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.ResidentDetail, error)
	ExistsByRegNumber(ctx context.Context, regNumber string, excludeID string) (bool, error)
	Create(ctx context.Context, resident *models.Resident) error
	Update(ctx context.Context, resident *models.Resident) error
	Disable(ctx context.Context, id string) error
	LinkUser(ctx context.Context, residentID, userID string) error
	ListUnallocated(ctx context.Context) ([]models.Resident, error)
}

type accountProvisioner interface {
	CreateUser(ctx context.Context, user *models.User, role models.UserRole, residentID *string) error
}

type activeAllocationFinder interface {
	FindActiveByResident(ctx context.Context, residentID string) (*models.Allocation, error)
}

// ResidentService coordinates resident lifecycle workflows.
type ResidentService struct {
	repo        residentRepository
	accounts    accountProvisioner
	allocations activeAllocationFinder
	audit       auditRecorder
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewResidentService constructs the resident service.
func NewResidentService(repo residentRepository, accounts accountProvisioner, allocations activeAllocationFinder, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *ResidentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResidentService{repo: repo, accounts: accounts, allocations: allocations, audit: audit, validator: validate, logger: logger}
}

// CreateResidentRequest is the enrollment payload. When Password is
// set, a linked user account with the RESIDENT role binding is
// provisioned alongside the record.
type CreateResidentRequest struct {
	RegNumber string `json:"reg_number" validate:"required"`
	FullName  string `json:"full_name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
	Course    string `json:"course"`
	Year      *int   `json:"year" validate:"omitempty,min=1"`
	Password  string `json:"password" validate:"omitempty,min=6"`
}

// UpdateResidentRequest rewrites the mutable resident fields.
type UpdateResidentRequest struct {
	RegNumber string `json:"reg_number" validate:"required"`
	FullName  string `json:"full_name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
	Course    string `json:"course"`
	Year      *int   `json:"year" validate:"omitempty,min=1"`
	Active    bool   `json:"active"`
}

// Create enrolls a resident, optionally provisioning a login.
func (s *ResidentService) Create(ctx context.Context, req CreateResidentRequest, claims *models.JWTClaims) (*models.Resident, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resident payload")
	}

	exists, err := s.repo.ExistsByRegNumber(ctx, req.RegNumber, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration number "+req.RegNumber+" already in use")
	}

	resident := &models.Resident{
		RegNumber: req.RegNumber,
		FullName:  req.FullName,
		Email:     req.Email,
		Phone:     req.Phone,
		Course:    req.Course,
		Year:      req.Year,
		Active:    true,
	}
	if err := s.repo.Create(ctx, resident); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create resident")
	}

	if req.Password != "" && req.Email != "" && s.accounts != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		user := &models.User{
			Email:        req.Email,
			PasswordHash: string(hash),
			FullName:     req.FullName,
			Active:       true,
		}
		if err := s.accounts.CreateUser(ctx, user, models.RoleResident, &resident.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to provision account")
		}
		if err := s.repo.LinkUser(ctx, resident.ID, user.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link account")
		}
		resident.UserID = &user.ID
	}

	s.recordAudit(ctx, claims, models.AuditActionResidentCreate, resident.ID, map[string]interface{}{
		"reg_number": resident.RegNumber,
		"full_name":  resident.FullName,
	})
	return resident, nil
}

// Update rewrites a resident's mutable fields.
func (s *ResidentService) Update(ctx context.Context, id string, req UpdateResidentRequest, claims *models.JWTClaims) (*models.ResidentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resident payload")
	}

	exists, err := s.repo.ExistsByRegNumber(ctx, req.RegNumber, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration number "+req.RegNumber+" already in use")
	}

	resident := &models.Resident{
		ID:        id,
		RegNumber: req.RegNumber,
		FullName:  req.FullName,
		Email:     req.Email,
		Phone:     req.Phone,
		Course:    req.Course,
		Year:      req.Year,
		Active:    req.Active,
	}
	if err := s.repo.Update(ctx, resident); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resident "+id+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update resident")
	}

	s.recordAudit(ctx, claims, models.AuditActionResidentUpdate, id, map[string]interface{}{
		"reg_number": req.RegNumber,
	})
	return s.Get(ctx, id)
}

// Disable soft-disables a resident, preserving history. A resident
// still holding an active allocation must be checked out first.
func (s *ResidentService) Disable(ctx context.Context, id string, claims *models.JWTClaims) error {
	if s.allocations != nil {
		active, err := s.allocations.FindActiveByResident(ctx, id)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active allocation")
		}
		if active != nil {
			return appErrors.Clone(appErrors.ErrConflict, "resident "+id+" still holds an active allocation")
		}
	}
	if err := s.repo.Disable(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "resident "+id+" not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to disable resident")
	}
	s.recordAudit(ctx, claims, models.AuditActionResidentDisable, id, nil)
	return nil
}

// Get fetches a resident with allocation context.
func (s *ResidentService) Get(ctx context.Context, id string) (*models.ResidentDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resident "+id+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch resident")
	}
	return detail, nil
}

// List returns residents matching the filter.
func (s *ResidentService) List(ctx context.Context, filter models.ResidentFilter) ([]models.ResidentDetail, *models.Pagination, error) {
	residents, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list residents")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return residents, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Unallocated lists active residents without an active allocation.
func (s *ResidentService) Unallocated(ctx context.Context) ([]models.Resident, error) {
	residents, err := s.repo.ListUnallocated(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unallocated residents")
	}
	return residents, nil
}

func (s *ResidentService) recordAudit(ctx context.Context, claims *models.JWTClaims, action, resourceID string, detail map[string]interface{}) {
	if s.audit == nil {
		return
	}
	var payload []byte
	if detail != nil {
		payload, _ = json.Marshal(detail)
	}
	log := &models.AuditLog{
		Action:     action,
		Resource:   "residents",
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
