package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hms-core-api/internal/models"
	appErrors "github.com/noah-isme/hms-core-api/pkg/errors"
)

type mockResidentRepo struct {
	detail      *models.ResidentDetail
	exists      bool
	disabled    []string
	disableErr  error
	unallocated []models.Resident
}

func (m *mockResidentRepo) List(ctx context.Context, filter models.ResidentFilter) ([]models.ResidentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockResidentRepo) FindByID(ctx context.Context, id string) (*models.ResidentDetail, error) {
	if m.detail == nil {
		return nil, sql.ErrNoRows
	}
	return m.detail, nil
}

func (m *mockResidentRepo) ExistsByRegNumber(ctx context.Context, regNumber string, excludeID string) (bool, error) {
	return m.exists, nil
}

func (m *mockResidentRepo) Create(ctx context.Context, resident *models.Resident) error {
	resident.ID = "res-new"
	return nil
}

func (m *mockResidentRepo) Update(ctx context.Context, resident *models.Resident) error {
	return nil
}

func (m *mockResidentRepo) Disable(ctx context.Context, id string) error {
	if m.disableErr != nil {
		return m.disableErr
	}
	m.disabled = append(m.disabled, id)
	return nil
}

func (m *mockResidentRepo) LinkUser(ctx context.Context, residentID, userID string) error {
	return nil
}

func (m *mockResidentRepo) ListUnallocated(ctx context.Context) ([]models.Resident, error) {
	return m.unallocated, nil
}

type mockActiveAllocationFinder struct {
	active *models.Allocation
	err    error
}

func (m *mockActiveAllocationFinder) FindActiveByResident(ctx context.Context, residentID string) (*models.Allocation, error) {
	return m.active, m.err
}

func TestResidentServiceDisableBlockedByActiveAllocation(t *testing.T) {
	repo := &mockResidentRepo{}
	finder := &mockActiveAllocationFinder{active: &models.Allocation{ID: "alloc-1", ResidentID: "res-1"}}
	svc := NewResidentService(repo, nil, finder, &mockAuditRecorder{}, nil, nil)

	err := svc.Disable(context.Background(), "res-1", staffClaims())

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Empty(t, repo.disabled, "resident must not be disabled while allocated")
}

func TestResidentServiceDisable(t *testing.T) {
	repo := &mockResidentRepo{}
	audit := &mockAuditRecorder{}
	svc := NewResidentService(repo, nil, &mockActiveAllocationFinder{}, audit, nil, nil)

	err := svc.Disable(context.Background(), "res-1", staffClaims())

	require.NoError(t, err)
	assert.Equal(t, []string{"res-1"}, repo.disabled)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionResidentDisable, audit.logs[0].Action)
}

func TestResidentServiceDisableUnknownResident(t *testing.T) {
	repo := &mockResidentRepo{disableErr: sql.ErrNoRows}
	svc := NewResidentService(repo, nil, &mockActiveAllocationFinder{}, &mockAuditRecorder{}, nil, nil)

	err := svc.Disable(context.Background(), "res-missing", staffClaims())

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestResidentServiceCreateDuplicateRegNumber(t *testing.T) {
	repo := &mockResidentRepo{exists: true}
	svc := NewResidentService(repo, nil, &mockActiveAllocationFinder{}, &mockAuditRecorder{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateResidentRequest{RegNumber: "HMS-001", FullName: "Ada"}, staffClaims())

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}
