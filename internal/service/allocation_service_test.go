package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hms-core-api/internal/models"
	appErrors "github.com/noah-isme/hms-core-api/pkg/errors"
)

type mockAllocationRepo struct {
	allocation *models.Allocation
	rooms      []models.RoomOccupancy
	err        error
	records    []models.AllocationRecord
	total      int

	allocateCalls int
	transferCalls int
	endCalls      int
}

func (m *mockAllocationRepo) Allocate(ctx context.Context, residentID, roomID string, actorID *string) (*models.Allocation, []models.RoomOccupancy, error) {
	m.allocateCalls++
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.allocation, m.rooms, nil
}

func (m *mockAllocationRepo) Transfer(ctx context.Context, residentID, roomID string, actorID *string) (*models.Allocation, []models.RoomOccupancy, error) {
	m.transferCalls++
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.allocation, m.rooms, nil
}

func (m *mockAllocationRepo) End(ctx context.Context, residentID string) (*models.Allocation, []models.RoomOccupancy, error) {
	m.endCalls++
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.allocation, m.rooms, nil
}

func (m *mockAllocationRepo) List(ctx context.Context, filter models.AllocationFilter) ([]models.AllocationRecord, int, error) {
	return m.records, m.total, nil
}

type mockAuditRecorder struct {
	logs []models.AuditLog
	err  error
}

func (m *mockAuditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, *log)
	return nil
}

type mockCacheInvalidator struct {
	patterns []string
}

func (m *mockCacheInvalidator) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

func newAllocationFixture(repo *mockAllocationRepo) (*AllocationService, *mockAuditRecorder, *mockCacheInvalidator) {
	audit := &mockAuditRecorder{}
	cache := &mockCacheInvalidator{}
	svc := NewAllocationService(repo, audit, cache, validator.New(), zap.NewNop())
	return svc, audit, cache
}

func staffClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Role: models.RoleStaff}
}

func TestAllocationServiceAllocate(t *testing.T) {
	repo := &mockAllocationRepo{
		allocation: &models.Allocation{ID: "alloc-1", ResidentID: "res-1", RoomID: "room-1"},
		rooms:      []models.RoomOccupancy{{RoomID: "room-1", OccupantCount: 1, Status: models.RoomStatusOccupied}},
	}
	svc, audit, cache := newAllocationFixture(repo)

	result, err := svc.Allocate(context.Background(), AllocateRequest{ResidentID: "res-1", RoomID: "room-1"}, staffClaims())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "alloc-1", result.Allocation.ID)
	assert.Len(t, result.Rooms, 1)
	assert.Equal(t, models.RoomStatusOccupied, result.Rooms[0].Status)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionAllocate, audit.logs[0].Action)
	require.NotNil(t, audit.logs[0].UserID)
	assert.Equal(t, "user-1", *audit.logs[0].UserID)

	assert.Contains(t, cache.patterns, "search:*")
	assert.Contains(t, cache.patterns, "dashboard:*")
}

func TestAllocationServiceAllocateValidation(t *testing.T) {
	repo := &mockAllocationRepo{}
	svc, audit, _ := newAllocationFixture(repo)

	_, err := svc.Allocate(context.Background(), AllocateRequest{ResidentID: "res-1"}, staffClaims())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Zero(t, repo.allocateCalls)
	assert.Empty(t, audit.logs)
}

func TestAllocationServiceAllocateRepoErrorPassthrough(t *testing.T) {
	repo := &mockAllocationRepo{err: appErrors.ErrCapacityExceeded}
	svc, audit, cache := newAllocationFixture(repo)

	_, err := svc.Allocate(context.Background(), AllocateRequest{ResidentID: "res-1", RoomID: "room-1"}, staffClaims())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)
	assert.Empty(t, audit.logs)
	assert.Empty(t, cache.patterns)
}

func TestAllocationServiceTransfer(t *testing.T) {
	repo := &mockAllocationRepo{
		allocation: &models.Allocation{ID: "alloc-2", ResidentID: "res-1", RoomID: "room-2"},
		rooms: []models.RoomOccupancy{
			{RoomID: "room-1", OccupantCount: 0, Status: models.RoomStatusVacant},
			{RoomID: "room-2", OccupantCount: 1, Status: models.RoomStatusOccupied},
		},
	}
	svc, audit, _ := newAllocationFixture(repo)

	result, err := svc.Transfer(context.Background(), AllocateRequest{ResidentID: "res-1", RoomID: "room-2"}, staffClaims())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.transferCalls)
	assert.Len(t, result.Rooms, 2)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionTransfer, audit.logs[0].Action)
}

func TestAllocationServiceEnd(t *testing.T) {
	repo := &mockAllocationRepo{
		allocation: &models.Allocation{ID: "alloc-1", ResidentID: "res-1", RoomID: "room-1"},
		rooms:      []models.RoomOccupancy{{RoomID: "room-1", OccupantCount: 0, Status: models.RoomStatusVacant}},
	}
	svc, audit, cache := newAllocationFixture(repo)

	result, err := svc.End(context.Background(), EndAllocationRequest{ResidentID: "res-1"}, staffClaims())
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusVacant, result.Rooms[0].Status)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionAllocationEnd, audit.logs[0].Action)
	assert.NotEmpty(t, cache.patterns)
}

func TestAllocationServiceListDefaultsPagination(t *testing.T) {
	repo := &mockAllocationRepo{
		records: []models.AllocationRecord{{Allocation: models.Allocation{ID: "alloc-1"}}},
		total:   1,
	}
	svc, _, _ := newAllocationFixture(repo)

	records, pagination, err := svc.List(context.Background(), models.AllocationFilter{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	require.NotNil(t, pagination)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}
