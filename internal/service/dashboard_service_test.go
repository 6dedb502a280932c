package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hms-core-api/internal/models"
)

type mockOccupancyTotals struct {
	total, occupied, maintenance int
	calls                        int
}

func (m *mockOccupancyTotals) OccupancyTotals(ctx context.Context) (int, int, int, error) {
	m.calls++
	return m.total, m.occupied, m.maintenance, nil
}

type mockUnallocatedLister struct {
	residents []models.Resident
}

func (m *mockUnallocatedLister) ListUnallocated(ctx context.Context) ([]models.Resident, error) {
	return m.residents, nil
}

type mockTodaySummary struct {
	summary models.AttendanceSummary
	date    time.Time
}

func (m *mockTodaySummary) TodaySummary(ctx context.Context, date time.Time) (*models.AttendanceSummary, error) {
	m.date = date
	return &m.summary, nil
}

type mockPendingLeaves struct {
	count  int
	filter models.LeaveFilter
}

func (m *mockPendingLeaves) List(ctx context.Context, filter models.LeaveFilter) ([]models.Leave, int, error) {
	m.filter = filter
	return nil, m.count, nil
}

func TestDashboardServiceSummary(t *testing.T) {
	rooms := &mockOccupancyTotals{total: 40, occupied: 25, maintenance: 3}
	residents := &mockUnallocatedLister{residents: []models.Resident{{}, {}}}
	attendance := &mockTodaySummary{summary: models.AttendanceSummary{Present: 70, Absent: 5, Total: 75}}
	leaves := &mockPendingLeaves{count: 4}
	svc := NewDashboardService(rooms, residents, attendance, leaves, nil, time.Minute, zap.NewNop())

	summary, cached, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 40, summary.Occupancy.TotalRooms)
	assert.Equal(t, 25, summary.Occupancy.OccupiedRooms)
	assert.Equal(t, 3, summary.Occupancy.MaintenanceRooms)
	assert.Equal(t, 2, summary.UnallocatedResidents)
	assert.Equal(t, 70, summary.TodayAttendance.Present)
	assert.Equal(t, 4, summary.PendingLeaves)
	assert.False(t, summary.GeneratedAt.IsZero())

	require.NotNil(t, leaves.filter.Status)
	assert.Equal(t, models.LeaveStatusPending, *leaves.filter.Status)
	assert.Equal(t, 1, leaves.filter.PageSize)
}

func TestDashboardServiceSummaryCached(t *testing.T) {
	rooms := &mockOccupancyTotals{total: 10, occupied: 4}
	residents := &mockUnallocatedLister{}
	attendance := &mockTodaySummary{}
	leaves := &mockPendingLeaves{}
	cache := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(rooms, residents, attendance, leaves, cache, time.Minute, zap.NewNop())

	_, cached, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)

	summary, cached, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 10, summary.Occupancy.TotalRooms)
	assert.Equal(t, 1, rooms.calls)
}
