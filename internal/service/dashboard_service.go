package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hms-core-api/internal/models"
	appErrors "github.com/noah-isme/hms-core-api/pkg/errors"
)

type occupancyTotalsProvider interface {
	OccupancyTotals(ctx context.Context) (totalRooms, occupied, maintenance int, err error)
}

type unallocatedLister interface {
	ListUnallocated(ctx context.Context) ([]models.Resident, error)
}

type todaySummaryProvider interface {
	TodaySummary(ctx context.Context, day time.Time) (*models.AttendanceSummary, error)
}

type pendingLeaveCounter interface {
	List(ctx context.Context, filter models.LeaveFilter) ([]models.Leave, int, error)
}

// DashboardService composes the operational overview: occupancy totals,
// unallocated residents, today's attendance counts and pending leaves.
type DashboardService struct {
	rooms      occupancyTotalsProvider
	residents  unallocatedLister
	attendance todaySummaryProvider
	leaves     pendingLeaveCounter
	cache      *CacheService
	cacheTTL   time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(rooms occupancyTotalsProvider, residents unallocatedLister, attendance todaySummaryProvider, leaves pendingLeaveCounter, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		rooms:      rooms,
		residents:  residents,
		attendance: attendance,
		leaves:     leaves,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Summary returns the dashboard payload and indicates cache utilisation.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, bool, error) {
	const cacheKey = "dashboard:summary"
	if s.cache != nil {
		var cached models.DashboardSummary
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	summary, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, false, nil
}

func (s *DashboardService) compose(ctx context.Context) (*models.DashboardSummary, error) {
	totalRooms, occupied, maintenance, err := s.rooms.OccupancyTotals(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occupancy totals")
	}

	unallocated, err := s.residents.ListUnallocated(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unallocated residents")
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	attendance, err := s.attendance.TodaySummary(ctx, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance summary")
	}

	pending := models.LeaveStatusPending
	_, pendingCount, err := s.leaves.List(ctx, models.LeaveFilter{Status: &pending, Page: 1, PageSize: 1})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending leaves")
	}

	return &models.DashboardSummary{
		Occupancy: models.OccupancySnapshot{
			TotalRooms:       totalRooms,
			OccupiedRooms:    occupied,
			MaintenanceRooms: maintenance,
		},
		UnallocatedResidents: len(unallocated),
		TodayAttendance:      *attendance,
		PendingLeaves:        pendingCount,
		GeneratedAt:          s.now().UTC(),
	}, nil
}
