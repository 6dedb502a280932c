package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hms-core-api/internal/models"
	appErrors "github.com/noah-isme/hms-core-api/pkg/errors"
)

const searchResultLimit = 20

type residentSearcher interface {
	Search(ctx context.Context, term string, limit int) ([]models.ResidentDetail, error)
}

type roomSearcher interface {
	Search(ctx context.Context, term string, limit int) ([]models.RoomDetail, error)
}

// SearchService runs cross-entity lookups over residents and rooms with a
// short-lived cache in front of the repositories.
type SearchService struct {
	residents residentSearcher
	rooms     roomSearcher
	cache     *CacheService
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewSearchService constructs a search service.
func NewSearchService(residents residentSearcher, rooms roomSearcher, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *SearchService {
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{residents: residents, rooms: rooms, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Search returns residents and rooms matching the term. The boolean return
// reports whether the payload was served from cache.
func (s *SearchService) Search(ctx context.Context, term string) (*models.SearchResult, bool, error) {
	term = strings.TrimSpace(term)
	if len(term) < 2 {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "search term must be at least 2 characters")
	}

	cacheKey := fmt.Sprintf("search:%s", strings.ToLower(term))
	if s.cache != nil {
		var cached models.SearchResult
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	residents, err := s.residents.Search(ctx, term, searchResultLimit)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search residents")
	}
	rooms, err := s.rooms.Search(ctx, term, searchResultLimit)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search rooms")
	}

	result := &models.SearchResult{Residents: residents, Rooms: rooms}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, result, s.cacheTTL); err != nil {
			s.logger.Warn("search cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return result, false, nil
}
