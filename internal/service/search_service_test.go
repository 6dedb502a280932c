package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hms-core-api/internal/models"
	appErrors "github.com/noah-isme/hms-core-api/pkg/errors"
)

type memoryCacheRepo struct {
	entries map[string][]byte
	deletes []string
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deletes = append(m.deletes, pattern)
	return nil
}

type mockResidentSearcher struct {
	results []models.ResidentDetail
	calls   int
}

func (m *mockResidentSearcher) Search(ctx context.Context, term string, limit int) ([]models.ResidentDetail, error) {
	m.calls++
	return m.results, nil
}

type mockRoomSearcher struct {
	results []models.RoomDetail
	calls   int
}

func (m *mockRoomSearcher) Search(ctx context.Context, term string, limit int) ([]models.RoomDetail, error) {
	m.calls++
	return m.results, nil
}

func TestSearchServiceRejectsShortTerm(t *testing.T) {
	svc := NewSearchService(&mockResidentSearcher{}, &mockRoomSearcher{}, nil, time.Minute, zap.NewNop())

	_, _, err := svc.Search(context.Background(), " a ")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSearchServiceWithoutCache(t *testing.T) {
	residents := &mockResidentSearcher{results: []models.ResidentDetail{{Resident: models.Resident{ID: "res-1", FullName: "Amina Yusuf"}}}}
	rooms := &mockRoomSearcher{results: []models.RoomDetail{{Room: models.Room{ID: "room-1", Number: "A-101"}}}}
	svc := NewSearchService(residents, rooms, nil, time.Minute, zap.NewNop())

	result, cached, err := svc.Search(context.Background(), "Amina")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Len(t, result.Residents, 1)
	assert.Len(t, result.Rooms, 1)
}

func TestSearchServiceCachesSecondLookup(t *testing.T) {
	residents := &mockResidentSearcher{results: []models.ResidentDetail{{Resident: models.Resident{ID: "res-1", FullName: "Amina Yusuf"}}}}
	rooms := &mockRoomSearcher{}
	cacheRepo := &memoryCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewSearchService(residents, rooms, cache, time.Minute, zap.NewNop())

	_, cached, err := svc.Search(context.Background(), "Amina")
	require.NoError(t, err)
	assert.False(t, cached)

	// Same term with different case resolves to the same cache entry.
	result, cached, err := svc.Search(context.Background(), "aMINA")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Len(t, result.Residents, 1)
	assert.Equal(t, 1, residents.calls)
	assert.Equal(t, 1, rooms.calls)
}
