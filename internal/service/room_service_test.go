package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hms-core-api/internal/models"
	appErrors "github.com/noah-isme/hms-core-api/pkg/errors"
)

type mockRoomRepo struct {
	rooms     map[string]*models.RoomDetail
	numbers   map[string]bool
	occupants []models.RoomOccupant
	created   *models.Room
	updated   *models.Room
}

func (m *mockRoomRepo) List(ctx context.Context, filter models.RoomFilter) ([]models.RoomDetail, int, error) {
	out := make([]models.RoomDetail, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (m *mockRoomRepo) FindByID(ctx context.Context, id string) (*models.RoomDetail, error) {
	if r, ok := m.rooms[id]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRoomRepo) ExistsByNumber(ctx context.Context, number string, excludeID string) (bool, error) {
	return m.numbers[number], nil
}

func (m *mockRoomRepo) Create(ctx context.Context, room *models.Room) error {
	if room.ID == "" {
		room.ID = "room-new"
	}
	if m.rooms == nil {
		m.rooms = make(map[string]*models.RoomDetail)
	}
	detail := &models.RoomDetail{Room: *room}
	detail.Derive()
	m.rooms[room.ID] = detail
	m.created = room
	return nil
}

func (m *mockRoomRepo) Update(ctx context.Context, room *models.Room) error {
	existing, ok := m.rooms[room.ID]
	if !ok {
		return sql.ErrNoRows
	}
	existing.Room = *room
	existing.Derive()
	m.updated = room
	return nil
}

func (m *mockRoomRepo) Occupants(ctx context.Context, roomID string) ([]models.RoomOccupant, error) {
	return m.occupants, nil
}

func newRoomFixture(repo *mockRoomRepo) (*RoomService, *mockAuditRecorder) {
	audit := &mockAuditRecorder{}
	svc := NewRoomService(repo, audit, validator.New(), zap.NewNop())
	return svc, audit
}

func TestRoomServiceCreate(t *testing.T) {
	repo := &mockRoomRepo{}
	svc, audit := newRoomFixture(repo)

	detail, err := svc.Create(context.Background(), RoomRequest{Number: "A-101", Type: "double", Block: "A", Floor: 1}, staffClaims())
	require.NoError(t, err)
	assert.Equal(t, models.RoomTypeDouble, detail.Type)
	assert.Equal(t, 2, detail.Capacity)
	assert.Equal(t, models.RoomStatusVacant, detail.Status)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionRoomCreate, audit.logs[0].Action)
}

func TestRoomServiceCreateDuplicateNumber(t *testing.T) {
	repo := &mockRoomRepo{numbers: map[string]bool{"A-101": true}}
	svc, audit := newRoomFixture(repo)

	_, err := svc.Create(context.Background(), RoomRequest{Number: "A-101", Type: "SINGLE"}, staffClaims())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Empty(t, audit.logs)
}

func TestRoomServiceCreateRejectsUnknownType(t *testing.T) {
	svc, _ := newRoomFixture(&mockRoomRepo{})

	_, err := svc.Create(context.Background(), RoomRequest{Number: "A-101", Type: "PENTHOUSE"}, staffClaims())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestRoomServiceUpdateRejectsCapacityShrink(t *testing.T) {
	repo := &mockRoomRepo{
		rooms: map[string]*models.RoomDetail{
			"room-1": {
				Room:          models.Room{ID: "room-1", Number: "A-101", Type: models.RoomTypeTriple},
				OccupantCount: 3,
			},
		},
	}
	svc, audit := newRoomFixture(repo)

	_, err := svc.Update(context.Background(), "room-1", RoomRequest{Number: "A-101", Type: "DOUBLE"}, staffClaims())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)
	assert.Nil(t, repo.updated)
	assert.Empty(t, audit.logs)
}

func TestRoomServiceUpdate(t *testing.T) {
	repo := &mockRoomRepo{
		rooms: map[string]*models.RoomDetail{
			"room-1": {
				Room:          models.Room{ID: "room-1", Number: "A-101", Type: models.RoomTypeDouble},
				OccupantCount: 1,
			},
		},
	}
	svc, audit := newRoomFixture(repo)

	detail, err := svc.Update(context.Background(), "room-1", RoomRequest{Number: "A-102", Type: "QUAD", Maintenance: true}, staffClaims())
	require.NoError(t, err)
	assert.Equal(t, "A-102", detail.Number)
	assert.Equal(t, models.RoomTypeQuad, detail.Type)
	assert.Equal(t, models.RoomStatusMaintenance, detail.Status)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionRoomUpdate, audit.logs[0].Action)
}

func TestRoomServiceGetMissing(t *testing.T) {
	svc, _ := newRoomFixture(&mockRoomRepo{})

	_, err := svc.Get(context.Background(), "nope")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
