package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hms-core-api/internal/models"
)

// RoomRepository manages persistence for rooms. Occupant counts and
// statuses are computed from allocation rows on every read; rooms carry
// no stored counter that could drift.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

const roomDetailColumns = `r.id, r.number, r.room_type, r.block, r.floor, r.maintenance, r.created_at, r.updated_at,
        COUNT(a.id) AS occupant_count`

const roomDetailGroup = `GROUP BY r.id, r.number, r.room_type, r.block, r.floor, r.maintenance, r.created_at, r.updated_at`

// List returns rooms with their derived occupancy snapshot.
func (r *RoomRepository) List(ctx context.Context, filter models.RoomFilter) ([]models.RoomDetail, int, error) {
	base := `FROM rooms r LEFT JOIN allocations a ON a.room_id = r.id AND a.ended_at IS NULL`
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Block != "" {
		conditions = append(conditions, fmt.Sprintf("r.block = $%d", len(args)+1))
		args = append(args, filter.Block)
	}
	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("r.room_type = $%d", len(args)+1))
		args = append(args, *filter.Type)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(r.number) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	// Status is never stored, so the filter is expressed against the
	// maintenance flag and the live occupant count.
	having := ""
	if filter.Status != nil {
		switch *filter.Status {
		case models.RoomStatusMaintenance:
			conditions = append(conditions, "r.maintenance")
		case models.RoomStatusOccupied:
			conditions = append(conditions, "NOT r.maintenance")
			having = "HAVING COUNT(a.id) > 0"
		case models.RoomStatusVacant:
			conditions = append(conditions, "NOT r.maintenance")
			having = "HAVING COUNT(a.id) = 0"
		}
	}

	where := strings.Join(conditions, " AND ")

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"number":     "r.number",
		"block":      "r.block",
		"created_at": "r.created_at",
	}
	if sortBy == "" {
		sortBy = "number"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "r.number"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s WHERE %s %s %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		roomDetailColumns, base, where, roomDetailGroup, having, column, order, size, offset)

	var rooms []models.RoomDetail
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rooms: %w", err)
	}
	for i := range rooms {
		rooms[i].Derive()
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM (SELECT r.id %s WHERE %s %s %s) AS filtered",
		base, where, roomDetailGroup, having)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count rooms: %w", err)
	}
	return rooms, total, nil
}

// FindByID fetches a room with its derived occupancy.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.RoomDetail, error) {
	query := fmt.Sprintf(`SELECT %s
FROM rooms r LEFT JOIN allocations a ON a.room_id = r.id AND a.ended_at IS NULL
WHERE r.id = $1 %s`, roomDetailColumns, roomDetailGroup)
	var detail models.RoomDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	detail.Derive()
	return &detail, nil
}

// ExistsByNumber checks room number uniqueness.
func (r *RoomRepository) ExistsByNumber(ctx context.Context, number string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM rooms WHERE number = $1"
	args := []interface{}{number}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var one int
	if err := r.db.GetContext(ctx, &one, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check room number: %w", err)
	}
	return true, nil
}

// Create inserts a room row.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	now := time.Now().UTC()
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	room.CreatedAt = now
	room.UpdatedAt = now
	const query = `INSERT INTO rooms (id, number, room_type, block, floor, maintenance, created_at, updated_at)
VALUES (:id, :number, :room_type, :block, :floor, :maintenance, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a room.
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	room.UpdatedAt = time.Now().UTC()
	const query = `UPDATE rooms SET number = :number, room_type = :room_type, block = :block, floor = :floor,
maintenance = :maintenance, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, room)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Occupants lists residents currently allocated to the room.
func (r *RoomRepository) Occupants(ctx context.Context, roomID string) ([]models.RoomOccupant, error) {
	const query = `SELECT a.resident_id, s.full_name AS resident_name, s.reg_number, a.started_at AS allocated_at
FROM allocations a
JOIN residents s ON s.id = a.resident_id
WHERE a.room_id = $1 AND a.ended_at IS NULL
ORDER BY a.started_at ASC`
	var occupants []models.RoomOccupant
	if err := r.db.SelectContext(ctx, &occupants, query, roomID); err != nil {
		return nil, fmt.Errorf("list room occupants: %w", err)
	}
	return occupants, nil
}

// Search returns rooms whose number matches the term.
func (r *RoomRepository) Search(ctx context.Context, term string, limit int) ([]models.RoomDetail, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s
FROM rooms r LEFT JOIN allocations a ON a.room_id = r.id AND a.ended_at IS NULL
WHERE LOWER(r.number) LIKE $1 OR LOWER(r.block) LIKE $1
%s ORDER BY r.number ASC LIMIT %d`, roomDetailColumns, roomDetailGroup, limit)
	var rooms []models.RoomDetail
	if err := r.db.SelectContext(ctx, &rooms, query, "%"+strings.ToLower(term)+"%"); err != nil {
		return nil, fmt.Errorf("search rooms: %w", err)
	}
	for i := range rooms {
		rooms[i].Derive()
	}
	return rooms, nil
}

// OccupancyTotals aggregates facility-wide occupancy for the dashboard.
func (r *RoomRepository) OccupancyTotals(ctx context.Context) (totalRooms, occupied, maintenance int, err error) {
	const query = `SELECT
  COUNT(*) AS total,
  COUNT(*) FILTER (WHERE NOT r.maintenance AND EXISTS (SELECT 1 FROM allocations a WHERE a.room_id = r.id AND a.ended_at IS NULL)) AS occupied,
  COUNT(*) FILTER (WHERE r.maintenance) AS maintenance
FROM rooms r`
	row := struct {
		Total       int `db:"total"`
		Occupied    int `db:"occupied"`
		Maintenance int `db:"maintenance"`
	}{}
	if err = r.db.GetContext(ctx, &row, query); err != nil {
		return 0, 0, 0, fmt.Errorf("occupancy totals: %w", err)
	}
	return row.Total, row.Occupied, row.Maintenance, nil
}
