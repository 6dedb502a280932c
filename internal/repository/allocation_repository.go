package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/hms-core-api/internal/models"
	appErrors "github.com/noah-isme/hms-core-api/pkg/errors"
)

// AllocationRepository owns every write to the allocations table. All
// mutations run as a single transaction that locks the target room row,
// re-checks the exclusivity and capacity invariants against live rows,
// writes, and recounts the affected rooms from source rows. Nothing
// increments a stored counter.
type AllocationRepository struct {
	db *sqlx.DB
}

// NewAllocationRepository constructs an AllocationRepository.
func NewAllocationRepository(db *sqlx.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// activeAllocationIndex backstops the one-active-allocation-per-resident
// invariant at the schema level:
//
//	CREATE UNIQUE INDEX allocations_one_active
//	ON allocations (resident_id) WHERE ended_at IS NULL;
const activeAllocationIndex = "allocations_one_active"

type lockedRoom struct {
	ID          string          `db:"id"`
	Type        models.RoomType `db:"room_type"`
	Maintenance bool            `db:"maintenance"`
}

// Allocate places a resident into a room. A resident who already holds
// an active allocation is rejected; callers wanting to move someone use
// Transfer, the single code path that ends the old stay.
func (r *AllocationRepository) Allocate(ctx context.Context, residentID, roomID string, actorID *string) (*models.Allocation, []models.RoomOccupancy, error) {
	var allocation *models.Allocation
	var occupancy []models.RoomOccupancy

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		room, err := r.lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if room.Maintenance {
			return appErrors.Clone(appErrors.ErrRoomInMaintenance, fmt.Sprintf("room %s is under maintenance", roomID))
		}
		if err := r.checkResident(ctx, tx, residentID); err != nil {
			return err
		}

		current, err := r.findActive(ctx, tx, residentID)
		if err != nil {
			return err
		}
		if current != nil {
			return appErrors.Clone(appErrors.ErrAlreadyAllocated, fmt.Sprintf("resident %s is already allocated to room %s", residentID, current.RoomID))
		}

		if err := r.checkCapacity(ctx, tx, room); err != nil {
			return err
		}

		allocation, err = r.insert(ctx, tx, residentID, roomID, actorID)
		if err != nil {
			return err
		}

		occupancy, err = r.recount(ctx, tx, roomID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return allocation, occupancy, nil
}

// Transfer moves a resident with an active allocation to another room.
// The old allocation is ended and the new one created in the same
// transaction, so no observer ever sees zero or two active rows.
func (r *AllocationRepository) Transfer(ctx context.Context, residentID, roomID string, actorID *string) (*models.Allocation, []models.RoomOccupancy, error) {
	var allocation *models.Allocation
	var occupancy []models.RoomOccupancy

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		room, err := r.lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if room.Maintenance {
			return appErrors.Clone(appErrors.ErrRoomInMaintenance, fmt.Sprintf("room %s is under maintenance", roomID))
		}
		if err := r.checkResident(ctx, tx, residentID); err != nil {
			return err
		}

		current, err := r.findActive(ctx, tx, residentID)
		if err != nil {
			return err
		}
		if current == nil {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("resident %s has no active allocation to transfer", residentID))
		}
		if current.RoomID == roomID {
			return appErrors.Clone(appErrors.ErrAlreadyAllocated, fmt.Sprintf("resident %s already occupies room %s", residentID, roomID))
		}

		now := time.Now().UTC()
		if err := r.end(ctx, tx, current.ID, now); err != nil {
			return err
		}

		if err := r.checkCapacity(ctx, tx, room); err != nil {
			return err
		}

		allocation, err = r.insert(ctx, tx, residentID, roomID, actorID)
		if err != nil {
			return err
		}

		occupancy, err = r.recount(ctx, tx, roomID, current.RoomID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return allocation, occupancy, nil
}

// End closes a resident's active allocation (checkout).
func (r *AllocationRepository) End(ctx context.Context, residentID string) (*models.Allocation, []models.RoomOccupancy, error) {
	var ended *models.Allocation
	var occupancy []models.RoomOccupancy

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		current, err := r.findActive(ctx, tx, residentID)
		if err != nil {
			return err
		}
		if current == nil {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("resident %s has no active allocation", residentID))
		}

		now := time.Now().UTC()
		if err := r.end(ctx, tx, current.ID, now); err != nil {
			return err
		}
		current.EndedAt = &now
		ended = current

		occupancy, err = r.recount(ctx, tx, current.RoomID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return ended, occupancy, nil
}

// FindActiveByResident returns the resident's open allocation, if any.
func (r *AllocationRepository) FindActiveByResident(ctx context.Context, residentID string) (*models.Allocation, error) {
	const query = `SELECT id, resident_id, room_id, started_at, ended_at, created_by, created_at
FROM allocations WHERE resident_id = $1 AND ended_at IS NULL LIMIT 1`
	var allocation models.Allocation
	if err := r.db.GetContext(ctx, &allocation, query, residentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find active allocation: %w", err)
	}
	return &allocation, nil
}

// List returns allocation history rows matching the filter.
func (r *AllocationRepository) List(ctx context.Context, filter models.AllocationFilter) ([]models.AllocationRecord, int, error) {
	base := `FROM allocations a
JOIN residents s ON s.id = a.resident_id
JOIN rooms rm ON rm.id = a.room_id`
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.ResidentID != "" {
		conditions = append(conditions, fmt.Sprintf("a.resident_id = $%d", len(args)+1))
		args = append(args, filter.ResidentID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("a.room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.Active != nil {
		if *filter.Active {
			conditions = append(conditions, "a.ended_at IS NULL")
		} else {
			conditions = append(conditions, "a.ended_at IS NOT NULL")
		}
	}

	where := strings.Join(conditions, " AND ")

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf(`SELECT a.id, a.resident_id, a.room_id, a.started_at, a.ended_at, a.created_by, a.created_at,
        s.full_name AS resident_name, rm.number AS room_number
        %s WHERE %s ORDER BY a.started_at %s LIMIT %d OFFSET %d`, base, where, order, size, offset)

	var records []models.AllocationRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list allocations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count allocations: %w", err)
	}
	return records, total, nil
}

func (r *AllocationRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin allocation tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit allocation tx: %w", err)
	}
	committed = true
	return nil
}

// lockRoom takes a row lock on the target room so two concurrent
// allocations against it serialize and the capacity count below cannot
// race past the limit.
func (r *AllocationRepository) lockRoom(ctx context.Context, tx *sqlx.Tx, roomID string) (*lockedRoom, error) {
	const query = `SELECT id, room_type, maintenance FROM rooms WHERE id = $1 FOR UPDATE`
	var room lockedRoom
	if err := tx.GetContext(ctx, &room, query, roomID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("room %s not found", roomID))
		}
		return nil, fmt.Errorf("lock room: %w", err)
	}
	return &room, nil
}

func (r *AllocationRepository) checkResident(ctx context.Context, tx *sqlx.Tx, residentID string) error {
	const query = `SELECT active FROM residents WHERE id = $1`
	var active bool
	if err := tx.GetContext(ctx, &active, query, residentID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("resident %s not found", residentID))
		}
		return fmt.Errorf("check resident: %w", err)
	}
	if !active {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("resident %s is disabled", residentID))
	}
	return nil
}

func (r *AllocationRepository) findActive(ctx context.Context, tx *sqlx.Tx, residentID string) (*models.Allocation, error) {
	const query = `SELECT id, resident_id, room_id, started_at, ended_at, created_by, created_at
FROM allocations WHERE resident_id = $1 AND ended_at IS NULL LIMIT 1`
	var allocation models.Allocation
	if err := tx.GetContext(ctx, &allocation, query, residentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find active allocation: %w", err)
	}
	return &allocation, nil
}

func (r *AllocationRepository) checkCapacity(ctx context.Context, tx *sqlx.Tx, room *lockedRoom) error {
	const query = `SELECT COUNT(*) FROM allocations WHERE room_id = $1 AND ended_at IS NULL`
	var count int
	if err := tx.GetContext(ctx, &count, query, room.ID); err != nil {
		return fmt.Errorf("count room occupants: %w", err)
	}
	if count >= room.Type.Capacity() {
		return appErrors.Clone(appErrors.ErrCapacityExceeded, fmt.Sprintf("room %s is full (%d/%d)", room.ID, count, room.Type.Capacity()))
	}
	return nil
}

func (r *AllocationRepository) insert(ctx context.Context, tx *sqlx.Tx, residentID, roomID string, actorID *string) (*models.Allocation, error) {
	now := time.Now().UTC()
	allocation := &models.Allocation{
		ID:         uuid.NewString(),
		ResidentID: residentID,
		RoomID:     roomID,
		StartedAt:  now,
		CreatedBy:  actorID,
		CreatedAt:  now,
	}
	const query = `INSERT INTO allocations (id, resident_id, room_id, started_at, ended_at, created_by, created_at)
VALUES ($1, $2, $3, $4, NULL, $5, $6)`
	if _, err := tx.ExecContext(ctx, query, allocation.ID, allocation.ResidentID, allocation.RoomID, allocation.StartedAt, allocation.CreatedBy, allocation.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation && pqErr.Constraint == activeAllocationIndex {
			return nil, appErrors.Clone(appErrors.ErrAlreadyAllocated, fmt.Sprintf("resident %s is already allocated", residentID))
		}
		return nil, fmt.Errorf("insert allocation: %w", err)
	}
	return allocation, nil
}

func (r *AllocationRepository) end(ctx context.Context, tx *sqlx.Tx, allocationID string, endedAt time.Time) error {
	const query = `UPDATE allocations SET ended_at = $2 WHERE id = $1 AND ended_at IS NULL`
	result, err := tx.ExecContext(ctx, query, allocationID, endedAt)
	if err != nil {
		return fmt.Errorf("end allocation: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return appErrors.Clone(appErrors.ErrConflict, "allocation already ended")
	}
	return nil
}

// recount recomputes the occupancy snapshot for the given rooms from
// allocation rows inside the mutating transaction.
func (r *AllocationRepository) recount(ctx context.Context, tx *sqlx.Tx, roomIDs ...string) ([]models.RoomOccupancy, error) {
	const query = `SELECT r.id AS room_id, r.room_type, r.maintenance, COUNT(a.id) AS occupant_count
FROM rooms r
LEFT JOIN allocations a ON a.room_id = r.id AND a.ended_at IS NULL
WHERE r.id = ANY($1)
GROUP BY r.id, r.room_type, r.maintenance`
	var snapshots []models.RoomOccupancy
	if err := tx.SelectContext(ctx, &snapshots, query, pq.Array(roomIDs)); err != nil {
		return nil, fmt.Errorf("recount room occupancy: %w", err)
	}
	for i := range snapshots {
		snapshots[i].Derive()
	}
	return snapshots, nil
}
