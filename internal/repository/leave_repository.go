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

// LeaveRepository manages persistence for leave requests.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs a LeaveRepository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// Create inserts a leave request in pending state.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.Leave) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	leave.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO leaves (id, resident_id, start_date, end_date, reason, status, created_at)
VALUES (:id, :resident_id, :start_date, :end_date, :reason, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return fmt.Errorf("create leave: %w", err)
	}
	return nil
}

// FindByID fetches a leave request.
func (r *LeaveRepository) FindByID(ctx context.Context, id string) (*models.Leave, error) {
	const query = `SELECT id, resident_id, start_date, end_date, reason, status, decided_by, decided_at, created_at
FROM leaves WHERE id = $1 LIMIT 1`
	var leave models.Leave
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		return nil, err
	}
	return &leave, nil
}

// Decide records the approval or rejection of a pending leave.
func (r *LeaveRepository) Decide(ctx context.Context, id string, status models.LeaveStatus, decidedBy string, decidedAt time.Time) error {
	const query = `UPDATE leaves SET status = $2, decided_by = $3, decided_at = $4 WHERE id = $1 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, id, status, decidedBy, decidedAt, models.LeaveStatusPending)
	if err != nil {
		return fmt.Errorf("decide leave: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns leave rows matching the filter.
func (r *LeaveRepository) List(ctx context.Context, filter models.LeaveFilter) ([]models.Leave, int, error) {
	base := "FROM leaves l"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.ResidentID != "" {
		conditions = append(conditions, fmt.Sprintf("l.resident_id = $%d", len(args)+1))
		args = append(args, filter.ResidentID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("l.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("l.end_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("l.start_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT l.id, l.resident_id, l.start_date, l.end_date, l.reason, l.status, l.decided_by, l.decided_at, l.created_at
        %s WHERE %s ORDER BY l.start_date DESC LIMIT %d OFFSET %d`, base, where, size, offset)

	var leaves []models.Leave
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list leaves: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count leaves: %w", err)
	}
	return leaves, total, nil
}

// ApprovedOverlapping returns approved leaves that overlap a given day,
// for staff reviewing excused absences. Informational only.
func (r *LeaveRepository) ApprovedOverlapping(ctx context.Context, day time.Time) ([]models.Leave, error) {
	const query = `SELECT id, resident_id, start_date, end_date, reason, status, decided_by, decided_at, created_at
FROM leaves WHERE status = $1 AND start_date <= $2 AND end_date >= $2`
	var leaves []models.Leave
	if err := r.db.SelectContext(ctx, &leaves, query, models.LeaveStatusApproved, day); err != nil {
		return nil, fmt.Errorf("overlapping leaves: %w", err)
	}
	return leaves, nil
}
