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

// ResidentRepository manages persistence for resident records.
type ResidentRepository struct {
	db *sqlx.DB
}

// NewResidentRepository constructs a ResidentRepository.
func NewResidentRepository(db *sqlx.DB) *ResidentRepository {
	return &ResidentRepository{db: db}
}

const residentDetailColumns = `s.id, s.reg_number, s.full_name, s.email, s.phone, s.course, s.year, s.user_id, s.active, s.created_at, s.updated_at,
        a.room_id AS current_room_id, rm.number AS current_room_number, a.started_at AS allocated_at`

// List returns residents matching the provided filters, joined with
// their active allocation when one exists.
func (r *ResidentRepository) List(ctx context.Context, filter models.ResidentFilter) ([]models.ResidentDetail, int, error) {
	base := `FROM residents s
LEFT JOIN allocations a ON a.resident_id = s.id AND a.ended_at IS NULL
LEFT JOIN rooms rm ON rm.id = a.room_id`
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Course != "" {
		conditions = append(conditions, fmt.Sprintf("s.course = $%d", len(args)+1))
		args = append(args, filter.Course)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("s.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR LOWER(s.reg_number) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"full_name":  "s.full_name",
		"reg_number": "s.reg_number",
		"created_at": "s.created_at",
	}
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "s.created_at"
	}
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

	query := fmt.Sprintf(`SELECT %s
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, residentDetailColumns, base, column, order, size, offset)

	var residents []models.ResidentDetail
	if err := r.db.SelectContext(ctx, &residents, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list residents: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(DISTINCT s.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count residents: %w", err)
	}
	return residents, total, nil
}

// FindByID fetches a resident detail by ID.
func (r *ResidentRepository) FindByID(ctx context.Context, id string) (*models.ResidentDetail, error) {
	query := fmt.Sprintf(`SELECT %s
        FROM residents s
        LEFT JOIN allocations a ON a.resident_id = s.id AND a.ended_at IS NULL
        LEFT JOIN rooms rm ON rm.id = a.room_id
        WHERE s.id = $1`, residentDetailColumns)
	var detail models.ResidentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByRegNumber checks registration number uniqueness, optionally
// excluding an ID during updates.
func (r *ResidentRepository) ExistsByRegNumber(ctx context.Context, regNumber string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM residents WHERE reg_number = $1"
	args := []interface{}{regNumber}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var one int
	if err := r.db.GetContext(ctx, &one, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check reg number: %w", err)
	}
	return true, nil
}

// Create inserts a resident row.
func (r *ResidentRepository) Create(ctx context.Context, resident *models.Resident) error {
	now := time.Now().UTC()
	if resident.ID == "" {
		resident.ID = uuid.NewString()
	}
	resident.CreatedAt = now
	resident.UpdatedAt = now
	const query = `INSERT INTO residents (id, reg_number, full_name, email, phone, course, year, user_id, active, created_at, updated_at)
VALUES (:id, :reg_number, :full_name, :email, :phone, :course, :year, :user_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, resident); err != nil {
		return fmt.Errorf("create resident: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a resident.
func (r *ResidentRepository) Update(ctx context.Context, resident *models.Resident) error {
	resident.UpdatedAt = time.Now().UTC()
	const query = `UPDATE residents SET reg_number = :reg_number, full_name = :full_name, email = :email, phone = :phone,
course = :course, year = :year, active = :active, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, resident)
	if err != nil {
		return fmt.Errorf("update resident: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Disable soft-disables a resident. Rows are never hard-deleted while
// allocation or attendance history references them.
func (r *ResidentRepository) Disable(ctx context.Context, id string) error {
	const query = `UPDATE residents SET active = FALSE, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("disable resident: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// LinkUser attaches an authenticated identity to a resident.
func (r *ResidentRepository) LinkUser(ctx context.Context, residentID, userID string) error {
	const query = `UPDATE residents SET user_id = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, residentID, userID); err != nil {
		return fmt.Errorf("link resident user: %w", err)
	}
	return nil
}

// ListUnallocated returns active residents with no open allocation.
func (r *ResidentRepository) ListUnallocated(ctx context.Context) ([]models.Resident, error) {
	const query = `SELECT s.id, s.reg_number, s.full_name, s.email, s.phone, s.course, s.year, s.user_id, s.active, s.created_at, s.updated_at
FROM residents s
WHERE s.active = TRUE
  AND NOT EXISTS (SELECT 1 FROM allocations a WHERE a.resident_id = s.id AND a.ended_at IS NULL)
ORDER BY s.full_name ASC`
	var residents []models.Resident
	if err := r.db.SelectContext(ctx, &residents, query); err != nil {
		return nil, fmt.Errorf("list unallocated residents: %w", err)
	}
	return residents, nil
}

// Search returns residents whose name, registration number, contact or
// course matches the term.
func (r *ResidentRepository) Search(ctx context.Context, term string, limit int) ([]models.ResidentDetail, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s
FROM residents s
LEFT JOIN allocations a ON a.resident_id = s.id AND a.ended_at IS NULL
LEFT JOIN rooms rm ON rm.id = a.room_id
WHERE LOWER(s.full_name) LIKE $1 OR LOWER(s.reg_number) LIKE $1 OR LOWER(s.email) LIKE $1 OR LOWER(s.course) LIKE $1
ORDER BY s.full_name ASC LIMIT %d`, residentDetailColumns, limit)
	var residents []models.ResidentDetail
	if err := r.db.SelectContext(ctx, &residents, query, "%"+strings.ToLower(term)+"%"); err != nil {
		return nil, fmt.Errorf("search residents: %w", err)
	}
	return residents, nil
}
