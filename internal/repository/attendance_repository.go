package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/hms-core-api/internal/models"
	appErrors "github.com/noah-isme/hms-core-api/pkg/errors"
)

// AttendanceRepository handles persistence for attendance sessions and
// records. Session creation and record upserts are the only writers of
// those tables.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// GetOrCreateSession resolves the session for a (date, type, scope) key,
// creating it when absent. The insert relies on the unique index over
// the full key tuple: on conflict it inserts nothing and the existing
// row is read back, so concurrent callers with the same key converge on
// one session id without a check-then-insert race.
func (r *AttendanceRepository) GetOrCreateSession(ctx context.Context, date time.Time, sessionType models.SessionType, scope models.SessionScope, createdBy *string) (*models.AttendanceSession, bool, error) {
	session := &models.AttendanceSession{
		ID:           uuid.NewString(),
		Date:         date,
		Type:         sessionType,
		SessionScope: scope,
		CreatedBy:    createdBy,
		CreatedAt:    time.Now().UTC(),
	}

	const insertQuery = `INSERT INTO attendance_sessions (id, date, session_type, scope_block, scope_room_id, scope_course, scope_year, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (date, session_type, scope_block, scope_room_id, scope_course, scope_year) DO NOTHING
RETURNING id`
	var insertedID string
	err := r.db.QueryRowxContext(ctx, insertQuery,
		session.ID, session.Date, session.Type,
		scope.Block, scope.RoomID, scope.Course, scope.Year,
		session.CreatedBy, session.CreatedAt,
	).Scan(&insertedID)
	if err == nil {
		return session, true, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, fmt.Errorf("insert attendance session: %w", err)
	}

	// Key conflict: another caller won the insert. Read their row back.
	const selectQuery = `SELECT id, date, session_type, scope_block, scope_room_id, scope_course, scope_year, created_by, created_at
FROM attendance_sessions
WHERE date = $1 AND session_type = $2 AND scope_block = $3 AND scope_room_id = $4 AND scope_course = $5 AND scope_year = $6
LIMIT 1`
	var existing models.AttendanceSession
	if err := r.db.GetContext(ctx, &existing, selectQuery, date, sessionType, scope.Block, scope.RoomID, scope.Course, scope.Year); err != nil {
		return nil, false, fmt.Errorf("read back attendance session: %w", err)
	}
	return &existing, false, nil
}

// FindSessionByID fetches a session.
func (r *AttendanceRepository) FindSessionByID(ctx context.Context, id string) (*models.AttendanceSession, error) {
	const query = `SELECT id, date, session_type, scope_block, scope_room_id, scope_course, scope_year, created_by, created_at
FROM attendance_sessions WHERE id = $1 LIMIT 1`
	var session models.AttendanceSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// BulkUpsert applies a batch of records to a session in one
// transaction. Each record upserts on (session_id, resident_id):
// re-marks overwrite status, note, late minutes, marker and timestamp.
// A failing record rolls back the whole batch.
func (r *AttendanceRepository) BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk attendance: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO attendance_records (id, session_id, resident_id, status, note, late_minutes, marked_by, marked_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (session_id, resident_id)
DO UPDATE SET status = EXCLUDED.status, note = EXCLUDED.note, late_minutes = EXCLUDED.late_minutes,
              marked_by = EXCLUDED.marked_by, marked_at = EXCLUDED.marked_at`
	now := time.Now().UTC()
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.MarkedAt.IsZero() {
			rec.MarkedAt = now
		}
		if _, err := tx.ExecContext(ctx, query, rec.ID, rec.SessionID, rec.ResidentID, rec.Status, rec.Note, rec.LateMinutes, rec.MarkedBy, rec.MarkedAt); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && string(pqErr.Code) == foreignKeyViolation {
				return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("resident %s does not exist", rec.ResidentID))
			}
			return fmt.Errorf("upsert attendance record for resident %s: %w", rec.ResidentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk attendance: %w", err)
	}
	committed = true
	return nil
}

// ListRecords returns the records of a session with resident metadata.
func (r *AttendanceRepository) ListRecords(ctx context.Context, sessionID string) ([]models.AttendanceRecordRow, error) {
	const query = `SELECT ar.id, ar.session_id, ar.resident_id, ar.status, ar.note, ar.late_minutes, ar.marked_by, ar.marked_at,
       s.full_name AS resident_name, s.reg_number
FROM attendance_records ar
JOIN residents s ON s.id = ar.resident_id
WHERE ar.session_id = $1
ORDER BY s.full_name ASC`
	var rows []models.AttendanceRecordRow
	if err := r.db.SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	return rows, nil
}

// Calendar returns one row per marked session-day for a resident within
// the given month.
func (r *AttendanceRepository) Calendar(ctx context.Context, residentID string, month, year int) ([]models.AttendanceCalendarEntry, error) {
	const query = `SELECT se.date, se.session_type, ar.status, ar.late_minutes
FROM attendance_records ar
JOIN attendance_sessions se ON se.id = ar.session_id
WHERE ar.resident_id = $1
  AND EXTRACT(MONTH FROM se.date) = $2
  AND EXTRACT(YEAR FROM se.date) = $3
ORDER BY se.date ASC, se.session_type ASC`
	var entries []models.AttendanceCalendarEntry
	if err := r.db.SelectContext(ctx, &entries, query, residentID, month, year); err != nil {
		return nil, fmt.Errorf("attendance calendar: %w", err)
	}
	return entries, nil
}

// SessionSummary aggregates a session's record counts by status.
func (r *AttendanceRepository) SessionSummary(ctx context.Context, sessionID string) (*models.AttendanceSummary, error) {
	const query = `SELECT status, COUNT(*) AS cnt FROM attendance_records WHERE session_id = $1 GROUP BY status`
	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"cnt"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, fmt.Errorf("session summary: %w", err)
	}
	summary := &models.AttendanceSummary{}
	for _, row := range rows {
		switch models.AttendanceStatus(row.Status) {
		case models.AttendanceStatusPresent:
			summary.Present += row.Count
		case models.AttendanceStatusAbsent:
			summary.Absent += row.Count
		case models.AttendanceStatusLate:
			summary.Late += row.Count
		case models.AttendanceStatusExcused:
			summary.Excused += row.Count
		case models.AttendanceStatusHoliday:
			summary.Holiday += row.Count
		}
		summary.Total += row.Count
	}
	return summary, nil
}

// TodaySummary aggregates today's counts across sessions for the dashboard.
func (r *AttendanceRepository) TodaySummary(ctx context.Context, day time.Time) (*models.AttendanceSummary, error) {
	const query = `SELECT ar.status, COUNT(*) AS cnt
FROM attendance_records ar
JOIN attendance_sessions se ON se.id = ar.session_id
WHERE se.date = $1
GROUP BY ar.status`
	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"cnt"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, day); err != nil {
		return nil, fmt.Errorf("today attendance summary: %w", err)
	}
	summary := &models.AttendanceSummary{}
	for _, row := range rows {
		switch models.AttendanceStatus(row.Status) {
		case models.AttendanceStatusPresent:
			summary.Present += row.Count
		case models.AttendanceStatusAbsent:
			summary.Absent += row.Count
		case models.AttendanceStatusLate:
			summary.Late += row.Count
		case models.AttendanceStatusExcused:
			summary.Excused += row.Count
		case models.AttendanceStatusHoliday:
			summary.Holiday += row.Count
		}
		summary.Total += row.Count
	}
	return summary, nil
}
