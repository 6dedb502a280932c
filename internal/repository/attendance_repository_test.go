package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hms-core-api/internal/models"
	appErrors "github.com/noah-isme/hms-core-api/pkg/errors"
)

func newAttendanceMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAttendanceRepositoryGetOrCreateSessionCreates(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	scope := models.SessionScope{Block: "A"}

	mock.ExpectQuery("INSERT INTO attendance_sessions").
		WithArgs(sqlmock.AnyArg(), date, models.SessionTypeMorning, "A", "", "", 0, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("sess-1"))

	session, created, err := repo.GetOrCreateSession(context.Background(), date, models.SessionTypeMorning, scope, nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.SessionTypeMorning, session.Type)
	assert.Equal(t, "A", session.Scope().Block)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryGetOrCreateSessionReadsBackOnConflict(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	scope := models.SessionScope{Block: "A"}

	// DO NOTHING on conflict returns no row; the existing session is read back.
	mock.ExpectQuery("INSERT INTO attendance_sessions").
		WithArgs(sqlmock.AnyArg(), date, models.SessionTypeMorning, "A", "", "", 0, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, date, session_type, scope_block, scope_room_id, scope_course, scope_year, created_by, created_at")).
		WithArgs(date, models.SessionTypeMorning, "A", "", "", 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date", "session_type", "scope_block", "scope_room_id", "scope_course", "scope_year", "created_by", "created_at"}).
			AddRow("existing-sess", date, models.SessionTypeMorning, "A", "", "", 0, nil, time.Now()))

	session, created, err := repo.GetOrCreateSession(context.Background(), date, models.SessionTypeMorning, scope, nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "existing-sess", session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryBulkUpsert(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendance_records").
		WithArgs(sqlmock.AnyArg(), "sess-1", "res-1", models.AttendanceStatusPresent, nil, 0, "staff-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO attendance_records").
		WithArgs(sqlmock.AnyArg(), "sess-1", "res-2", models.AttendanceStatusLate, nil, 15, "staff-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.BulkUpsert(context.Background(), []models.AttendanceRecord{
		{SessionID: "sess-1", ResidentID: "res-1", Status: models.AttendanceStatusPresent, MarkedBy: "staff-1"},
		{SessionID: "sess-1", ResidentID: "res-2", Status: models.AttendanceStatusLate, LateMinutes: 15, MarkedBy: "staff-1"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryBulkUpsertEmpty(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	err := repo.BulkUpsert(context.Background(), nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySessionSummary(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS cnt FROM attendance_records WHERE session_id = $1 GROUP BY status")).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "cnt"}).
			AddRow("PRESENT", 18).
			AddRow("ABSENT", 1).
			AddRow("LATE", 2))

	summary, err := repo.SessionSummary(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 18, summary.Present)
	assert.Equal(t, 1, summary.Absent)
	assert.Equal(t, 2, summary.Late)
	assert.Equal(t, 21, summary.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCalendar(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT se.date, se.session_type, ar.status, ar.late_minutes").
		WithArgs("res-1", 3, 2026).
		WillReturnRows(sqlmock.NewRows([]string{"date", "session_type", "status", "late_minutes"}).
			AddRow(day, models.SessionTypeMorning, models.AttendanceStatusPresent, 0).
			AddRow(day, models.SessionTypeEvening, models.AttendanceStatusLate, 10))

	entries, err := repo.Calendar(context.Background(), "res-1", 3, 2026)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AttendanceStatusLate, entries[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryBulkUpsertUnknownResident(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendance_records").
		WithArgs(sqlmock.AnyArg(), "sess-1", "res-ghost", models.AttendanceStatusPresent, nil, 0, "staff-1", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "attendance_records_resident_id_fkey"})
	mock.ExpectRollback()

	err := repo.BulkUpsert(context.Background(), []models.AttendanceRecord{
		{SessionID: "sess-1", ResidentID: "res-ghost", Status: models.AttendanceStatusPresent, MarkedBy: "staff-1"},
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "res-ghost")
	assert.NoError(t, mock.ExpectationsWereMet())
}
