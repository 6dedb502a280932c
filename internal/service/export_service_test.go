package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hms-core-api/internal/models"
	appErrors "github.com/noah-isme/hms-core-api/pkg/errors"
)

type mockExportRepo struct {
	session *models.AttendanceSession
	records []models.AttendanceRecordRow
}

func (m *mockExportRepo) FindSessionByID(ctx context.Context, id string) (*models.AttendanceSession, error) {
	if m.session == nil || m.session.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.session, nil
}

func (m *mockExportRepo) ListRecords(ctx context.Context, sessionID string) ([]models.AttendanceRecordRow, error) {
	return m.records, nil
}

func exportFixtureSession() *models.AttendanceSession {
	return &models.AttendanceSession{
		ID:   "sess-1",
		Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Type: models.SessionTypeMorning,
	}
}

func TestExportServiceRendersCSV(t *testing.T) {
	note := "sick bay"
	repo := &mockExportRepo{
		session: exportFixtureSession(),
		records: []models.AttendanceRecordRow{
			{
				AttendanceRecord: models.AttendanceRecord{Status: models.AttendanceStatusPresent},
				ResidentName:     "Amina Yusuf",
				RegNumber:        "HMS-0042",
			},
			{
				AttendanceRecord: models.AttendanceRecord{Status: models.AttendanceStatusExcused, Note: &note},
				ResidentName:     "Kofi Mensah",
				RegNumber:        "HMS-0043",
			},
		},
	}
	svc := NewExportService(repo, ExportConfig{Enabled: true}, zap.NewNop(), nil, nil)

	result, err := svc.AttendanceSheet(context.Background(), "sess-1", ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "attendance-2025-03-10-morning.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)

	body := string(result.Payload)
	assert.True(t, strings.HasPrefix(body, "Reg Number,Name,Status,Late Minutes,Note"))
	assert.Contains(t, body, "HMS-0042,Amina Yusuf,PRESENT,0,")
	assert.Contains(t, body, "HMS-0043,Kofi Mensah,EXCUSED,0,sick bay")
}

func TestExportServiceRendersPDF(t *testing.T) {
	repo := &mockExportRepo{session: exportFixtureSession()}
	svc := NewExportService(repo, ExportConfig{Enabled: true}, zap.NewNop(), nil, nil)

	result, err := svc.AttendanceSheet(context.Background(), "sess-1", ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "attendance-2025-03-10-morning.pdf", result.Filename)
	assert.True(t, strings.HasPrefix(string(result.Payload), "%PDF"))
}

func TestExportServiceDisabled(t *testing.T) {
	svc := NewExportService(&mockExportRepo{}, ExportConfig{Enabled: false}, zap.NewNop(), nil, nil)

	_, err := svc.AttendanceSheet(context.Background(), "sess-1", ExportFormatCSV)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestExportServiceUnknownSession(t *testing.T) {
	svc := NewExportService(&mockExportRepo{}, ExportConfig{Enabled: true}, zap.NewNop(), nil, nil)

	_, err := svc.AttendanceSheet(context.Background(), "sess-missing", ExportFormatCSV)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestExportServiceRowLimit(t *testing.T) {
	repo := &mockExportRepo{
		session: exportFixtureSession(),
		records: []models.AttendanceRecordRow{
			{ResidentName: "One"},
			{ResidentName: "Two"},
		},
	}
	svc := NewExportService(repo, ExportConfig{Enabled: true, MaxRows: 1}, zap.NewNop(), nil, nil)

	_, err := svc.AttendanceSheet(context.Background(), "sess-1", ExportFormatCSV)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	repo := &mockExportRepo{session: exportFixtureSession()}
	svc := NewExportService(repo, ExportConfig{Enabled: true}, zap.NewNop(), nil, nil)

	_, err := svc.AttendanceSheet(context.Background(), "sess-1", ExportFormat("xlsx"))
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
