package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/hms-core-api/internal/models"
	appErrors "github.com/noah-isme/hms-core-api/pkg/errors"
	"github.com/noah-isme/hms-core-api/pkg/export"
)

// ExportFormat enumerates supported attendance sheet renderings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type sheetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type exportSessionRepository interface {
	FindSessionByID(ctx context.Context, id string) (*models.AttendanceSession, error)
	ListRecords(ctx context.Context, sessionID string) ([]models.AttendanceRecordRow, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Enabled bool
	MaxRows int
}

// ExportResult carries a rendered attendance sheet.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders attendance session sheets as CSV or PDF.
type ExportService struct {
	attendance exportSessionRepository
	csv        sheetRenderer
	pdf        sheetRenderer
	logger     *zap.Logger
	cfg        ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(attendance exportSessionRepository, cfg ExportConfig, logger *zap.Logger, csv, pdf sheetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 5000
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{attendance: attendance, csv: csv, pdf: pdf, logger: logger, cfg: cfg}
}

// AttendanceSheet renders the records of one session in the requested format.
func (s *ExportService) AttendanceSheet(ctx context.Context, sessionID string, format ExportFormat) (*ExportResult, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}

	session, err := s.attendance.FindSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance session "+sessionID+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch attendance session")
	}

	records, err := s.attendance.ListRecords(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}
	if len(records) > s.cfg.MaxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("session has %d records, export limit is %d", len(records), s.cfg.MaxRows))
	}

	dataset := buildAttendanceDataset(records)
	dataset.Title = fmt.Sprintf("Attendance %s %s", session.Date.Format("2006-01-02"), session.Type)

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render attendance sheet")
	}

	filename := fmt.Sprintf("attendance-%s-%s.%s", session.Date.Format("2006-01-02"), strings.ToLower(string(session.Type)), format)
	return &ExportResult{Filename: filename, ContentType: contentType, Payload: payload}, nil
}

func buildAttendanceDataset(records []models.AttendanceRecordRow) export.Dataset {
	headers := []string{"Reg Number", "Name", "Status", "Late Minutes", "Note"}
	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		note := ""
		if rec.Note != nil {
			note = *rec.Note
		}
		rows = append(rows, map[string]string{
			"Reg Number":   rec.RegNumber,
			"Name":         rec.ResidentName,
			"Status":       string(rec.Status),
			"Late Minutes": strconv.Itoa(rec.LateMinutes),
			"Note":         note,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
