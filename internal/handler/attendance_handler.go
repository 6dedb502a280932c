package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hms-core-api/internal/service"
	appErrors "github.com/noah-isme/hms-core-api/pkg/errors"
	"github.com/noah-isme/hms-core-api/pkg/response"
)

// AttendanceHandler exposes attendance session and record endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	exports    *service.ExportService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService, exports *service.ExportService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, exports: exports}
}

// GetOrCreateSession godoc
// @Summary Resolve an attendance session, creating it when absent
// @Description Idempotent on (date, type, scope); repeated calls return the same session
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.GetOrCreateSessionRequest true "Session key"
// @Success 200 {object} response.Envelope
// @Router /attendance/sessions [post]
func (h *AttendanceHandler) GetOrCreateSession(c *gin.Context) {
	var req service.GetOrCreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.attendance.GetOrCreateSession(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// BulkMark godoc
// @Summary Bulk mark attendance records for a session
// @Description Upserts one record per resident; re-marks overwrite in place
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.BulkMarkRequest true "Records batch"
// @Success 204
// @Router /attendance/sessions/{id}/records [post]
func (h *AttendanceHandler) BulkMark(c *gin.Context) {
	var req service.BulkMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.attendance.BulkMark(c.Request.Context(), c.Param("id"), req, claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Records godoc
// @Summary List a session's records with summary counts
// @Tags Attendance
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/sessions/{id}/records [get]
func (h *AttendanceHandler) Records(c *gin.Context) {
	records, summary, err := h.attendance.SessionRecords(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil, map[string]interface{}{"summary": summary})
}

// Export godoc
// @Summary Export a session's attendance sheet
// @Tags Attendance
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Session ID"
// @Param format query string true "csv or pdf"
// @Success 200 {file} file
// @Router /attendance/sessions/{id}/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	result, err := h.exports.AttendanceSheet(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
