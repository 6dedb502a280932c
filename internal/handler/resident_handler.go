package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hms-core-api/internal/authz"
	"github.com/noah-isme/hms-core-api/internal/middleware"
	"github.com/noah-isme/hms-core-api/internal/models"
	"github.com/noah-isme/hms-core-api/internal/service"
	appErrors "github.com/noah-isme/hms-core-api/pkg/errors"
	"github.com/noah-isme/hms-core-api/pkg/response"
)

// ResidentHandler exposes resident endpoints.
type ResidentHandler struct {
	residents  *service.ResidentService
	attendance *service.AttendanceService
}

// NewResidentHandler constructs ResidentHandler.
func NewResidentHandler(residents *service.ResidentService, attendance *service.AttendanceService) *ResidentHandler {
	return &ResidentHandler{residents: residents, attendance: attendance}
}

// List godoc
// @Summary List residents
// @Tags Residents
// @Produce json
// @Param search query string false "Search by name, registration number or email"
// @Param course query string false "Filter by course"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /residents [get]
func (h *ResidentHandler) List(c *gin.Context) {
	filter := models.ResidentFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		Course:    c.Query("course"),
		Active:    queryBool(c, "active"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "limit", 20),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}

	residents, pagination, err := h.residents.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, residents, pagination)
}

// Unallocated godoc
// @Summary List active residents without a room
// @Tags Residents
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /residents/unallocated [get]
func (h *ResidentHandler) Unallocated(c *gin.Context) {
	residents, err := h.residents.Unallocated(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, residents, nil)
}

// Get godoc
// @Summary Get resident detail with current room
// @Tags Residents
// @Produce json
// @Param id path string true "Resident ID"
// @Success 200 {object} response.Envelope
// @Router /residents/{id} [get]
func (h *ResidentHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if !authz.CanAccessResident(middleware.SubjectFromClaims(claims), c.Param("id")) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	resident, err := h.residents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resident, nil)
}

// Create godoc
// @Summary Create resident
// @Tags Residents
// @Accept json
// @Produce json
// @Param payload body service.CreateResidentRequest true "Resident payload"
// @Success 201 {object} response.Envelope
// @Router /residents [post]
func (h *ResidentHandler) Create(c *gin.Context) {
	var req service.CreateResidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	resident, err := h.residents.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resident)
}

// Update godoc
// @Summary Update resident
// @Tags Residents
// @Accept json
// @Produce json
// @Param id path string true "Resident ID"
// @Param payload body service.UpdateResidentRequest true "Resident payload"
// @Success 200 {object} response.Envelope
// @Router /residents/{id} [put]
func (h *ResidentHandler) Update(c *gin.Context) {
	var req service.UpdateResidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	resident, err := h.residents.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resident, nil)
}

// Disable godoc
// @Summary Deactivate resident
// @Tags Residents
// @Produce json
// @Param id path string true "Resident ID"
// @Success 204
// @Router /residents/{id} [delete]
func (h *ResidentHandler) Disable(c *gin.Context) {
	if err := h.residents.Disable(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AttendanceCalendar godoc
// @Summary Resident attendance calendar for a month
// @Tags Residents
// @Produce json
// @Param id path string true "Resident ID"
// @Param month query int false "Month (1-12). Defaults to current"
// @Param year query int false "Year. Defaults to current"
// @Success 200 {object} response.Envelope
// @Router /residents/{id}/attendance-calendar [get]
func (h *ResidentHandler) AttendanceCalendar(c *gin.Context) {
	now := time.Now().UTC()
	month := queryInt(c, "month", int(now.Month()))
	year := queryInt(c, "year", now.Year())

	entries, err := h.attendance.Calendar(c.Request.Context(), c.Param("id"), month, year, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
