package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hms-core-api/internal/models"
	"github.com/noah-isme/hms-core-api/internal/service"
	appErrors "github.com/noah-isme/hms-core-api/pkg/errors"
	"github.com/noah-isme/hms-core-api/pkg/response"
)

// AllocationHandler exposes room allocation endpoints.
type AllocationHandler struct {
	allocations *service.AllocationService
}

// NewAllocationHandler constructs AllocationHandler.
func NewAllocationHandler(allocations *service.AllocationService) *AllocationHandler {
	return &AllocationHandler{allocations: allocations}
}

// List godoc
// @Summary List allocations
// @Tags Allocations
// @Produce json
// @Param residentId query string false "Filter by resident"
// @Param roomId query string false "Filter by room"
// @Param active query bool false "Filter active allocations"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /allocations [get]
func (h *AllocationHandler) List(c *gin.Context) {
	filter := models.AllocationFilter{
		ResidentID: c.Query("residentId"),
		RoomID:     c.Query("roomId"),
		Active:     queryBool(c, "active"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "limit", 20),
		SortBy:     c.Query("sort"),
		SortOrder:  c.Query("order"),
	}

	allocations, pagination, err := h.allocations.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, allocations, pagination)
}

// Allocate godoc
// @Summary Place a resident into a room
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body service.AllocateRequest true "Allocation payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /allocations [post]
func (h *AllocationHandler) Allocate(c *gin.Context) {
	var req service.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.allocations.Allocate(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Transfer godoc
// @Summary Move a resident to another room
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body service.AllocateRequest true "Transfer payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /allocations/transfer [post]
func (h *AllocationHandler) Transfer(c *gin.Context) {
	var req service.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.allocations.Transfer(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// End godoc
// @Summary End a resident's active allocation
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body service.EndAllocationRequest true "End payload"
// @Success 200 {object} response.Envelope
// @Router /allocations/end [post]
func (h *AllocationHandler) End(c *gin.Context) {
	var req service.EndAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.allocations.End(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
