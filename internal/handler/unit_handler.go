package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-unit-gateway/internal/dto"
	"github.com/noah-isme/sma-unit-gateway/internal/middleware"
	"github.com/noah-isme/sma-unit-gateway/internal/models"
	"github.com/noah-isme/sma-unit-gateway/internal/service"
	appErrors "github.com/noah-isme/sma-unit-gateway/pkg/errors"
	"github.com/noah-isme/sma-unit-gateway/pkg/response"
)

type unitConfigService interface {
	ListUnits(ctx context.Context, session models.Session, assignmentID int) (models.UnitGroup, error)
	ComplementPoints(value int) (int, error)
	UpdateUnitPoints(ctx context.Context, session models.Session, unitID int, req service.UpdateUnitPointsRequest) (models.Unit, error)
	ActivateUnit(ctx context.Context, session models.Session, unitID int) (models.Unit, error)
}

// UnitHandler exposes unit configuration endpoints.
type UnitHandler struct {
	service unitConfigService
}

// NewUnitHandler builds the handler.
func NewUnitHandler(service unitConfigService) *UnitHandler {
	return &UnitHandler{service: service}
}

// ListUnits godoc
// @Summary List the four units of an assignment
// @Tags Units
// @Produce json
// @Param id path int true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/units [get]
func (h *UnitHandler) ListUnits(c *gin.Context) {
	assignmentID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	group, err := h.service.ListUnits(c.Request.Context(), sessionFromContext(c), assignmentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if group.MultipleActive {
		middleware.SetMeta(c, "warning", "more than one unit is active for this assignment")
	}
	response.JSON(c, http.StatusOK, group, respondMeta(c))
}

// Complement godoc
// @Summary Compute the counterpart that completes a 100 point split
// @Tags Units
// @Produce json
// @Param value query int true "Zone or final points"
// @Success 200 {object} response.Envelope
// @Router /points/complement [get]
func (h *UnitHandler) Complement(c *gin.Context) {
	value, err := strconv.Atoi(c.Query("value"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "value must be an integer"))
		return
	}
	complement, err := h.service.ComplementPoints(value)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ComplementPointsResponse{Value: value, Complement: complement})
}

// UpdatePoints godoc
// @Summary Change a unit's zone/final point split
// @Tags Units
// @Accept json
// @Produce json
// @Param id path int true "Unit ID"
// @Param payload body service.UpdateUnitPointsRequest true "Point split"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /units/{id}/points [put]
func (h *UnitHandler) UpdatePoints(c *gin.Context) {
	unitID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateUnitPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid unit points payload"))
		return
	}
	unit, err := h.service.UpdateUnitPoints(c.Request.Context(), sessionFromContext(c), unitID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, unit)
}

// Activate godoc
// @Summary Make a unit the active unit of its assignment
// @Tags Units
// @Produce json
// @Param id path int true "Unit ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /units/{id}/activate [post]
func (h *UnitHandler) Activate(c *gin.Context) {
	unitID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	unit, err := h.service.ActivateUnit(c.Request.Context(), sessionFromContext(c), unitID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, unit)
}
