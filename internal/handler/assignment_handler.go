package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-unit-gateway/internal/dto"
	"github.com/noah-isme/sma-unit-gateway/internal/middleware"
	"github.com/noah-isme/sma-unit-gateway/internal/models"
	appErrors "github.com/noah-isme/sma-unit-gateway/pkg/errors"
	"github.com/noah-isme/sma-unit-gateway/pkg/response"
)

type assignmentService interface {
	List(ctx context.Context, session models.Session, filter models.AssignmentFilter) ([]models.CourseAssignment, error)
}

// AssignmentHandler exposes the course assignment catalog.
type AssignmentHandler struct {
	service assignmentService
}

// NewAssignmentHandler builds the handler.
func NewAssignmentHandler(service assignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

// List godoc
// @Summary List course assignments
// @Tags Assignments
// @Produce json
// @Param year query int false "School year"
// @Param teacherId query int false "Teacher filter (admins only)"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	var query dto.AssignmentQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment filter"))
		return
	}
	rows, err := h.service.List(c.Request.Context(), sessionFromContext(c), models.AssignmentFilter{Year: query.Year, TeacherID: query.TeacherID})
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "count", len(rows))
	response.JSON(c, http.StatusOK, rows, respondMeta(c))
}
