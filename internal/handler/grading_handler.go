package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-unit-gateway/internal/dto"
	"github.com/noah-isme/sma-unit-gateway/internal/models"
	"github.com/noah-isme/sma-unit-gateway/internal/service"
	appErrors "github.com/noah-isme/sma-unit-gateway/pkg/errors"
	"github.com/noah-isme/sma-unit-gateway/pkg/response"
)

type gradingService interface {
	LoadSession(ctx context.Context, session models.Session, key models.GradingKey) (models.GradingSession, error)
	Preview(ctx context.Context, session models.Session, key models.GradingKey, req service.GradeBatchRequest) (models.GradingSession, error)
	SaveBatch(ctx context.Context, session models.Session, key models.GradingKey, req service.GradeBatchRequest) (models.SaveResult, error)
}

// GradingHandler exposes the activity grading sheet.
type GradingHandler struct {
	service gradingService
}

// NewGradingHandler builds the handler.
func NewGradingHandler(service gradingService) *GradingHandler {
	return &GradingHandler{service: service}
}

// Load godoc
// @Summary Load the grading sheet of an activity
// @Tags Grading
// @Produce json
// @Param unitId path int true "Unit ID"
// @Param activityId path int true "Activity ID"
// @Param assignmentId query int true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /grading/units/{unitId}/activities/{activityId} [get]
func (h *GradingHandler) Load(c *gin.Context) {
	key, err := gradingKey(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	session, err := h.service.LoadSession(c.Request.Context(), sessionFromContext(c), key)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewGradingSessionResponse(session))
}

// Preview godoc
// @Summary Derive totals and statistics for unsaved drafts
// @Tags Grading
// @Accept json
// @Produce json
// @Param unitId path int true "Unit ID"
// @Param activityId path int true "Activity ID"
// @Param assignmentId query int true "Assignment ID"
// @Param payload body service.GradeBatchRequest true "Draft grades"
// @Success 200 {object} response.Envelope
// @Router /grading/units/{unitId}/activities/{activityId}/preview [post]
func (h *GradingHandler) Preview(c *gin.Context) {
	key, req, ok := h.bind(c)
	if !ok {
		return
	}
	session, err := h.service.Preview(c.Request.Context(), sessionFromContext(c), key, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewGradingSessionResponse(session))
}

// Save godoc
// @Summary Save a batch of grades
// @Tags Grading
// @Accept json
// @Produce json
// @Param unitId path int true "Unit ID"
// @Param activityId path int true "Activity ID"
// @Param assignmentId query int true "Assignment ID"
// @Param payload body service.GradeBatchRequest true "Grades"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /grading/units/{unitId}/activities/{activityId}/grades [post]
func (h *GradingHandler) Save(c *gin.Context) {
	key, req, ok := h.bind(c)
	if !ok {
		return
	}
	result, err := h.service.SaveBatch(c.Request.Context(), sessionFromContext(c), key, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

func (h *GradingHandler) bind(c *gin.Context) (models.GradingKey, service.GradeBatchRequest, bool) {
	var req service.GradeBatchRequest
	key, err := gradingKey(c)
	if err != nil {
		response.Error(c, err)
		return key, req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grades payload"))
		return key, req, false
	}
	return key, req, true
}

func gradingKey(c *gin.Context) (models.GradingKey, error) {
	unitID, err := pathID(c, "unitId")
	if err != nil {
		return models.GradingKey{}, err
	}
	activityID, err := pathID(c, "activityId")
	if err != nil {
		return models.GradingKey{}, err
	}
	var query dto.GradingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return models.GradingKey{}, appErrors.Clone(appErrors.ErrValidation, "assignmentId is required")
	}
	return models.GradingKey{AssignmentID: query.AssignmentID, UnitID: unitID, ActivityID: activityID}, nil
}
