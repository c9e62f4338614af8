package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-unit-gateway/internal/dto"
	"github.com/noah-isme/sma-unit-gateway/internal/models"
	"github.com/noah-isme/sma-unit-gateway/internal/service"
	appErrors "github.com/noah-isme/sma-unit-gateway/pkg/errors"
	"github.com/noah-isme/sma-unit-gateway/pkg/response"
)

type unitClosureService interface {
	GetStatus(ctx context.Context, session models.Session, n int) (models.ClosureStatus, error)
	RecomputeStatus(ctx context.Context, session models.Session, n int) (models.ClosureStatus, error)
	PrepareClose(ctx context.Context, session models.Session, n int) (service.Confirmation, error)
	CloseReadyCourses(ctx context.Context, session models.Session, n int, req service.ConfirmRequest) (models.CloseResult, error)
	PrepareNotify(ctx context.Context, session models.Session, n int) (service.Confirmation, error)
	NotifyIncomplete(ctx context.Context, session models.Session, n int, req service.ConfirmRequest) (models.NotifyResult, error)
	History(ctx context.Context, session models.Session, n int, action string, limit int) ([]models.AuditLog, error)
}

type closureExporter interface {
	ClosureReport(status models.ClosureStatus, format service.ExportFormat) (service.ExportFile, error)
}

// UnitClosureHandler exposes the administrative unit closure dashboard.
type UnitClosureHandler struct {
	service  unitClosureService
	exporter closureExporter
}

// NewUnitClosureHandler builds the handler.
func NewUnitClosureHandler(service unitClosureService, exporter closureExporter) *UnitClosureHandler {
	return &UnitClosureHandler{service: service, exporter: exporter}
}

// Status godoc
// @Summary Readiness of every course for a unit number
// @Tags UnitClosure
// @Produce json
// @Param number path int true "Unit number (1-4)"
// @Success 200 {object} response.Envelope
// @Router /unit-closure/{number} [get]
func (h *UnitClosureHandler) Status(c *gin.Context) {
	n, err := unitNumber(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	status, err := h.service.GetStatus(c.Request.Context(), sessionFromContext(c), n)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, status)
}

// Recompute godoc
// @Summary Ask the backend to recompute readiness, then reload it
// @Tags UnitClosure
// @Produce json
// @Param number path int true "Unit number (1-4)"
// @Success 200 {object} response.Envelope
// @Router /unit-closure/{number}/recompute [post]
func (h *UnitClosureHandler) Recompute(c *gin.Context) {
	n, err := unitNumber(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	status, err := h.service.RecomputeStatus(c.Request.Context(), sessionFromContext(c), n)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, status)
}

// PrepareClose godoc
// @Summary Issue a confirmation for closing every ready course
// @Tags UnitClosure
// @Produce json
// @Param number path int true "Unit number (1-4)"
// @Success 200 {object} response.Envelope
// @Router /unit-closure/{number}/close/confirmation [post]
func (h *UnitClosureHandler) PrepareClose(c *gin.Context) {
	n, err := unitNumber(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	confirm, err := h.service.PrepareClose(c.Request.Context(), sessionFromContext(c), n)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, confirm)
}

// Close godoc
// @Summary Close every ready course of a unit number
// @Tags UnitClosure
// @Accept json
// @Produce json
// @Param number path int true "Unit number (1-4)"
// @Param payload body service.ConfirmRequest true "Confirmation"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 428 {object} response.Envelope
// @Router /unit-closure/{number}/close [post]
func (h *UnitClosureHandler) Close(c *gin.Context) {
	n, req, ok := bindConfirmation(c)
	if !ok {
		return
	}
	result, err := h.service.CloseReadyCourses(c.Request.Context(), sessionFromContext(c), n, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// PrepareNotify godoc
// @Summary Issue a confirmation for notifying teachers of unready courses
// @Tags UnitClosure
// @Produce json
// @Param number path int true "Unit number (1-4)"
// @Success 200 {object} response.Envelope
// @Router /unit-closure/{number}/notifications/confirmation [post]
func (h *UnitClosureHandler) PrepareNotify(c *gin.Context) {
	n, err := unitNumber(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	confirm, err := h.service.PrepareNotify(c.Request.Context(), sessionFromContext(c), n)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, confirm)
}

// Notify godoc
// @Summary Notify teachers of pending and incomplete courses
// @Tags UnitClosure
// @Accept json
// @Produce json
// @Param number path int true "Unit number (1-4)"
// @Param payload body service.ConfirmRequest true "Confirmation"
// @Success 200 {object} response.Envelope
// @Failure 428 {object} response.Envelope
// @Router /unit-closure/{number}/notifications [post]
func (h *UnitClosureHandler) Notify(c *gin.Context) {
	n, req, ok := bindConfirmation(c)
	if !ok {
		return
	}
	result, err := h.service.NotifyIncomplete(c.Request.Context(), sessionFromContext(c), n, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Export godoc
// @Summary Download the readiness report of a unit number
// @Tags UnitClosure
// @Produce text/csv
// @Produce application/pdf
// @Param number path int true "Unit number (1-4)"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /unit-closure/{number}/export [get]
func (h *UnitClosureHandler) Export(c *gin.Context) {
	n, err := unitNumber(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.ExportQuery
	_ = c.ShouldBindQuery(&query)
	format, err := service.ParseExportFormat(query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	status, err := h.service.GetStatus(c.Request.Context(), sessionFromContext(c), n)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exporter.ClosureReport(status, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Audit godoc
// @Summary Audit trail of bulk actions on a unit number
// @Tags UnitClosure
// @Produce json
// @Param number path int true "Unit number (1-4)"
// @Param action query string false "Audit action filter"
// @Param limit query int false "Maximum entries (default 50, max 200)"
// @Success 200 {object} response.Envelope
// @Router /unit-closure/{number}/audit [get]
func (h *UnitClosureHandler) Audit(c *gin.Context) {
	n, err := unitNumber(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.AuditQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid audit query"))
		return
	}
	logs, err := h.service.History(c.Request.Context(), sessionFromContext(c), n, query.Action, query.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, logs)
}

func unitNumber(c *gin.Context) (int, error) {
	n, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "unit number must be an integer")
	}
	return n, nil
}

func bindConfirmation(c *gin.Context) (int, service.ConfirmRequest, bool) {
	var req service.ConfirmRequest
	n, err := unitNumber(c)
	if err != nil {
		response.Error(c, err)
		return 0, req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		// an empty body, sized or chunked, is a request without confirmation
		if errors.Is(err, io.EOF) {
			return n, service.ConfirmRequest{}, true
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid confirmation payload"))
		return 0, req, false
	}
	return n, req, true
}
