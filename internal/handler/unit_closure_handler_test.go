package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-unit-gateway/internal/models"
	"github.com/noah-isme/sma-unit-gateway/internal/service"
	appErrors "github.com/noah-isme/sma-unit-gateway/pkg/errors"
)

type closureServiceMock struct {
	status   models.ClosureStatus
	confirm  service.ConfirmRequest
	closeErr error
	history  []models.AuditLog
	filter   []interface{}
	calls    []string
}

func (m *closureServiceMock) GetStatus(ctx context.Context, session models.Session, n int) (models.ClosureStatus, error) {
	m.calls = append(m.calls, "status")
	if n < 1 || n > 4 {
		return models.ClosureStatus{}, appErrors.Clone(appErrors.ErrValidation, "unit number must be between 1 and 4")
	}
	return m.status, nil
}

func (m *closureServiceMock) RecomputeStatus(ctx context.Context, session models.Session, n int) (models.ClosureStatus, error) {
	m.calls = append(m.calls, "recompute")
	return m.status, nil
}

func (m *closureServiceMock) PrepareClose(ctx context.Context, session models.Session, n int) (service.Confirmation, error) {
	m.calls = append(m.calls, "prepare_close")
	return service.Confirmation{Token: "signed", Action: service.ActionClose, UnitNumber: n, Count: 7}, nil
}

func (m *closureServiceMock) CloseReadyCourses(ctx context.Context, session models.Session, n int, req service.ConfirmRequest) (models.CloseResult, error) {
	m.calls = append(m.calls, "close")
	m.confirm = req
	if req.Token == "" {
		return models.CloseResult{}, appErrors.ErrConfirmationRequired
	}
	if m.closeErr != nil {
		return models.CloseResult{}, m.closeErr
	}
	return models.CloseResult{UnitNumber: n, ClosedCourses: req.Count}, nil
}

func (m *closureServiceMock) PrepareNotify(ctx context.Context, session models.Session, n int) (service.Confirmation, error) {
	m.calls = append(m.calls, "prepare_notify")
	return service.Confirmation{Token: "signed", Action: service.ActionNotify, UnitNumber: n, Count: 3}, nil
}

func (m *closureServiceMock) NotifyIncomplete(ctx context.Context, session models.Session, n int, req service.ConfirmRequest) (models.NotifyResult, error) {
	m.calls = append(m.calls, "notify")
	return models.NotifyResult{UnitNumber: n, NotificationsCreated: req.Count, Deadline: time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)}, nil
}

func (m *closureServiceMock) History(ctx context.Context, session models.Session, n int, action string, limit int) ([]models.AuditLog, error) {
	m.calls = append(m.calls, "history")
	m.filter = []interface{}{n, action, limit}
	return m.history, nil
}

func numberParam(n string) gin.Params {
	return gin.Params{{Key: "number", Value: n}}
}

func TestUnitClosureHandlerStatus(t *testing.T) {
	mock := &closureServiceMock{status: models.NewClosureStatus(2, models.ClosureReport{
		Courses: []models.CourseReadiness{{AssignmentID: 1, GradeLevel: 1, Status: models.StatusPending}},
		Totals:  models.ClosureTotals{TotalCourses: 1, PendingCourses: 1},
	})}
	h := NewUnitClosureHandler(mock, service.NewExportService(nil))
	c, w := newContext(http.MethodGet, "/unit-closure/2", nil, adminSession, numberParam("2"))

	h.Status(c)
	require.Equal(t, http.StatusOK, statusOf(w))
	env := decodeEnvelope(t, w)
	assert.Contains(t, string(env.Data), `"to_notify":1`)
	assert.Contains(t, string(env.Data), `"can_close":false`)
}

func TestUnitClosureHandlerRejectsBadNumber(t *testing.T) {
	mock := &closureServiceMock{}
	h := NewUnitClosureHandler(mock, service.NewExportService(nil))
	c, w := newContext(http.MethodGet, "/unit-closure/abc", nil, adminSession, numberParam("abc"))

	h.Status(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, mock.calls)
}

func TestUnitClosureHandlerCloseWithoutBodyNeedsConfirmation(t *testing.T) {
	mock := &closureServiceMock{}
	h := NewUnitClosureHandler(mock, service.NewExportService(nil))
	c, w := newContext(http.MethodPost, "/unit-closure/2/close", nil, adminSession, numberParam("2"))

	h.Close(c)
	assert.Equal(t, http.StatusPreconditionRequired, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrConfirmationRequired.Code, env.Error.Code)
}

func TestUnitClosureHandlerCloseConfirmed(t *testing.T) {
	mock := &closureServiceMock{}
	h := NewUnitClosureHandler(mock, service.NewExportService(nil))
	c, w := newContext(http.MethodPost, "/unit-closure/2/close", service.ConfirmRequest{Token: "signed", Count: 7}, adminSession, numberParam("2"))

	h.Close(c)
	require.Equal(t, http.StatusOK, statusOf(w))
	assert.Equal(t, "signed", mock.confirm.Token)
	assert.Contains(t, w.Body.String(), `"closed_courses":7`)
}

func TestUnitClosureHandlerCloseStale(t *testing.T) {
	mock := &closureServiceMock{closeErr: appErrors.WithDetails(appErrors.ErrConfirmationStale, map[string]interface{}{"confirmed": 7, "current": 8})}
	h := NewUnitClosureHandler(mock, service.NewExportService(nil))
	c, w := newContext(http.MethodPost, "/unit-closure/2/close", service.ConfirmRequest{Token: "signed", Count: 7}, adminSession, numberParam("2"))

	h.Close(c)
	assert.Equal(t, http.StatusConflict, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, float64(8), env.Error.Details["current"])
}

func TestUnitClosureHandlerNotifyReturnsDeadline(t *testing.T) {
	mock := &closureServiceMock{}
	h := NewUnitClosureHandler(mock, service.NewExportService(nil))
	c, w := newContext(http.MethodPost, "/unit-closure/1/notifications", service.ConfirmRequest{Token: "signed", Count: 3}, adminSession, numberParam("1"))

	h.Notify(c)
	require.Equal(t, http.StatusOK, statusOf(w))
	assert.Contains(t, w.Body.String(), `"deadline":"2024-05-13T00:00:00Z"`)
}

func TestUnitClosureHandlerExport(t *testing.T) {
	mock := &closureServiceMock{status: models.NewClosureStatus(3, models.ClosureReport{
		Courses: []models.CourseReadiness{{AssignmentID: 1, CourseName: "Física", GradeLevel: 1, SectionName: "A", Status: models.StatusReady}},
		Totals:  models.ClosureTotals{TotalCourses: 1, ReadyCourses: 1},
	})}
	h := NewUnitClosureHandler(mock, service.NewExportService(nil))

	c, w := newContext(http.MethodGet, "/unit-closure/3/export?format=csv", nil, adminSession, numberParam("3"))
	h.Export(c)
	require.Equal(t, http.StatusOK, statusOf(w))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "cierre-unidad-3-")
	assert.Contains(t, w.Body.String(), "Física")

	c, w = newContext(http.MethodGet, "/unit-closure/3/export?format=xlsx", nil, adminSession, numberParam("3"))
	h.Export(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnitClosureHandlerCloseChunkedEmptyBodyNeedsConfirmation(t *testing.T) {
	mock := &closureServiceMock{}
	h := NewUnitClosureHandler(mock, service.NewExportService(nil))
	c, w := newContext(http.MethodPost, "/unit-closure/2/close", nil, adminSession, numberParam("2"))
	req := httptest.NewRequest(http.MethodPost, "/unit-closure/2/close", strings.NewReader(""))
	req.ContentLength = -1
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Close(c)
	assert.Equal(t, http.StatusPreconditionRequired, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrConfirmationRequired.Code, env.Error.Code)
	assert.Equal(t, []string{"close"}, mock.calls)
}

func TestUnitClosureHandlerCloseMalformedBody(t *testing.T) {
	mock := &closureServiceMock{}
	h := NewUnitClosureHandler(mock, service.NewExportService(nil))
	c, w := newContext(http.MethodPost, "/unit-closure/2/close", `{"token":`, adminSession, numberParam("2"))

	h.Close(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, mock.calls)
}

func TestUnitClosureHandlerAudit(t *testing.T) {
	unit := 2
	mock := &closureServiceMock{history: []models.AuditLog{{
		ID:         "a-1",
		UserID:     "admin-1",
		Action:     models.AuditActionCloseUnit,
		UnitNumber: &unit,
		Outcome:    models.AuditOutcomeSuccess,
		Affected:   7,
		CreatedAt:  time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
	}}}
	h := NewUnitClosureHandler(mock, service.NewExportService(nil))

	c, w := newContext(http.MethodGet, "/unit-closure/2/audit?action=UNIT_CLOSE_READY&limit=5", nil, adminSession, numberParam("2"))
	h.Audit(c)
	require.Equal(t, http.StatusOK, statusOf(w))
	assert.Equal(t, []interface{}{2, models.AuditActionCloseUnit, 5}, mock.filter)
	env := decodeEnvelope(t, w)
	assert.Contains(t, string(env.Data), `"affected":7`)

	c, w = newContext(http.MethodGet, "/unit-closure/2/audit?limit=500", nil, adminSession, numberParam("2"))
	h.Audit(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"history"}, mock.calls)
}
