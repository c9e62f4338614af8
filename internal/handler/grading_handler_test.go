package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-unit-gateway/internal/models"
	"github.com/noah-isme/sma-unit-gateway/internal/service"
	appErrors "github.com/noah-isme/sma-unit-gateway/pkg/errors"
)

type gradingServiceMock struct {
	key     models.GradingKey
	req     service.GradeBatchRequest
	session models.GradingSession
	saveErr error
}

func (m *gradingServiceMock) LoadSession(ctx context.Context, session models.Session, key models.GradingKey) (models.GradingSession, error) {
	m.key = key
	return m.session, nil
}

func (m *gradingServiceMock) Preview(ctx context.Context, session models.Session, key models.GradingKey, req service.GradeBatchRequest) (models.GradingSession, error) {
	m.key, m.req = key, req
	return m.session, nil
}

func (m *gradingServiceMock) SaveBatch(ctx context.Context, session models.Session, key models.GradingKey, req service.GradeBatchRequest) (models.SaveResult, error) {
	m.key, m.req = key, req
	if m.saveErr != nil {
		return models.SaveResult{}, m.saveErr
	}
	return models.SaveResult{Created: len(req.Grades)}, nil
}

var gradingParams = gin.Params{{Key: "unitId", Value: "11"}, {Key: "activityId", Value: "201"}}

func lockedSession() models.GradingSession {
	unit := models.Unit{ID: 11, Number: 1, ZonePoints: 40, FinalPoints: 60}
	activity := models.Activity{ID: 201, UnitID: 11, Type: models.ActivityFinal, MaxPoints: 60, Active: true}
	return models.NewGradingSession(unit, activity, []models.RosterEntry{{StudentID: 1, FirstName: "Ana", LastName: "López"}}, nil)
}

func TestGradingHandlerLoadRendersState(t *testing.T) {
	mock := &gradingServiceMock{session: lockedSession()}
	h := NewGradingHandler(mock)
	c, w := newContext(http.MethodGet, "/grading/units/11/activities/201?assignmentId=4", nil, teacherSession, gradingParams)

	h.Load(c)
	require.Equal(t, http.StatusOK, statusOf(w))
	assert.Equal(t, models.GradingKey{AssignmentID: 4, UnitID: 11, ActivityID: 201}, mock.key)

	env := decodeEnvelope(t, w)
	assert.Contains(t, string(env.Data), `"state":"LOCKED"`)
	assert.Contains(t, string(env.Data), `"reopen_requestable":true`)
	assert.Contains(t, string(env.Data), `"editable":false`)
}

func TestGradingHandlerRequiresAssignment(t *testing.T) {
	h := NewGradingHandler(&gradingServiceMock{})
	c, w := newContext(http.MethodGet, "/grading/units/11/activities/201", nil, teacherSession, gradingParams)

	h.Load(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGradingHandlerSaveBindsBatch(t *testing.T) {
	mock := &gradingServiceMock{}
	h := NewGradingHandler(mock)
	body := `{"grades":[{"student_id":1,"score":45.5},{"student_id":2,"score":null,"note":"ausente"}]}`
	c, w := newContext(http.MethodPost, "/grading/units/11/activities/201/grades?assignmentId=4", body, teacherSession, gradingParams)

	h.Save(c)
	require.Equal(t, http.StatusOK, statusOf(w))
	require.Len(t, mock.req.Grades, 2)
	assert.Equal(t, 45.5, *mock.req.Grades[0].Score)
	assert.Nil(t, mock.req.Grades[1].Score)
	assert.Equal(t, "ausente", *mock.req.Grades[1].Note)
}

func TestGradingHandlerSaveSurfacesZoneGaps(t *testing.T) {
	mock := &gradingServiceMock{saveErr: appErrors.WithDetails(appErrors.ErrZonesIncomplete, map[string]interface{}{
		"zone_gaps": []models.ZoneGap{{ActivityID: 102, Name: "Tarea 2", Missing: 1}},
	})}
	h := NewGradingHandler(mock)
	c, w := newContext(http.MethodPost, "/grading/units/11/activities/201/grades?assignmentId=4", `{"grades":[{"student_id":1,"score":10}]}`, teacherSession, gradingParams)

	h.Save(c)
	assert.Equal(t, http.StatusConflict, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrZonesIncomplete.Code, env.Error.Code)
	assert.Contains(t, env.Error.Details, "zone_gaps")
}

func TestGradingHandlerRejectsMalformedJSON(t *testing.T) {
	mock := &gradingServiceMock{}
	h := NewGradingHandler(mock)
	c, w := newContext(http.MethodPost, "/grading/units/11/activities/201/preview?assignmentId=4", `{"grades":`, teacherSession, gradingParams)

	h.Preview(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, mock.req.Grades)
}
