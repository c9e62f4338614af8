package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-unit-gateway/internal/middleware"
	"github.com/noah-isme/sma-unit-gateway/internal/models"
)

var (
	adminSession   = models.Session{UserID: "admin-1", Role: models.RoleAdmin, Token: "tok"}
	teacherSession = models.Session{UserID: "teacher-1", Role: models.RoleTeacher, Token: "tok"}
)

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *envelopeError         `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type envelopeError struct {
	Code    string                 `json:"code"`
	Kind    string                 `json:"kind"`
	Details map[string]interface{} `json:"details"`
}

// newContext prepares a gin test context carrying the session.
func newContext(method, target string, body interface{}, session models.Session, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	c.Params = params
	c.Set(middleware.ContextSessionKey, session)
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func statusOf(w *httptest.ResponseRecorder) int {
	if w.Code == 0 {
		return http.StatusOK
	}
	return w.Code
}
