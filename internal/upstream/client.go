package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-unit-gateway/internal/models"
	"github.com/noah-isme/sma-unit-gateway/pkg/config"
	appErrors "github.com/noah-isme/sma-unit-gateway/pkg/errors"
	"github.com/noah-isme/sma-unit-gateway/pkg/middleware/requestid"
)

const maxResponseBytes = 4 << 20

// Outcomes reported to the Observer.
const (
	OutcomeOK        = "ok"
	OutcomeRejected  = "rejected"
	OutcomeTransport = "transport"
)

// Observer receives timing for each upstream call.
type Observer interface {
	ObserveUpstream(operation, outcome string, duration time.Duration)
}

// classifier turns a rejected response into a domain error. Returning nil falls
// back to the generic mapping.
type classifier func(status int, env envelope) *appErrors.Error

// Client talks to the school REST backend. Every call carries the session's
// bearer token and runs under the configured timeout; nothing is retried.
type Client struct {
	baseURL  string
	timeout  time.Duration
	http     *http.Client
	observer Observer
	logger   *zap.Logger
}

// NewClient constructs the backend client.
func NewClient(cfg config.UpstreamConfig, httpClient *http.Client, observer Observer, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{baseURL: cfg.BaseURL, timeout: timeout, http: httpClient, observer: observer, logger: logger}
}

type call struct {
	operation string
	method    string
	path      string
	query     url.Values
	body      interface{}
	out       interface{}
	classify  classifier
}

func (c *Client) do(ctx context.Context, session models.Session, req call) error {
	if !session.Authenticated() {
		return appErrors.ErrUnauthorized
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	outcome := OutcomeTransport
	defer func() {
		if c.observer != nil {
			c.observer.ObserveUpstream(req.operation, outcome, time.Since(start))
		}
	}()

	httpReq, err := c.newRequest(ctx, session, req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build upstream request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return c.transportError(ctx, req.operation, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.transportError(ctx, req.operation, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.logger.Error("upstream server error", zap.String("operation", req.operation), zap.Int("status", resp.StatusCode))
		env, _ := decodeEnvelope(raw)
		return appErrors.Wrap(fmt.Errorf("%s: status %d", req.operation, resp.StatusCode), appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, messageOr(env.text(), appErrors.ErrTransport.Message))
	}

	env, err := decodeEnvelope(raw)
	if err != nil {
		c.logger.Error("upstream returned undecodable body", zap.String("operation", req.operation), zap.Int("status", resp.StatusCode), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "school service returned an invalid response")
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.ok() {
		outcome = OutcomeRejected
		appErr := c.reject(resp.StatusCode, env, req.classify)
		c.logger.Warn("upstream rejected request", zap.String("operation", req.operation), zap.Int("status", resp.StatusCode), zap.String("code", appErr.Code), zap.String("message", appErr.Message))
		return appErr
	}

	outcome = OutcomeOK
	if req.out == nil || len(bytes.TrimSpace(env.Data)) == 0 || bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, req.out); err != nil {
		outcome = OutcomeTransport
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "school service returned an unexpected payload")
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, session models.Session, req call) (*http.Request, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s body: %w", req.operation, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+session.Token)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if id := requestid.FromContext(ctx); id != "" {
		httpReq.Header.Set(requestid.Header, id)
	}
	return httpReq, nil
}

func (c *Client) transportError(ctx context.Context, operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		c.logger.Error("upstream timeout", zap.String("operation", operation), zap.Duration("timeout", c.timeout))
		return appErrors.Wrap(err, appErrors.ErrUpstreamTimeout.Code, appErrors.ErrUpstreamTimeout.Status, appErrors.ErrUpstreamTimeout.Message)
	}
	c.logger.Error("upstream unreachable", zap.String("operation", operation), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, appErrors.ErrTransport.Message)
}

func (c *Client) reject(status int, env envelope, classify classifier) *appErrors.Error {
	if bool(env.UnitClosed) {
		return appErrors.Clone(appErrors.ErrUnitClosed, env.text())
	}
	if env.Detail != nil && (env.Detail.Zone != nil || env.Detail.Final != nil) {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrConfigMismatch, env.text()), mismatchDetails(env.Detail))
	}
	if classify != nil {
		if appErr := classify(status, env); appErr != nil {
			return appErr
		}
	}

	msg := env.text()
	switch status {
	case http.StatusUnauthorized:
		return appErrors.Clone(appErrors.ErrUnauthorized, msg)
	case http.StatusForbidden:
		return appErrors.Clone(appErrors.ErrForbidden, msg)
	case http.StatusNotFound:
		return appErrors.Clone(appErrors.ErrNotFound, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return appErrors.Clone(appErrors.ErrValidation, msg)
	default:
		return appErrors.Clone(appErrors.ErrConflict, msg)
	}
}

func mismatchDetails(detail *mismatchDetail) map[string]interface{} {
	details := make(map[string]interface{}, 2)
	if detail.Zone != nil {
		details["zone"] = map[string]float64{"configured": float64(detail.Zone.Configured), "actual": float64(detail.Zone.Actual)}
	}
	if detail.Final != nil {
		details["final"] = map[string]float64{"configured": float64(detail.Final.Configured), "actual": float64(detail.Final.Actual)}
	}
	return details
}

func decodeEnvelope(raw []byte) (envelope, error) {
	var env envelope
	if len(bytes.TrimSpace(raw)) == 0 {
		return env, nil
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return envelope{}, err
	}
	return env, nil
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
