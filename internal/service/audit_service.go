package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-unit-gateway/internal/models"
	appErrors "github.com/noah-isme/sma-unit-gateway/pkg/errors"
	"github.com/noah-isme/sma-unit-gateway/pkg/jobs"
	"github.com/noah-isme/sma-unit-gateway/pkg/middleware/requestid"
)

type auditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error)
}

type auditEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// AuditEvent describes one audited gateway action.
type AuditEvent struct {
	Action     string
	UnitNumber *int
	ResourceID string
	Outcome    string
	Affected   int
	Details    map[string]interface{}
}

// AuditService records bulk actions and domain conflicts off the request path.
type AuditService struct {
	repo    auditStore
	queue   auditEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAuditService constructs the audit service. A nil repo disables recording.
func NewAuditService(repo auditStore, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, metrics: metrics, logger: logger}
}

// AttachQueue routes records through the background queue.
func (s *AuditService) AttachQueue(queue auditEnqueuer) {
	if s != nil {
		s.queue = queue
	}
}

// Record stores the event. It never fails the caller.
func (s *AuditService) Record(ctx context.Context, session models.Session, event AuditEvent) {
	if s == nil || s.repo == nil {
		return
	}
	entry, err := s.build(ctx, session, event)
	if err != nil {
		s.logger.Warn("audit entry dropped", zap.String("action", event.Action), zap.Error(err))
		s.metrics.RecordAuditJob("dropped")
		return
	}

	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{ID: entry.ID, Type: entry.Action, Payload: entry, Enqueued: time.Now()})
		if err == nil {
			s.metrics.RecordAuditJob("queued")
			return
		}
		if !errors.Is(err, jobs.ErrQueueFull) {
			s.logger.Warn("audit queue unavailable, writing inline", zap.Error(err))
		} else {
			s.logger.Warn("audit queue full, writing inline", zap.String("action", entry.Action))
		}
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.write(writeCtx, entry); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", entry.Action), zap.Error(err))
	}
}

// List returns recorded entries newest first. Without a store the trail is empty.
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error) {
	if s == nil || s.repo == nil {
		return []models.AuditLog{}, nil
	}
	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit trail")
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return logs, nil
}

// HandleJob is the queue handler persisting a queued entry.
func (s *AuditService) HandleJob(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditLog)
	if !ok {
		return fmt.Errorf("unexpected audit payload %T", job.Payload)
	}
	return s.write(ctx, entry)
}

func (s *AuditService) write(ctx context.Context, entry *models.AuditLog) error {
	if err := s.repo.Create(ctx, entry); err != nil {
		s.metrics.RecordAuditJob("failed")
		return err
	}
	s.metrics.RecordAuditJob("written")
	return nil
}

func (s *AuditService) build(ctx context.Context, session models.Session, event AuditEvent) (*models.AuditLog, error) {
	entry := &models.AuditLog{
		ID:         uuid.NewString(),
		UserID:     session.UserID,
		Action:     event.Action,
		UnitNumber: event.UnitNumber,
		Outcome:    event.Outcome,
		Affected:   event.Affected,
		CreatedAt:  time.Now().UTC(),
	}
	if entry.UserID == "" {
		entry.UserID = "anonymous"
	}
	if event.ResourceID != "" {
		resource := event.ResourceID
		entry.ResourceID = &resource
	}
	if id := requestid.FromContext(ctx); id != "" {
		entry.RequestID = &id
	}
	if len(event.Details) > 0 {
		raw, err := json.Marshal(event.Details)
		if err != nil {
			return nil, fmt.Errorf("marshal audit details: %w", err)
		}
		entry.Details = raw
	}
	return entry, nil
}

func auditOutcome(err error) string {
	if err == nil {
		return models.AuditOutcomeSuccess
	}
	switch appErrors.FromError(err).Kind {
	case appErrors.KindTransport, appErrors.KindInternal:
		return models.AuditOutcomeFailed
	default:
		return models.AuditOutcomeRejected
	}
}
