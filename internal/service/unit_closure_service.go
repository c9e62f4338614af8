package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-unit-gateway/internal/models"
	"github.com/noah-isme/sma-unit-gateway/pkg/confirmation"
	appErrors "github.com/noah-isme/sma-unit-gateway/pkg/errors"
)

// Confirmation actions.
const (
	ActionClose  = "close"
	ActionNotify = "notify"
)

type closureUpstream interface {
	ClosureStatus(ctx context.Context, session models.Session, n int) (models.ClosureReport, error)
	RecomputeClosure(ctx context.Context, session models.Session, n int) error
	CloseReadyCourses(ctx context.Context, session models.Session, n int) (int, error)
	NotifyIncomplete(ctx context.Context, session models.Session, n, deadlineDays int) (int, error)
}

type confirmationSigner interface {
	Issue(claim confirmation.Claim) (string, confirmation.Claim, error)
	Parse(token string) (confirmation.Claim, error)
}

// Confirmation is what the user must echo back to run a bulk action.
type Confirmation struct {
	Token      string                `json:"token"`
	Action     string                `json:"action"`
	UnitNumber int                   `json:"unit_number"`
	Count      int                   `json:"count"`
	ExpiresAt  time.Time             `json:"expires_at"`
	Summary    models.ClosureSummary `json:"summary"`
}

// ConfirmRequest carries a confirmation back.
type ConfirmRequest struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// UnitClosureService drives the readiness view and the bulk close/notify actions of a unit number.
type UnitClosureService struct {
	upstream closureUpstream
	signer   confirmationSigner
	ledger   *ConfirmationLedger
	catalog  catalogInvalidator
	audit    *AuditService
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

type catalogInvalidator interface {
	Invalidate(ctx context.Context)
}

// UnitClosureOption configures the service.
type UnitClosureOption func(*UnitClosureService)

// WithConfirmationLedger shares a ledger of spent confirmations, typically Redis backed.
func WithConfirmationLedger(ledger *ConfirmationLedger) UnitClosureOption {
	return func(s *UnitClosureService) {
		if ledger != nil {
			s.ledger = ledger
		}
	}
}

// WithCatalogInvalidator drops cached catalog pages after courses are closed.
func WithCatalogInvalidator(catalog catalogInvalidator) UnitClosureOption {
	return func(s *UnitClosureService) {
		s.catalog = catalog
	}
}

// NewUnitClosureService constructs the service. Without a ledger option spent
// confirmations are tracked in memory.
func NewUnitClosureService(upstream closureUpstream, signer confirmationSigner, audit *AuditService, metrics *MetricsService, logger *zap.Logger, opts ...UnitClosureOption) *UnitClosureService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &UnitClosureService{upstream: upstream, signer: signer, audit: audit, metrics: metrics, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.ledger == nil {
		svc.ledger = NewConfirmationLedger(nil, logger)
	}
	return svc
}

// GetStatus returns sorted per-course readiness and the summary for unit number n.
func (s *UnitClosureService) GetStatus(ctx context.Context, session models.Session, n int) (models.ClosureStatus, error) {
	if err := s.guard(session, n); err != nil {
		return models.ClosureStatus{}, err
	}
	return s.status(ctx, session, n)
}

// RecomputeStatus waits for the backend recompute to finish and then refetches.
func (s *UnitClosureService) RecomputeStatus(ctx context.Context, session models.Session, n int) (models.ClosureStatus, error) {
	if err := s.guard(session, n); err != nil {
		return models.ClosureStatus{}, err
	}
	err := s.upstream.RecomputeClosure(ctx, session, n)
	s.audit.Record(ctx, session, AuditEvent{Action: models.AuditActionRecompute, UnitNumber: &n, Outcome: auditOutcome(err)})
	if err != nil {
		return models.ClosureStatus{}, err
	}
	return s.status(ctx, session, n)
}

// History lists the audit trail of bulk actions on unit n, newest first.
func (s *UnitClosureService) History(ctx context.Context, session models.Session, n int, action string, limit int) ([]models.AuditLog, error) {
	if err := s.guard(session, n); err != nil {
		return nil, err
	}
	if action != "" && !models.IsAuditAction(action) {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown audit action %q", action)),
			map[string]interface{}{"action": action},
		)
	}
	return s.audit.List(ctx, models.AuditFilter{Action: action, UnitNumber: &n, Limit: limit})
}

// PrepareClose issues a confirmation naming the number of courses that would close.
func (s *UnitClosureService) PrepareClose(ctx context.Context, session models.Session, n int) (Confirmation, error) {
	if err := s.guard(session, n); err != nil {
		return Confirmation{}, err
	}
	status, err := s.status(ctx, session, n)
	if err != nil {
		return Confirmation{}, err
	}
	if !status.Summary.CanClose {
		return Confirmation{}, appErrors.ErrNothingToClose
	}
	return s.issue(session, ActionClose, n, status.Summary.ReadyCourses, status.Summary)
}

// CloseReadyCourses closes every ready course at unit number n once the confirmation
// still matches the current ready count.
func (s *UnitClosureService) CloseReadyCourses(ctx context.Context, session models.Session, n int, req ConfirmRequest) (models.CloseResult, error) {
	if err := s.guard(session, n); err != nil {
		return models.CloseResult{}, err
	}
	claim, err := s.verify(session, ActionClose, n, req)
	if err != nil {
		return models.CloseResult{}, err
	}

	status, err := s.status(ctx, session, n)
	if err != nil {
		return models.CloseResult{}, err
	}
	ready := status.Summary.ReadyCourses
	if ready == 0 {
		s.reject(ctx, session, models.AuditActionCloseUnit, ActionClose, n, appErrors.ErrNothingToClose)
		return models.CloseResult{}, appErrors.ErrNothingToClose
	}
	if ready != claim.Count {
		stale := staleError(claim.Count, ready)
		s.reject(ctx, session, models.AuditActionCloseUnit, ActionClose, n, stale)
		return models.CloseResult{}, stale
	}

	if err := s.spend(ctx, session, models.AuditActionCloseUnit, ActionClose, n, claim); err != nil {
		return models.CloseResult{}, err
	}

	closed, err := s.upstream.CloseReadyCourses(ctx, session, n)
	s.finish(ctx, session, models.AuditActionCloseUnit, ActionClose, n, closed, err, map[string]interface{}{"confirmed": claim.Count, "nonce": claim.Nonce})
	if err != nil {
		return models.CloseResult{}, err
	}
	if s.catalog != nil {
		s.catalog.Invalidate(ctx)
	}
	return models.CloseResult{UnitNumber: n, ClosedCourses: closed}, nil
}

// PrepareNotify issues a confirmation naming the number of courses whose teachers would be notified.
func (s *UnitClosureService) PrepareNotify(ctx context.Context, session models.Session, n int) (Confirmation, error) {
	if err := s.guard(session, n); err != nil {
		return Confirmation{}, err
	}
	status, err := s.status(ctx, session, n)
	if err != nil {
		return Confirmation{}, err
	}
	if !status.Summary.CanNotify {
		return Confirmation{}, appErrors.ErrNothingToNotify
	}
	return s.issue(session, ActionNotify, n, status.Summary.ToNotify, status.Summary)
}

// NotifyIncomplete asks the backend to notify teachers of pending and incomplete courses
// with the fixed deadline.
func (s *UnitClosureService) NotifyIncomplete(ctx context.Context, session models.Session, n int, req ConfirmRequest) (models.NotifyResult, error) {
	if err := s.guard(session, n); err != nil {
		return models.NotifyResult{}, err
	}
	claim, err := s.verify(session, ActionNotify, n, req)
	if err != nil {
		return models.NotifyResult{}, err
	}

	status, err := s.status(ctx, session, n)
	if err != nil {
		return models.NotifyResult{}, err
	}
	toNotify := status.Summary.ToNotify
	if toNotify == 0 {
		s.reject(ctx, session, models.AuditActionNotifyTeachers, ActionNotify, n, appErrors.ErrNothingToNotify)
		return models.NotifyResult{}, appErrors.ErrNothingToNotify
	}
	if toNotify != claim.Count {
		stale := staleError(claim.Count, toNotify)
		s.reject(ctx, session, models.AuditActionNotifyTeachers, ActionNotify, n, stale)
		return models.NotifyResult{}, stale
	}

	if err := s.spend(ctx, session, models.AuditActionNotifyTeachers, ActionNotify, n, claim); err != nil {
		return models.NotifyResult{}, err
	}

	created, err := s.upstream.NotifyIncomplete(ctx, session, n, models.NotifyDeadlineDays)
	s.finish(ctx, session, models.AuditActionNotifyTeachers, ActionNotify, n, created, err, map[string]interface{}{"confirmed": claim.Count, "deadline_days": models.NotifyDeadlineDays, "nonce": claim.Nonce})
	if err != nil {
		return models.NotifyResult{}, err
	}
	deadline := s.now().AddDate(0, 0, models.NotifyDeadlineDays)
	return models.NotifyResult{
		UnitNumber:           n,
		NotificationsCreated: created,
		Deadline:             time.Date(deadline.Year(), deadline.Month(), deadline.Day(), 0, 0, 0, 0, deadline.Location()),
	}, nil
}

func (s *UnitClosureService) status(ctx context.Context, session models.Session, n int) (models.ClosureStatus, error) {
	report, err := s.upstream.ClosureStatus(ctx, session, n)
	if err != nil {
		return models.ClosureStatus{}, err
	}
	return models.NewClosureStatus(n, report), nil
}

func (s *UnitClosureService) guard(session models.Session, n int) error {
	if err := requireAdmin(session); err != nil {
		return err
	}
	if n < 1 || n > models.UnitsPerAssignment {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unit number must be between 1 and %d", models.UnitsPerAssignment))
	}
	return nil
}

func (s *UnitClosureService) issue(session models.Session, action string, n, count int, summary models.ClosureSummary) (Confirmation, error) {
	token, claim, err := s.signer.Issue(confirmation.Claim{Action: action, UnitNumber: n, Count: count, UserID: session.UserID})
	if err != nil {
		return Confirmation{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue confirmation")
	}
	return Confirmation{Token: token, Action: action, UnitNumber: n, Count: count, ExpiresAt: claim.ExpiresAt, Summary: summary}, nil
}

func (s *UnitClosureService) verify(session models.Session, action string, n int, req ConfirmRequest) (confirmation.Claim, error) {
	if req.Token == "" {
		return confirmation.Claim{}, appErrors.ErrConfirmationRequired
	}
	claim, err := s.signer.Parse(req.Token)
	switch {
	case errors.Is(err, confirmation.ErrExpiredToken):
		return confirmation.Claim{}, appErrors.Clone(appErrors.ErrConfirmationRequired, "confirmation expired, confirm again")
	case err != nil:
		return confirmation.Claim{}, appErrors.Clone(appErrors.ErrConfirmationRequired, "confirmation is not valid")
	}
	if claim.Action != action || claim.UnitNumber != n || claim.UserID != session.UserID || claim.Count != req.Count {
		return confirmation.Claim{}, appErrors.Clone(appErrors.ErrConfirmationRequired, "confirmation does not match this action")
	}
	return claim, nil
}

// spend consumes the confirmation right before the bulk call. Concurrent or repeated
// submissions of the same token lose here.
func (s *UnitClosureService) spend(ctx context.Context, session models.Session, auditAction, action string, n int, claim confirmation.Claim) error {
	if s.ledger.Consume(ctx, claim.Nonce, claim.ExpiresAt) {
		return nil
	}
	used := appErrors.WithDetails(
		appErrors.Clone(appErrors.ErrConfirmationRequired, "confirmation already used, confirm again"),
		map[string]interface{}{"nonce": claim.Nonce},
	)
	s.reject(ctx, session, auditAction, action, n, used)
	return used
}

func (s *UnitClosureService) reject(ctx context.Context, session models.Session, auditAction, action string, n int, err error) {
	s.logger.Warn("bulk action refused", zap.String("action", action), zap.Int("unit_number", n), zap.Error(err))
	s.metrics.RecordBulkAction(action, n, models.AuditOutcomeRejected)
	var details map[string]interface{}
	if appErr := appErrors.FromError(err); appErr != nil {
		details = appErr.Details
	}
	s.audit.Record(ctx, session, AuditEvent{Action: auditAction, UnitNumber: &n, Outcome: models.AuditOutcomeRejected, Details: details})
}

func (s *UnitClosureService) finish(ctx context.Context, session models.Session, auditAction, action string, n, affected int, err error, details map[string]interface{}) {
	outcome := auditOutcome(err)
	s.metrics.RecordBulkAction(action, n, outcome)
	if err != nil {
		s.logger.Warn("bulk action failed", zap.String("action", action), zap.Int("unit_number", n), zap.Error(err))
	} else {
		s.logger.Info("bulk action completed", zap.String("action", action), zap.Int("unit_number", n), zap.Int("affected", affected), zap.String("user_id", session.UserID))
	}
	s.audit.Record(ctx, session, AuditEvent{Action: auditAction, UnitNumber: &n, Outcome: outcome, Affected: affected, Details: details})
}

func staleError(confirmed, current int) error {
	return appErrors.WithDetails(appErrors.ErrConfirmationStale, map[string]interface{}{"confirmed": confirmed, "current": current})
}
