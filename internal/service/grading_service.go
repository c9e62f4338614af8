package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-unit-gateway/internal/models"
	appErrors "github.com/noah-isme/sma-unit-gateway/pkg/errors"
)

type gradingUpstream interface {
	GetUnitGroup(ctx context.Context, session models.Session, assignmentID int) (models.UnitGroup, error)
	ListUnitActivities(ctx context.Context, session models.Session, unitID int) ([]models.Activity, error)
	ActivityRoster(ctx context.Context, session models.Session, activityID int) ([]models.RosterEntry, error)
	SaveGrades(ctx context.Context, session models.Session, activityID int, entries []models.GradeEntry) (models.SaveResult, error)
}

// GradeDraft is one student's score as typed by the user. A nil score is left unsent.
type GradeDraft struct {
	StudentID int      `json:"student_id" validate:"required,gt=0"`
	Score     *float64 `json:"score"`
	Note      *string  `json:"note" validate:"omitempty,max=500"`
}

// GradeBatchRequest is the payload of a preview or a save.
type GradeBatchRequest struct {
	Grades []GradeDraft `json:"grades" validate:"required,min=1,dive"`
}

// GradingService loads activity-grading sessions and saves grade batches.
type GradingService struct {
	upstream  gradingUpstream
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradingService constructs the service.
func NewGradingService(upstream gradingUpstream, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *GradingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradingService{upstream: upstream, audit: audit, validator: validate, logger: logger}
}

// LoadSession fetches the unit, the activity roster and, for final activities, every
// zone roster of the unit.
func (s *GradingService) LoadSession(ctx context.Context, session models.Session, key models.GradingKey) (models.GradingSession, error) {
	if key.AssignmentID <= 0 || key.UnitID <= 0 || key.ActivityID <= 0 {
		return models.GradingSession{}, appErrors.Clone(appErrors.ErrValidation, "assignment, unit and activity ids are required")
	}

	group, err := s.upstream.GetUnitGroup(ctx, session, key.AssignmentID)
	if err != nil {
		return models.GradingSession{}, err
	}
	unit, ok := group.Find(key.UnitID)
	if !ok {
		return models.GradingSession{}, appErrors.Clone(appErrors.ErrNotFound, "unit does not belong to the assignment")
	}

	activities, err := s.upstream.ListUnitActivities(ctx, session, key.UnitID)
	if err != nil {
		return models.GradingSession{}, err
	}
	var activity models.Activity
	found := false
	for _, a := range activities {
		if a.ID == key.ActivityID {
			activity, found = a, true
			break
		}
	}
	if !found {
		return models.GradingSession{}, appErrors.Clone(appErrors.ErrNotFound, "activity does not belong to the unit")
	}

	roster, err := s.upstream.ActivityRoster(ctx, session, activity.ID)
	if err != nil {
		return models.GradingSession{}, err
	}

	var zones []models.ZoneRoster
	if activity.Type == models.ActivityFinal {
		for _, a := range activities {
			if a.Type != models.ActivityZone || !a.Active {
				continue
			}
			zoneRoster, err := s.upstream.ActivityRoster(ctx, session, a.ID)
			if err != nil {
				return models.GradingSession{}, err
			}
			zones = append(zones, models.ZoneRoster{Activity: a, Roster: zoneRoster})
		}
	}

	return models.NewGradingSession(unit, activity, roster, zones), nil
}

// Preview applies drafts to a fresh snapshot without saving anything.
func (s *GradingService) Preview(ctx context.Context, session models.Session, key models.GradingKey, req GradeBatchRequest) (models.GradingSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.GradingSession{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	snapshot, err := s.LoadSession(ctx, session, key)
	if err != nil {
		return models.GradingSession{}, err
	}
	return applyDrafts(snapshot, req.Grades)
}

// SaveBatch re-derives the session state, validates every draft and upserts the
// scored entries in one call. Nothing is retried.
func (s *GradingService) SaveBatch(ctx context.Context, session models.Session, key models.GradingKey, req GradeBatchRequest) (models.SaveResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.SaveResult{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	snapshot, err := s.LoadSession(ctx, session, key)
	if err != nil {
		return models.SaveResult{}, err
	}

	switch snapshot.State() {
	case models.StateLocked:
		return models.SaveResult{}, appErrors.WithDetails(appErrors.ErrUnitClosed, map[string]interface{}{"reopen_requestable": true})
	case models.StateBlockedByZone:
		return models.SaveResult{}, appErrors.WithDetails(appErrors.ErrZonesIncomplete, map[string]interface{}{"zone_gaps": snapshot.ZoneGaps()})
	}

	entries, err := draftEntries(snapshot, req.Grades)
	if err != nil {
		return models.SaveResult{}, err
	}

	result, err := s.upstream.SaveGrades(ctx, session, key.ActivityID, entries)
	s.audit.Record(ctx, session, AuditEvent{
		Action:     models.AuditActionSaveGrades,
		ResourceID: fmt.Sprintf("activity:%d", key.ActivityID),
		Outcome:    auditOutcome(err),
		Affected:   len(entries),
		Details:    map[string]interface{}{"unit_id": key.UnitID, "created": result.Created, "updated": result.Updated},
	})
	if err != nil {
		if appErrors.IsKind(err, appErrors.KindDomainConflict) {
			s.logger.Warn("grade batch rejected", zap.Int("activity_id", key.ActivityID), zap.Error(err))
		}
		return models.SaveResult{}, err
	}
	return result, nil
}

// applyDrafts validates the drafts against the roster and applies them in order.
func applyDrafts(snapshot models.GradingSession, drafts []GradeDraft) (models.GradingSession, error) {
	seen := make(map[int]struct{}, len(drafts))
	next := snapshot
	for _, draft := range drafts {
		if _, dup := seen[draft.StudentID]; dup {
			return models.GradingSession{}, appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %d appears more than once", draft.StudentID)),
				map[string]interface{}{"student_id": draft.StudentID},
			)
		}
		seen[draft.StudentID] = struct{}{}

		var err error
		// a draft without a score leaves the stored grade untouched
		if draft.Score == nil {
			if !next.HasStudent(draft.StudentID) {
				return models.GradingSession{}, appErrors.WithDetails(
					appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %d is not enrolled in this activity", draft.StudentID)),
					map[string]interface{}{"student_id": draft.StudentID},
				)
			}
		} else if next, err = next.WithScore(draft.StudentID, draft.Score); err != nil {
			return models.GradingSession{}, appErrors.WithDetails(
				appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()),
				map[string]interface{}{"student_id": draft.StudentID, "max_points": snapshot.Activity().MaxPoints},
			)
		}
		if draft.Note != nil {
			if next, err = next.WithNote(draft.StudentID, draft.Note); err != nil {
				return models.GradingSession{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
			}
		}
	}
	return next, nil
}

// draftEntries returns only the drafted students that carry a score.
func draftEntries(snapshot models.GradingSession, drafts []GradeDraft) ([]models.GradeEntry, error) {
	applied, err := applyDrafts(snapshot, drafts)
	if err != nil {
		return nil, err
	}
	drafted := make(map[int]struct{}, len(drafts))
	for _, d := range drafts {
		if d.Score != nil {
			drafted[d.StudentID] = struct{}{}
		}
	}

	entries := make([]models.GradeEntry, 0, len(drafted))
	for _, entry := range applied.Entries() {
		if _, ok := drafted[entry.StudentID]; ok {
			entries = append(entries, entry)
		}
	}
	if len(entries) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no scored entries to save")
	}
	return entries, nil
}
