package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-unit-gateway/internal/models"
	appErrors "github.com/noah-isme/sma-unit-gateway/pkg/errors"
)

type unitUpstream interface {
	GetUnitGroup(ctx context.Context, session models.Session, assignmentID int) (models.UnitGroup, error)
	UpdateUnitConfig(ctx context.Context, session models.Session, unitID, zonePoints, finalPoints int) (models.Unit, error)
	ActivateUnit(ctx context.Context, session models.Session, unitID int) (models.Unit, error)
}

// UpdateUnitPointsRequest changes the zone/final split. Either value may be omitted
// and is then completed to 100 from the other.
type UpdateUnitPointsRequest struct {
	AssignmentID int  `json:"assignment_id" validate:"omitempty,gt=0"`
	ZonePoints   *int `json:"zone_points" validate:"omitempty,min=0,max=100"`
	FinalPoints  *int `json:"final_points" validate:"omitempty,min=0,max=100"`
}

// UnitConfigService lists an assignment's units, edits their point split and activates them.
type UnitConfigService struct {
	upstream  unitUpstream
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUnitConfigService constructs the service.
func NewUnitConfigService(upstream unitUpstream, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *UnitConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnitConfigService{upstream: upstream, audit: audit, validator: validate, logger: logger}
}

// ListUnits returns the assignment with its units ordered by number.
func (s *UnitConfigService) ListUnits(ctx context.Context, session models.Session, assignmentID int) (models.UnitGroup, error) {
	if assignmentID <= 0 {
		return models.UnitGroup{}, appErrors.Clone(appErrors.ErrValidation, "assignment id must be positive")
	}
	group, err := s.upstream.GetUnitGroup(ctx, session, assignmentID)
	if err != nil {
		return models.UnitGroup{}, err
	}

	sort.SliceStable(group.Units, func(i, j int) bool { return group.Units[i].Number < group.Units[j].Number })
	active := 0
	for i := range group.Units {
		group.Units[i].CanModify = group.Units[i].Modifiable()
		if group.Units[i].Active {
			active++
		}
	}
	group.MultipleActive = active > 1
	if group.MultipleActive {
		s.logger.Warn("assignment has more than one active unit",
			zap.Int("assignment_id", assignmentID),
			zap.Int("active_units", active),
		)
	}
	if len(group.Units) != models.UnitsPerAssignment {
		s.logger.Warn("unexpected unit count", zap.Int("assignment_id", assignmentID), zap.Int("units", len(group.Units)))
	}
	return group, nil
}

// ComplementPoints returns the value that completes a 100 point split.
func (s *UnitConfigService) ComplementPoints(value int) (int, error) {
	if value < 0 || value > models.PointsTotal {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("points must be between 0 and %d", models.PointsTotal))
	}
	return models.ComplementPoints(value), nil
}

// UpdateUnitPoints validates the split locally, refuses locked units and then updates upstream.
func (s *UnitConfigService) UpdateUnitPoints(ctx context.Context, session models.Session, unitID int, req UpdateUnitPointsRequest) (models.Unit, error) {
	if err := requireAdmin(session); err != nil {
		return models.Unit{}, err
	}
	zone, final, err := s.resolveSplit(unitID, req)
	if err != nil {
		return models.Unit{}, err
	}

	if req.AssignmentID > 0 {
		group, err := s.upstream.GetUnitGroup(ctx, session, req.AssignmentID)
		if err != nil {
			return models.Unit{}, err
		}
		current, ok := group.Find(unitID)
		if !ok {
			return models.Unit{}, appErrors.Clone(appErrors.ErrNotFound, "unit does not belong to the assignment")
		}
		if !current.Modifiable() {
			locked := appErrors.WithDetails(appErrors.ErrUnitLocked, map[string]interface{}{"activity_count": current.ActivityCount})
			s.recordUnit(ctx, session, models.AuditActionUpdatePoints, unitID, locked, map[string]interface{}{"zone_points": zone, "final_points": final})
			return models.Unit{}, locked
		}
	}

	unit, err := s.upstream.UpdateUnitConfig(ctx, session, unitID, zone, final)
	s.recordUnit(ctx, session, models.AuditActionUpdatePoints, unitID, err, map[string]interface{}{"zone_points": zone, "final_points": final})
	if err != nil {
		return models.Unit{}, err
	}
	return unit, nil
}

// ActivateUnit makes the unit the active one of its assignment.
func (s *UnitConfigService) ActivateUnit(ctx context.Context, session models.Session, unitID int) (models.Unit, error) {
	if err := requireAdmin(session); err != nil {
		return models.Unit{}, err
	}
	if unitID <= 0 {
		return models.Unit{}, appErrors.Clone(appErrors.ErrValidation, "unit id must be positive")
	}

	unit, err := s.upstream.ActivateUnit(ctx, session, unitID)
	var details map[string]interface{}
	if appErr := appErrors.FromError(err); appErr != nil && appErr.Details != nil {
		details = appErr.Details
	}
	s.recordUnit(ctx, session, models.AuditActionActivateUnit, unitID, err, details)
	if err != nil {
		return models.Unit{}, err
	}
	return unit, nil
}

func (s *UnitConfigService) resolveSplit(unitID int, req UpdateUnitPointsRequest) (int, int, error) {
	if unitID <= 0 {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "unit id must be positive")
	}
	if err := s.validator.Struct(req); err != nil {
		return 0, 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "points must be between 0 and 100")
	}

	switch {
	case req.ZonePoints == nil && req.FinalPoints == nil:
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "zone or final points are required")
	case req.FinalPoints == nil:
		return *req.ZonePoints, models.ComplementPoints(*req.ZonePoints), nil
	case req.ZonePoints == nil:
		return models.ComplementPoints(*req.FinalPoints), *req.FinalPoints, nil
	}

	zone, final := *req.ZonePoints, *req.FinalPoints
	if zone+final != models.PointsTotal {
		return 0, 0, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("zone and final points must add up to %d", models.PointsTotal)),
			map[string]interface{}{"zone_points": zone, "final_points": final, "sum": zone + final},
		)
	}
	return zone, final, nil
}

func (s *UnitConfigService) recordUnit(ctx context.Context, session models.Session, action string, unitID int, err error, details map[string]interface{}) {
	if err != nil && appErrors.IsKind(err, appErrors.KindDomainConflict) {
		s.logger.Warn("unit change rejected", zap.String("action", action), zap.Int("unit_id", unitID), zap.Error(err))
	}
	s.audit.Record(ctx, session, AuditEvent{
		Action:     action,
		ResourceID: fmt.Sprintf("unit:%d", unitID),
		Outcome:    auditOutcome(err),
		Details:    details,
	})
}

func requireAdmin(session models.Session) error {
	if !session.Authenticated() {
		return appErrors.ErrUnauthorized
	}
	if !session.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "administrator role required")
	}
	return nil
}
