package service

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/sma-unit-gateway/internal/models"
	appErrors "github.com/noah-isme/sma-unit-gateway/pkg/errors"
)

var (
	adminSession   = models.Session{UserID: "admin-1", Role: models.RoleAdmin, Token: "token-admin"}
	teacherSession = models.Session{UserID: "teacher-1", Role: models.RoleTeacher, Token: "token-teacher", TeacherID: intPtr(9)}
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

// fakeUpstream is an in-memory school backend.
type fakeUpstream struct {
	mu sync.Mutex

	assignments []models.CourseAssignment
	groups      map[int]models.UnitGroup
	activities  map[int][]models.Activity
	rosters     map[int][]models.RosterEntry
	reports     []models.ClosureReport

	activateErr error
	closeErr    error

	calls        []string
	savedBatches map[int][]models.GradeEntry
	notifyDays   int
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		groups:       map[int]models.UnitGroup{},
		activities:   map[int][]models.Activity{},
		rosters:      map[int][]models.RosterEntry{},
		savedBatches: map[int][]models.GradeEntry{},
	}
}

func (f *fakeUpstream) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeUpstream) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeUpstream) ListAssignments(ctx context.Context, session models.Session, filter models.AssignmentFilter) ([]models.CourseAssignment, error) {
	f.record("list_assignments")
	var out []models.CourseAssignment
	for _, a := range f.assignments {
		if filter.TeacherID > 0 && a.TeacherID != filter.TeacherID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeUpstream) GetUnitGroup(ctx context.Context, session models.Session, assignmentID int) (models.UnitGroup, error) {
	f.record("get_unit_group")
	group, ok := f.groups[assignmentID]
	if !ok {
		return models.UnitGroup{}, appErrors.ErrNotFound
	}
	units := make([]models.Unit, len(group.Units))
	copy(units, group.Units)
	group.Units = units
	return group, nil
}

func (f *fakeUpstream) UpdateUnitConfig(ctx context.Context, session models.Session, unitID, zonePoints, finalPoints int) (models.Unit, error) {
	f.record("update_unit_config")
	for id, group := range f.groups {
		for i, u := range group.Units {
			if u.ID != unitID {
				continue
			}
			if u.ActivityCount > 0 {
				return models.Unit{}, appErrors.Clone(appErrors.ErrUnitLocked, "server: unit has activities")
			}
			group.Units[i].ZonePoints = zonePoints
			group.Units[i].FinalPoints = finalPoints
			f.groups[id] = group
			return group.Units[i], nil
		}
	}
	return models.Unit{}, appErrors.ErrNotFound
}

func (f *fakeUpstream) ActivateUnit(ctx context.Context, session models.Session, unitID int) (models.Unit, error) {
	f.record("activate_unit")
	if f.activateErr != nil {
		return models.Unit{}, f.activateErr
	}
	return models.Unit{ID: unitID, Active: true}, nil
}

func (f *fakeUpstream) ListUnitActivities(ctx context.Context, session models.Session, unitID int) ([]models.Activity, error) {
	f.record("list_unit_activities")
	return f.activities[unitID], nil
}

func (f *fakeUpstream) ActivityRoster(ctx context.Context, session models.Session, activityID int) ([]models.RosterEntry, error) {
	f.record("activity_roster")
	roster := f.rosters[activityID]
	out := make([]models.RosterEntry, len(roster))
	copy(out, roster)
	return out, nil
}

// SaveGrades upserts per student so a repeated save reports updates.
func (f *fakeUpstream) SaveGrades(ctx context.Context, session models.Session, activityID int, entries []models.GradeEntry) (models.SaveResult, error) {
	f.record("save_grades")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedBatches[activityID] = entries

	result := models.SaveResult{}
	roster := f.rosters[activityID]
	for _, entry := range entries {
		for i := range roster {
			if roster[i].StudentID != entry.StudentID {
				continue
			}
			if roster[i].Score == nil {
				result.Created++
			} else {
				result.Updated++
			}
			v := entry.Score
			roster[i].Score = &v
		}
	}
	f.rosters[activityID] = roster
	return result, nil
}

// ClosureStatus pops the next scripted report, repeating the last one.
func (f *fakeUpstream) ClosureStatus(ctx context.Context, session models.Session, n int) (models.ClosureReport, error) {
	f.record("closure_status")
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reports) == 0 {
		return models.ClosureReport{}, nil
	}
	report := f.reports[0]
	if len(f.reports) > 1 {
		f.reports = f.reports[1:]
	}
	return report, nil
}

func (f *fakeUpstream) RecomputeClosure(ctx context.Context, session models.Session, n int) error {
	f.record("recompute_closure")
	return nil
}

func (f *fakeUpstream) CloseReadyCourses(ctx context.Context, session models.Session, n int) (int, error) {
	f.record("close_ready_courses")
	if f.closeErr != nil {
		return 0, f.closeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reports) == 0 {
		return 0, nil
	}
	return f.reports[0].Totals.ReadyCourses, nil
}

func (f *fakeUpstream) NotifyIncomplete(ctx context.Context, session models.Session, n, deadlineDays int) (int, error) {
	f.record("notify_incomplete")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifyDays = deadlineDays
	if len(f.reports) == 0 {
		return 0, nil
	}
	return f.reports[0].Totals.ToNotify(), nil
}

// fixedClock returns a deterministic clock.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
