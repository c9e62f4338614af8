package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/noah-isme/sma-unit-gateway/internal/models"
	appErrors "github.com/noah-isme/sma-unit-gateway/pkg/errors"
)

// ListAssignments returns the course assignments visible to the session.
func (c *Client) ListAssignments(ctx context.Context, session models.Session, filter models.AssignmentFilter) ([]models.CourseAssignment, error) {
	query := url.Values{}
	if filter.Year > 0 {
		query.Set("anio", strconv.Itoa(filter.Year))
	}
	if filter.TeacherID > 0 {
		query.Set("idDocente", strconv.Itoa(filter.TeacherID))
	}

	var rows []assignmentWire
	if err := c.do(ctx, session, call{operation: "list_assignments", method: http.MethodGet, path: "/asignaciones", query: query, out: &rows}); err != nil {
		return nil, err
	}
	assignments := make([]models.CourseAssignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.toModel())
	}
	return assignments, nil
}

// GetUnitGroup loads an assignment with its units.
func (c *Client) GetUnitGroup(ctx context.Context, session models.Session, assignmentID int) (models.UnitGroup, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("/unidades/asignacion/%d", assignmentID)
	if err := c.do(ctx, session, call{operation: "get_unit_group", method: http.MethodGet, path: path, out: &raw}); err != nil {
		return models.UnitGroup{}, err
	}

	var group unitGroupWire
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &group.Units); err != nil {
			return models.UnitGroup{}, payloadError("get_unit_group", err)
		}
	default:
		if err := json.Unmarshal(trimmed, &group); err != nil {
			return models.UnitGroup{}, payloadError("get_unit_group", err)
		}
	}

	result := models.UnitGroup{Assignment: group.Assignment.toModel(), Units: make([]models.Unit, 0, len(group.Units))}
	if result.Assignment.ID == 0 {
		result.Assignment.ID = assignmentID
	}
	for _, w := range group.Units {
		unit := w.toModel()
		if unit.AssignmentID == 0 {
			unit.AssignmentID = assignmentID
		}
		result.Units = append(result.Units, unit)
	}
	return result, nil
}

// UpdateUnitConfig changes the zone/final split of a unit.
func (c *Client) UpdateUnitConfig(ctx context.Context, session models.Session, unitID, zonePoints, finalPoints int) (models.Unit, error) {
	var out unitWire
	err := c.do(ctx, session, call{
		operation: "update_unit_config",
		method:    http.MethodPut,
		path:      fmt.Sprintf("/unidades/%d/configuracion", unitID),
		body:      unitConfigRequest{ZonePoints: zonePoints, FinalPoints: finalPoints},
		out:       &out,
		classify:  classifyLocked,
	})
	if err != nil {
		return models.Unit{}, err
	}
	unit := out.toModel()
	if unit.ID == 0 {
		unit.ID = unitID
		unit.ZonePoints = zonePoints
		unit.FinalPoints = finalPoints
		unit.CanModify = true
	}
	return unit, nil
}

// ActivateUnit marks a unit active. The backend deactivates the rest of the assignment.
func (c *Client) ActivateUnit(ctx context.Context, session models.Session, unitID int) (models.Unit, error) {
	var out unitWire
	path := fmt.Sprintf("/unidades/%d/activar", unitID)
	if err := c.do(ctx, session, call{operation: "activate_unit", method: http.MethodPut, path: path, out: &out}); err != nil {
		return models.Unit{}, err
	}
	unit := out.toModel()
	if unit.ID == 0 {
		unit.ID = unitID
	}
	unit.Active = true
	return unit, nil
}

// ListUnitActivities returns every activity of a unit, inactive ones included.
func (c *Client) ListUnitActivities(ctx context.Context, session models.Session, unitID int) ([]models.Activity, error) {
	var rows []activityWire
	path := fmt.Sprintf("/actividades/unidad/%d", unitID)
	if err := c.do(ctx, session, call{operation: "list_unit_activities", method: http.MethodGet, path: path, out: &rows}); err != nil {
		return nil, err
	}
	activities := make([]models.Activity, 0, len(rows))
	for _, row := range rows {
		activity := row.toModel()
		if activity.UnitID == 0 {
			activity.UnitID = unitID
		}
		activities = append(activities, activity)
	}
	return activities, nil
}

// ActivityRoster returns the students of the activity's course with their stored grade.
func (c *Client) ActivityRoster(ctx context.Context, session models.Session, activityID int) ([]models.RosterEntry, error) {
	var rows []rosterWire
	path := fmt.Sprintf("/actividades/%d/alumnos", activityID)
	if err := c.do(ctx, session, call{operation: "activity_roster", method: http.MethodGet, path: path, out: &rows}); err != nil {
		return nil, err
	}
	roster := make([]models.RosterEntry, 0, len(rows))
	for _, row := range rows {
		roster = append(roster, models.RosterEntry{
			StudentID: row.StudentID,
			Code:      row.Code,
			FirstName: row.FirstName,
			LastName:  row.LastName,
			Score:     row.Score.ptr(),
			Note:      row.Note,
		})
	}
	return roster, nil
}

// SaveGrades upserts a batch of grades for one activity.
func (c *Client) SaveGrades(ctx context.Context, session models.Session, activityID int, entries []models.GradeEntry) (models.SaveResult, error) {
	req := batchRequest{Grades: make([]gradeWire, 0, len(entries))}
	for _, entry := range entries {
		req.Grades = append(req.Grades, gradeWire{StudentID: entry.StudentID, Score: entry.Score, Note: entry.Note})
	}

	var out batchResponse
	path := fmt.Sprintf("/calificaciones/actividad/%d/batch", activityID)
	if err := c.do(ctx, session, call{operation: "save_grades", method: http.MethodPost, path: path, body: req, out: &out}); err != nil {
		return models.SaveResult{}, err
	}
	return models.SaveResult{Created: out.Created, Updated: out.Updated}, nil
}

// ClosureStatus returns per-course readiness for unit number n across all assignments.
func (c *Client) ClosureStatus(ctx context.Context, session models.Session, n int) (models.ClosureReport, error) {
	var out closureStatusWire
	path := fmt.Sprintf("/cierre-unidades/estado-por-numero/%d", n)
	if err := c.do(ctx, session, call{operation: "closure_status", method: http.MethodGet, path: path, out: &out}); err != nil {
		return models.ClosureReport{}, err
	}

	report := models.ClosureReport{
		Courses: make([]models.CourseReadiness, 0, len(out.Courses)),
		Totals: models.ClosureTotals{
			TotalCourses:      out.Summary.TotalCourses,
			ReadyCourses:      out.Summary.ReadyCourses,
			PendingCourses:    out.Summary.PendingCourses,
			IncompleteCourses: out.Summary.IncompleteCourses,
		},
	}
	for _, w := range out.Courses {
		report.Courses = append(report.Courses, w.toModel())
	}
	return report, nil
}

// RecomputeClosure asks the backend to refresh readiness for unit number n.
func (c *Client) RecomputeClosure(ctx context.Context, session models.Session, n int) error {
	path := fmt.Sprintf("/cierre-unidades/actualizar-todos-por-numero/%d", n)
	return c.do(ctx, session, call{operation: "recompute_closure", method: http.MethodPost, path: path})
}

// CloseReadyCourses closes every LISTO course at unit number n in one call.
func (c *Client) CloseReadyCourses(ctx context.Context, session models.Session, n int) (int, error) {
	var out closeResponse
	path := fmt.Sprintf("/cierre-unidades/cerrar-cursos-listos-por-numero/%d", n)
	if err := c.do(ctx, session, call{operation: "close_ready_courses", method: http.MethodPost, path: path, out: &out}); err != nil {
		return 0, err
	}
	return out.ClosedCourses, nil
}

// NotifyIncomplete creates teacher notifications for pending and incomplete courses.
func (c *Client) NotifyIncomplete(ctx context.Context, session models.Session, n, deadlineDays int) (int, error) {
	var out notifyResponse
	err := c.do(ctx, session, call{
		operation: "notify_incomplete",
		method:    http.MethodPost,
		path:      fmt.Sprintf("/notificaciones-docentes/generar-por-numero/%d", n),
		body:      notifyRequest{DeadlineDays: deadlineDays},
		out:       &out,
	})
	if err != nil {
		return 0, err
	}
	return out.Created, nil
}

func classifyLocked(status int, env envelope) *appErrors.Error {
	if status != http.StatusConflict && !bool(env.HasActivities) {
		return nil
	}
	locked := appErrors.Clone(appErrors.ErrUnitLocked, env.text())
	if env.ActivityCount != nil {
		locked = appErrors.WithDetails(locked, map[string]interface{}{"activity_count": *env.ActivityCount})
	}
	return locked
}

func payloadError(operation string, err error) error {
	return appErrors.Wrap(fmt.Errorf("%s: %w", operation, err), appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "school service returned an unexpected payload")
}

func (w assignmentWire) toModel() models.CourseAssignment {
	return models.CourseAssignment{
		ID:          w.ID,
		TeacherID:   w.TeacherID,
		TeacherName: w.TeacherName,
		CourseID:    w.CourseID,
		CourseName:  w.CourseName,
		GradeID:     w.GradeID,
		GradeName:   w.GradeName,
		SectionID:   w.SectionID,
		SectionName: w.SectionName,
		ShiftID:     w.ShiftID,
		ShiftName:   w.ShiftName,
		Year:        w.Year,
	}
}

func (w unitWire) toModel() models.Unit {
	unit := models.Unit{
		ID:            w.ID,
		AssignmentID:  w.AssignmentID,
		Number:        w.Number,
		Name:          w.Name,
		ZonePoints:    int(math.Round(float64(w.ZonePoints))),
		FinalPoints:   int(math.Round(float64(w.FinalPoints))),
		Active:        bool(w.Active),
		ActivityCount: w.ActivityCount,
	}
	unit.CanModify = unit.Modifiable()
	return unit
}

func (w activityWire) toModel() models.Activity {
	active := true
	if w.Active != nil {
		active = bool(*w.Active)
	}
	kind := models.ActivityZone
	if strings.EqualFold(strings.TrimSpace(w.Type), string(models.ActivityFinal)) {
		kind = models.ActivityFinal
	}
	return models.Activity{
		ID:        w.ID,
		UnitID:    w.UnitID,
		Name:      w.Name,
		Type:      kind,
		MaxPoints: float64(w.MaxPoints),
		Active:    active,
		Date:      w.Date,
	}
}

func (w courseStatusWire) toModel() models.CourseReadiness {
	level := w.GradeLevel
	if level == 0 {
		level = leadingNumber(w.GradeName)
	}
	problems := w.Problems
	if problems == nil {
		problems = []string{}
	}
	return models.CourseReadiness{
		AssignmentID:   w.AssignmentID,
		CourseName:     w.CourseName,
		GradeName:      w.GradeName,
		GradeLevel:     level,
		SectionName:    w.SectionName,
		TeacherID:      w.TeacherID,
		TeacherName:    w.TeacherName,
		TotalStudents:  w.TotalStudents,
		GradedStudents: w.GradedStudents,
		Status:         models.ReadinessStatus(strings.ToUpper(strings.TrimSpace(w.Status))),
		Problems:       problems,
	}
}

// leadingNumber reads the grade level out of names such as "1ro Básico".
func leadingNumber(name string) int {
	name = strings.TrimSpace(name)
	end := 0
	for end < len(name) && unicode.IsDigit(rune(name[end])) {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(name[:end])
	if err != nil {
		return 0
	}
	return n
}
