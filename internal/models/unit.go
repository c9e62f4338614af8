package models

// UnitsPerAssignment is the fixed number of units created with every course assignment.
const UnitsPerAssignment = 4

// PointsTotal is the value zone and final points must add up to.
const PointsTotal = 100

// CourseAssignment is a (teacher, course, grade, section, shift, year) tuple.
type CourseAssignment struct {
	ID          int    `json:"id"`
	TeacherID   int    `json:"teacher_id"`
	TeacherName string `json:"teacher_name"`
	CourseID    int    `json:"course_id"`
	CourseName  string `json:"course_name"`
	GradeID     int    `json:"grade_id"`
	GradeName   string `json:"grade_name"`
	SectionID   int    `json:"section_id"`
	SectionName string `json:"section_name"`
	ShiftID     int    `json:"shift_id"`
	ShiftName   string `json:"shift_name"`
	Year        int    `json:"year"`
}

// AssignmentFilter scopes the assignment catalog.
type AssignmentFilter struct {
	Year      int
	TeacherID int
}

// Unit is one of the four grading periods of an assignment.
type Unit struct {
	ID            int    `json:"id"`
	AssignmentID  int    `json:"assignment_id"`
	Number        int    `json:"number"`
	Name          string `json:"name"`
	ZonePoints    int    `json:"zone_points"`
	FinalPoints   int    `json:"final_points"`
	Active        bool   `json:"active"`
	ActivityCount int    `json:"activity_count"`
	CanModify     bool   `json:"can_modify"`
}

// Modifiable reports whether the point split may still change.
func (u Unit) Modifiable() bool {
	return u.ActivityCount == 0
}

// UnitGroup is an assignment with its units ordered by number.
type UnitGroup struct {
	Assignment     CourseAssignment `json:"assignment"`
	Units          []Unit           `json:"units"`
	MultipleActive bool             `json:"multiple_active"`
}

// Find returns the unit with the given ID.
func (g UnitGroup) Find(unitID int) (Unit, bool) {
	for _, u := range g.Units {
		if u.ID == unitID {
			return u, true
		}
	}
	return Unit{}, false
}

// ComplementPoints returns the counterpart that completes the 100 point split.
func ComplementPoints(value int) int {
	return PointsTotal - value
}

// ActivityType separates zone work from final evaluations.
type ActivityType string

const (
	ActivityZone  ActivityType = "zona"
	ActivityFinal ActivityType = "final"
)

// Activity is a gradable item inside a unit.
type Activity struct {
	ID        int          `json:"id"`
	UnitID    int          `json:"unit_id"`
	Name      string       `json:"name"`
	Type      ActivityType `json:"type"`
	MaxPoints float64      `json:"max_points"`
	Active    bool         `json:"active"`
	Date      string       `json:"date,omitempty"`
}

// RosterEntry is a student enrolled in the activity's course with the stored grade, if any.
type RosterEntry struct {
	StudentID int      `json:"student_id"`
	Code      string   `json:"code,omitempty"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Score     *float64 `json:"score"`
	Note      *string  `json:"note"`
}

// GradeEntry is one row of a batch grade save.
type GradeEntry struct {
	StudentID int
	Score     float64
	Note      *string
}

// SaveResult reports how the backend applied a batch.
type SaveResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}
