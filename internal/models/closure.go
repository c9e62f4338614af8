package models

import (
	"math"
	"sort"
	"time"
)

// ReadinessStatus is the backend's verdict for one course at one unit number.
type ReadinessStatus string

const (
	StatusReady      ReadinessStatus = "LISTO"
	StatusPending    ReadinessStatus = "PENDIENTE"
	StatusIncomplete ReadinessStatus = "INCOMPLETO"
)

// CourseReadiness aggregates grading progress of one course for one unit number.
type CourseReadiness struct {
	AssignmentID   int             `json:"assignment_id"`
	CourseName     string          `json:"course_name"`
	GradeName      string          `json:"grade_name"`
	GradeLevel     int             `json:"grade_level"`
	SectionName    string          `json:"section_name"`
	TeacherID      int             `json:"teacher_id"`
	TeacherName    string          `json:"teacher_name"`
	TotalStudents  int             `json:"total_students"`
	GradedStudents int             `json:"graded_students"`
	Status         ReadinessStatus `json:"status"`
	Problems       []string        `json:"problems"`
}

// ClosureTotals is the backend summary for a unit number.
type ClosureTotals struct {
	TotalCourses      int `json:"total_courses"`
	ReadyCourses      int `json:"ready_courses"`
	PendingCourses    int `json:"pending_courses"`
	IncompleteCourses int `json:"incomplete_courses"`
}

// ToNotify is the number of courses whose teachers can be notified.
func (t ClosureTotals) ToNotify() int {
	return t.PendingCourses + t.IncompleteCourses
}

// ClosureReport is the raw readiness aggregate returned by the backend.
type ClosureReport struct {
	Courses []CourseReadiness
	Totals  ClosureTotals
}

// CloseResult reports a bulk close.
type CloseResult struct {
	UnitNumber    int `json:"unit_number"`
	ClosedCourses int `json:"closed_courses"`
}

// NotifyResult reports a bulk notification.
type NotifyResult struct {
	UnitNumber           int       `json:"unit_number"`
	NotificationsCreated int       `json:"notifications_created"`
	Deadline             time.Time `json:"deadline"`
}

// NotifyDeadlineDays is the fixed deadline given to notified teachers.
const NotifyDeadlineDays = 3

// ClosureSummary extends the backend totals with the actions they allow.
type ClosureSummary struct {
	ClosureTotals
	ToNotify  int  `json:"to_notify"`
	CanClose  bool `json:"can_close"`
	CanNotify bool `json:"can_notify"`
}

// ClosureStatus is the display view of one unit number.
type ClosureStatus struct {
	UnitNumber int               `json:"unit_number"`
	Courses    []CourseReadiness `json:"courses"`
	NotReady   []CourseReadiness `json:"not_ready"`
	Summary    ClosureSummary    `json:"summary"`
}

// NewClosureStatus sorts courses by grade level then section and partitions out the
// courses that are not ready. Unknown grade levels sort last.
func NewClosureStatus(unitNumber int, report ClosureReport) ClosureStatus {
	courses := make([]CourseReadiness, len(report.Courses))
	copy(courses, report.Courses)
	sort.SliceStable(courses, func(i, j int) bool {
		li, lj := sortLevel(courses[i].GradeLevel), sortLevel(courses[j].GradeLevel)
		if li != lj {
			return li < lj
		}
		return courses[i].SectionName < courses[j].SectionName
	})

	notReady := make([]CourseReadiness, 0, len(courses))
	for _, c := range courses {
		if c.Status != StatusReady {
			notReady = append(notReady, c)
		}
	}

	totals := report.Totals
	return ClosureStatus{
		UnitNumber: unitNumber,
		Courses:    courses,
		NotReady:   notReady,
		Summary: ClosureSummary{
			ClosureTotals: totals,
			ToNotify:      totals.ToNotify(),
			CanClose:      totals.ReadyCourses > 0,
			CanNotify:     totals.ToNotify() > 0,
		},
	}
}

func sortLevel(level int) int {
	if level <= 0 {
		return math.MaxInt32
	}
	return level
}
