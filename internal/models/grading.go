package models

import (
	"fmt"
	"math"
	"sort"
)

// PassingScore is the running total a student needs to pass a unit.
const PassingScore = 60.0

// GradingState tells whether an activity may be graded.
type GradingState string

const (
	StateEditable      GradingState = "EDITABLE"
	StateBlockedByZone GradingState = "BLOCKED_BY_ZONE"
	StateLocked        GradingState = "LOCKED"
)

// GradingKey identifies one activity-grading session.
type GradingKey struct {
	AssignmentID int
	UnitID       int
	ActivityID   int
}

// ZoneGap is a zone activity that still has students without a score.
type ZoneGap struct {
	ActivityID int    `json:"activity_id"`
	Name       string `json:"name"`
	Missing    int    `json:"missing"`
}

// GradeRow is the derived view of one student. Totals are set for final activities only.
type GradeRow struct {
	StudentID    int      `json:"student_id"`
	Code         string   `json:"code,omitempty"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Score        *float64 `json:"score"`
	Note         *string  `json:"note"`
	ZoneTotal    *float64 `json:"zone_total,omitempty"`
	RunningTotal *float64 `json:"running_total,omitempty"`
	Passes       *bool    `json:"passes,omitempty"`
}

// GradeStatistics summarises the scores currently in a session.
type GradeStatistics struct {
	Graded  int      `json:"graded"`
	Pending int      `json:"pending"`
	Mean    *float64 `json:"mean"`
	Max     *float64 `json:"max"`
	Min     *float64 `json:"min"`
}

// ZoneRoster is the loaded roster of one zone activity.
type ZoneRoster struct {
	Activity Activity
	Roster   []RosterEntry
}

// GradingSession is an immutable snapshot of everything needed to grade one activity.
// Every derived value is computed on read.
type GradingSession struct {
	unit     Unit
	activity Activity
	roster   []RosterEntry
	zones    []ZoneRoster
}

// NewGradingSession builds a snapshot. Inactive zone activities are ignored.
func NewGradingSession(unit Unit, activity Activity, roster []RosterEntry, zones []ZoneRoster) GradingSession {
	kept := make([]ZoneRoster, 0, len(zones))
	for _, z := range zones {
		if z.Activity.Type != ActivityZone || !z.Activity.Active {
			continue
		}
		kept = append(kept, ZoneRoster{Activity: z.Activity, Roster: copyRoster(z.Roster)})
	}
	return GradingSession{unit: unit, activity: activity, roster: copyRoster(roster), zones: kept}
}

// Unit returns the unit the activity belongs to.
func (s GradingSession) Unit() Unit { return s.unit }

// Activity returns the graded activity.
func (s GradingSession) Activity() Activity { return s.activity }

// State derives the session state: LOCKED wins over BLOCKED_BY_ZONE.
func (s GradingSession) State() GradingState {
	if !s.unit.Active {
		return StateLocked
	}
	if s.activity.Type == ActivityFinal && len(s.ZoneGaps()) > 0 {
		return StateBlockedByZone
	}
	return StateEditable
}

// ReopenRequestable reports whether the user should be pointed to a reopen request.
func (s GradingSession) ReopenRequestable() bool {
	return s.State() == StateLocked
}

// ZoneGaps lists zone activities with at least one student missing a score.
func (s GradingSession) ZoneGaps() []ZoneGap {
	if s.activity.Type != ActivityFinal {
		return nil
	}
	var gaps []ZoneGap
	for _, z := range s.zones {
		missing := 0
		for _, entry := range z.Roster {
			if entry.Score == nil {
				missing++
			}
		}
		if missing > 0 {
			gaps = append(gaps, ZoneGap{ActivityID: z.Activity.ID, Name: z.Activity.Name, Missing: missing})
		}
	}
	return gaps
}

// WithScore returns a new snapshot with the student's score replaced. A nil score
// clears the draft value.
func (s GradingSession) WithScore(studentID int, score *float64) (GradingSession, error) {
	idx := s.indexOf(studentID)
	if idx < 0 {
		return s, fmt.Errorf("student %d is not enrolled in activity %d", studentID, s.activity.ID)
	}
	if score != nil {
		if math.IsNaN(*score) || *score < 0 || *score > s.activity.MaxPoints {
			return s, fmt.Errorf("score %.2f for student %d must be between 0 and %.2f", *score, studentID, s.activity.MaxPoints)
		}
		v := *score
		score = &v
	}
	next := s
	next.roster = copyRoster(s.roster)
	next.roster[idx].Score = score
	return next, nil
}

// WithNote returns a new snapshot with the student's note replaced.
func (s GradingSession) WithNote(studentID int, note *string) (GradingSession, error) {
	idx := s.indexOf(studentID)
	if idx < 0 {
		return s, fmt.Errorf("student %d is not enrolled in activity %d", studentID, s.activity.ID)
	}
	if note != nil {
		v := *note
		note = &v
	}
	next := s
	next.roster = copyRoster(s.roster)
	next.roster[idx].Note = note
	return next, nil
}

// Rows derives the per-student view, ordered by last then first name.
func (s GradingSession) Rows() []GradeRow {
	final := s.activity.Type == ActivityFinal
	var zoneTotals map[int]float64
	if final {
		zoneTotals = s.zoneTotals()
	}

	rows := make([]GradeRow, 0, len(s.roster))
	for _, entry := range s.roster {
		row := GradeRow{
			StudentID: entry.StudentID,
			Code:      entry.Code,
			FirstName: entry.FirstName,
			LastName:  entry.LastName,
			Score:     entry.Score,
			Note:      entry.Note,
		}
		if final {
			zone := round2(zoneTotals[entry.StudentID])
			running := zone
			if entry.Score != nil {
				running = round2(zone + *entry.Score)
			}
			passes := running >= PassingScore
			row.ZoneTotal = &zone
			row.RunningTotal = &running
			row.Passes = &passes
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].LastName != rows[j].LastName {
			return rows[i].LastName < rows[j].LastName
		}
		return rows[i].FirstName < rows[j].FirstName
	})
	return rows
}

// Statistics derives graded/pending counts and mean, max and min of present scores.
func (s GradingSession) Statistics() GradeStatistics {
	stats := GradeStatistics{}
	var sum float64
	for _, entry := range s.roster {
		if entry.Score == nil {
			stats.Pending++
			continue
		}
		v := *entry.Score
		if stats.Graded == 0 || v > *stats.Max {
			stats.Max = floatPtr(v)
		}
		if stats.Graded == 0 || v < *stats.Min {
			stats.Min = floatPtr(v)
		}
		stats.Graded++
		sum += v
	}
	if stats.Graded > 0 {
		stats.Mean = floatPtr(round2(sum / float64(stats.Graded)))
	}
	return stats
}

// Entries returns the batch to persist: students with a score only.
func (s GradingSession) Entries() []GradeEntry {
	entries := make([]GradeEntry, 0, len(s.roster))
	for _, entry := range s.roster {
		if entry.Score == nil {
			continue
		}
		entries = append(entries, GradeEntry{StudentID: entry.StudentID, Score: *entry.Score, Note: entry.Note})
	}
	return entries
}

// HasStudent reports whether the student is on the roster.
func (s GradingSession) HasStudent(studentID int) bool {
	return s.indexOf(studentID) >= 0
}

func (s GradingSession) zoneTotals() map[int]float64 {
	totals := make(map[int]float64, len(s.roster))
	for _, z := range s.zones {
		for _, entry := range z.Roster {
			if entry.Score != nil {
				totals[entry.StudentID] += *entry.Score
			}
		}
	}
	return totals
}

func (s GradingSession) indexOf(studentID int) int {
	for i, entry := range s.roster {
		if entry.StudentID == studentID {
			return i
		}
	}
	return -1
}

func copyRoster(in []RosterEntry) []RosterEntry {
	out := make([]RosterEntry, len(in))
	copy(out, in)
	return out
}

func floatPtr(v float64) *float64 { return &v }

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
