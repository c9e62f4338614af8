package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// envelope is the {success, data|message|error} contract of every backend response.
type envelope struct {
	Success       *bool           `json:"success"`
	Data          json.RawMessage `json:"data"`
	Message       string          `json:"message"`
	Error         json.RawMessage `json:"error"`
	Detail        *mismatchDetail `json:"detalle"`
	UnitClosed    flexBool        `json:"unidadCerrada"`
	HasActivities flexBool        `json:"tieneActividades"`
	ActivityCount *int            `json:"cantidadActividades"`
}

func (e envelope) ok() bool {
	return e.Success == nil || *e.Success
}

// text returns the most specific human-readable message in the envelope.
func (e envelope) text() string {
	if msg := rawString(e.Error); msg != "" {
		return msg
	}
	return strings.TrimSpace(e.Message)
}

type mismatchDetail struct {
	Zone  *pointPair `json:"zona"`
	Final *pointPair `json:"final"`
}

type pointPair struct {
	Configured flexFloat `json:"configurado"`
	Actual     flexFloat `json:"actual"`
}

func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return string(raw)
}

// flexBool accepts true/false, 0/1 and their string forms as sent by the backend's SQL layer.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	switch strings.ToLower(raw) {
	case "true", "1":
		*b = true
	case "false", "0", "", "null":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %q", raw)
	}
	return nil
}

// flexFloat accepts numbers and numeric strings such as "35.00".
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", raw)
	}
	*f = flexFloat(v)
	return nil
}

// nullFloat is a flexFloat that remembers whether a value was present.
type nullFloat struct {
	Value float64
	Valid bool
}

func (n *nullFloat) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*n = nullFloat{}
		return nil
	}
	var f flexFloat
	if err := f.UnmarshalJSON(data); err != nil {
		return err
	}
	*n = nullFloat{Value: float64(f), Valid: true}
	return nil
}

func (n nullFloat) ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

type assignmentWire struct {
	ID          int    `json:"IdAsignacion"`
	TeacherID   int    `json:"IdDocente"`
	TeacherName string `json:"NombreDocente"`
	CourseID    int    `json:"IdCurso"`
	CourseName  string `json:"NombreCurso"`
	GradeID     int    `json:"IdGrado"`
	GradeName   string `json:"NombreGrado"`
	SectionID   int    `json:"IdSeccion"`
	SectionName string `json:"NombreSeccion"`
	ShiftID     int    `json:"IdJornada"`
	ShiftName   string `json:"NombreJornada"`
	Year        int    `json:"Anio"`
}

type unitWire struct {
	ID            int       `json:"IdUnidad"`
	AssignmentID  int       `json:"IdAsignacion"`
	Number        int       `json:"NumeroUnidad"`
	Name          string    `json:"NombreUnidad"`
	ZonePoints    flexFloat `json:"PunteoZona"`
	FinalPoints   flexFloat `json:"PunteoFinal"`
	Active        flexBool  `json:"Activa"`
	ActivityCount int       `json:"cantidadActividades"`
}

type unitGroupWire struct {
	Assignment assignmentWire `json:"asignacion"`
	Units      []unitWire     `json:"unidades"`
}

type activityWire struct {
	ID        int       `json:"IdActividad"`
	UnitID    int       `json:"IdUnidad"`
	Name      string    `json:"NombreActividad"`
	Type      string    `json:"TipoActividad"`
	MaxPoints flexFloat `json:"PunteoMaximo"`
	Active    *flexBool `json:"Estado"`
	Date      string    `json:"FechaActividad"`
}

type rosterWire struct {
	StudentID int       `json:"IdAlumno"`
	Code      string    `json:"Carnet"`
	FirstName string    `json:"Nombres"`
	LastName  string    `json:"Apellidos"`
	Score     nullFloat `json:"Punteo"`
	Note      *string   `json:"Observaciones"`
}

type gradeWire struct {
	StudentID int     `json:"IdAlumno"`
	Score     float64 `json:"Punteo"`
	Note      *string `json:"Observaciones"`
}

type batchRequest struct {
	Grades []gradeWire `json:"calificaciones"`
}

type batchResponse struct {
	Created int `json:"creadas"`
	Updated int `json:"actualizadas"`
}

type unitConfigRequest struct {
	ZonePoints  int `json:"PunteoZona"`
	FinalPoints int `json:"PunteoFinal"`
}

type courseStatusWire struct {
	AssignmentID   int      `json:"IdAsignacion"`
	CourseName     string   `json:"NombreCurso"`
	GradeName      string   `json:"NombreGrado"`
	GradeLevel     int      `json:"NivelGrado"`
	SectionName    string   `json:"NombreSeccion"`
	TeacherID      int      `json:"IdDocente"`
	TeacherName    string   `json:"NombreDocente"`
	TotalStudents  int      `json:"TotalAlumnos"`
	GradedStudents int      `json:"AlumnosCalificados"`
	Status         string   `json:"Estado"`
	Problems       []string `json:"Problemas"`
}

type closureSummaryWire struct {
	TotalCourses      int `json:"totalCursos"`
	ReadyCourses      int `json:"cursosListos"`
	PendingCourses    int `json:"cursosPendientes"`
	IncompleteCourses int `json:"cursosIncompletos"`
}

type closureStatusWire struct {
	Courses []courseStatusWire `json:"cursos"`
	Summary closureSummaryWire `json:"resumen"`
}

type closeResponse struct {
	ClosedCourses int `json:"cursosCerrados"`
}

type notifyRequest struct {
	DeadlineDays int `json:"diasLimite"`
}

type notifyResponse struct {
	Created int `json:"notificacionesCreadas"`
}
