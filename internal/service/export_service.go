package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-unit-gateway/internal/models"
	appErrors "github.com/noah-isme/sma-unit-gateway/pkg/errors"
	"github.com/noah-isme/sma-unit-gateway/pkg/export"
)

// ExportFormat selects the rendered document type.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

type renderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportFile is a rendered document ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the closure readiness report.
type ExportService struct {
	renderers map[ExportFormat]renderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService with the CSV and PDF renderers.
func NewExportService(logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		renderers: map[ExportFormat]renderer{
			ExportCSV: export.NewCSVExporter(),
			ExportPDF: export.NewPDFExporter(),
		},
		logger: logger,
		now:    time.Now,
	}
}

// ParseExportFormat validates a format query value. Empty defaults to CSV.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExportCSV:
		return ExportCSV, nil
	case ExportPDF:
		return ExportPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// ClosureReport renders the readiness of every course at a unit number.
func (s *ExportService) ClosureReport(status models.ClosureStatus, format ExportFormat) (ExportFile, error) {
	r, ok := s.renderers[format]
	if !ok {
		return ExportFile{}, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	body, err := r.Render(closureDataset(status))
	if err != nil {
		s.logger.Error("render closure report", zap.Int("unit_number", status.UnitNumber), zap.String("format", string(format)), zap.Error(err))
		return ExportFile{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	filename := fmt.Sprintf("cierre-unidad-%d-%s.%s", status.UnitNumber, s.now().Format("20060102"), r.Extension())
	return ExportFile{Filename: filename, ContentType: r.ContentType(), Body: body}, nil
}

func closureDataset(status models.ClosureStatus) export.Dataset {
	data := export.Dataset{
		Title:   fmt.Sprintf("Unit %d closure status", status.UnitNumber),
		Headers: []string{"Grade", "Section", "Course", "Teacher", "Graded", "Students", "Status", "Problems"},
		Rows:    make([][]string, 0, len(status.Courses)+1),
	}
	for _, c := range status.Courses {
		data.Rows = append(data.Rows, []string{
			c.GradeName,
			c.SectionName,
			c.CourseName,
			c.TeacherName,
			strconv.Itoa(c.GradedStudents),
			strconv.Itoa(c.TotalStudents),
			string(c.Status),
			strings.Join(c.Problems, "; "),
		})
	}
	sum := status.Summary
	data.Rows = append(data.Rows, []string{
		"", "", "", "Total",
		fmt.Sprintf("ready %d", sum.ReadyCourses),
		fmt.Sprintf("courses %d", sum.TotalCourses),
		fmt.Sprintf("pending %d / incomplete %d", sum.PendingCourses, sum.IncompleteCourses),
		fmt.Sprintf("to notify %d", sum.ToNotify),
	})
	return data
}
