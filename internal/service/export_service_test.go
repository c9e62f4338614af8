package service

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-unit-gateway/internal/models"
)

func TestParseExportFormat(t *testing.T) {
	f, err := ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, ExportCSV, f)

	f, err = ParseExportFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, ExportPDF, f)

	_, err = ParseExportFormat("xlsx")
	assert.Error(t, err)
}

func TestExportClosureReportCSV(t *testing.T) {
	svc := NewExportService(nil)
	svc.now = fixedClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	status := models.NewClosureStatus(2, closureReport(7, 2, 1))

	file, err := svc.ClosureReport(status, ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "cierre-unidad-2-20240601.csv", file.Filename)
	assert.Contains(t, file.ContentType, "text/csv")

	body := string(bytes.TrimPrefix(file.Body, []byte("\ufeff")))
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "Grade,Section,Course"))
	assert.Contains(t, lines[1], "PENDIENTE")
	assert.Contains(t, lines[1], "3 alumnos sin nota")
	assert.Contains(t, lines[4], "to notify 3")
}

func TestExportClosureReportPDF(t *testing.T) {
	svc := NewExportService(nil)
	file, err := svc.ClosureReport(models.NewClosureStatus(1, closureReport(1, 0, 0)), ExportPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}
