package export

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func broadsheet() Dataset {
	return Dataset{
		Title:   "Class 10A Broadsheet",
		Headers: []string{"Position", "Student", "Total", "Average"},
		Rows: []map[string]string{
			{"Position": "1", "Student": "Ayu Lestari", "Total": "180", "Average": "90.00"},
			{"Position": "N/A", "Student": "Budi", "Total": "0", "Average": "0.00"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(broadsheet())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("\ufeff")))

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(string(out), "\ufeff")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Position,Student,Total,Average", lines[0])
	assert.Equal(t, "N/A,Budi,0,0.00", lines[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(broadsheet())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func sampleCard() ReportCard {
	return ReportCard{
		SchoolName:    "SMA Negeri 1",
		StudentName:   "Ayu Lestari",
		StudentNumber: "2024001",
		ClassName:     "10A",
		Term:          "First Term",
		Session:       "2024/2025",
		Subjects: []ReportCardSubject{
			{Name: "Mathematics", CA: "40", Exam: "60", Total: "100", Grade: "A", Remark: "Excellent"},
			{Name: "Biology", CA: "-", Exam: "-", Total: "-", Grade: "-", Remark: "Incomplete"},
		},
		TotalScore:        "100",
		Average:           "100.00",
		Position:          "1 of 3",
		OverallGrade:      "A",
		OverallRemark:     "Excellent",
		IncludeComments:   true,
		Comment:           "Excellent performance.",
		IncludeSignatures: true,
	}
}

func TestReportCardRender(t *testing.T) {
	r := NewReportCardRenderer("")
	require.NoError(t, r.Check())

	out, err := r.Render(sampleCard())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestReportCardRenderRejectsMalformed(t *testing.T) {
	r := NewReportCardRenderer("")

	card := sampleCard()
	card.StudentName = "  "
	_, err := r.Render(card)
	assert.Error(t, err)

	card = sampleCard()
	card.Subjects = nil
	_, err = r.Render(card)
	assert.Error(t, err)
}

func TestReportCardCheckMissingFont(t *testing.T) {
	r := NewReportCardRenderer(filepath.Join(t.TempDir(), "missing.ttf"))
	assert.Error(t, r.Check())

	var nilRenderer *ReportCardRenderer
	assert.Error(t, nilRenderer.Check())
}
