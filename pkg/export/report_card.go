package export

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// ReportCardSubject is one row of the subject table on a report card.
type ReportCardSubject struct {
	Name   string
	CA     string
	Exam   string
	Total  string
	Grade  string
	Remark string
}

// ReportCard is the fully formatted content of one student's terminal report.
type ReportCard struct {
	SchoolName    string
	StudentName   string
	StudentNumber string
	ClassName     string
	Term          string
	Session       string
	Subjects      []ReportCardSubject
	TotalScore    string
	Average       string
	Position      string
	OverallGrade  string
	OverallRemark string

	IncludeComments   bool
	Comment           string
	IncludeSignatures bool
}

// ReportCardRenderer draws report cards with gofpdf. When FontFile is set the
// card uses that TrueType font so non-Latin names render correctly.
type ReportCardRenderer struct {
	FontFile string
}

// NewReportCardRenderer builds a renderer; fontFile may be empty.
func NewReportCardRenderer(fontFile string) *ReportCardRenderer {
	return &ReportCardRenderer{FontFile: fontFile}
}

// Check reports whether the renderer can produce documents at all.
func (r *ReportCardRenderer) Check() error {
	if r == nil {
		return errors.New("report card renderer not configured")
	}
	if r.FontFile == "" {
		return nil
	}
	info, err := os.Stat(r.FontFile)
	if err != nil {
		return fmt.Errorf("report font: %w", err)
	}
	if info.IsDir() || info.Size() == 0 {
		return fmt.Errorf("report font %s is not a font file", r.FontFile)
	}
	return nil
}

// Render produces the PDF bytes for a single report card.
func (r *ReportCardRenderer) Render(card ReportCard) ([]byte, error) {
	if strings.TrimSpace(card.StudentName) == "" {
		return nil, errors.New("report card requires a student name")
	}
	if len(card.Subjects) == 0 {
		return nil, errors.New("report card requires at least one subject")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	family := "Arial"
	if r.FontFile != "" {
		family = "report"
		pdf.AddUTF8Font(family, "", r.FontFile)
		pdf.AddUTF8Font(family, "B", r.FontFile)
	}
	pdf.AddPage()

	pdf.SetFont(family, "B", 16)
	pdf.CellFormat(0, 9, strings.ToUpper(card.SchoolName), "", 1, "C", false, 0, "")
	pdf.SetFont(family, "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Terminal Report - %s, %s", card.Term, card.Session), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	field := func(label, value string) {
		pdf.SetFont(family, "B", 10)
		pdf.CellFormat(35, 7, label, "", 0, "", false, 0, "")
		pdf.SetFont(family, "", 10)
		pdf.CellFormat(55, 7, value, "", 0, "", false, 0, "")
	}
	field("Name", card.StudentName)
	field("Student No.", card.StudentNumber)
	pdf.Ln(-1)
	field("Class", card.ClassName)
	field("Position", card.Position)
	pdf.Ln(8)

	widths := []float64{60, 20, 20, 20, 20, 40}
	headers := []string{"Subject", "CA (40)", "Exam (60)", "Total", "Grade", "Remark"}
	pdf.SetFont(family, "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont(family, "", 10)
	for _, s := range card.Subjects {
		cells := []string{s.Name, s.CA, s.Exam, s.Total, s.Grade, s.Remark}
		for i, v := range cells {
			align := "C"
			if i == 0 || i == 5 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 7, v, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	field("Total Score", card.TotalScore)
	field("Average", card.Average)
	pdf.Ln(-1)
	field("Overall Grade", card.OverallGrade)
	field("Remark", card.OverallRemark)
	pdf.Ln(10)

	if card.IncludeComments {
		pdf.SetFont(family, "B", 10)
		pdf.CellFormat(0, 7, "Class Teacher's Comment", "", 1, "", false, 0, "")
		pdf.SetFont(family, "", 10)
		pdf.MultiCell(0, 6, card.Comment, "1", "L", false)
		pdf.Ln(6)
	}

	if card.IncludeSignatures {
		y := pdf.GetY() + 12
		pdf.Line(15, y, 85, y)
		pdf.Line(125, y, 195, y)
		pdf.SetY(y + 1)
		pdf.SetFont(family, "", 9)
		pdf.CellFormat(90, 5, "Class Teacher", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, "Principal", "", 1, "R", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render report card: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render report card: %w", err)
	}
	return buf.Bytes(), nil
}
