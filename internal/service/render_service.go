package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-batch/internal/models"
	appErrors "github.com/noah-isme/sma-report-batch/pkg/errors"
	"github.com/noah-isme/sma-report-batch/pkg/export"
)

type reportCardRenderer interface {
	Check() error
	Render(card export.ReportCard) ([]byte, error)
}

var fileNameUnsafe = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

var gradeComments = map[string]string{
	"A": "An excellent result. Keep it up.",
	"B": "A very good result with room to excel.",
	"C": "A good effort. More consistency will help.",
	"D": "A fair result. Needs to work harder.",
	"E": "Passed, but needs serious improvement.",
	"F": "Below the pass mark. Extra support is recommended.",
}

// RenderService turns a student's standing into a report card artifact.
type RenderService struct {
	renderer   reportCardRenderer
	schoolName string
	logger     *zap.Logger
}

// NewRenderService constructs a RenderService.
func NewRenderService(renderer reportCardRenderer, schoolName string, logger *zap.Logger) *RenderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenderService{renderer: renderer, schoolName: schoolName, logger: logger}
}

// Available fails with ErrRendererUnavailable when no document can be produced.
func (s *RenderService) Available() error {
	if s == nil || s.renderer == nil {
		return appErrors.ErrRendererUnavailable
	}
	if err := s.renderer.Check(); err != nil {
		s.logger.Error("report renderer unavailable", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrRendererUnavailable.Code, appErrors.ErrRendererUnavailable.Status, appErrors.ErrRendererUnavailable.Message)
	}
	return nil
}

// RenderStudentReport renders one report card. Malformed student data fails
// only this student.
func (s *RenderService) RenderStudentReport(student models.Student, rank models.RankResult, settings models.PrintSettings) (*models.Artifact, error) {
	if strings.TrimSpace(student.ID) == "" {
		return nil, fmt.Errorf("student has no identifier")
	}
	if strings.TrimSpace(student.FullName) == "" {
		return nil, fmt.Errorf("student %s has no name", student.ID)
	}
	if rank.StudentID != student.ID {
		return nil, fmt.Errorf("ranking does not belong to student %s", student.ID)
	}

	card := export.ReportCard{
		SchoolName:        s.schoolName,
		StudentName:       student.FullName,
		StudentNumber:     student.NIS,
		ClassName:         student.ClassName,
		Term:              settings.Term,
		Session:           settings.AcademicSession,
		Subjects:          make([]export.ReportCardSubject, 0, len(rank.Subjects)),
		TotalScore:        formatScore(rank.TotalScore),
		Average:           strconv.FormatFloat(rank.Average, 'f', 2, 64),
		Position:          positionLabel(rank),
		OverallGrade:      orDash(rank.OverallGrade),
		OverallRemark:     orDash(rank.OverallRemark),
		IncludeComments:   settings.IncludeComments,
		IncludeSignatures: settings.IncludeSignatures,
	}
	for _, line := range rank.Subjects {
		row := export.ReportCardSubject{
			Name:   line.Subject,
			CA:     formatComponent(line.CA),
			Exam:   formatComponent(line.Exam),
			Total:  "-",
			Grade:  "-",
			Remark: "Incomplete",
		}
		if line.Complete {
			row.Total = formatScore(line.Total)
			row.Grade, row.Remark = line.Grade, line.Remark
		}
		card.Subjects = append(card.Subjects, row)
	}
	if settings.IncludeComments {
		card.Comment = gradeComments[rank.OverallGrade]
		if card.Comment == "" {
			card.Comment = "No completed subjects this term."
		}
	}

	data, err := s.renderer.Render(card)
	if err != nil {
		return nil, err
	}
	return &models.Artifact{
		StudentID:   student.ID,
		StudentName: student.FullName,
		FileName:    reportFileName(student, settings),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

func positionLabel(rank models.RankResult) string {
	if rank.Position == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d of %d", *rank.Position, rank.TotalStudentsConsidered)
}

func reportFileName(student models.Student, settings models.PrintSettings) string {
	parts := []string{student.ClassName, student.FullName, settings.Term}
	cleaned := make([]string, 0, len(parts)+1)
	for _, part := range parts {
		if p := strings.Trim(fileNameUnsafe.ReplaceAllString(part, "_"), "_"); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	cleaned = append(cleaned, fileNameUnsafe.ReplaceAllString(student.ID, "_"))
	return strings.Join(cleaned, "_") + ".pdf"
}

func formatComponent(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatScore(*v)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
