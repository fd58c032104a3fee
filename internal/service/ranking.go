package service

import (
	"math"
	"strconv"

	"github.com/noah-isme/sma-report-batch/internal/models"
	appErrors "github.com/noah-isme/sma-report-batch/pkg/errors"
)

// GradeBands is evaluated highest threshold first; the first band whose lower
// bound is met wins. The bands cover [0,100] without gaps.
var GradeBands = []models.GradeBand{
	{Min: 70, Grade: "A", Remark: "Excellent"},
	{Min: 60, Grade: "B", Remark: "Very Good"},
	{Min: 50, Grade: "C", Remark: "Good"},
	{Min: 45, Grade: "D", Remark: "Fair"},
	{Min: 40, Grade: "E", Remark: "Pass"},
	{Min: 0, Grade: "F", Remark: "Fail"},
}

// ComputeGrade maps a total in [0,100] to its grade band.
func ComputeGrade(total float64) (models.GradeBand, error) {
	if math.IsNaN(total) || total < 0 || total > models.MaxTotal {
		return models.GradeBand{}, appErrors.ErrScoreOutOfRange
	}
	for _, band := range GradeBands {
		if total >= band.Min {
			return band, nil
		}
	}
	return models.GradeBand{}, appErrors.ErrScoreOutOfRange
}

// ComputeClassRanking computes every student's standing. Results keep the
// input order. A subject counts once both components are entered and it
// carries at least one mark; a 0/0 entry is what the score sheet holds for a
// student who has not sat the subject. Students without a counted subject get
// a nil position. Ranked students are ordered by total score and ties share a
// position (competition ranking: one plus the number of strictly greater totals).
func ComputeClassRanking(students []models.Student, table models.ScoreTable, subjects []string) ([]models.RankResult, error) {
	results := make([]models.RankResult, len(students))
	ranked := make([]int, 0, len(students))

	for i, student := range students {
		res := models.RankResult{
			StudentID:   student.ID,
			StudentName: student.FullName,
			Subjects:    make([]models.SubjectResult, 0, len(subjects)),
		}
		var sum float64
		for _, subject := range subjects {
			rec := table.Record(student.ID, subject)
			line := models.SubjectResult{Subject: subject, CA: rec.CA, Exam: rec.Exam, Complete: rec.Complete() && rec.Total() > 0}
			if line.Complete {
				line.Total = rec.Total()
				band, err := ComputeGrade(line.Total)
				if err != nil {
					return nil, err
				}
				line.Grade, line.Remark = band.Grade, band.Remark
				sum += line.Total
				res.CompletedSubjects++
			}
			res.Subjects = append(res.Subjects, line)
		}

		if res.CompletedSubjects > 0 {
			res.TotalScore = round2(sum)
			res.Average = round2(sum / float64(res.CompletedSubjects))
			band, err := ComputeGrade(math.Min(res.Average, models.MaxTotal))
			if err != nil {
				return nil, err
			}
			res.OverallGrade, res.OverallRemark = band.Grade, band.Remark
			ranked = append(ranked, i)
		}
		results[i] = res
	}

	for _, i := range ranked {
		position := 1
		for _, j := range ranked {
			if results[j].TotalScore > results[i].TotalScore {
				position++
			}
		}
		p := position
		results[i].Position = &p
	}
	for i := range results {
		results[i].TotalStudentsConsidered = len(ranked)
	}
	return results, nil
}

// FormatPosition renders a position for display, "N/A" when unranked.
func FormatPosition(res models.RankResult) string {
	if res.Position == nil {
		return "N/A"
	}
	return strconv.Itoa(*res.Position)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
