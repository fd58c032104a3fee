package models

// GradeBand maps a lower total bound to a letter grade and remark.
type GradeBand struct {
	Min    float64 `json:"min"`
	Grade  string  `json:"grade"`
	Remark string  `json:"remark"`
}

// SubjectResult is one subject line of a student's standing.
type SubjectResult struct {
	Subject  string   `json:"subject"`
	CA       *float64 `json:"ca"`
	Exam     *float64 `json:"exam"`
	Total    float64  `json:"total"`
	Grade    string   `json:"grade,omitempty"`
	Remark   string   `json:"remark,omitempty"`
	Complete bool     `json:"complete"`
}

// RankResult is a student's standing within the class.
type RankResult struct {
	StudentID               string          `json:"student_id"`
	StudentName             string          `json:"student_name"`
	TotalScore              float64         `json:"total_score"`
	Average                 float64         `json:"average"`
	Position                *int            `json:"position"`
	TotalStudentsConsidered int             `json:"total_students_considered"`
	CompletedSubjects       int             `json:"completed_subjects"`
	Subjects                []SubjectResult `json:"subjects"`
	OverallGrade            string          `json:"overall_grade,omitempty"`
	OverallRemark           string          `json:"overall_remark,omitempty"`
}

// Ranked reports whether the student took part in the class ordering.
func (r RankResult) Ranked() bool {
	return r.Position != nil
}

// ClassRanking is the ranking of a whole class at a given score table version.
type ClassRanking struct {
	ClassID  string       `json:"class_id"`
	Version  string       `json:"version"`
	Subjects []string     `json:"subjects"`
	Results  []RankResult `json:"results"`
}
