package models

import "time"

const (
	MaxCA    = 40.0
	MaxExam  = 60.0
	MaxTotal = 100.0
)

// ScoreRecord holds one student's components for one subject. A nil component
// has not been entered yet, which is different from a zero.
type ScoreRecord struct {
	CA   *float64 `json:"ca"`
	Exam *float64 `json:"exam"`
}

// Complete reports whether both components are present.
func (r ScoreRecord) Complete() bool {
	return r.CA != nil && r.Exam != nil
}

// Total is ca+exam capped at 100. Missing components count as zero.
func (r ScoreRecord) Total() float64 {
	var total float64
	if r.CA != nil {
		total += *r.CA
	}
	if r.Exam != nil {
		total += *r.Exam
	}
	if total > MaxTotal {
		return MaxTotal
	}
	return total
}

// ScoreTable maps studentID -> subject -> record.
type ScoreTable map[string]map[string]ScoreRecord

// Record looks up a single entry, returning an empty record when absent.
func (t ScoreTable) Record(studentID, subject string) ScoreRecord {
	if t == nil {
		return ScoreRecord{}
	}
	return t[studentID][subject]
}

// ScoreRow is the flat shape of the scores table.
type ScoreRow struct {
	StudentID string    `db:"student_id"`
	Subject   string    `db:"subject"`
	CA        *float64  `db:"ca"`
	Exam      *float64  `db:"exam"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Float is a helper for building optional score components.
func Float(v float64) *float64 {
	return &v
}
