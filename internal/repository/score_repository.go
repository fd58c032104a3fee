package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-report-batch/internal/models"
)

// ScoreRepository reads the per-subject score table for a class.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs a ScoreRepository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// ScoreTable loads every score row of the class into studentID -> subject -> record.
func (r *ScoreRepository) ScoreTable(ctx context.Context, classID string) (models.ScoreTable, error) {
	const query = `SELECT sc.student_id, sc.subject, sc.ca, sc.exam, sc.updated_at
        FROM scores sc
        JOIN enrollments e ON e.student_id = sc.student_id AND e.status = $1
        WHERE e.class_id = $2`

	var rows []models.ScoreRow
	if err := r.db.SelectContext(ctx, &rows, query, enrollmentStatusActive, classID); err != nil {
		return nil, fmt.Errorf("load score table: %w", err)
	}

	table := make(models.ScoreTable)
	for _, row := range rows {
		subjects, ok := table[row.StudentID]
		if !ok {
			subjects = make(map[string]models.ScoreRecord)
			table[row.StudentID] = subjects
		}
		subjects[row.Subject] = models.ScoreRecord{CA: row.CA, Exam: row.Exam}
	}
	return table, nil
}

// Subjects lists the distinct subjects scored in the class.
func (r *ScoreRepository) Subjects(ctx context.Context, classID string) ([]string, error) {
	const query = `SELECT DISTINCT sc.subject
        FROM scores sc
        JOIN enrollments e ON e.student_id = sc.student_id AND e.status = $1
        WHERE e.class_id = $2
        ORDER BY sc.subject ASC`

	var subjects []string
	if err := r.db.SelectContext(ctx, &subjects, query, enrollmentStatusActive, classID); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// Version identifies the current state of a class score table and roster.
// Any score insert, delete or update changes the row count or the latest
// timestamp, and any enrollment change changes the roster fingerprint.
func (r *ScoreRepository) Version(ctx context.Context, classID string) (string, error) {
	const query = `SELECT COUNT(sc.student_id) AS total, MAX(sc.updated_at) AS latest,
            (SELECT COALESCE(md5(string_agg(re.student_id::text, ',' ORDER BY re.student_id)), '')
                FROM enrollments re
                JOIN students s ON s.id = re.student_id AND s.active = TRUE
                WHERE re.class_id = $2 AND re.status = $1) AS roster
        FROM scores sc
        JOIN enrollments e ON e.student_id = sc.student_id AND e.status = $1
        WHERE e.class_id = $2`

	var row struct {
		Total  int          `db:"total"`
		Latest sql.NullTime `db:"latest"`
		Roster string       `db:"roster"`
	}
	if err := r.db.GetContext(ctx, &row, query, enrollmentStatusActive, classID); err != nil {
		return "", fmt.Errorf("score table version: %w", err)
	}
	var latest int64
	if row.Latest.Valid {
		latest = row.Latest.Time.UTC().UnixNano()
	}
	return fmt.Sprintf("%d:%d:%s", row.Total, latest, row.Roster), nil
}

