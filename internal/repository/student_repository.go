package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-report-batch/internal/models"
)

const enrollmentStatusActive = "ACTIVE"

// StudentRepository reads class rosters.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListByClass returns the active students enrolled in a class ordered by name.
func (r *StudentRepository) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	const query = `SELECT s.id, s.nis, s.full_name, e.class_id, c.name AS class_name
        FROM students s
        JOIN enrollments e ON e.student_id = s.id AND e.status = $1
        JOIN classes c ON c.id = e.class_id
        WHERE e.class_id = $2 AND s.active = TRUE
        ORDER BY s.full_name ASC, s.id ASC`

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, enrollmentStatusActive, classID); err != nil {
		return nil, fmt.Errorf("list students by class: %w", err)
	}
	return students, nil
}
