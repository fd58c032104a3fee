package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryListByClass(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "nis", "full_name", "class_id", "class_name"}).
		AddRow("s1", "001", "Ayu", "class-1", "10A").
		AddRow("s2", "002", "Budi", "class-1", "10A")
	mock.ExpectQuery(regexp.QuoteMeta("FROM students s")).
		WithArgs("ACTIVE", "class-1").
		WillReturnRows(rows)

	students, err := repo.ListByClass(context.Background(), "class-1")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Ayu", students[0].FullName)
	assert.Equal(t, "10A", students[1].ClassName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListByClassError(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("FROM students s").WillReturnError(errors.New("boom"))

	_, err := repo.ListByClass(context.Background(), "class-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list students by class")
}
