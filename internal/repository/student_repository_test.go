package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzati-dev/eduspace-portal-backend/internal/models"
)

func newStudentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "exam_number", "name", "class_id", "photo_url", "school_id", "created_at", "updated_at", "class_name", "academic_year", "term"}).
		AddRow("1", "SCH-25-8A001", "Student", "class", nil, "school", time.Now(), time.Now(), "Grade 8A", "2024/2025", "Term 1")
	mock.ExpectQuery("SELECT s.id, s.exam_number, s.name, s.class_id, s.photo_url, s.school_id").
		WithArgs("school").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(s.id)")).
		WithArgs("school").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{SchoolID: "school"})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByExamNumber(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "exam_number", "name", "class_id", "photo_url", "school_id", "created_at", "updated_at", "class_name", "academic_year", "term"}).
		AddRow("1", "SCH-25-8A001", "Student", "class", nil, "school", time.Now(), time.Now(), "Grade 8A", "2024/2025", "Term 1")
	mock.ExpectQuery("SELECT s.id, s.exam_number, s.name").
		WithArgs("SCH-25-8A001", "school").
		WillReturnRows(rows)

	detail, err := repo.FindByExamNumber(context.Background(), "school", "SCH-25-8A001")
	require.NoError(t, err)
	assert.Equal(t, "Student", detail.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	classID := "class"
	err := repo.Create(context.Background(), &models.Student{ExamNumber: "SCH-25-8A001", Name: "Student", ClassID: &classID, SchoolID: "school"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("DELETE FROM students").
		WithArgs("missing", "school").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "school", "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
