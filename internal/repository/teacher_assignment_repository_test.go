package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzati-dev/eduspace-portal-backend/internal/models"
)

func newAssignmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTeacherAssignmentRepositoryListByTeacher(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "class_id", "subject_id", "created_at", "class_name", "subject_name", "teacher_name"}).
		AddRow("ta1", "teach1", "class1", "subj1", time.Now(), "Form 1", "Mathematics", "J Banda").
		AddRow("ta2", "teach1", "class1", "subj2", time.Now(), "Form 1", "Physics", "J Banda")
	mock.ExpectQuery("SELECT ta.id, ta.teacher_id").
		WithArgs("teach1").
		WillReturnRows(rows)

	assignments, err := repo.ListByTeacher(context.Background(), "teach1")
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, "Mathematics", assignments[0].SubjectName)
	assert.Equal(t, "Form 1", assignments[0].ClassName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherAssignmentRepositoryExists(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	mock.ExpectQuery("SELECT 1 FROM teacher_class_subjects").
		WithArgs("teach1", "class1", "subj1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	found, err := repo.Exists(context.Background(), "teach1", "class1", "subj1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherAssignmentRepositoryExistsFalseOnNoRows(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	mock.ExpectQuery("SELECT 1 FROM teacher_class_subjects").
		WithArgs("teach1", "class1", "subj9").
		WillReturnError(sql.ErrNoRows)

	found, err := repo.Exists(context.Background(), "teach1", "class1", "subj9")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherAssignmentRepositoryCreateFillsDefaults(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO teacher_class_subjects").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assignment := &models.TeacherAssignment{TeacherID: "teach1", ClassID: "class1", SubjectID: "subj1"}
	require.NoError(t, repo.Create(context.Background(), assignment))
	assert.NotEmpty(t, assignment.ID)
	assert.False(t, assignment.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherAssignmentRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	mock.ExpectExec("DELETE FROM teacher_class_subjects").
		WithArgs("teach1", "class1", "subj1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "teach1", "class1", "subj1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
