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

func newReportCardMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReportCardRepositoryFindByStudentTerm(t *testing.T) {
	db, mock, cleanup := newReportCardMock(t)
	defer cleanup()
	repo := NewReportCardRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "term", "class_rank", "qa1_rank", "qa2_rank", "total_students", "days_present", "days_absent", "days_late", "teacher_remarks", "created_at", "updated_at"}).
		AddRow("rc1", "stu", "Term 1", 3, 2, 4, 28, 55, 2, 1, "Keep it up", time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, student_id, term, class_rank").
		WithArgs("stu", "Term 1").
		WillReturnRows(rows)

	card, err := repo.FindByStudentTerm(context.Background(), "stu", "Term 1")
	require.NoError(t, err)
	assert.Equal(t, 3, card.ClassRank)
	assert.Equal(t, 28, card.TotalStudents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCardRepositoryFindByStudentTermMissing(t *testing.T) {
	db, mock, cleanup := newReportCardMock(t)
	defer cleanup()
	repo := NewReportCardRepository(db)

	mock.ExpectQuery("SELECT id, student_id, term, class_rank").
		WithArgs("stu", "Term 2").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByStudentTerm(context.Background(), "stu", "Term 2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCardRepositoryUpdateRanks(t *testing.T) {
	db, mock, cleanup := newReportCardMock(t)
	defer cleanup()
	repo := NewReportCardRepository(db)

	mock.ExpectExec("INSERT INTO report_cards").
		WithArgs(sqlmock.AnyArg(), "stu", "Term 1", 1, 2, 1, 30, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.UpdateRanks(context.Background(), "Term 1", models.ReportCardRanks{
		StudentID:     "stu",
		ClassRank:     1,
		Qa1Rank:       2,
		Qa2Rank:       1,
		TotalStudents: 30,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCardRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newReportCardMock(t)
	defer cleanup()
	repo := NewReportCardRepository(db)

	mock.ExpectExec("INSERT INTO report_cards").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	remarks := "Strong term"
	card, err := repo.Upsert(context.Background(), &models.ReportCard{
		StudentID:      "stu",
		Term:           "Term 1",
		DaysPresent:    55,
		TeacherRemarks: &remarks,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, card.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
