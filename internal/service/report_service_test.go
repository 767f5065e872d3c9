package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzati-dev/eduspace-portal-backend/internal/grading"
	"github.com/mzati-dev/eduspace-portal-backend/internal/models"
	appErrors "github.com/mzati-dev/eduspace-portal-backend/pkg/errors"
)

type mockReportStudents struct {
	mockStudentReader
	roster []models.Student
}

func (m *mockReportStudents) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	return m.roster, nil
}

type mockClassReader struct {
	classes map[string]*models.Class
}

func (m *mockClassReader) FindByID(ctx context.Context, schoolID, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok && c.SchoolID == schoolID {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

type mockReportCards struct {
	cards map[string]*models.ReportCard
}

func (m *mockReportCards) FindByStudentTerm(ctx context.Context, studentID, term string) (*models.ReportCard, error) {
	if c, ok := m.cards[studentID+"|"+term]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReportCards) ListByTerm(ctx context.Context, term string, studentIDs []string) ([]models.ReportCard, error) {
	var result []models.ReportCard
	for _, id := range studentIDs {
		if c, ok := m.cards[id+"|"+term]; ok {
			result = append(result, *c)
		}
	}
	return result, nil
}

type memoryCache struct {
	values map[string]interface{}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.values == nil {
		m.values = make(map[string]interface{})
	}
	m.values[key] = value
	return nil
}

func newReportFixture() (*ReportService, *mockAssessmentRepo, *mockReportCards, *mockAssignmentChecker) {
	classID := "class-1"
	term := "Term 1, 2025/2026"
	year := "2025/2026"
	className := "Form 1"
	students := &mockReportStudents{
		mockStudentReader: mockStudentReader{students: map[string]*models.StudentDetail{
			"stu-1": {
				Student:      models.Student{ID: "stu-1", ExamNumber: "SCH-26-1001", Name: "Amina", ClassID: &classID, SchoolID: "school-1"},
				ClassName:    &className,
				AcademicYear: &year,
				Term:         &term,
			},
		}},
		roster: []models.Student{
			{ID: "stu-1", ExamNumber: "SCH-26-1001", Name: "Amina"},
			{ID: "stu-2", ExamNumber: "SCH-26-1002", Name: "Brian"},
		},
	}
	classes := &mockClassReader{classes: map[string]*models.Class{
		"class-1": {ID: "class-1", Name: "Form 1", AcademicYear: year, Term: term, SchoolID: "school-1"},
	}}
	repo := &mockAssessmentRepo{stored: map[string]models.Assessment{}}
	cards := &mockReportCards{cards: map[string]*models.ReportCard{}}
	assignments := &mockAssignmentChecker{subjects: map[string][]string{}}
	svc := NewReportService(students, classes, repo, cards, assignments, &mockConfigProvider{}, nil, 0, nil)
	return svc, repo, cards, assignments
}

func storeAssessment(repo *mockAssessmentRepo, studentID, subjectID string, kind models.AssessmentKind, score *float64, absent bool) {
	repo.stored[assessmentKey(studentID, subjectID, "class-1", kind)] = models.Assessment{
		StudentID: studentID,
		SubjectID: subjectID,
		ClassID:   "class-1",
		Kind:      kind,
		Score:     score,
		IsAbsent:  absent,
	}
}

func TestStudentReportAssemblesView(t *testing.T) {
	svc, repo, cards, _ := newReportFixture()
	term := "Term 1, 2025/2026"
	storeAssessment(repo, "stu-1", "subj-1", models.AssessmentQa1, ptrScore(70), false)
	storeAssessment(repo, "stu-1", "subj-1", models.AssessmentEndOfTerm, ptrScore(90), false)
	remarks := "Keep it up"
	cards.cards["stu-1|"+term] = &models.ReportCard{
		StudentID:      "stu-1",
		Term:           term,
		ClassRank:      2,
		Qa1Rank:        1,
		TotalStudents:  30,
		DaysPresent:    58,
		DaysAbsent:     2,
		TeacherRemarks: &remarks,
	}

	report, err := svc.StudentReport(context.Background(), "school-1", "stu-1", "")
	require.NoError(t, err)

	assert.Equal(t, "SCH-26-1001", report.ExamNumber)
	assert.Equal(t, "Form 1", report.ClassName)
	assert.Equal(t, term, report.Term)
	assert.Equal(t, 2, report.ClassRank)
	assert.Equal(t, 30, report.TotalStudents)
	assert.Equal(t, 58, report.Attendance.DaysPresent)
	require.NotNil(t, report.TeacherRemarks)
	assert.Equal(t, "Keep it up", *report.TeacherRemarks)

	require.Len(t, report.Subjects, 1)
	subject := report.Subjects[0]
	assert.Equal(t, 90.0, subject.FinalScore)
	assert.Equal(t, "A", subject.Grade)
	require.NotNil(t, subject.Qa1)
	assert.Equal(t, 70.0, *subject.Qa1)

	assert.Equal(t, 70.0, report.AssessmentStats.Qa1.TermAverage)
	assert.Equal(t, 1, report.AssessmentStats.Qa1.ClassRank)
	assert.Equal(t, 90.0, report.AssessmentStats.EndOfTerm.TermAverage)
	assert.Equal(t, 2, report.AssessmentStats.EndOfTerm.ClassRank)
	assert.Equal(t, "A", report.AssessmentStats.Overall.Grade)
}

func TestStudentReportQuizOnlyProgressIsNotZeroed(t *testing.T) {
	svc, repo, _, _ := newReportFixture()
	storeAssessment(repo, "stu-1", "subj-1", models.AssessmentQa1, ptrScore(75), false)

	report, err := svc.StudentReport(context.Background(), "school-1", "stu-1", "")
	require.NoError(t, err)
	require.Len(t, report.Subjects, 1)
	assert.Equal(t, 0.0, report.Subjects[0].FinalScore)
	assert.Equal(t, "F", report.Subjects[0].Grade)
	assert.Equal(t, 75.0, report.AssessmentStats.Qa1.TermAverage)
	assert.Equal(t, string(grading.LetterNA), report.AssessmentStats.EndOfTerm.Grade)
}

func TestStudentReportAbsenceReportsAB(t *testing.T) {
	svc, repo, _, _ := newReportFixture()
	storeAssessment(repo, "stu-1", "subj-1", models.AssessmentEndOfTerm, nil, true)

	report, err := svc.StudentReport(context.Background(), "school-1", "stu-1", "")
	require.NoError(t, err)
	require.Len(t, report.Subjects, 1)
	assert.Equal(t, string(grading.LetterAB), report.Subjects[0].Grade)
	assert.Equal(t, 0.0, report.Subjects[0].FinalScore)
	assert.True(t, report.Subjects[0].EndOfTermAbsent)
}

func TestStudentReportUnknownStudent(t *testing.T) {
	svc, _, _, _ := newReportFixture()
	_, err := svc.StudentReport(context.Background(), "school-1", "stu-404", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassResultsRanksByAverage(t *testing.T) {
	svc, repo, cards, _ := newReportFixture()
	term := "Term 1, 2025/2026"
	storeAssessment(repo, "stu-1", "subj-1", models.AssessmentEndOfTerm, ptrScore(80), false)
	storeAssessment(repo, "stu-2", "subj-1", models.AssessmentEndOfTerm, ptrScore(60), false)
	cards.cards["stu-1|"+term] = &models.ReportCard{StudentID: "stu-1", Term: term, ClassRank: 1}
	cards.cards["stu-2|"+term] = &models.ReportCard{StudentID: "stu-2", Term: term, ClassRank: 2}

	rows, err := svc.ClassResults(context.Background(), "school-1", "", "class-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "stu-1", rows[0].StudentID)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 80.0, rows[0].Average)
	assert.Equal(t, "A", rows[0].OverallGrade)
	assert.Equal(t, 1, rows[0].ClassRank)

	assert.Equal(t, "stu-2", rows[1].StudentID)
	assert.Equal(t, 2, rows[1].Rank)
	assert.Equal(t, "C", rows[1].OverallGrade)
}

func TestClassResultsQuizOnlySubjectKeepsMethodScore(t *testing.T) {
	svc, repo, _, _ := newReportFixture()
	svc.configs = &mockConfigProvider{config: &models.GradeConfig{
		ID:                "cfg-avg",
		CalculationMethod: string(grading.MethodAverageAll),
		PassMark:          grading.DefaultPassMark,
		IsActive:          true,
	}}
	storeAssessment(repo, "stu-1", "subj-1", models.AssessmentQa1, ptrScore(70), false)

	rows, err := svc.ClassResults(context.Background(), "school-1", "", "class-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Len(t, rows[0].Subjects, 1)
	assert.Equal(t, 70.0, rows[0].Subjects[0].FinalScore)
	assert.Equal(t, "B", rows[0].Subjects[0].Grade)
	assert.Equal(t, 70.0, rows[0].Average)
}

func TestClassResultsTeacherSubjectScope(t *testing.T) {
	svc, repo, _, assignments := newReportFixture()
	storeAssessment(repo, "stu-1", "subj-1", models.AssessmentEndOfTerm, ptrScore(80), false)
	storeAssessment(repo, "stu-1", "subj-2", models.AssessmentEndOfTerm, ptrScore(40), false)
	assignments.subjects["teach-1|class-1"] = []string{"subj-1"}

	rows, err := svc.ClassResults(context.Background(), "school-1", "teach-1", "class-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Len(t, rows[0].Subjects, 1)
	assert.Equal(t, 80.0, rows[0].Average)
}

func TestClassResultsUnassignedTeacherForbidden(t *testing.T) {
	svc, _, _, _ := newReportFixture()
	_, err := svc.ClassResults(context.Background(), "school-1", "teach-9", "class-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestClassResultsStudentsWithoutMarksSinkToBottom(t *testing.T) {
	svc, repo, _, _ := newReportFixture()
	storeAssessment(repo, "stu-2", "subj-1", models.AssessmentEndOfTerm, ptrScore(55), false)

	rows, err := svc.ClassResults(context.Background(), "school-1", "", "class-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "stu-2", rows[0].StudentID)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "stu-1", rows[1].StudentID)
	assert.Equal(t, 0, rows[1].Rank)
	assert.Equal(t, string(grading.LetterNA), rows[1].OverallGrade)
}

func TestClassResultsCachesRenderedRows(t *testing.T) {
	svc, repo, _, _ := newReportFixture()
	cache := &memoryCache{}
	svc.cache = cache
	storeAssessment(repo, "stu-1", "subj-1", models.AssessmentEndOfTerm, ptrScore(70), false)

	_, err := svc.ClassResults(context.Background(), "school-1", "", "class-1")
	require.NoError(t, err)
	assert.Len(t, cache.values, 1)
}
