package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzati-dev/eduspace-portal-backend/internal/models"
	"github.com/mzati-dev/eduspace-portal-backend/pkg/jobs"
)

type mockRoster struct {
	students []models.Student
}

func (m *mockRoster) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	return m.students, nil
}

type mockRankStore struct {
	written map[string]models.ReportCardRanks
}

func (m *mockRankStore) UpdateRanks(ctx context.Context, term string, ranks models.ReportCardRanks) error {
	if m.written == nil {
		m.written = make(map[string]models.ReportCardRanks)
	}
	m.written[ranks.StudentID] = ranks
	return nil
}

type mockUniqueQueue struct {
	jobs []jobs.Job
}

func (m *mockUniqueQueue) EnqueueUnique(job jobs.Job) error {
	m.jobs = append(m.jobs, job)
	return nil
}

type mockInvalidator struct {
	patterns []string
}

func (m *mockInvalidator) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

type countingCounter struct {
	n int
}

func (c *countingCounter) Inc() { c.n++ }

func ptrScore(v float64) *float64 { return &v }

func endOfTermAssessment(studentID string, score *float64, absent bool) models.AssessmentDetail {
	return models.AssessmentDetail{Assessment: models.Assessment{
		StudentID: studentID,
		SubjectID: "subj-1",
		ClassID:   "class-1",
		Kind:      models.AssessmentEndOfTerm,
		Score:     score,
		IsAbsent:  absent,
	}}
}

func TestRecalculateAssignsDenseRanks(t *testing.T) {
	roster := &mockRoster{students: []models.Student{
		{ID: "stu-a", Name: "A"},
		{ID: "stu-b", Name: "B"},
		{ID: "stu-c", Name: "C"},
	}}
	repo := &mockAssessmentRepo{stored: map[string]models.Assessment{}}
	for _, a := range []models.AssessmentDetail{
		endOfTermAssessment("stu-a", ptrScore(90), false),
		endOfTermAssessment("stu-b", ptrScore(90), false),
		endOfTermAssessment("stu-c", ptrScore(80), false),
	} {
		repo.stored[assessmentKey(a.StudentID, a.SubjectID, a.ClassID, a.Kind)] = a.Assessment
	}
	store := &mockRankStore{}
	cache := &mockInvalidator{}
	counter := &countingCounter{}
	svc := NewRankService(roster, repo, store, nil, cache, counter, nil)

	err := svc.Recalculate(context.Background(), "school-1", "class-1", "Term 1")
	require.NoError(t, err)

	require.Len(t, store.written, 3)
	assert.Equal(t, 1, store.written["stu-a"].ClassRank)
	assert.Equal(t, 1, store.written["stu-b"].ClassRank)
	assert.Equal(t, 2, store.written["stu-c"].ClassRank)
	for _, ranks := range store.written {
		assert.Equal(t, 3, ranks.TotalStudents)
	}
	assert.Equal(t, []string{"reports:school-1:*"}, cache.patterns)
	assert.Equal(t, 1, counter.n)
}

func TestRecalculateExcludesStudentsWithoutCountableMarks(t *testing.T) {
	roster := &mockRoster{students: []models.Student{
		{ID: "stu-a"}, {ID: "stu-b"}, {ID: "stu-c"},
	}}
	repo := &mockAssessmentRepo{stored: map[string]models.Assessment{}}
	for _, a := range []models.AssessmentDetail{
		endOfTermAssessment("stu-a", ptrScore(70), false),
		// Absent and zero marks keep the student out of the population.
		endOfTermAssessment("stu-b", nil, true),
		endOfTermAssessment("stu-c", ptrScore(0), false),
	} {
		repo.stored[assessmentKey(a.StudentID, a.SubjectID, a.ClassID, a.Kind)] = a.Assessment
	}
	store := &mockRankStore{}
	svc := NewRankService(roster, repo, store, nil, nil, nil, nil)

	err := svc.Recalculate(context.Background(), "school-1", "class-1", "Term 1")
	require.NoError(t, err)

	require.Len(t, store.written, 3)
	assert.Equal(t, 1, store.written["stu-a"].ClassRank)
	assert.Equal(t, 0, store.written["stu-b"].ClassRank)
	assert.Equal(t, 0, store.written["stu-c"].ClassRank)
	assert.Equal(t, 1, store.written["stu-a"].TotalStudents)
}

func TestRecalculateSkipsWriteWhenNoPopulations(t *testing.T) {
	roster := &mockRoster{students: []models.Student{{ID: "stu-a"}}}
	repo := &mockAssessmentRepo{}
	store := &mockRankStore{}
	counter := &countingCounter{}
	svc := NewRankService(roster, repo, store, nil, nil, counter, nil)

	err := svc.Recalculate(context.Background(), "school-1", "class-1", "Term 1")
	require.NoError(t, err)
	assert.Empty(t, store.written)
	assert.Zero(t, counter.n)
}

func TestRecalculateRanksMetricsIndependently(t *testing.T) {
	roster := &mockRoster{students: []models.Student{{ID: "stu-a"}, {ID: "stu-b"}}}
	repo := &mockAssessmentRepo{stored: map[string]models.Assessment{}}
	add := func(studentID string, kind models.AssessmentKind, score float64) {
		a := models.Assessment{StudentID: studentID, SubjectID: "subj-1", ClassID: "class-1", Kind: kind, Score: &score}
		repo.stored[assessmentKey(studentID, "subj-1", "class-1", kind)] = a
	}
	add("stu-a", models.AssessmentQa1, 60)
	add("stu-b", models.AssessmentQa1, 80)
	add("stu-a", models.AssessmentEndOfTerm, 90)
	store := &mockRankStore{}
	svc := NewRankService(roster, repo, store, nil, nil, nil, nil)

	err := svc.Recalculate(context.Background(), "school-1", "class-1", "Term 1")
	require.NoError(t, err)

	assert.Equal(t, 2, store.written["stu-a"].Qa1Rank)
	assert.Equal(t, 1, store.written["stu-b"].Qa1Rank)
	assert.Equal(t, 1, store.written["stu-a"].ClassRank)
	assert.Equal(t, 0, store.written["stu-b"].ClassRank)
	// End-of-term population has one member.
	assert.Equal(t, 1, store.written["stu-a"].TotalStudents)
}

func TestDispatchCoalescesOnClassAndTerm(t *testing.T) {
	queue := &mockUniqueQueue{}
	svc := NewRankService(nil, nil, nil, queue, nil, nil, nil)

	svc.Dispatch("school-1", "class-1", "Term 1")
	svc.Dispatch("school-1", "class-1", "Term 1")
	svc.Dispatch("school-1", "class-2", "Term 1")

	require.Len(t, queue.jobs, 3)
	assert.Equal(t, "rank:class-1:Term 1", queue.jobs[0].Key)
	assert.Equal(t, queue.jobs[0].Key, queue.jobs[1].Key)
	assert.NotEqual(t, queue.jobs[0].Key, queue.jobs[2].Key)
	assert.Equal(t, "rank_recalc", queue.jobs[0].Type)
}

func TestHandleRejectsForeignPayload(t *testing.T) {
	svc := NewRankService(nil, nil, nil, nil, nil, nil, nil)
	err := svc.Handle(context.Background(), jobs.Job{ID: "j1", Payload: "nope"})
	require.Error(t, err)
}
