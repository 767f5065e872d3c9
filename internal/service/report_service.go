package service

import (
	"context"
	"database/sql"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mzati-dev/eduspace-portal-backend/internal/dto"
	"github.com/mzati-dev/eduspace-portal-backend/internal/grading"
	"github.com/mzati-dev/eduspace-portal-backend/internal/models"
	"github.com/mzati-dev/eduspace-portal-backend/internal/repository"
	appErrors "github.com/mzati-dev/eduspace-portal-backend/pkg/errors"
)

type classReader interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.Class, error)
}

type reportCardSource interface {
	FindByStudentTerm(ctx context.Context, studentID, term string) (*models.ReportCard, error)
	ListByTerm(ctx context.Context, term string, studentIDs []string) ([]models.ReportCard, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type reportStudentStore interface {
	studentReader
	classRoster
}

type reportAssessmentSource interface {
	assessmentRepo
	classAssessmentLister
}

// ReportService assembles the derived result views: the per-student report
// card view and the class results table. Both are computed from raw
// assessments under the active grading policy and cached until the next
// effective write invalidates them.
type ReportService struct {
	students    reportStudentStore
	classes     classReader
	assessments reportAssessmentSource
	cards       reportCardSource
	assignments assignmentChecker
	configs     activeConfigProvider
	cache       reportCache
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewReportService constructs ReportService. Cache may be nil.
func NewReportService(students reportStudentStore, classes classReader, assessments reportAssessmentSource, cards reportCardSource, assignments assignmentChecker, configs activeConfigProvider, cache reportCache, cacheTTL time.Duration, logger *zap.Logger) *ReportService {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		students:    students,
		classes:     classes,
		assessments: assessments,
		cards:       cards,
		assignments: assignments,
		configs:     configs,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// StudentReport builds the full report view for one student. The term
// defaults to the student's class term when not given.
func (s *ReportService) StudentReport(ctx context.Context, schoolID, studentID, term string) (*dto.StudentReport, error) {
	student, err := s.students.FindByID(ctx, schoolID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.ClassID == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not assigned to any class")
	}
	if term == "" {
		term = studentTerm(student)
	}

	key := repository.StudentReportKey(schoolID, studentID, term)
	if s.cache != nil {
		var cached dto.StudentReport
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	config, err := s.configs.Active(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	policy := config.Policy()

	assessments, err := s.assessments.ListByStudent(ctx, studentID, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessments")
	}

	report := &dto.StudentReport{
		StudentID:  student.ID,
		ExamNumber: student.ExamNumber,
		Name:       student.Name,
		PhotoURL:   student.PhotoURL,
		Term:       term,
		Subjects:   buildSubjectBreakdown(assessments, policy),
	}
	if student.ClassName != nil {
		report.ClassName = *student.ClassName
	}
	if student.AcademicYear != nil {
		report.AcademicYear = *student.AcademicYear
	}

	card, err := s.cards.FindByStudentTerm(ctx, studentID, term)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report card")
	}
	if card != nil {
		report.ClassRank = card.ClassRank
		report.TotalStudents = card.TotalStudents
		report.TeacherRemarks = card.TeacherRemarks
		report.Attendance = dto.Attendance{
			DaysPresent: card.DaysPresent,
			DaysAbsent:  card.DaysAbsent,
			DaysLate:    card.DaysLate,
		}
	}
	report.AssessmentStats = buildAssessmentStats(assessments, card, policy)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, report, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache student report", zap.String("key", key), zap.Error(err))
		}
	}
	return report, nil
}

// ClassResults builds the per-class results table. A teacher sees only the
// subjects they are assigned to in the class; an empty acting teacher ID
// returns every subject. Rows are ordered by the request-time rank.
func (s *ReportService) ClassResults(ctx context.Context, schoolID, actingTeacherID, classID string) ([]dto.ClassResultRow, error) {
	class, err := s.classes.FindByID(ctx, schoolID, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	term := class.Term
	if term == "" {
		term = defaultTerm
	}

	var subjectFilter map[string]struct{}
	if actingTeacherID != "" {
		subjectIDs, err := s.assignments.SubjectIDsForClass(ctx, actingTeacherID, classID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
		}
		if len(subjectIDs) == 0 {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not assigned to any subject in this class")
		}
		subjectFilter = make(map[string]struct{}, len(subjectIDs))
		for _, id := range subjectIDs {
			subjectFilter[id] = struct{}{}
		}
	}

	key := repository.ClassResultsKey(schoolID, classID, term, actingTeacherID)
	if s.cache != nil {
		var cached []dto.ClassResultRow
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	config, err := s.configs.Active(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	policy := config.Policy()

	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class students")
	}
	if len(students) == 0 {
		return []dto.ClassResultRow{}, nil
	}

	assessments, err := s.assessments.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class assessments")
	}
	byStudent := make(map[string][]models.AssessmentDetail, len(students))
	for _, a := range assessments {
		if subjectFilter != nil {
			if _, ok := subjectFilter[a.SubjectID]; !ok {
				continue
			}
		}
		byStudent[a.StudentID] = append(byStudent[a.StudentID], a)
	}

	studentIDs := make([]string, len(students))
	for i, st := range students {
		studentIDs[i] = st.ID
	}
	cards, err := s.cards.ListByTerm(ctx, term, studentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report cards")
	}
	classRanks := make(map[string]int, len(cards))
	for _, card := range cards {
		classRanks[card.StudentID] = card.ClassRank
	}

	rows := make([]dto.ClassResultRow, 0, len(students))
	entries := make([]grading.RankEntry, 0, len(students))
	for _, st := range students {
		row := buildClassResultRow(st, byStudent[st.ID], policy)
		row.ClassRank = classRanks[st.ID]
		rows = append(rows, row)
		if len(row.Subjects) > 0 {
			entries = append(entries, grading.RankEntry{StudentID: st.ID, Score: row.Average})
		}
	}
	placements := grading.DenseRank(entries)
	for i := range rows {
		rows[i].Rank = placements[rows[i].StudentID].Rank
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rows[i].Rank, rows[j].Rank
		// Unranked rows sink to the bottom.
		if ri == 0 {
			ri = math.MaxInt32
		}
		if rj == 0 {
			rj = math.MaxInt32
		}
		if ri != rj {
			return ri < rj
		}
		return rows[i].Name < rows[j].Name
	})

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, rows, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache class results", zap.String("key", key), zap.Error(err))
		}
	}
	return rows, nil
}

// subjectGroup collects one student's marks for a single subject.
type subjectGroup struct {
	subjectID string
	name      string
	entries   grading.SubjectEntries
}

func groupBySubject(assessments []models.AssessmentDetail) []subjectGroup {
	index := make(map[string]int)
	groups := []subjectGroup{}
	for _, a := range assessments {
		i, ok := index[a.SubjectID]
		if !ok {
			i = len(groups)
			index[a.SubjectID] = i
			groups = append(groups, subjectGroup{subjectID: a.SubjectID, name: a.SubjectName})
		}
		mark := grading.NewMark(a.Score, a.IsAbsent)
		switch a.Kind {
		case models.AssessmentQa1:
			groups[i].entries.Qa1 = mark
		case models.AssessmentQa2:
			groups[i].entries.Qa2 = mark
		case models.AssessmentEndOfTerm:
			groups[i].entries.EndOfTerm = mark
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].name < groups[j].name })
	return groups
}

func buildSubjectBreakdown(assessments []models.AssessmentDetail, policy grading.Policy) []dto.SubjectBreakdown {
	groups := groupBySubject(assessments)
	entrySets := make([]grading.SubjectEntries, len(groups))
	for i, g := range groups {
		entrySets[i] = g.entries
	}
	resolved := grading.ResolveSubjectSet(entrySets, policy)

	breakdown := make([]dto.SubjectBreakdown, len(groups))
	for i, g := range groups {
		breakdown[i] = dto.SubjectBreakdown{
			SubjectID:       g.subjectID,
			Name:            g.name,
			Qa1:             markValue(g.entries.Qa1),
			Qa2:             markValue(g.entries.Qa2),
			EndOfTerm:       markValue(g.entries.EndOfTerm),
			Qa1Absent:       g.entries.Qa1.IsAbsent(),
			Qa2Absent:       g.entries.Qa2.IsAbsent(),
			EndOfTermAbsent: g.entries.EndOfTerm.IsAbsent(),
			FinalScore:      round2(resolved[i].FinalScore),
			Grade:           string(resolved[i].Grade),
		}
	}
	return breakdown
}

// buildAssessmentStats derives the report header: per-metric term averages
// with stored class ranks, plus an overall figure resolved from the three
// averages under the active policy.
func buildAssessmentStats(assessments []models.AssessmentDetail, card *models.ReportCard, policy grading.Policy) dto.AssessmentStats {
	byKind := make(map[models.AssessmentKind][]grading.Mark, 3)
	for _, a := range assessments {
		byKind[a.Kind] = append(byKind[a.Kind], grading.NewMark(a.Score, a.IsAbsent))
	}

	metric := func(kind models.AssessmentKind, rank int) (dto.MetricStats, grading.Mark) {
		avg, ok := grading.Average(byKind[kind])
		if !ok {
			return dto.MetricStats{ClassRank: rank, Grade: string(grading.LetterNA)}, grading.Missing()
		}
		avg = round1(avg)
		return dto.MetricStats{
			ClassRank:   rank,
			TermAverage: avg,
			Grade:       string(grading.LetterFor(avg, policy.PassMark)),
		}, grading.Present(avg)
	}

	var stats dto.AssessmentStats
	var overall grading.SubjectEntries
	var classRank, qa1Rank, qa2Rank int
	if card != nil {
		classRank, qa1Rank, qa2Rank = card.ClassRank, card.Qa1Rank, card.Qa2Rank
	}
	stats.Qa1, overall.Qa1 = metric(models.AssessmentQa1, qa1Rank)
	stats.Qa2, overall.Qa2 = metric(models.AssessmentQa2, qa2Rank)
	stats.EndOfTerm, overall.EndOfTerm = metric(models.AssessmentEndOfTerm, classRank)

	if overall.Qa1.Counts() || overall.Qa2.Counts() || overall.EndOfTerm.Counts() {
		score, letter := grading.ResolveSubject(overall, policy)
		stats.Overall = dto.MetricStats{
			ClassRank:   classRank,
			TermAverage: round1(score),
			Grade:       string(letter),
		}
	} else {
		stats.Overall = dto.MetricStats{ClassRank: classRank, Grade: string(grading.LetterNA)}
	}
	return stats
}

// buildClassResultRow resolves each subject in isolation with the method
// formula. The carry-forward rule belongs to the per-student detail view
// only and never applies here.
func buildClassResultRow(student models.Student, assessments []models.AssessmentDetail, policy grading.Policy) dto.ClassResultRow {
	groups := groupBySubject(assessments)

	row := dto.ClassResultRow{
		StudentID:  student.ID,
		Name:       student.Name,
		ExamNumber: student.ExamNumber,
		Subjects:   make([]dto.ClassResultSubject, len(groups)),
	}
	var total float64
	for i, g := range groups {
		score, letter := grading.ResolveSubject(g.entries, policy)
		total += score
		row.Subjects[i] = dto.ClassResultSubject{
			Name:       g.name,
			Qa1:        g.entries.Qa1.Value(),
			Qa2:        g.entries.Qa2.Value(),
			EndOfTerm:  g.entries.EndOfTerm.Value(),
			FinalScore: round2(score),
			Grade:      string(letter),
		}
	}
	if len(groups) > 0 {
		row.TotalScore = round2(total)
		row.Average = round2(total / float64(len(groups)))
		row.OverallGrade = string(grading.LetterFor(row.Average, policy.PassMark))
	} else {
		row.OverallGrade = string(grading.LetterNA)
	}
	return row
}

func markValue(m grading.Mark) *float64 {
	if !m.IsPresent() {
		return nil
	}
	v := m.Value()
	return &v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
