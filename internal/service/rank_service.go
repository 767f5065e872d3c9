package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mzati-dev/eduspace-portal-backend/internal/grading"
	"github.com/mzati-dev/eduspace-portal-backend/internal/models"
	appErrors "github.com/mzati-dev/eduspace-portal-backend/pkg/errors"
	"github.com/mzati-dev/eduspace-portal-backend/pkg/jobs"
)

type classRoster interface {
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
}

type classAssessmentLister interface {
	ListByClass(ctx context.Context, classID string) ([]models.AssessmentDetail, error)
}

type rankStore interface {
	UpdateRanks(ctx context.Context, term string, ranks models.ReportCardRanks) error
}

type uniqueQueue interface {
	EnqueueUnique(job jobs.Job) error
}

type viewInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type recalcCounter interface {
	Inc()
}

type rankJobPayload struct {
	SchoolID string
	ClassID  string
	Term     string
}

// RankService recomputes class standings after mark changes. Triggers are
// coalesced per class and term so a burst of entries from one marking
// session runs a single pass.
type RankService struct {
	students    classRoster
	assessments classAssessmentLister
	cards       rankStore
	queue       uniqueQueue
	cache       viewInvalidator
	recalcs     recalcCounter
	logger      *zap.Logger
}

// NewRankService constructs RankService. The queue may be nil, in which
// case Dispatch recalculates inline.
func NewRankService(students classRoster, assessments classAssessmentLister, cards rankStore, queue uniqueQueue, cache viewInvalidator, recalcs recalcCounter, logger *zap.Logger) *RankService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RankService{
		students:    students,
		assessments: assessments,
		cards:       cards,
		queue:       queue,
		cache:       cache,
		recalcs:     recalcs,
		logger:      logger,
	}
}

// Dispatch queues a ranking pass for a class. Duplicate triggers for the
// same class and term collapse into one pending job.
func (s *RankService) Dispatch(schoolID, classID, term string) {
	if s.queue == nil {
		if err := s.Recalculate(context.Background(), schoolID, classID, term); err != nil {
			s.logger.Warn("inline rank recalculation failed", zap.String("class_id", classID), zap.Error(err))
		}
		return
	}
	err := s.queue.EnqueueUnique(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "rank_recalc",
		Key:     fmt.Sprintf("rank:%s:%s", classID, term),
		Payload: rankJobPayload{SchoolID: schoolID, ClassID: classID, Term: term},
	})
	if err != nil {
		s.logger.Warn("failed to enqueue rank recalculation", zap.String("class_id", classID), zap.Error(err))
	}
}

// Handle processes a queued ranking job.
func (s *RankService) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(rankJobPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for job %s", job.ID)
	}
	return s.Recalculate(ctx, payload.SchoolID, payload.ClassID, payload.Term)
}

// Recalculate runs one full ranking pass over a class for a term. Each of
// the three metrics ranks only students holding at least one countable
// mark for it; everyone else keeps rank zero. TotalStudents records the
// size of the end-of-term population.
func (s *RankService) Recalculate(ctx context.Context, schoolID, classID, term string) error {
	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class students")
	}
	if len(students) == 0 {
		return nil
	}
	assessments, err := s.assessments.ListByClass(ctx, classID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class assessments")
	}

	marks := make(map[string]map[models.AssessmentKind][]grading.Mark, len(students))
	for _, student := range students {
		marks[student.ID] = make(map[models.AssessmentKind][]grading.Mark, 3)
	}
	for _, a := range assessments {
		byKind, ok := marks[a.StudentID]
		if !ok {
			// Stale row from a student moved out of the class.
			continue
		}
		byKind[a.Kind] = append(byKind[a.Kind], grading.NewMark(a.Score, a.IsAbsent))
	}

	averages := func(kind models.AssessmentKind) []grading.RankEntry {
		entries := make([]grading.RankEntry, 0, len(students))
		for _, student := range students {
			if avg, ok := grading.Average(marks[student.ID][kind]); ok {
				entries = append(entries, grading.RankEntry{StudentID: student.ID, Score: avg})
			}
		}
		return entries
	}

	termEntries := averages(models.AssessmentEndOfTerm)
	qa1Entries := averages(models.AssessmentQa1)
	qa2Entries := averages(models.AssessmentQa2)
	if len(termEntries) == 0 && len(qa1Entries) == 0 && len(qa2Entries) == 0 {
		return nil
	}

	termRanks := grading.DenseRank(termEntries)
	qa1Ranks := grading.DenseRank(qa1Entries)
	qa2Ranks := grading.DenseRank(qa2Entries)

	for _, student := range students {
		ranks := models.ReportCardRanks{
			StudentID:     student.ID,
			ClassRank:     termRanks[student.ID].Rank,
			Qa1Rank:       qa1Ranks[student.ID].Rank,
			Qa2Rank:       qa2Ranks[student.ID].Rank,
			TotalStudents: len(termEntries),
		}
		if err := s.cards.UpdateRanks(ctx, term, ranks); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store ranks")
		}
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("reports:%s:*", schoolID)); err != nil {
			s.logger.Warn("failed to invalidate report views", zap.String("school_id", schoolID), zap.Error(err))
		}
	}
	if s.recalcs != nil {
		s.recalcs.Inc()
	}
	s.logger.Info("rank recalculation complete",
		zap.String("class_id", classID),
		zap.String("term", term),
		zap.Int("ranked", len(termEntries)),
		zap.Int("students", len(students)))
	return nil
}
