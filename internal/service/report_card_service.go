package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mzati-dev/eduspace-portal-backend/internal/dto"
	"github.com/mzati-dev/eduspace-portal-backend/internal/models"
	"github.com/mzati-dev/eduspace-portal-backend/internal/repository"
	appErrors "github.com/mzati-dev/eduspace-portal-backend/pkg/errors"
)

type reportCardStore interface {
	FindByStudentTerm(ctx context.Context, studentID, term string) (*models.ReportCard, error)
	Upsert(ctx context.Context, card *models.ReportCard) (*models.ReportCard, error)
}

type classTeacherChecker interface {
	FindByClassTeacher(ctx context.Context, teacherID string) (*models.Class, error)
}

type cacheDeleter interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ReportCardService writes the hand-entered half of a report card:
// attendance counters and remarks. Rank fields are owned by the ranking
// pass and never pass through here. Writes are restricted to the student's
// class teacher.
type ReportCardService struct {
	cards     reportCardStore
	students  studentReader
	classes   classTeacherChecker
	cache     cacheDeleter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportCardService constructs ReportCardService.
func NewReportCardService(cards reportCardStore, students studentReader, classes classTeacherChecker, cache cacheDeleter, validate *validator.Validate, logger *zap.Logger) *ReportCardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportCardService{
		cards:     cards,
		students:  students,
		classes:   classes,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// Upsert writes attendance and remarks for one student and term. When the
// acting teacher is known they must be the student's class teacher. Nil
// counters keep the stored value on update and default to zero on create.
func (s *ReportCardService) Upsert(ctx context.Context, schoolID, actingTeacherID string, req dto.UpsertReportCardRequest) (*models.ReportCard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report card payload")
	}

	student, err := s.students.FindByID(ctx, schoolID, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.ClassID == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not assigned to any class")
	}

	if actingTeacherID != "" {
		class, err := s.classes.FindByClassTeacher(ctx, actingTeacherID)
		if err != nil && err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class teacher")
		}
		if class == nil || class.ID != *student.ClassID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only the class teacher can write report cards for this class")
		}
	}

	card := &models.ReportCard{StudentID: req.StudentID, Term: req.Term}
	existing, err := s.cards.FindByStudentTerm(ctx, req.StudentID, req.Term)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report card")
	}
	if existing != nil {
		*card = *existing
	}

	if req.DaysPresent != nil {
		card.DaysPresent = *req.DaysPresent
	}
	if req.DaysAbsent != nil {
		card.DaysAbsent = *req.DaysAbsent
	}
	if req.DaysLate != nil {
		card.DaysLate = *req.DaysLate
	}
	if req.TeacherRemarks != nil {
		card.TeacherRemarks = req.TeacherRemarks
	}

	stored, err := s.cards.Upsert(ctx, card)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert report card")
	}

	if s.cache != nil {
		key := repository.StudentReportKey(schoolID, req.StudentID, req.Term)
		if err := s.cache.DeleteByPattern(ctx, key); err != nil {
			s.logger.Warn("failed to invalidate student report", zap.String("key", key), zap.Error(err))
		}
	}
	return stored, nil
}

// Get fetches the report card for a student and term.
func (s *ReportCardService) Get(ctx context.Context, schoolID, studentID, term string) (*models.ReportCard, error) {
	if _, err := s.students.FindByID(ctx, schoolID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	card, err := s.cards.FindByStudentTerm(ctx, studentID, term)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report card not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report card")
	}
	return card, nil
}
