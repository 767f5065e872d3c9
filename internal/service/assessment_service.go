package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mzati-dev/eduspace-portal-backend/internal/dto"
	"github.com/mzati-dev/eduspace-portal-backend/internal/grading"
	"github.com/mzati-dev/eduspace-portal-backend/internal/models"
	appErrors "github.com/mzati-dev/eduspace-portal-backend/pkg/errors"
)

// defaultTerm labels report cards of students whose class predates term
// tracking.
const defaultTerm = "Term 1, 2024/2025"

type assessmentRepo interface {
	FindByKey(ctx context.Context, studentID, subjectID, classID string, kind models.AssessmentKind) (*models.Assessment, error)
	Upsert(ctx context.Context, assessment *models.Assessment) (*models.Assessment, error)
	ListByStudent(ctx context.Context, studentID string, subjectIDs []string) ([]models.AssessmentDetail, error)
}

type studentReader interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.StudentDetail, error)
	FindByExamNumber(ctx context.Context, schoolID, examNumber string) (*models.StudentDetail, error)
}

type assignmentChecker interface {
	Exists(ctx context.Context, teacherID, classID, subjectID string) (bool, error)
	SubjectIDsForClass(ctx context.Context, teacherID, classID string) ([]string, error)
}

type activeConfigProvider interface {
	Active(ctx context.Context, schoolID string) (*models.GradeConfig, error)
}

type rankDispatcher interface {
	Dispatch(schoolID, classID, term string)
}

// AssessmentService implements the mark entry flow: permission gate, the
// null / empty / numeric score contract, change detection and the deferred
// rank recalculation trigger.
type AssessmentService struct {
	assessments assessmentRepo
	students    studentReader
	assignments assignmentChecker
	configs     activeConfigProvider
	ranks       rankDispatcher
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssessmentService constructs AssessmentService.
func NewAssessmentService(assessments assessmentRepo, students studentReader, assignments assignmentChecker, configs activeConfigProvider, ranks rankDispatcher, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{
		assessments: assessments,
		students:    students,
		assignments: assignments,
		configs:     configs,
		ranks:       ranks,
		validator:   validate,
		logger:      logger,
	}
}

// Upsert writes one assessment cell. A null score is a no-op, an empty
// string clears the stored value, and a number (zero included) stores it.
// When the acting teacher is known they must be assigned to the subject in
// the student's class. Every effective write queues a rank recalculation
// for the class.
func (s *AssessmentService) Upsert(ctx context.Context, schoolID, actingTeacherID string, req dto.UpsertAssessmentRequest) (*dto.UpsertAssessmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	if !req.Kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown assessment type")
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
	classID := *student.ClassID

	if actingTeacherID != "" {
		assigned, err := s.assignments.Exists(ctx, actingTeacherID, classID, req.SubjectID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
		}
		if !assigned {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not assigned to teach this subject in this class")
		}
	}

	// Null means the field was never touched on the entry screen.
	if !req.Score.Set {
		return &dto.UpsertAssessmentResponse{Outcome: dto.OutcomeSkipped, Message: "field not modified"}, nil
	}

	config, err := s.configs.Active(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	var score *float64
	var grade string
	switch {
	case req.IsAbsent:
		grade = string(grading.LetterAB)
	case req.Score.Clear:
		grade = string(grading.LetterNA)
	default:
		if req.Score.Value < 0 || req.Score.Value > 100 {
			return nil, appErrors.Clone(appErrors.ErrInvalidScore, "")
		}
		v := req.Score.Value
		score = &v
		grade = string(grading.LetterFor(v, config.PassMark))
	}

	existing, err := s.assessments.FindByKey(ctx, req.StudentID, req.SubjectID, classID, req.Kind)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}

	if existing == nil {
		// Nothing stored and nothing to store.
		if score == nil && !req.IsAbsent {
			return &dto.UpsertAssessmentResponse{Outcome: dto.OutcomeSkipped, Message: "no data to save"}, nil
		}
	} else if scoresEqual(existing.Score, score) && existing.IsAbsent == req.IsAbsent && gradesEqual(existing.Grade, grade) {
		return &dto.UpsertAssessmentResponse{Outcome: dto.OutcomeUnchanged, Message: "no changes detected", Assessment: existing}, nil
	}

	assessment := &models.Assessment{
		StudentID: req.StudentID,
		SubjectID: req.SubjectID,
		ClassID:   classID,
		Kind:      req.Kind,
		Score:     score,
		IsAbsent:  req.IsAbsent,
		Grade:     &grade,
	}
	if existing != nil {
		assessment.ID = existing.ID
		assessment.CreatedAt = existing.CreatedAt
	}
	stored, err := s.assessments.Upsert(ctx, assessment)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert assessment")
	}

	s.ranks.Dispatch(schoolID, classID, studentTerm(student))

	return &dto.UpsertAssessmentResponse{Outcome: dto.OutcomeSaved, Assessment: stored}, nil
}

// ListForStudent returns a student's assessments. When the acting teacher
// is known the list is narrowed to the subjects they teach in the
// student's class.
func (s *AssessmentService) ListForStudent(ctx context.Context, schoolID, actingTeacherID, studentID string) ([]models.AssessmentDetail, error) {
	student, err := s.students.FindByID(ctx, schoolID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	var subjectIDs []string
	if actingTeacherID != "" && student.ClassID != nil {
		subjectIDs, err = s.assignments.SubjectIDsForClass(ctx, actingTeacherID, *student.ClassID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
		}
		if len(subjectIDs) == 0 {
			return []models.AssessmentDetail{}, nil
		}
	}

	assessments, err := s.assessments.ListByStudent(ctx, studentID, subjectIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessments")
	}
	return assessments, nil
}

func scoresEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func gradesEqual(stored *string, grade string) bool {
	return stored != nil && *stored == grade
}

func studentTerm(student *models.StudentDetail) string {
	if student.Term != nil && *student.Term != "" {
		return *student.Term
	}
	return defaultTerm
}
