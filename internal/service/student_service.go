package service

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mzati-dev/eduspace-portal-backend/internal/dto"
	"github.com/mzati-dev/eduspace-portal-backend/internal/models"
	appErrors "github.com/mzati-dev/eduspace-portal-backend/pkg/errors"
)

var classDigits = regexp.MustCompile(`\d+`)

type studentStore interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.StudentDetail, error)
	FindByExamNumber(ctx context.Context, schoolID, examNumber string) (*models.StudentDetail, error)
	LastExamNumber(ctx context.Context, schoolID, prefix string) (string, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, schoolID, id string) error
}

// StudentService manages the student roster. Exam numbers are generated
// server-side from the school, year and class and are never accepted from
// clients.
type StudentService struct {
	students  studentStore
	classes   classReader
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewStudentService constructs StudentService.
func NewStudentService(students studentStore, classes classReader, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		students:  students,
		classes:   classes,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns students scoped to the school with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return students, pagination, nil
}

// Get fetches one student with class context.
func (s *StudentService) Get(ctx context.Context, schoolID, id string) (*models.StudentDetail, error) {
	student, err := s.students.FindByID(ctx, schoolID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// GetByExamNumber fetches one student by their exam number.
func (s *StudentService) GetByExamNumber(ctx context.Context, schoolID, examNumber string) (*models.StudentDetail, error) {
	student, err := s.students.FindByExamNumber(ctx, schoolID, examNumber)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found", examNumber))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a student in a class and assigns the next exam number
// for the class's sequence.
func (s *StudentService) Create(ctx context.Context, schoolID string, req dto.CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	class, err := s.classes.FindByID(ctx, schoolID, req.ClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found in your school")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	examNumber, err := s.nextExamNumber(ctx, schoolID, class.Name)
	if err != nil {
		return nil, err
	}

	student := &models.Student{
		ExamNumber: examNumber,
		Name:       req.Name,
		ClassID:    &class.ID,
		PhotoURL:   req.PhotoURL,
		SchoolID:   schoolID,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("student created",
		zap.String("student_id", student.ID),
		zap.String("exam_number", student.ExamNumber),
		zap.String("class_id", class.ID))
	return student, nil
}

// Update applies a partial update. A class change is validated against the
// school before it lands.
func (s *StudentService) Update(ctx context.Context, schoolID, id string, req dto.UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	detail, err := s.students.FindByID(ctx, schoolID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	student := detail.Student

	if req.ClassID != nil {
		class, err := s.classes.FindByID(ctx, schoolID, *req.ClassID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found in your school")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
		}
		student.ClassID = &class.ID
	}
	if req.Name != nil {
		student.Name = *req.Name
	}
	if req.PhotoURL != nil {
		student.PhotoURL = req.PhotoURL
	}

	if err := s.students.Update(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return &student, nil
}

// Delete removes a student. Assessments and report cards go with it.
func (s *StudentService) Delete(ctx context.Context, schoolID, id string) error {
	if err := s.students.Delete(ctx, schoolID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}

// nextExamNumber builds "<school prefix>-<yy>-<class number><seq>" where the
// sequence continues from the highest number already issued under the
// prefix.
func (s *StudentService) nextExamNumber(ctx context.Context, schoolID, className string) (string, error) {
	prefix := fmt.Sprintf("%s-%s-%s", schoolPrefix(schoolID), s.now().UTC().Format("06"), classNumber(className))
	last, err := s.students.LastExamNumber(ctx, schoolID, prefix)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate exam number")
	}
	next := 1
	if len(last) > len(prefix) {
		if n, err := strconv.Atoi(last[len(prefix):]); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s%03d", prefix, next), nil
}

func schoolPrefix(schoolID string) string {
	if len(schoolID) >= 3 {
		return schoolID[:3]
	}
	if schoolID != "" {
		return schoolID
	}
	return "SCH"
}

// classNumber extracts the numeric part of a class name ("Form 1" -> "1").
func classNumber(className string) string {
	if m := classDigits.FindString(className); m != "" {
		return m
	}
	return "0"
}
