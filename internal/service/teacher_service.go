package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mzati-dev/eduspace-portal-backend/internal/dto"
	"github.com/mzati-dev/eduspace-portal-backend/internal/models"
	"github.com/mzati-dev/eduspace-portal-backend/internal/repository"
	appErrors "github.com/mzati-dev/eduspace-portal-backend/pkg/errors"
)

type teacherStore interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.Teacher, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, schoolID, id string) error
}

type assignmentStore interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignmentDetail, error)
	Exists(ctx context.Context, teacherID, classID, subjectID string) (bool, error)
	Create(ctx context.Context, assignment *models.TeacherAssignment) error
	Delete(ctx context.Context, teacherID, classID, subjectID string) error
}

type classTeacherStore interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.Class, error)
	SetClassTeacher(ctx context.Context, classID string, teacherID *string) error
	FindByClassTeacher(ctx context.Context, teacherID string) (*models.Class, error)
}

type subjectLookup interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.Subject, error)
}

// TeacherService manages teachers, their class-subject assignments and the
// class teacher role. An assignment is the permission unit for mark entry;
// the class teacher role gates report card writes.
type TeacherService struct {
	teachers    teacherStore
	assignments assignmentStore
	classes     classTeacherStore
	subjects    subjectLookup
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTeacherService constructs TeacherService.
func NewTeacherService(teachers teacherStore, assignments assignmentStore, classes classTeacherStore, subjects subjectLookup, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{
		teachers:    teachers,
		assignments: assignments,
		classes:     classes,
		subjects:    subjects,
		validator:   validate,
		logger:      logger,
	}
}

// List returns the school's teachers with pagination metadata.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	teachers, total, err := s.teachers.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return teachers, pagination, nil
}

// Get fetches one teacher.
func (s *TeacherService) Get(ctx context.Context, schoolID, id string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, schoolID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a teacher. Emails are globally unique.
func (s *TeacherService) Create(ctx context.Context, schoolID string, req dto.CreateTeacherRequest) (*models.Teacher, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	exists, err := s.teachers.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a teacher with this email already exists")
	}

	teacher := &models.Teacher{
		Name:     req.Name,
		Email:    req.Email,
		SchoolID: schoolID,
		IsActive: true,
	}
	if err := s.teachers.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}

// Delete removes a teacher. Their assignments go with them; a class they
// were class teacher of is left without one.
func (s *TeacherService) Delete(ctx context.Context, schoolID, id string) error {
	if err := s.teachers.Delete(ctx, schoolID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	return nil
}

// Assignments lists a teacher's class-subject assignments.
func (s *TeacherService) Assignments(ctx context.Context, schoolID, teacherID string) ([]models.TeacherAssignmentDetail, error) {
	if _, err := s.teachers.FindByID(ctx, schoolID, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	assignments, err := s.assignments.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// Assign grants a teacher write access to a subject in a class.
func (s *TeacherService) Assign(ctx context.Context, schoolID string, req dto.AssignClassSubjectRequest) (*models.TeacherAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if _, err := s.teachers.FindByID(ctx, schoolID, req.TeacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if _, err := s.classes.FindByID(ctx, schoolID, req.ClassID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if _, err := s.subjects.FindByID(ctx, schoolID, req.SubjectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	exists, err := s.assignments.Exists(ctx, req.TeacherID, req.ClassID, req.SubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher is already assigned to this subject in this class")
	}

	assignment := &models.TeacherAssignment{
		TeacherID: req.TeacherID,
		ClassID:   req.ClassID,
		SubjectID: req.SubjectID,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "teacher is already assigned to this subject in this class")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	s.logger.Info("teacher assigned",
		zap.String("teacher_id", req.TeacherID),
		zap.String("class_id", req.ClassID),
		zap.String("subject_id", req.SubjectID))
	return assignment, nil
}

// Unassign revokes a class-subject assignment.
func (s *TeacherService) Unassign(ctx context.Context, teacherID, classID, subjectID string) error {
	if err := s.assignments.Delete(ctx, teacherID, classID, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

// AssignClassTeacher makes a teacher the class teacher of a class. A class
// has at most one class teacher; assigning replaces the current one.
func (s *TeacherService) AssignClassTeacher(ctx context.Context, schoolID string, req dto.AssignClassTeacherRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if _, err := s.teachers.FindByID(ctx, schoolID, req.TeacherID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if _, err := s.classes.FindByID(ctx, schoolID, req.ClassID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if err := s.classes.SetClassTeacher(ctx, req.ClassID, &req.TeacherID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign class teacher")
	}
	return nil
}

// RemoveClassTeacher clears the class teacher of a class.
func (s *TeacherService) RemoveClassTeacher(ctx context.Context, schoolID, classID string) error {
	if _, err := s.classes.FindByID(ctx, schoolID, classID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if err := s.classes.SetClassTeacher(ctx, classID, nil); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove class teacher")
	}
	return nil
}

// ClassTeacher returns the class teacher of a class, or nil when the class
// has none.
func (s *TeacherService) ClassTeacher(ctx context.Context, schoolID, classID string) (*models.Teacher, error) {
	class, err := s.classes.FindByID(ctx, schoolID, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.ClassTeacherID == nil {
		return nil, nil
	}
	teacher, err := s.teachers.FindByID(ctx, schoolID, *class.ClassTeacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// IsClassTeacher reports whether the teacher is the class teacher of the
// class.
func (s *TeacherService) IsClassTeacher(ctx context.Context, schoolID, teacherID, classID string) (bool, error) {
	class, err := s.classes.FindByID(ctx, schoolID, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class.ClassTeacherID != nil && *class.ClassTeacherID == teacherID, nil
}
