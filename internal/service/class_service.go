package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mzati-dev/eduspace-portal-backend/internal/dto"
	"github.com/mzati-dev/eduspace-portal-backend/internal/models"
	"github.com/mzati-dev/eduspace-portal-backend/internal/repository"
	appErrors "github.com/mzati-dev/eduspace-portal-backend/pkg/errors"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

const codeSuffixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

type classStore interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.Class, error)
	ExistsByNameYearTerm(ctx context.Context, schoolID, name, academicYear, term string) (bool, error)
	CountStudents(ctx context.Context, classID string) (int, error)
	Create(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, schoolID, id string) error
}

type classRosterLister interface {
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
}

// ClassService manages academic classes. A class is unique per school on
// (name, academic year, term) and carries a generated class code.
type ClassService struct {
	classes   classStore
	students  classRosterLister
	validator *validator.Validate
	logger    *zap.Logger
	randomID  func(n int) string
}

// NewClassService constructs ClassService.
func NewClassService(classes classStore, students classRosterLister, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{
		classes:   classes,
		students:  students,
		validator: validate,
		logger:    logger,
		randomID:  randomCodeSuffix,
	}
}

// List returns classes scoped to the school with pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, *models.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	classes, total, err := s.classes.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return classes, pagination, nil
}

// Get fetches one class.
func (s *ClassService) Get(ctx context.Context, schoolID, id string) (*models.Class, error) {
	class, err := s.classes.FindByID(ctx, schoolID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Create registers a class for a term and generates its class code.
func (s *ClassService) Create(ctx context.Context, schoolID string, req dto.CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	exists, err := s.classes.ExistsByNameYearTerm(ctx, schoolID, req.Name, req.AcademicYear, req.Term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("class %q already exists for %s %s", req.Name, req.AcademicYear, req.Term))
	}

	class := &models.Class{
		Name:         req.Name,
		AcademicYear: req.AcademicYear,
		Term:         req.Term,
		ClassCode:    s.classCode(req.Name, req.AcademicYear, req.Term),
		SchoolID:     schoolID,
	}
	if err := s.classes.Create(ctx, class); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("class %q already exists for %s %s", req.Name, req.AcademicYear, req.Term))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	s.logger.Info("class created",
		zap.String("class_id", class.ID),
		zap.String("class_code", class.ClassCode))
	return class, nil
}

// Delete removes a class. Classes with enrolled students are refused.
func (s *ClassService) Delete(ctx context.Context, schoolID, id string) error {
	if _, err := s.classes.FindByID(ctx, schoolID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	count, err := s.classes.CountStudents(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count class students")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrClassNotEmpty, "")
	}
	if err := s.classes.Delete(ctx, schoolID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	return nil
}

// Students lists the roster of one class.
func (s *ClassService) Students(ctx context.Context, schoolID, id string) ([]models.Student, error) {
	if _, err := s.classes.FindByID(ctx, schoolID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	students, err := s.students.ListByClass(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class students")
	}
	return students, nil
}

// classCode builds "<name code><class number>-<year>-<term code>-<random>",
// e.g. "FORM1-2024-2025-TE-X4J9".
func (s *ClassService) classCode(name, academicYear, term string) string {
	nameCode := strings.ToUpper(nonAlphanumeric.ReplaceAllString(name, ""))
	if len(nameCode) > 4 {
		nameCode = nameCode[:4]
	}
	number := classNumber(name)
	if number == "0" {
		number = "00"
	}
	termCode := strings.ToUpper(term)
	if len(termCode) > 2 {
		termCode = termCode[:2]
	}
	year := strings.ReplaceAll(academicYear, "/", "-")
	return fmt.Sprintf("%s%s-%s-%s-%s", nameCode, number, year, termCode, s.randomID(4))
}

func randomCodeSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeSuffixAlphabet[rand.Intn(len(codeSuffixAlphabet))]
	}
	return string(b)
}
