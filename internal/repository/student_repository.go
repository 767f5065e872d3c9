package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mzati-dev/eduspace-portal-backend/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students of a school matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := "FROM students s LEFT JOIN classes c ON c.id = s.class_id"
	args := []interface{}{filter.SchoolID}
	conditions := []string{"s.school_id = $1"}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("s.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.name) LIKE $%d OR LOWER(s.exam_number) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"name":        "s.name",
		"exam_number": "s.exam_number",
		"created_at":  "s.created_at",
	}
	if sortBy == "" {
		sortBy = "name"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "s.name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.id, s.exam_number, s.name, s.class_id, s.photo_url, s.school_id, s.created_at, s.updated_at,
        c.name AS class_name, c.academic_year, c.term
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(s.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student detail by ID within a school.
func (r *StudentRepository) FindByID(ctx context.Context, schoolID, id string) (*models.StudentDetail, error) {
	const query = `SELECT s.id, s.exam_number, s.name, s.class_id, s.photo_url, s.school_id, s.created_at, s.updated_at,
        c.name AS class_name, c.academic_year, c.term
        FROM students s
        LEFT JOIN classes c ON c.id = s.class_id
        WHERE s.id = $1 AND s.school_id = $2`
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id, schoolID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByExamNumber fetches a student detail by exam number within a school.
func (r *StudentRepository) FindByExamNumber(ctx context.Context, schoolID, examNumber string) (*models.StudentDetail, error) {
	const query = `SELECT s.id, s.exam_number, s.name, s.class_id, s.photo_url, s.school_id, s.created_at, s.updated_at,
        c.name AS class_name, c.academic_year, c.term
        FROM students s
        LEFT JOIN classes c ON c.id = s.class_id
        WHERE s.exam_number = $1 AND s.school_id = $2`
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, examNumber, schoolID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByClass returns all students enrolled in a class.
func (r *StudentRepository) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	const query = `SELECT id, exam_number, name, class_id, photo_url, school_id, created_at, updated_at
        FROM students WHERE class_id = $1 ORDER BY name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list class students: %w", err)
	}
	return students, nil
}

// LastExamNumber returns the highest exam number sharing a generated
// prefix, used to pick the next sequence number for the class. Returns an
// empty string when the prefix is unused.
func (r *StudentRepository) LastExamNumber(ctx context.Context, schoolID, prefix string) (string, error) {
	const query = `SELECT exam_number FROM students WHERE school_id = $1 AND exam_number LIKE $2
        ORDER BY exam_number DESC LIMIT 1`
	var examNumber string
	if err := r.db.GetContext(ctx, &examNumber, query, schoolID, prefix+"%"); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("last exam number: %w", err)
	}
	return examNumber, nil
}

// ExistsByExamNumber checks if an exam number is already taken in the school.
func (r *StudentRepository) ExistsByExamNumber(ctx context.Context, schoolID, examNumber string) (bool, error) {
	const query = "SELECT 1 FROM students WHERE school_id = $1 AND exam_number = $2 LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, schoolID, examNumber); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check exam number: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, exam_number, name, class_id, photo_url, school_id, created_at, updated_at)
        VALUES (:id, :exam_number, :name, :class_id, :photo_url, :school_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET name = :name, class_id = :class_id, photo_url = :photo_url, updated_at = :updated_at
        WHERE id = :id AND school_id = :school_id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student. Assessments and report cards cascade at the
// database level.
func (r *StudentRepository) Delete(ctx context.Context, schoolID, id string) error {
	const query = `DELETE FROM students WHERE id = $1 AND school_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, schoolID)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
