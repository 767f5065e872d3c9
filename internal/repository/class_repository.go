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

// ClassRepository manages persistence for academic classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns classes of a school matching the provided filters.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	base := "FROM classes c LEFT JOIN teachers t ON t.id = c.class_teacher_id"
	args := []interface{}{filter.SchoolID}
	conditions := []string{"c.school_id = $1"}

	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("c.academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.Term != "" {
		conditions = append(conditions, fmt.Sprintf("c.term = $%d", len(args)+1))
		args = append(args, filter.Term)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(c.name) LIKE $%d OR LOWER(c.class_code) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT c.id, c.name, c.academic_year, c.term, c.class_code, c.class_teacher_id, c.school_id, c.created_at, c.updated_at,
        t.name AS class_teacher_name,
        (SELECT COUNT(s.id) FROM students s WHERE s.class_id = c.id) AS student_count
        %s ORDER BY c.name ASC LIMIT %d OFFSET %d`, base, size, offset)

	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(c.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// FindByID fetches a class by ID within a school.
func (r *ClassRepository) FindByID(ctx context.Context, schoolID, id string) (*models.Class, error) {
	const query = `SELECT id, name, academic_year, term, class_code, class_teacher_id, school_id, created_at, updated_at
        FROM classes WHERE id = $1 AND school_id = $2`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id, schoolID); err != nil {
		return nil, err
	}
	return &class, nil
}

// ExistsByNameYearTerm checks the (name, academic_year, term) uniqueness
// within a school.
func (r *ClassRepository) ExistsByNameYearTerm(ctx context.Context, schoolID, name, academicYear, term string) (bool, error) {
	const query = `SELECT 1 FROM classes WHERE school_id = $1 AND name = $2 AND academic_year = $3 AND term = $4 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, schoolID, name, academicYear, term); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check class: %w", err)
	}
	return true, nil
}

// CountStudents returns the number of students enrolled in a class.
func (r *ClassRepository) CountStudents(ctx context.Context, classID string) (int, error) {
	const query = `SELECT COUNT(id) FROM students WHERE class_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classID); err != nil {
		return 0, fmt.Errorf("count class students: %w", err)
	}
	return count, nil
}

// Create inserts a new class record.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
	const query = `INSERT INTO classes (id, name, academic_year, term, class_code, class_teacher_id, school_id, created_at, updated_at)
        VALUES (:id, :name, :academic_year, :term, :class_code, :class_teacher_id, :school_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// SetClassTeacher assigns or clears (nil) the class teacher.
func (r *ClassRepository) SetClassTeacher(ctx context.Context, classID string, teacherID *string) error {
	const query = `UPDATE classes SET class_teacher_id = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, classID, teacherID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set class teacher: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByClassTeacher returns the class a teacher currently leads, if any.
func (r *ClassRepository) FindByClassTeacher(ctx context.Context, teacherID string) (*models.Class, error) {
	const query = `SELECT id, name, academic_year, term, class_code, class_teacher_id, school_id, created_at, updated_at
        FROM classes WHERE class_teacher_id = $1 LIMIT 1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, teacherID); err != nil {
		return nil, err
	}
	return &class, nil
}

// Delete removes a class record.
func (r *ClassRepository) Delete(ctx context.Context, schoolID, id string) error {
	const query = `DELETE FROM classes WHERE id = $1 AND school_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, schoolID)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
