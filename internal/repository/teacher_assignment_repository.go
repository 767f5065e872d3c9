package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mzati-dev/eduspace-portal-backend/internal/models"
)

// TeacherAssignmentRepository manages the teacher to (class, subject) links.
type TeacherAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeacherAssignmentRepository constructs a TeacherAssignmentRepository.
func NewTeacherAssignmentRepository(db *sqlx.DB) *TeacherAssignmentRepository {
	return &TeacherAssignmentRepository{db: db}
}

// ListByTeacher returns a teacher's assignments with class and subject names.
func (r *TeacherAssignmentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignmentDetail, error) {
	const query = `SELECT ta.id, ta.teacher_id, ta.class_id, ta.subject_id, ta.created_at,
        c.name AS class_name, s.name AS subject_name, t.name AS teacher_name
        FROM teacher_class_subjects ta
        JOIN classes c ON c.id = ta.class_id
        JOIN subjects s ON s.id = ta.subject_id
        JOIN teachers t ON t.id = ta.teacher_id
        WHERE ta.teacher_id = $1
        ORDER BY c.name ASC, s.name ASC`
	var assignments []models.TeacherAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher assignments: %w", err)
	}
	return assignments, nil
}

// SubjectIDsForClass returns the subjects a teacher is assigned to within
// one class.
func (r *TeacherAssignmentRepository) SubjectIDsForClass(ctx context.Context, teacherID, classID string) ([]string, error) {
	const query = `SELECT subject_id FROM teacher_class_subjects WHERE teacher_id = $1 AND class_id = $2`
	var subjectIDs []string
	if err := r.db.SelectContext(ctx, &subjectIDs, query, teacherID, classID); err != nil {
		return nil, fmt.Errorf("list assigned subjects: %w", err)
	}
	return subjectIDs, nil
}

// Exists reports whether a teacher is assigned to the subject in the class.
func (r *TeacherAssignmentRepository) Exists(ctx context.Context, teacherID, classID, subjectID string) (bool, error) {
	const query = `SELECT 1 FROM teacher_class_subjects WHERE teacher_id = $1 AND class_id = $2 AND subject_id = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, teacherID, classID, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return true, nil
}

// Create inserts a new assignment link.
func (r *TeacherAssignmentRepository) Create(ctx context.Context, assignment *models.TeacherAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teacher_class_subjects (id, teacher_id, class_id, subject_id, created_at)
        VALUES (:id, :teacher_id, :class_id, :subject_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Delete removes an assignment link.
func (r *TeacherAssignmentRepository) Delete(ctx context.Context, teacherID, classID, subjectID string) error {
	const query = `DELETE FROM teacher_class_subjects WHERE teacher_id = $1 AND class_id = $2 AND subject_id = $3`
	res, err := r.db.ExecContext(ctx, query, teacherID, classID, subjectID)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
