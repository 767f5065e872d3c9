package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mzati-dev/eduspace-portal-backend/internal/models"
)

// AssessmentRepository manages persistence for assessment records.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs an AssessmentRepository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// FindByKey fetches the single record for a (student, subject, class, kind)
// tuple. Returns sql.ErrNoRows when none exists.
func (r *AssessmentRepository) FindByKey(ctx context.Context, studentID, subjectID, classID string, kind models.AssessmentKind) (*models.Assessment, error) {
	const query = `SELECT id, student_id, subject_id, class_id, kind, score, is_absent, grade, created_at, updated_at
        FROM assessments
        WHERE student_id = $1 AND subject_id = $2 AND class_id = $3 AND kind = $4`
	var assessment models.Assessment
	if err := r.db.GetContext(ctx, &assessment, query, studentID, subjectID, classID, kind); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// Upsert writes an assessment in place, keyed by the uniqueness constraint.
// The stored row is returned so callers see the surviving ID and timestamps.
func (r *AssessmentRepository) Upsert(ctx context.Context, assessment *models.Assessment) (*models.Assessment, error) {
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assessment.CreatedAt.IsZero() {
		assessment.CreatedAt = now
	}
	assessment.UpdatedAt = now
	const query = `INSERT INTO assessments (id, student_id, subject_id, class_id, kind, score, is_absent, grade, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (student_id, subject_id, class_id, kind)
        DO UPDATE SET score = EXCLUDED.score, is_absent = EXCLUDED.is_absent, grade = EXCLUDED.grade, updated_at = EXCLUDED.updated_at
        RETURNING id, student_id, subject_id, class_id, kind, score, is_absent, grade, created_at, updated_at`
	var stored models.Assessment
	if err := r.db.GetContext(ctx, &stored, query,
		assessment.ID, assessment.StudentID, assessment.SubjectID, assessment.ClassID, assessment.Kind,
		assessment.Score, assessment.IsAbsent, assessment.Grade, assessment.CreatedAt, assessment.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert assessment: %w", err)
	}
	return &stored, nil
}

// ListByStudent returns a student's assessments with subject names,
// optionally narrowed to a set of subjects.
func (r *AssessmentRepository) ListByStudent(ctx context.Context, studentID string, subjectIDs []string) ([]models.AssessmentDetail, error) {
	query := `SELECT a.id, a.student_id, a.subject_id, a.class_id, a.kind, a.score, a.is_absent, a.grade, a.created_at, a.updated_at,
        s.name AS subject_name
        FROM assessments a
        JOIN subjects s ON s.id = a.subject_id
        WHERE a.student_id = ?`
	args := []interface{}{studentID}
	if len(subjectIDs) > 0 {
		var err error
		query, args, err = sqlx.In(query+" AND a.subject_id IN (?)", studentID, subjectIDs)
		if err != nil {
			return nil, fmt.Errorf("expand subject filter: %w", err)
		}
	}
	query = r.db.Rebind(query + " ORDER BY s.name ASC, a.kind ASC")
	var assessments []models.AssessmentDetail
	if err := r.db.SelectContext(ctx, &assessments, query, args...); err != nil {
		return nil, fmt.Errorf("list student assessments: %w", err)
	}
	return assessments, nil
}

// ListByClass returns every assessment of a class in one query, for the
// ranking pass and the class results view.
func (r *AssessmentRepository) ListByClass(ctx context.Context, classID string) ([]models.AssessmentDetail, error) {
	const query = `SELECT a.id, a.student_id, a.subject_id, a.class_id, a.kind, a.score, a.is_absent, a.grade, a.created_at, a.updated_at,
        s.name AS subject_name
        FROM assessments a
        JOIN subjects s ON s.id = a.subject_id
        WHERE a.class_id = $1
        ORDER BY a.student_id ASC, s.name ASC`
	var assessments []models.AssessmentDetail
	if err := r.db.SelectContext(ctx, &assessments, query, classID); err != nil {
		return nil, fmt.Errorf("list class assessments: %w", err)
	}
	return assessments, nil
}
