package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mzati-dev/eduspace-portal-backend/internal/models"
)

// ReportCardRepository manages persistence for report cards.
type ReportCardRepository struct {
	db *sqlx.DB
}

// NewReportCardRepository constructs a ReportCardRepository.
func NewReportCardRepository(db *sqlx.DB) *ReportCardRepository {
	return &ReportCardRepository{db: db}
}

// FindByStudentTerm fetches the report card for a student and term. Returns
// sql.ErrNoRows when none exists yet.
func (r *ReportCardRepository) FindByStudentTerm(ctx context.Context, studentID, term string) (*models.ReportCard, error) {
	const query = `SELECT id, student_id, term, class_rank, qa1_rank, qa2_rank, total_students,
        days_present, days_absent, days_late, teacher_remarks, created_at, updated_at
        FROM report_cards WHERE student_id = $1 AND term = $2`
	var card models.ReportCard
	if err := r.db.GetContext(ctx, &card, query, studentID, term); err != nil {
		return nil, err
	}
	return &card, nil
}

// ListByTerm fetches report cards for a set of students in one round trip.
func (r *ReportCardRepository) ListByTerm(ctx context.Context, term string, studentIDs []string) ([]models.ReportCard, error) {
	if len(studentIDs) == 0 {
		return []models.ReportCard{}, nil
	}
	query, args, err := sqlx.In(`SELECT id, student_id, term, class_rank, qa1_rank, qa2_rank, total_students,
        days_present, days_absent, days_late, teacher_remarks, created_at, updated_at
        FROM report_cards WHERE term = ? AND student_id IN (?)`, term, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("build report card query: %w", err)
	}
	query = r.db.Rebind(query)
	cards := []models.ReportCard{}
	if err := r.db.SelectContext(ctx, &cards, query, args...); err != nil {
		return nil, fmt.Errorf("list report cards: %w", err)
	}
	return cards, nil
}

// Upsert writes a full report card keyed on (student, term).
func (r *ReportCardRepository) Upsert(ctx context.Context, card *models.ReportCard) (*models.ReportCard, error) {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	card.UpdatedAt = now
	const query = `INSERT INTO report_cards (id, student_id, term, class_rank, qa1_rank, qa2_rank, total_students,
        days_present, days_absent, days_late, teacher_remarks, created_at, updated_at)
        VALUES (:id, :student_id, :term, :class_rank, :qa1_rank, :qa2_rank, :total_students,
        :days_present, :days_absent, :days_late, :teacher_remarks, :created_at, :updated_at)
        ON CONFLICT (student_id, term)
        DO UPDATE SET class_rank = EXCLUDED.class_rank, qa1_rank = EXCLUDED.qa1_rank, qa2_rank = EXCLUDED.qa2_rank,
                      total_students = EXCLUDED.total_students, days_present = EXCLUDED.days_present,
                      days_absent = EXCLUDED.days_absent, days_late = EXCLUDED.days_late,
                      teacher_remarks = EXCLUDED.teacher_remarks, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, card); err != nil {
		return nil, fmt.Errorf("upsert report card: %w", err)
	}
	return card, nil
}

// UpdateRanks writes only the fields owned by the ranking pass. A report
// card is created when the student has none for the term; attendance and
// remarks of existing cards are left untouched.
func (r *ReportCardRepository) UpdateRanks(ctx context.Context, term string, ranks models.ReportCardRanks) error {
	now := time.Now().UTC()
	const query = `INSERT INTO report_cards (id, student_id, term, class_rank, qa1_rank, qa2_rank, total_students, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
        ON CONFLICT (student_id, term)
        DO UPDATE SET class_rank = EXCLUDED.class_rank, qa1_rank = EXCLUDED.qa1_rank, qa2_rank = EXCLUDED.qa2_rank,
                      total_students = EXCLUDED.total_students, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query,
		uuid.NewString(), ranks.StudentID, term,
		ranks.ClassRank, ranks.Qa1Rank, ranks.Qa2Rank, ranks.TotalStudents, now); err != nil {
		return fmt.Errorf("update ranks: %w", err)
	}
	return nil
}
