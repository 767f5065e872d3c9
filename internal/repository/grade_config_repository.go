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

// GradeConfigRepository manages grade configuration persistence.
type GradeConfigRepository struct {
	db *sqlx.DB
}

// NewGradeConfigRepository creates a new repository instance.
func NewGradeConfigRepository(db *sqlx.DB) *GradeConfigRepository {
	return &GradeConfigRepository{db: db}
}

// List returns all configs stored for a school, newest first.
func (r *GradeConfigRepository) List(ctx context.Context, schoolID string) ([]models.GradeConfig, error) {
	const query = `SELECT id, school_id, calculation_method, weight_qa1, weight_qa2, weight_end_of_term, pass_mark, is_active, created_at, updated_at
        FROM grade_configs WHERE school_id = $1 ORDER BY created_at DESC`
	var configs []models.GradeConfig
	if err := r.db.SelectContext(ctx, &configs, query, schoolID); err != nil {
		return nil, fmt.Errorf("list grade configs: %w", err)
	}
	return configs, nil
}

// FindByID returns a grade config by ID within a school.
func (r *GradeConfigRepository) FindByID(ctx context.Context, schoolID, id string) (*models.GradeConfig, error) {
	const query = `SELECT id, school_id, calculation_method, weight_qa1, weight_qa2, weight_end_of_term, pass_mark, is_active, created_at, updated_at
        FROM grade_configs WHERE id = $1 AND school_id = $2`
	var config models.GradeConfig
	if err := r.db.GetContext(ctx, &config, query, id, schoolID); err != nil {
		return nil, err
	}
	return &config, nil
}

// FindActive returns the school's active config. Returns sql.ErrNoRows when
// none has been activated; callers fall back to the default policy.
func (r *GradeConfigRepository) FindActive(ctx context.Context, schoolID string) (*models.GradeConfig, error) {
	const query = `SELECT id, school_id, calculation_method, weight_qa1, weight_qa2, weight_end_of_term, pass_mark, is_active, created_at, updated_at
        FROM grade_configs WHERE school_id = $1 AND is_active = true
        ORDER BY updated_at DESC LIMIT 1`
	var config models.GradeConfig
	if err := r.db.GetContext(ctx, &config, query, schoolID); err != nil {
		return nil, err
	}
	return &config, nil
}

// Create inserts a new config.
func (r *GradeConfigRepository) Create(ctx context.Context, config *models.GradeConfig) error {
	if config.ID == "" {
		config.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if config.CreatedAt.IsZero() {
		config.CreatedAt = now
	}
	config.UpdatedAt = now
	const query = `INSERT INTO grade_configs (id, school_id, calculation_method, weight_qa1, weight_qa2, weight_end_of_term, pass_mark, is_active, created_at, updated_at)
        VALUES (:id, :school_id, :calculation_method, :weight_qa1, :weight_qa2, :weight_end_of_term, :pass_mark, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, config); err != nil {
		return fmt.Errorf("create grade config: %w", err)
	}
	return nil
}

// Update applies changes to a stored config.
func (r *GradeConfigRepository) Update(ctx context.Context, config *models.GradeConfig) error {
	config.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grade_configs SET calculation_method = :calculation_method, weight_qa1 = :weight_qa1,
        weight_qa2 = :weight_qa2, weight_end_of_term = :weight_end_of_term, pass_mark = :pass_mark, updated_at = :updated_at
        WHERE id = :id AND school_id = :school_id`
	if _, err := r.db.NamedExecContext(ctx, query, config); err != nil {
		return fmt.Errorf("update grade config: %w", err)
	}
	return nil
}

// SetActive activates one config and deactivates every other config of the
// school inside a single transaction, keeping the one-active invariant.
func (r *GradeConfigRepository) SetActive(ctx context.Context, schoolID, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE grade_configs SET is_active = false, updated_at = $2 WHERE school_id = $1 AND is_active = true`, schoolID, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("deactivate grade configs: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE grade_configs SET is_active = true, updated_at = $3 WHERE id = $1 AND school_id = $2`, id, schoolID, now)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("activate grade config: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		tx.Rollback() //nolint:errcheck
		return sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grade config activation: %w", err)
	}
	return nil
}
