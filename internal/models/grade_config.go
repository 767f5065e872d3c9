package models

import (
	"time"

	"github.com/mzati-dev/eduspace-portal-backend/internal/grading"
)

// GradeConfig is a scoring policy owned by a school. At most one config is
// active per school at any time.
type GradeConfig struct {
	ID                string    `db:"id" json:"id"`
	SchoolID          string    `db:"school_id" json:"school_id"`
	CalculationMethod string    `db:"calculation_method" json:"calculation_method"`
	WeightQa1         float64   `db:"weight_qa1" json:"weight_qa1"`
	WeightQa2         float64   `db:"weight_qa2" json:"weight_qa2"`
	WeightEndOfTerm   float64   `db:"weight_end_of_term" json:"weight_end_of_term"`
	PassMark          float64   `db:"pass_mark" json:"pass_mark"`
	IsActive          bool      `db:"is_active" json:"is_active"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Policy converts the stored configuration into the scoring policy used by
// the grading engine.
func (c *GradeConfig) Policy() grading.Policy {
	return grading.Policy{
		Method:          grading.Method(c.CalculationMethod),
		WeightQa1:       c.WeightQa1,
		WeightQa2:       c.WeightQa2,
		WeightEndOfTerm: c.WeightEndOfTerm,
		PassMark:        c.PassMark,
	}
}
