package dto

// CreateGradeConfigRequest stores a new scoring policy for the school. New
// configs start inactive; activation is a separate explicit operation.
type CreateGradeConfigRequest struct {
	CalculationMethod string  `json:"calculationMethod" validate:"required,oneof=average_all end_of_term_only weighted_average"`
	WeightQa1         float64 `json:"weightQa1" validate:"min=0"`
	WeightQa2         float64 `json:"weightQa2" validate:"min=0"`
	WeightEndOfTerm   float64 `json:"weightEndOfTerm" validate:"min=0"`
	PassMark          float64 `json:"passMark" validate:"min=0,max=100"`
}

// UpdateGradeConfigRequest applies a partial update to a stored policy.
type UpdateGradeConfigRequest struct {
	CalculationMethod *string  `json:"calculationMethod,omitempty" validate:"omitempty,oneof=average_all end_of_term_only weighted_average"`
	WeightQa1         *float64 `json:"weightQa1,omitempty" validate:"omitempty,min=0"`
	WeightQa2         *float64 `json:"weightQa2,omitempty" validate:"omitempty,min=0"`
	WeightEndOfTerm   *float64 `json:"weightEndOfTerm,omitempty" validate:"omitempty,min=0"`
	PassMark          *float64 `json:"passMark,omitempty" validate:"omitempty,min=0,max=100"`
}
