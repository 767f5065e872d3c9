package dto

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mzati-dev/eduspace-portal-backend/internal/models"
)

// ScoreField distinguishes the three states a score can arrive in: absent
// from the payload (null, field untouched), an explicit empty string (the
// mark was cleared) or a numeric value, possibly sent as a string.
type ScoreField struct {
	Set   bool
	Clear bool
	Value float64
}

// UnmarshalJSON implements the null / "" / number contract.
func (s *ScoreField) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		if str == "" {
			s.Set = true
			s.Clear = true
			return nil
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("score must be numeric or empty, got %q", str)
		}
		s.Set = true
		s.Value = v
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("score must be a number, a numeric string or empty")
	}
	s.Set = true
	s.Value = v
	return nil
}

// UpsertAssessmentRequest captures one assessment write from the mark entry
// screen. A null score leaves the stored record untouched.
type UpsertAssessmentRequest struct {
	StudentID string                `json:"studentId" validate:"required"`
	SubjectID string                `json:"subjectId" validate:"required"`
	Kind      models.AssessmentKind `json:"assessmentType" validate:"required"`
	Score     ScoreField            `json:"score"`
	IsAbsent  bool                  `json:"isAbsent"`
}

// UpsertOutcome reports what an assessment upsert actually did.
type UpsertOutcome string

const (
	// OutcomeSaved means a record was created or updated.
	OutcomeSaved UpsertOutcome = "saved"
	// OutcomeSkipped means the payload carried nothing to store.
	OutcomeSkipped UpsertOutcome = "skipped"
	// OutcomeUnchanged means the stored record already matched the payload.
	OutcomeUnchanged UpsertOutcome = "unchanged"
)

// UpsertAssessmentResponse is returned for every upsert, effective or not.
type UpsertAssessmentResponse struct {
	Outcome    UpsertOutcome      `json:"outcome"`
	Message    string             `json:"message,omitempty"`
	Assessment *models.Assessment `json:"assessment,omitempty"`
}
