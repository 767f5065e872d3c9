package models

import "time"

// AssessmentKind identifies which assessment of the term a record belongs to.
type AssessmentKind string

const (
	// AssessmentQa1 is the first quarterly assessment.
	AssessmentQa1 AssessmentKind = "qa1"
	// AssessmentQa2 is the second quarterly assessment.
	AssessmentQa2 AssessmentKind = "qa2"
	// AssessmentEndOfTerm is the end of term examination.
	AssessmentEndOfTerm AssessmentKind = "end_of_term"
)

// Valid reports whether the kind is one of the known assessment kinds.
func (k AssessmentKind) Valid() bool {
	switch k {
	case AssessmentQa1, AssessmentQa2, AssessmentEndOfTerm:
		return true
	}
	return false
}

// Assessment is one observed result for a (student, subject, class, kind)
// tuple. Score is nullable: nil means the mark was never entered, which is
// distinct from an explicit 0.
type Assessment struct {
	ID        string         `db:"id" json:"id"`
	StudentID string         `db:"student_id" json:"student_id"`
	SubjectID string         `db:"subject_id" json:"subject_id"`
	ClassID   string         `db:"class_id" json:"class_id"`
	Kind      AssessmentKind `db:"kind" json:"kind"`
	Score     *float64       `db:"score" json:"score"`
	IsAbsent  bool           `db:"is_absent" json:"is_absent"`
	Grade     *string        `db:"grade" json:"grade"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// AssessmentDetail enriches an assessment with its subject name for listings.
type AssessmentDetail struct {
	Assessment
	SubjectName string `db:"subject_name" json:"subject_name"`
}

// AssessmentFilter scopes assessment queries.
type AssessmentFilter struct {
	StudentID string
	SubjectID string
	ClassID   string
	Kind      AssessmentKind
}
