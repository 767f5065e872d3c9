package models

import "time"

// Student represents a learner registered at a school.
type Student struct {
	ID         string    `db:"id" json:"id"`
	ExamNumber string    `db:"exam_number" json:"exam_number"`
	Name       string    `db:"name" json:"name"`
	ClassID    *string   `db:"class_id" json:"class_id,omitempty"`
	PhotoURL   *string   `db:"photo_url" json:"photo_url,omitempty"`
	SchoolID   string    `db:"school_id" json:"school_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail contains student information with class context.
type StudentDetail struct {
	Student
	ClassName    *string `db:"class_name" json:"class_name,omitempty"`
	AcademicYear *string `db:"academic_year" json:"academic_year,omitempty"`
	Term         *string `db:"term" json:"term,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	SchoolID  string
	ClassID   string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
