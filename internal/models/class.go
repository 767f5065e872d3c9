package models

import "time"

// Class represents an academic class for one term of a school year.
type Class struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	AcademicYear   string    `db:"academic_year" json:"academic_year"`
	Term           string    `db:"term" json:"term"`
	ClassCode      string    `db:"class_code" json:"class_code"`
	ClassTeacherID *string   `db:"class_teacher_id" json:"class_teacher_id,omitempty"`
	SchoolID       string    `db:"school_id" json:"school_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with optional class teacher information.
type ClassDetail struct {
	Class
	ClassTeacherName *string `db:"class_teacher_name" json:"class_teacher_name,omitempty"`
	StudentCount     int     `db:"student_count" json:"student_count"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	SchoolID     string
	AcademicYear string
	Term         string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
