package dto

// CreateClassRequest creates an academic class for a term. The class code is
// generated from the name, year and term.
type CreateClassRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=60"`
	AcademicYear string `json:"academicYear" validate:"required"`
	Term         string `json:"term" validate:"required"`
}

// CreateSubjectRequest registers a subject for the school.
type CreateSubjectRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=120"`
	Description *string `json:"description,omitempty"`
}
