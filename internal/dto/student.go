package dto

// CreateStudentRequest registers a new student in a class. The exam number
// is generated server-side.
type CreateStudentRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=120"`
	ClassID  string  `json:"classId" validate:"required"`
	PhotoURL *string `json:"photoUrl,omitempty" validate:"omitempty,url"`
}

// UpdateStudentRequest applies a partial update to a student.
type UpdateStudentRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	ClassID  *string `json:"classId,omitempty" validate:"omitempty"`
	PhotoURL *string `json:"photoUrl,omitempty" validate:"omitempty,url"`
}
