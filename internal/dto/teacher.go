package dto

// CreateTeacherRequest registers a teacher for the school.
type CreateTeacherRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=120"`
	Email string `json:"email" validate:"required,email"`
}

// AssignClassSubjectRequest grants a teacher write access to one subject in
// one class.
type AssignClassSubjectRequest struct {
	TeacherID string `json:"teacherId" validate:"required"`
	ClassID   string `json:"classId" validate:"required"`
	SubjectID string `json:"subjectId" validate:"required"`
}

// AssignClassTeacherRequest makes a teacher the class teacher of a class.
type AssignClassTeacherRequest struct {
	TeacherID string `json:"teacherId" validate:"required"`
	ClassID   string `json:"classId" validate:"required"`
}
