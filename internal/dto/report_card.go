package dto

// UpsertReportCardRequest writes attendance counters and remarks for one
// student and term. Nil counters default to zero on create and are written
// as-is on update; the rank fields are never accepted from clients.
type UpsertReportCardRequest struct {
	StudentID      string  `json:"studentId" validate:"required"`
	Term           string  `json:"term" validate:"required"`
	DaysPresent    *int    `json:"daysPresent,omitempty" validate:"omitempty,min=0"`
	DaysAbsent     *int    `json:"daysAbsent,omitempty" validate:"omitempty,min=0"`
	DaysLate       *int    `json:"daysLate,omitempty" validate:"omitempty,min=0"`
	TeacherRemarks *string `json:"teacherRemarks,omitempty"`
}
