package models

import "time"

// ReportCard holds per-term attendance, remarks and computed ranks for a
// student. Created lazily on the first assessment or report card write;
// the rank fields are only ever mutated by the ranking pass.
type ReportCard struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	Term           string    `db:"term" json:"term"`
	ClassRank      int       `db:"class_rank" json:"class_rank"`
	Qa1Rank        int       `db:"qa1_rank" json:"qa1_rank"`
	Qa2Rank        int       `db:"qa2_rank" json:"qa2_rank"`
	TotalStudents  int       `db:"total_students" json:"total_students"`
	DaysPresent    int       `db:"days_present" json:"days_present"`
	DaysAbsent     int       `db:"days_absent" json:"days_absent"`
	DaysLate       int       `db:"days_late" json:"days_late"`
	TeacherRemarks *string   `db:"teacher_remarks" json:"teacher_remarks,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ReportCardRanks carries the outcome of one ranking pass for a student.
type ReportCardRanks struct {
	StudentID     string
	ClassRank     int
	Qa1Rank       int
	Qa2Rank       int
	TotalStudents int
}
