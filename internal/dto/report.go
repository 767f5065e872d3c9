package dto

// SubjectBreakdown is the per-subject slice of a student report: the three
// raw assessment values with their absence flags, plus the computed final
// score and letter grade.
type SubjectBreakdown struct {
	SubjectID       string   `json:"subjectId"`
	Name            string   `json:"name"`
	Qa1             *float64 `json:"qa1"`
	Qa2             *float64 `json:"qa2"`
	EndOfTerm       *float64 `json:"endOfTerm"`
	Qa1Absent       bool     `json:"qa1Absent"`
	Qa2Absent       bool     `json:"qa2Absent"`
	EndOfTermAbsent bool     `json:"endOfTermAbsent"`
	FinalScore      float64  `json:"finalScore"`
	Grade           string   `json:"grade"`
}

// MetricStats summarises one assessment kind across a student's subjects.
type MetricStats struct {
	ClassRank   int     `json:"classRank"`
	TermAverage float64 `json:"termAverage"`
	Grade       string  `json:"grade"`
}

// AssessmentStats aggregates per-metric class ranks and term averages for
// the report header.
type AssessmentStats struct {
	Qa1       MetricStats `json:"qa1"`
	Qa2       MetricStats `json:"qa2"`
	EndOfTerm MetricStats `json:"endOfTerm"`
	Overall   MetricStats `json:"overall"`
}

// Attendance carries the report card attendance counters.
type Attendance struct {
	DaysPresent int `json:"daysPresent"`
	DaysAbsent  int `json:"daysAbsent"`
	DaysLate    int `json:"daysLate"`
}

// StudentReport is the full report view for one student and term.
type StudentReport struct {
	StudentID       string             `json:"studentId"`
	ExamNumber      string             `json:"examNumber"`
	Name            string             `json:"name"`
	PhotoURL        *string            `json:"photoUrl,omitempty"`
	ClassName       string             `json:"className"`
	Term            string             `json:"term"`
	AcademicYear    string             `json:"academicYear"`
	Subjects        []SubjectBreakdown `json:"subjects"`
	ClassRank       int                `json:"classRank"`
	TotalStudents   int                `json:"totalStudents"`
	Attendance      Attendance         `json:"attendance"`
	TeacherRemarks  *string            `json:"teacherRemarks,omitempty"`
	AssessmentStats AssessmentStats    `json:"assessmentStats"`
}

// ClassResultSubject is one subject line inside a class results row.
type ClassResultSubject struct {
	Name       string  `json:"name"`
	Qa1        float64 `json:"qa1"`
	Qa2        float64 `json:"qa2"`
	EndOfTerm  float64 `json:"endOfTerm"`
	FinalScore float64 `json:"finalScore"`
	Grade      string  `json:"grade"`
}

// ClassResultRow is one student's aggregate row in the class results view.
// Rank is dense over the average, recomputed per request; ClassRank is the
// persisted end-of-term rank from the report card.
type ClassResultRow struct {
	StudentID    string               `json:"id"`
	Name         string               `json:"name"`
	ExamNumber   string               `json:"examNumber"`
	ClassRank    int                  `json:"classRank"`
	TotalScore   float64              `json:"totalScore"`
	Average      float64              `json:"average"`
	OverallGrade string               `json:"overallGrade"`
	Rank         int                  `json:"rank"`
	Subjects     []ClassResultSubject `json:"subjects"`
}

// RecalculateRanksRequest triggers a ranking pass for a class.
type RecalculateRanksRequest struct {
	ClassID string `json:"classId" validate:"required"`
	Term    string `json:"term" validate:"required"`
}
