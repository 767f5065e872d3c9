package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mzati-dev/eduspace-portal-backend/internal/dto"
	appErrors "github.com/mzati-dev/eduspace-portal-backend/pkg/errors"
	"github.com/mzati-dev/eduspace-portal-backend/pkg/export"
)

type studentReportBuilder interface {
	StudentReport(ctx context.Context, schoolID, studentID, term string) (*dto.StudentReport, error)
	ClassResults(ctx context.Context, schoolID, actingTeacherID, classID string) ([]dto.ClassResultRow, error)
}

type reportCardRenderer interface {
	Render(doc export.ReportCardDocument) ([]byte, error)
}

type datasetCSVRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered document ready to stream to a client.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the derived result views into downloadable
// documents: a report card PDF per student and a class results CSV.
type ExportService struct {
	reports    studentReportBuilder
	pdf        reportCardRenderer
	csv        datasetCSVRenderer
	schoolName string
	logger     *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(reports studentReportBuilder, schoolName string, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		reports:    reports,
		pdf:        export.NewReportCardExporter(),
		csv:        export.NewCSVExporter(),
		schoolName: schoolName,
		logger:     logger,
	}
}

// ReportCardPDF renders one student's report card for a term.
func (s *ExportService) ReportCardPDF(ctx context.Context, schoolID, studentID, term string) (*ExportFile, error) {
	report, err := s.reports.StudentReport(ctx, schoolID, studentID, term)
	if err != nil {
		return nil, err
	}

	doc := export.ReportCardDocument{
		SchoolName:   s.schoolName,
		StudentName:  report.Name,
		ExamNumber:   report.ExamNumber,
		ClassName:    report.ClassName,
		Term:         report.Term,
		AcademicYear: report.AcademicYear,
		DaysPresent:  strconv.Itoa(report.Attendance.DaysPresent),
		DaysAbsent:   strconv.Itoa(report.Attendance.DaysAbsent),
		DaysLate:     strconv.Itoa(report.Attendance.DaysLate),
		Average:      formatScore(report.AssessmentStats.Overall.TermAverage),
		OverallGrade: report.AssessmentStats.Overall.Grade,
	}
	if report.ClassRank > 0 {
		doc.ClassRank = strconv.Itoa(report.ClassRank)
		doc.TotalStudents = strconv.Itoa(report.TotalStudents)
	}
	if report.TeacherRemarks != nil {
		doc.Remarks = *report.TeacherRemarks
	}
	for _, subject := range report.Subjects {
		doc.Subjects = append(doc.Subjects, export.ReportCardSubject{
			Name:       subject.Name,
			Qa1:        formatCell(subject.Qa1, subject.Qa1Absent),
			Qa2:        formatCell(subject.Qa2, subject.Qa2Absent),
			EndOfTerm:  formatCell(subject.EndOfTerm, subject.EndOfTermAbsent),
			FinalScore: formatScore(subject.FinalScore),
			Grade:      subject.Grade,
		})
	}

	data, err := s.pdf.Render(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExportFailed.Code, appErrors.ErrExportFailed.Status, "failed to render report card")
	}
	return &ExportFile{
		Filename:    exportFilename("report_card", report.ExamNumber, "pdf"),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// ClassResultsCSV renders the class results table as CSV. The acting
// teacher scoping of the underlying view applies here too.
func (s *ExportService) ClassResultsCSV(ctx context.Context, schoolID, actingTeacherID, classID string) (*ExportFile, error) {
	rows, err := s.reports.ClassResults(ctx, schoolID, actingTeacherID, classID)
	if err != nil {
		return nil, err
	}

	headers := []string{"Rank", "Exam Number", "Name"}
	if len(rows) > 0 {
		for _, subject := range rows[0].Subjects {
			headers = append(headers, subject.Name)
		}
	}
	headers = append(headers, "Total", "Average", "Grade")

	dataset := export.Dataset{Headers: headers}
	for _, row := range rows {
		record := map[string]string{
			"Rank":        strconv.Itoa(row.Rank),
			"Exam Number": row.ExamNumber,
			"Name":        row.Name,
			"Total":       formatScore(row.TotalScore),
			"Average":     formatScore(row.Average),
			"Grade":       row.OverallGrade,
		}
		for _, subject := range row.Subjects {
			record[subject.Name] = formatScore(subject.FinalScore)
		}
		dataset.Rows = append(dataset.Rows, record)
	}

	data, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExportFailed.Code, appErrors.ErrExportFailed.Status, "failed to render class results")
	}
	return &ExportFile{
		Filename:    exportFilename("class_results", classID, "csv"),
		ContentType: "text/csv",
		Data:        data,
	}, nil
}

func exportFilename(kind, ref, ext string) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	ref = strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-").Replace(ref)
	if ref == "" {
		ref = "na"
	}
	return fmt.Sprintf("%s_%s_%s.%s", kind, ref, timestamp, ext)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatCell(v *float64, absent bool) string {
	if absent {
		return "AB"
	}
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}
