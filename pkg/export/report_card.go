package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// ReportCardSubject is one subject row on a rendered report card.
type ReportCardSubject struct {
	Name       string
	Qa1        string
	Qa2        string
	EndOfTerm  string
	FinalScore string
	Grade      string
}

// ReportCardDocument carries everything the report card layout needs.
type ReportCardDocument struct {
	SchoolName    string
	StudentName   string
	ExamNumber    string
	ClassName     string
	Term          string
	AcademicYear  string
	Subjects      []ReportCardSubject
	ClassRank     string
	TotalStudents string
	Average       string
	OverallGrade  string
	DaysPresent   string
	DaysAbsent    string
	DaysLate      string
	Remarks       string
}

// ReportCardExporter renders a student report card as an A4 PDF.
type ReportCardExporter struct{}

// NewReportCardExporter constructs a report card exporter.
func NewReportCardExporter() *ReportCardExporter {
	return &ReportCardExporter{}
}

// Render produces the PDF bytes for one report card.
func (e *ReportCardExporter) Render(doc ReportCardDocument) ([]byte, error) {
	if doc.StudentName == "" {
		return nil, fmt.Errorf("report card requires a student name")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	if doc.SchoolName != "" {
		pdf.SetFont("Arial", "B", 16)
		pdf.CellFormat(0, 10, strings.ToUpper(doc.SchoolName), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 9, "STUDENT REPORT CARD", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 10)
	identity := [][2]string{
		{"Name", doc.StudentName},
		{"Exam Number", doc.ExamNumber},
		{"Class", doc.ClassName},
		{"Term", doc.Term},
		{"Academic Year", doc.AcademicYear},
	}
	for _, pair := range identity {
		if pair[1] == "" {
			continue
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(35, 6, pair[0], "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, pair[1], "", 1, "", false, 0, "")
	}
	pdf.Ln(4)

	headers := []string{"Subject", "QA 1", "QA 2", "End of Term", "Final", "Grade"}
	widths := []float64{60, 24, 24, 28, 24, 20}
	pdf.SetFont("Arial", "B", 10)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, subject := range doc.Subjects {
		cells := []string{subject.Name, subject.Qa1, subject.Qa2, subject.EndOfTerm, subject.FinalScore, subject.Grade}
		for i, cell := range cells {
			align := "C"
			if i == 0 {
				align = ""
			}
			pdf.CellFormat(widths[i], 7, cell, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	summary := [][2]string{
		{"Class Rank", rankLine(doc.ClassRank, doc.TotalStudents)},
		{"Average", doc.Average},
		{"Overall Grade", doc.OverallGrade},
		{"Days Present", doc.DaysPresent},
		{"Days Absent", doc.DaysAbsent},
		{"Days Late", doc.DaysLate},
	}
	for _, pair := range summary {
		if pair[1] == "" {
			continue
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(35, 6, pair[0], "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, pair[1], "", 1, "", false, 0, "")
	}

	if doc.Remarks != "" {
		pdf.Ln(3)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, "Class Teacher's Remarks", "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "I", 10)
		pdf.MultiCell(0, 6, doc.Remarks, "", "", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render report card: %w", err)
	}
	return buf.Bytes(), nil
}

func rankLine(rank, total string) string {
	if rank == "" || rank == "0" {
		return ""
	}
	if total == "" {
		return rank
	}
	return fmt.Sprintf("%s of %s", rank, total)
}
