package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/mzati-dev/eduspace-portal-backend/internal/service"
	appErrors "github.com/mzati-dev/eduspace-portal-backend/pkg/errors"
	"github.com/mzati-dev/eduspace-portal-backend/pkg/response"
)

// ExportHandler streams rendered report documents.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// ReportCardPDF godoc
// @Summary Download a student's report card as PDF
// @Tags Exports
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param term query string true "Term label"
// @Success 200 {file} binary
// @Router /exports/report-cards/{id} [get]
func (h *ExportHandler) ReportCardPDF(c *gin.Context) {
	term := c.Query("term")
	if term == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "term query parameter is required"))
		return
	}
	file, err := h.exports.ReportCardPDF(c.Request.Context(), schoolFromContext(c), c.Param("id"), term)
	if err != nil {
		response.Error(c, err)
		return
	}
	streamFile(c, file)
}

// ClassResultsCSV godoc
// @Summary Download ranked class results as CSV
// @Tags Exports
// @Produce text/csv
// @Param id path string true "Class ID"
// @Success 200 {file} binary
// @Router /exports/class-results/{id} [get]
func (h *ExportHandler) ClassResultsCSV(c *gin.Context) {
	file, err := h.exports.ClassResultsCSV(c.Request.Context(), schoolFromContext(c), teacherFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	streamFile(c, file)
}

func streamFile(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(200, file.ContentType, file.Data)
}
