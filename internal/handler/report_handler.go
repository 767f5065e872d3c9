package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mzati-dev/eduspace-portal-backend/internal/dto"
	appErrors "github.com/mzati-dev/eduspace-portal-backend/pkg/errors"
	"github.com/mzati-dev/eduspace-portal-backend/pkg/response"
)

// ReportViewService builds the derived report views.
type ReportViewService interface {
	StudentReport(ctx context.Context, schoolID, studentID, term string) (*dto.StudentReport, error)
	ClassResults(ctx context.Context, schoolID, actingTeacherID, classID string) ([]dto.ClassResultRow, error)
}

// RankDispatcher queues rank recalculation jobs.
type RankDispatcher interface {
	Dispatch(schoolID, classID, term string)
}

// ReportHandler exposes report view and ranking endpoints.
type ReportHandler struct {
	reports ReportViewService
	ranks   RankDispatcher
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports ReportViewService, ranks RankDispatcher) *ReportHandler {
	return &ReportHandler{reports: reports, ranks: ranks}
}

// StudentReport godoc
// @Summary Full report view for one student
// @Tags Reports
// @Produce json
// @Param id path string true "Student ID"
// @Param term query string true "Term label"
// @Success 200 {object} response.Envelope
// @Router /reports/students/{id} [get]
func (h *ReportHandler) StudentReport(c *gin.Context) {
	term := c.Query("term")
	if term == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "term query parameter is required"))
		return
	}
	report, err := h.reports.StudentReport(c.Request.Context(), schoolFromContext(c), c.Param("id"), term)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ClassResults godoc
// @Summary Ranked result rows for a class
// @Tags Reports
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /reports/classes/{id} [get]
func (h *ReportHandler) ClassResults(c *gin.Context) {
	rows, err := h.reports.ClassResults(c.Request.Context(), schoolFromContext(c), teacherFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// RecalculateRanks godoc
// @Summary Queue a rank recalculation for a class and term
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.RecalculateRanksRequest true "Recalculation target"
// @Success 202 {object} response.Envelope
// @Router /reports/ranks/recalculate [post]
func (h *ReportHandler) RecalculateRanks(c *gin.Context) {
	var req dto.RecalculateRanksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if req.ClassID == "" || req.Term == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "classId and term are required"))
		return
	}
	h.ranks.Dispatch(schoolFromContext(c), req.ClassID, req.Term)
	response.JSON(c, http.StatusAccepted, gin.H{"queued": true}, nil)
}
