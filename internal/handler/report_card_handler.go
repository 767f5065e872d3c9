package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mzati-dev/eduspace-portal-backend/internal/dto"
	"github.com/mzati-dev/eduspace-portal-backend/internal/service"
	appErrors "github.com/mzati-dev/eduspace-portal-backend/pkg/errors"
	"github.com/mzati-dev/eduspace-portal-backend/pkg/response"
)

// ReportCardHandler exposes term report card endpoints.
type ReportCardHandler struct {
	cards *service.ReportCardService
}

// NewReportCardHandler constructs ReportCardHandler.
func NewReportCardHandler(cards *service.ReportCardService) *ReportCardHandler {
	return &ReportCardHandler{cards: cards}
}

// Upsert godoc
// @Summary Create or update a student's term report card
// @Tags Report Cards
// @Accept json
// @Produce json
// @Param payload body dto.UpsertReportCardRequest true "Report card payload"
// @Success 200 {object} response.Envelope
// @Router /report-cards [put]
func (h *ReportCardHandler) Upsert(c *gin.Context) {
	var req dto.UpsertReportCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	card, err := h.cards.Upsert(c.Request.Context(), schoolFromContext(c), teacherFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card, nil)
}

// Get godoc
// @Summary Get a student's report card for a term
// @Tags Report Cards
// @Produce json
// @Param studentId path string true "Student ID"
// @Param term query string true "Term label"
// @Success 200 {object} response.Envelope
// @Router /report-cards/students/{studentId} [get]
func (h *ReportCardHandler) Get(c *gin.Context) {
	term := c.Query("term")
	if term == "" {
		response.Error(c, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, "term query parameter is required"))
		return
	}
	card, err := h.cards.Get(c.Request.Context(), schoolFromContext(c), c.Param("studentId"), term)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card, nil)
}
