package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mzati-dev/eduspace-portal-backend/internal/dto"
	"github.com/mzati-dev/eduspace-portal-backend/internal/service"
	appErrors "github.com/mzati-dev/eduspace-portal-backend/pkg/errors"
	"github.com/mzati-dev/eduspace-portal-backend/pkg/response"
)

// AssessmentHandler exposes score entry endpoints.
type AssessmentHandler struct {
	assessments *service.AssessmentService
}

// NewAssessmentHandler constructs AssessmentHandler.
func NewAssessmentHandler(assessments *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

// Upsert godoc
// @Summary Enter or update one assessment score
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body dto.UpsertAssessmentRequest true "Assessment payload"
// @Success 200 {object} response.Envelope
// @Router /assessments [put]
func (h *AssessmentHandler) Upsert(c *gin.Context) {
	var req dto.UpsertAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.assessments.Upsert(c.Request.Context(), schoolFromContext(c), teacherFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListForStudent godoc
// @Summary List a student's assessments
// @Tags Assessments
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/students/{studentId} [get]
func (h *AssessmentHandler) ListForStudent(c *gin.Context) {
	assessments, err := h.assessments.ListForStudent(c.Request.Context(), schoolFromContext(c), teacherFromContext(c), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessments, nil)
}
