package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mzati-dev/eduspace-portal-backend/internal/dto"
	"github.com/mzati-dev/eduspace-portal-backend/internal/service"
	appErrors "github.com/mzati-dev/eduspace-portal-backend/pkg/errors"
	"github.com/mzati-dev/eduspace-portal-backend/pkg/response"
)

// GradeConfigHandler exposes scoring policy endpoints.
type GradeConfigHandler struct {
	configs *service.GradeConfigService
}

// NewGradeConfigHandler constructs handler.
func NewGradeConfigHandler(configs *service.GradeConfigService) *GradeConfigHandler {
	return &GradeConfigHandler{configs: configs}
}

// List godoc
// @Summary List grade configurations
// @Tags Grade Configs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grade-configs [get]
func (h *GradeConfigHandler) List(c *gin.Context) {
	configs, err := h.configs.List(c.Request.Context(), schoolFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, configs, nil)
}

// Active godoc
// @Summary Get the active grade configuration
// @Tags Grade Configs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grade-configs/active [get]
func (h *GradeConfigHandler) Active(c *gin.Context) {
	config, err := h.configs.Active(c.Request.Context(), schoolFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, config, nil)
}

// Create godoc
// @Summary Create a grade configuration
// @Tags Grade Configs
// @Accept json
// @Produce json
// @Param payload body dto.CreateGradeConfigRequest true "Config payload"
// @Success 201 {object} response.Envelope
// @Router /grade-configs [post]
func (h *GradeConfigHandler) Create(c *gin.Context) {
	var req dto.CreateGradeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	config, err := h.configs.Create(c.Request.Context(), schoolFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, config)
}

// Update godoc
// @Summary Update a grade configuration
// @Tags Grade Configs
// @Accept json
// @Produce json
// @Param id path string true "Config ID"
// @Param payload body dto.UpdateGradeConfigRequest true "Config payload"
// @Success 200 {object} response.Envelope
// @Router /grade-configs/{id} [put]
func (h *GradeConfigHandler) Update(c *gin.Context) {
	var req dto.UpdateGradeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	config, err := h.configs.Update(c.Request.Context(), schoolFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, config, nil)
}

// SetActive godoc
// @Summary Activate a grade configuration
// @Tags Grade Configs
// @Produce json
// @Param id path string true "Config ID"
// @Success 200 {object} response.Envelope
// @Router /grade-configs/{id}/activate [post]
func (h *GradeConfigHandler) SetActive(c *gin.Context) {
	config, err := h.configs.SetActive(c.Request.Context(), schoolFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, config, nil)
}
