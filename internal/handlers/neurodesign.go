package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"neurodesign-backend/internal/middleware"
	"neurodesign-backend/internal/models"
	"neurodesign-backend/internal/services"
)

type NeuroDesignHandler struct {
	generation *services.GenerationService
	refinement *services.RefinementService
}

func NewNeuroDesignHandler(generation *services.GenerationService, refinement *services.RefinementService) *NeuroDesignHandler {
	return &NeuroDesignHandler{
		generation: generation,
		refinement: refinement,
	}
}

// Generate godoc
// @Summary     Generate images from a structured configuration
// @Description Compiles the configuration into a prompt, dispatches to the selected AI connection's provider (or the mock path), persists the run and images, and applies the gallery retention policy.
// @Tags        neurodesign
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.GenerateRequest true "Generation request"
// @Success     200 {object} models.GenerateResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /neurodesign/generate [post]
func (h *NeuroDesignHandler) Generate(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}
	if req.ProjectID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "projectId is required"})
		return
	}

	resp, err := h.generation.Generate(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Refine godoc
// @Summary     Refine an existing generated image
// @Description Composes a provider edit request from the supplied instruction, reference/replacement/add images and region crop; always resolves to some image, degrading to a placeholder on provider failure.
// @Tags        neurodesign
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.RefineRequest true "Refinement request"
// @Success     200 {object} models.RefineResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /neurodesign/refine [post]
func (h *NeuroDesignHandler) Refine(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req models.RefineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}
	if req.ProjectID == "" || req.RunID == "" || req.ImageID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "projectId, runId and imageId are required"})
		return
	}

	resp, err := h.refinement.Refine(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// callerID extracts the authenticated user id set by the auth middleware.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return uuid.Nil, false
	}

	return userID, true
}

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyPrompt), errors.Is(err, services.ErrNoAction):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrProjectNotOwned):
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "project not found or not owned by caller"})
	case errors.Is(err, services.ErrRunNotFound), errors.Is(err, services.ErrImageNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrPersistence):
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	}
}
