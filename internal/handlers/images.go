package handlers

import (
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"neurodesign-backend/internal/imagecrop"
	"neurodesign-backend/internal/models"
	"neurodesign-backend/internal/supabase"
)

type ImagesHandler struct {
	dbClient      *supabase.DatabaseClient
	storageClient *supabase.StorageClient
	httpClient    *http.Client
}

func NewImagesHandler(dbClient *supabase.DatabaseClient, storageClient *supabase.StorageClient) *ImagesHandler {
	return &ImagesHandler{
		dbClient:      dbClient,
		storageClient: storageClient,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (h *ImagesHandler) ListImages(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	projectID, ok := h.ownedProject(c, userID)
	if !ok {
		return
	}

	images, err := h.dbClient.ListImages(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list images",
			Message: err.Error(),
		})
		return
	}

	resp := models.ImageListResponse{Images: make([]models.ImageResponse, len(images))}
	for i, img := range images {
		resp.Images[i] = models.NewImageResponse(img)
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ImagesHandler) DeleteImage(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	projectID, ok := h.ownedProject(c, userID)
	if !ok {
		return
	}

	imageID, err := uuid.Parse(c.Param("image_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid image id"})
		return
	}

	if err := h.dbClient.DeleteImage(imageID, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete image",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "image deleted"})
}

func (h *ImagesHandler) ToggleFavorite(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	projectID, ok := h.ownedProject(c, userID)
	if !ok {
		return
	}

	imageID, err := uuid.Parse(c.Param("image_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid image id"})
		return
	}

	img, err := h.dbClient.GetImage(imageID, projectID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "image not found"})
		return
	}

	if err := h.dbClient.SetImageFavorited(imageID, projectID, !img.Favorited); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to update image",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorited": !img.Favorited})
}

// Crop godoc
// @Summary     Crop a region from a generated image
// @Description Rasterizes the fractional region from the source image at natural resolution, stores the PNG, and returns its URL for use as regionCropImageUrl in a refine call.
// @Tags        images
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       image_id path string true "Image ID (UUID)"
// @Param       request body models.CropRequest true "Fractional region"
// @Success     200 {object} models.CropResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects/{project_id}/images/{image_id}/crop [post]
func (h *ImagesHandler) Crop(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	projectID, ok := h.ownedProject(c, userID)
	if !ok {
		return
	}

	imageID, err := uuid.Parse(c.Param("image_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid image id"})
		return
	}

	var req models.CropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}
	if req.Region.Width <= 0 || req.Region.Height <= 0 ||
		req.Region.X < 0 || req.Region.Y < 0 ||
		req.Region.X+req.Region.Width > 1 || req.Region.Y+req.Region.Height > 1 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "region must be fractional coordinates within [0,1]"})
		return
	}

	img, err := h.dbClient.GetImage(imageID, projectID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "image not found"})
		return
	}

	sourceBytes, err := h.fetchImage(img.URL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load source image",
			Message: err.Error(),
		})
		return
	}

	cropped, width, height, err := imagecrop.Crop(sourceBytes, req.Region)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to crop image",
			Message: err.Error(),
		})
		return
	}

	filename := fmt.Sprintf("crop_%s_%d.png", imageID.String()[:8], time.Now().UnixMilli())
	_, url, err := h.storageClient.UploadCrop(userID, projectID, filename, cropped)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to store crop",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.CropResponse{URL: url, Width: width, Height: height})
}

func (h *ImagesHandler) ownedProject(c *gin.Context, userID uuid.UUID) (uuid.UUID, bool) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return uuid.Nil, false
	}
	if _, err := h.dbClient.GetProject(projectID, userID); err != nil {
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "project not found or not owned by caller"})
		return uuid.Nil, false
	}
	return projectID, true
}

func (h *ImagesHandler) fetchImage(url string) ([]byte, error) {
	if data, ok := decodeDataURLBytes(url); ok {
		return data, nil
	}

	resp, err := h.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// decodeDataURLBytes decodes a base64 data URL into raw bytes. Generated
// images from the Gemini path come back as data URLs, so a crop request may
// point at one instead of a remote URL.
func decodeDataURLBytes(url string) ([]byte, bool) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return nil, false
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, false
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, false
	}
	return data, true
}
