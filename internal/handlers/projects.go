package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"neurodesign-backend/internal/models"
	"neurodesign-backend/internal/supabase"
)

type ProjectsHandler struct {
	dbClient      *supabase.DatabaseClient
	storageClient *supabase.StorageClient
}

func NewProjectsHandler(dbClient *supabase.DatabaseClient, storageClient *supabase.StorageClient) *ProjectsHandler {
	return &ProjectsHandler{
		dbClient:      dbClient,
		storageClient: storageClient,
	}
}

// CreateProject returns the caller's most recently updated project, creating
// one lazily on first visit.
func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = models.CreateProjectRequest{}
	}

	project, err := h.dbClient.GetOrCreateProject(userID, req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to get or create project",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, projectResponse(project))
}

func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	projects, err := h.dbClient.ListProjects(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list projects",
			Message: err.Error(),
		})
		return
	}

	resp := models.ProjectListResponse{Projects: make([]models.ProjectResponse, len(projects))}
	for i := range projects {
		resp.Projects[i] = projectResponse(&projects[i])
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ProjectsHandler) RenameProject(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}

	var req models.RenameProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "name is required"})
		return
	}

	if err := h.dbClient.RenameProject(projectID, userID, req.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to rename project",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "project renamed"})
}

func (h *ProjectsHandler) DeleteProject(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}

	if _, err := h.dbClient.GetProject(projectID, userID); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
		return
	}

	// Stored artifacts go first; a failure here should not block row deletion.
	_ = h.storageClient.DeleteProjectFiles(userID, projectID)

	if err := h.dbClient.DeleteProject(projectID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete project",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "project deleted successfully"})
}

func projectResponse(p *models.Project) models.ProjectResponse {
	return models.ProjectResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
