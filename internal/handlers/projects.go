package handlers

import (
	"net/http"

	"project-tracker/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	msgProjectDenied = "You do not have access to this project"
	msgOwnerOnly     = "Only the project owner can change this project"
)

type ProjectHandler struct {
	projects services.ProjectService
}

func NewProjectHandler(projects services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projects.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err, msgProjectDenied)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (h *ProjectHandler) Mine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	projects, err := h.projects.MyProjects(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, msgProjectDenied)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (h *ProjectHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var input services.ProjectInput
	if !bindJSON(c, &input) {
		return
	}

	project, err := h.projects.Create(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, err, msgProjectDenied)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) Show(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "project_id")
	if !ok {
		return
	}

	detail, err := h.projects.View(c.Request.Context(), userID, projectID)
	if err != nil {
		respondError(c, err, msgProjectDenied)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *ProjectHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "project_id")
	if !ok {
		return
	}
	var input services.ProjectInput
	if !bindJSON(c, &input) {
		return
	}

	project, err := h.projects.Update(c.Request.Context(), userID, projectID, input)
	if err != nil {
		respondError(c, err, msgOwnerOnly)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "project_id")
	if !ok {
		return
	}

	if err := h.projects.Delete(c.Request.Context(), userID, projectID); err != nil {
		respondError(c, err, msgOwnerOnly)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}
