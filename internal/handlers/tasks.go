package handlers

import (
	"net/http"

	"project-tracker/internal/services"

	"github.com/gin-gonic/gin"
)

const msgTaskDenied = "You do not have access to the tasks of this project"

type TaskHandler struct {
	tasks services.TaskService
}

func NewTaskHandler(tasks services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "project_id")
	if !ok {
		return
	}
	var input services.TaskInput
	if !bindJSON(c, &input) {
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), userID, projectID, input)
	if err != nil {
		respondError(c, err, msgTaskDenied)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) Show(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "project_id")
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "task_id")
	if !ok {
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), userID, projectID, taskID)
	if err != nil {
		respondError(c, err, msgTaskDenied)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "project_id")
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "task_id")
	if !ok {
		return
	}
	var input services.TaskInput
	if !bindJSON(c, &input) {
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), userID, projectID, taskID, input)
	if err != nil {
		respondError(c, err, msgTaskDenied)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "project_id")
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "task_id")
	if !ok {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), userID, projectID, taskID); err != nil {
		respondError(c, err, msgTaskDenied)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}
