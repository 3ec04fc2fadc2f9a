package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"project-tracker/internal/handlers"
	"project-tracker/internal/models"
	"project-tracker/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockTaskService struct {
	err       error
	lastInput services.TaskInput
	calls     int
}

func (m *MockTaskService) Create(ctx context.Context, userID, projectID uuid.UUID, input services.TaskInput) (*models.Task, error) {
	m.calls++
	m.lastInput = input
	if m.err != nil {
		return nil, m.err
	}
	return &models.Task{ID: uuid.Must(uuid.NewV4()), ProjectID: projectID, AuthorID: userID, Title: input.Title, Status: input.Status}, nil
}

func (m *MockTaskService) Get(ctx context.Context, userID, projectID, taskID uuid.UUID) (*models.Task, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &models.Task{ID: taskID, ProjectID: projectID, Title: "Design doc", Status: models.TaskStatusPending}, nil
}

func (m *MockTaskService) Update(ctx context.Context, userID, projectID, taskID uuid.UUID, input services.TaskInput) (*models.Task, error) {
	m.calls++
	m.lastInput = input
	if m.err != nil {
		return nil, m.err
	}
	return &models.Task{ID: taskID, ProjectID: projectID, Title: input.Title, Status: input.Status}, nil
}

func (m *MockTaskService) Delete(ctx context.Context, userID, projectID, taskID uuid.UUID) error {
	m.calls++
	return m.err
}

func setupTaskRouter(service services.TaskService, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set("user_id", userID)
		}
		c.Next()
	})

	h := handlers.NewTaskHandler(service)
	tasks := router.Group("/api/projects/:project_id/tasks")
	tasks.POST("", h.Create)
	tasks.GET("/:task_id", h.Show)
	tasks.PUT("/:task_id", h.Update)
	tasks.DELETE("/:task_id", h.Delete)
	return router
}

func serve(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTaskHandler_Create(t *testing.T) {
	mock := &MockTaskService{}
	userID := uuid.Must(uuid.NewV4())
	projectID := uuid.Must(uuid.NewV4())
	router := setupTaskRouter(mock, userID)

	w := serve(router, http.MethodPost, "/api/projects/"+projectID.String()+"/tasks", gin.H{
		"title":  "Design doc",
		"status": "pending",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var task models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	assert.Equal(t, projectID, task.ProjectID)
	assert.Equal(t, userID, task.AuthorID)
	assert.Equal(t, models.TaskStatusPending, mock.lastInput.Status)
}

func TestTaskHandler_Unauthenticated(t *testing.T) {
	mock := &MockTaskService{}
	router := setupTaskRouter(mock, uuid.Nil)

	w := serve(router, http.MethodPost, "/api/projects/"+uuid.Must(uuid.NewV4()).String()+"/tasks", gin.H{"title": "x"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, mock.calls)
}

func TestTaskHandler_BadIDs(t *testing.T) {
	mock := &MockTaskService{}
	router := setupTaskRouter(mock, uuid.Must(uuid.NewV4()))

	w := serve(router, http.MethodGet, "/api/projects/not-a-uuid/tasks/"+uuid.Must(uuid.NewV4()).String(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodGet, "/api/projects/"+uuid.Must(uuid.NewV4()).String()+"/tasks/42", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid task_id"}`, w.Body.String())
	assert.Zero(t, mock.calls)
}

func TestTaskHandler_MalformedJSON(t *testing.T) {
	mock := &MockTaskService{}
	router := setupTaskRouter(mock, uuid.Must(uuid.NewV4()))

	req, _ := http.NewRequest(http.MethodPost, "/api/projects/"+uuid.Must(uuid.NewV4()).String()+"/tasks", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, mock.calls)
}

func TestTaskHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"not found", services.ErrNotFound, http.StatusNotFound, `{"error":"resource not found"}`},
		{"denied", services.ErrAccessDenied, http.StatusForbidden, `{"error":"You do not have access to the tasks of this project"}`},
		{"validation", &services.ValidationError{Fields: map[string]string{"title": "The title field is required."}},
			http.StatusUnprocessableEntity, `{"error":"validation_failed","fields":{"title":"The title field is required."}}`},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, `{"error":"internal server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockTaskService{err: tt.err}
			router := setupTaskRouter(mock, uuid.Must(uuid.NewV4()))
			path := "/api/projects/" + uuid.Must(uuid.NewV4()).String() + "/tasks/" + uuid.Must(uuid.NewV4()).String()

			w := serve(router, http.MethodPut, path, gin.H{"title": "x", "status": "completed"})

			assert.Equal(t, tt.code, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestTaskHandler_Delete(t *testing.T) {
	mock := &MockTaskService{}
	router := setupTaskRouter(mock, uuid.Must(uuid.NewV4()))
	path := "/api/projects/" + uuid.Must(uuid.NewV4()).String() + "/tasks/" + uuid.Must(uuid.NewV4()).String()

	w := serve(router, http.MethodDelete, path, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, mock.calls)
}
