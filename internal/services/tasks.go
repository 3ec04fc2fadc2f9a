package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"project-tracker/internal/models"
	"project-tracker/internal/repositories"

	"github.com/gofrs/uuid"
)

type TaskInput struct {
	Title       string            `json:"title" validate:"required,max=255"`
	Description *string           `json:"description"`
	Status      models.TaskStatus `json:"status" validate:"required,oneof=pending in_progress completed"`
}

func (in *TaskInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if d == "" {
			in.Description = nil
		} else {
			in.Description = &d
		}
	}
}

type TaskService interface {
	Create(ctx context.Context, userID, projectID uuid.UUID, input TaskInput) (*models.Task, error)
	Get(ctx context.Context, userID, projectID, taskID uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, userID, projectID, taskID uuid.UUID, input TaskInput) (*models.Task, error)
	Delete(ctx context.Context, userID, projectID, taskID uuid.UUID) error
}

type TaskServiceImpl struct {
	repos *repositories.Repositories
}

func NewTaskService(repos *repositories.Repositories) *TaskServiceImpl {
	return &TaskServiceImpl{repos: repos}
}

func (s *TaskServiceImpl) Create(ctx context.Context, userID, projectID uuid.UUID, input TaskInput) (*models.Task, error) {
	project, err := s.repos.Projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, notFound(err)
	}
	if !HasAccess(userID, project) {
		return nil, ErrAccessDenied
	}

	input.normalize()
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	task := &models.Task{
		ProjectID:   project.ID,
		AuthorID:    userID,
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
	}
	if err := s.repos.Tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// loadTask resolves a task through its parent project. A task that belongs
// to another project is reported as missing, before access is considered.
func (s *TaskServiceImpl) loadTask(ctx context.Context, userID, projectID, taskID uuid.UUID) (*models.Task, error) {
	project, err := s.repos.Projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, notFound(err)
	}
	task, err := s.repos.Tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, notFound(err)
	}
	if task.ProjectID != project.ID {
		return nil, ErrNotFound
	}
	if !HasAccess(userID, project) {
		return nil, ErrAccessDenied
	}
	return task, nil
}

func (s *TaskServiceImpl) Get(ctx context.Context, userID, projectID, taskID uuid.UUID) (*models.Task, error) {
	return s.loadTask(ctx, userID, projectID, taskID)
}

func (s *TaskServiceImpl) Update(ctx context.Context, userID, projectID, taskID uuid.UUID, input TaskInput) (*models.Task, error) {
	task, err := s.loadTask(ctx, userID, projectID, taskID)
	if err != nil {
		return nil, err
	}

	input.normalize()
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	task.Title = input.Title
	task.Description = input.Description
	task.Status = input.Status
	task.UpdatedAt = time.Now()

	if err := s.repos.Tasks.UpdateContent(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

func (s *TaskServiceImpl) Delete(ctx context.Context, userID, projectID, taskID uuid.UUID) error {
	task, err := s.loadTask(ctx, userID, projectID, taskID)
	if err != nil {
		return err
	}
	if err := s.repos.Tasks.Delete(ctx, task.ID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
