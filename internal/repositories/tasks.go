package repositories

import (
	"context"

	"project-tracker/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit("Author").Create(task).Error
}

func (r *TaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateContent writes title, description and status only; project_id and
// author_id are never part of the update.
func (r *TaskRepository) UpdateContent(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ?", task.ID).
		Updates(map[string]interface{}{
			"title":       task.Title,
			"description": task.Description,
			"status":      task.Status,
			"updated_at":  task.UpdatedAt,
		}).Error
}

func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{}).Error
}

func (r *TaskRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at asc").
		Find(&tasks).Error
	return tasks, err
}
