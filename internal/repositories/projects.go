package repositories

import (
	"context"

	"project-tracker/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(project).Error
}

// FindByID loads a project together with its membership set, which is what
// the access rule needs.
func (r *ProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).
		Preload("Memberships").
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// FindDetailed loads the owner, the members and every task with its author.
func (r *ProjectRepository) FindDetailed(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Memberships", func(db *gorm.DB) *gorm.DB {
			return db.Order("project_memberships.created_at asc")
		}).
		Preload("Memberships.User").
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("tasks.created_at asc")
		}).
		Preload("Tasks.Author").
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ListLatest returns all projects, newest first.
func (r *ProjectRepository) ListLatest(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Order("created_at desc").
		Find(&projects).Error
	return projects, err
}

func (r *ProjectRepository) ListOwnedBy(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", userID).
		Order("created_at desc").
		Find(&projects).Error
	return projects, err
}

func (r *ProjectRepository) ListAssignedTo(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).
		Joins("JOIN project_memberships ON project_memberships.project_id = projects.id").
		Where("project_memberships.user_id = ?", userID).
		Order("projects.created_at desc").
		Find(&projects).Error
	return projects, err
}

func (r *ProjectRepository) Update(ctx context.Context, project *models.Project, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(project).Omit(clause.Associations).Updates(fields).Error
}

// Delete removes the project along with its tasks and memberships in one
// transaction.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMembership{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Project{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
