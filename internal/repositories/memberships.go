package repositories

import (
	"context"

	"project-tracker/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Insert adds the (project, user) pair. A pair that already exists is left
// untouched and reported with created == false.
func (r *MembershipRepository) Insert(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	membership := models.ProjectMembership{ProjectID: projectID, UserID: userID}
	result := r.db.WithContext(ctx).
		Omit("Project", "User").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&membership)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *MembershipRepository) Count(ctx context.Context, projectID, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProjectMembership{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count, err
}

func (r *MembershipRepository) ListMembers(ctx context.Context, projectID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Select("users.id", "users.name", "users.email", "users.created_at", "users.updated_at").
		Joins("JOIN project_memberships ON project_memberships.user_id = users.id").
		Where("project_memberships.project_id = ?", projectID).
		Order("project_memberships.created_at asc").
		Find(&users).Error
	return users, err
}
