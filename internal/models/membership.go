package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// ProjectMembership grants a non-owner access to a project. The composite
// primary key keeps (project, user) pairs unique.
type ProjectMembership struct {
	ProjectID uuid.UUID `json:"project_id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time `json:"created_at"`

	Project Project `json:"-" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	User    User    `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
