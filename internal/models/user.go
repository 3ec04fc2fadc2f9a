package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID       uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Name     string    `json:"name" gorm:"not null"`
	Email    string    `json:"email" gorm:"uniqueIndex;not null"`
	Password string    `json:"-" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OwnedProjects []Project           `json:"-" gorm:"foreignKey:OwnerID"`
	Memberships   []ProjectMembership `json:"-" gorm:"foreignKey:UserID"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		u.ID = id
	}
	return nil
}

// UserSummary is the public projection of a user embedded in other payloads.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
