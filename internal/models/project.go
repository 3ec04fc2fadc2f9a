package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type Project struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Title     string    `json:"title" gorm:"size:255;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	OwnerID   uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	Owner       User                `json:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	Tasks       []Task              `json:"-" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Memberships []ProjectMembership `json:"-" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		p.ID = id
	}
	return nil
}

// MemberIDs returns the ids of the users attached through memberships. The
// memberships must already be loaded.
func (p *Project) MemberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Memberships))
	for _, m := range p.Memberships {
		ids = append(ids, m.UserID)
	}
	return ids
}

// Members returns the attached users, in membership order. Requires the
// Memberships.User association to be preloaded.
func (p *Project) Members() []User {
	users := make([]User, 0, len(p.Memberships))
	for _, m := range p.Memberships {
		users = append(users, m.User)
	}
	return users
}
