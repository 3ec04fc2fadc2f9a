package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	ProjectID   uuid.UUID  `json:"project_id" gorm:"type:uuid;not null;index"`
	AuthorID    uuid.UUID  `json:"author_id" gorm:"type:uuid;not null"`
	Title       string     `json:"title" gorm:"size:255;not null"`
	Description *string    `json:"description"`
	Status      TaskStatus `json:"status" gorm:"size:20;not null;default:'pending'"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Author User `json:"-" gorm:"foreignKey:AuthorID"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		t.ID = id
	}
	return nil
}
