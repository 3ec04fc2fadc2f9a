package services

import (
	"project-tracker/internal/models"

	"github.com/gofrs/uuid"
)

// HasAccess reports whether userID owns the project or is attached to it.
// The project's memberships must already be loaded; no queries are made.
func HasAccess(userID uuid.UUID, project *models.Project) bool {
	if project == nil || userID == uuid.Nil {
		return false
	}
	if IsOwner(userID, project) {
		return true
	}
	for _, m := range project.Memberships {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func IsOwner(userID uuid.UUID, project *models.Project) bool {
	return project != nil && userID != uuid.Nil && project.OwnerID == userID
}
