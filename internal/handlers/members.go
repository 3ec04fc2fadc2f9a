package handlers

import (
	"net/http"

	"project-tracker/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

const msgMembersDenied = "You do not have access to manage members of this project"

type MemberHandler struct {
	members services.MembershipService
}

type AttachRequest struct {
	UserID string `json:"user_id"`
}

func NewMemberHandler(members services.MembershipService) *MemberHandler {
	return &MemberHandler{members: members}
}

func (h *MemberHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "project_id")
	if !ok {
		return
	}

	listing, err := h.members.ListCandidates(c.Request.Context(), userID, projectID)
	if err != nil {
		respondError(c, err, msgMembersDenied)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *MemberHandler) Attach(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "project_id")
	if !ok {
		return
	}
	var req AttachRequest
	if !bindJSON(c, &req) {
		return
	}

	targetID := uuid.Nil
	if req.UserID != "" {
		id, err := uuid.FromString(req.UserID)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  "validation_failed",
				"fields": map[string]string{"user_id": "The selected user_id is invalid."},
			})
			return
		}
		targetID = id
	}

	result, err := h.members.Attach(c.Request.Context(), userID, projectID, targetID)
	if err != nil {
		respondError(c, err, msgMembersDenied)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}
