package handlers

import (
	"errors"
	"log"
	"net/http"

	"project-tracker/internal/middleware"
	"project-tracker/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

// respondError maps service errors to HTTP responses. deniedMessage is shown
// when the caller lacks access.
func respondError(c *gin.Context, err error, deniedMessage string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "validation_failed",
			"fields": verr.Fields,
		})
	case errors.Is(err, services.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": deniedMessage})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
	default:
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return uuid.Nil, false
	}
	return userID, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request format",
			"details": err.Error(),
		})
		return false
	}
	return true
}
