package handlers

import (
	"net/http"
	"time"

	"project-tracker/internal/models"
	"project-tracker/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
}

type TokenResponse struct {
	AccessToken string             `json:"access_token"`
	TokenType   string             `json:"token_type"`
	ExpiresAt   time.Time          `json:"expires_at"`
	User        models.UserSummary `json:"user"`
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input services.RegisterInput
	if !bindJSON(c, &input) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "")
		return
	}
	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input services.LoginInput
	if !bindJSON(c, &input) {
		return
	}

	user, err := h.authService.Login(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "")
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, user.Summary())
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, expiresAt, err := h.authService.GenerateToken(user.ID)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(status, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        user.Summary(),
	})
}
