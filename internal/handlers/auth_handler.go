package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/middleware"
)

// AuthHandler exchanges API keys for access tokens.
type AuthHandler struct{}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// TokenRequest represents the request payload for the token exchange.
type TokenRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// Token exchanges a configured API key for a JWT access token.
// @Summary     Exchange API key for token
// @Description Verify the API key against the configured hash and issue a JWT
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body TokenRequest true "API key"
// @Success     200 {object} map[string]string "Access token"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	token, err := middleware.ExchangeAPIKey(req.APIKey)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidAPIKey, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "Bearer"})
}
