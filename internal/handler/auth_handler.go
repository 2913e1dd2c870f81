package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fairu-api/internal/models"
	appErrors "github.com/noah-isme/fairu-api/pkg/errors"
	"github.com/noah-isme/fairu-api/pkg/response"
)

type authService interface {
	SignInWithGoogle(ctx context.Context, req models.GoogleSignInRequest) (*models.SignInResponse, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Google godoc
// @Summary Sign in with Google
// @Description Exchange a Google ID token for a session token. New accounts are registered on first sign in.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.GoogleSignInRequest true "Google ID token"
// @Success 200 {object} models.SignInResponse
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/google [post]
func (h *AuthHandler) Google(c *gin.Context) {
	var req models.GoogleSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "no user specified"))
		return
	}

	res, err := h.service.SignInWithGoogle(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Raw(c, http.StatusOK, res)
}
