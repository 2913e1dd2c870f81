package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fairu-api/internal/models"
	appErrors "github.com/noah-isme/fairu-api/pkg/errors"
	"github.com/noah-isme/fairu-api/pkg/response"
)

type contributorService interface {
	List(ctx context.Context, auth models.AuthResult, rawPage string) ([]models.Contributor, *models.Pagination, error)
	Count(ctx context.Context, auth models.AuthResult) (int64, error)
	RoleOf(ctx context.Context, auth models.AuthResult) models.RoleView
	Me(ctx context.Context, auth models.AuthResult) (*models.Contributor, error)
	ToggleBan(ctx context.Context, auth models.AuthResult, targetID string) (*models.BanView, error)
	SetAdmin(ctx context.Context, auth models.AuthResult, targetID string, isAdmin bool) (*models.Contributor, error)
}

// SetAdminRequest grants or revokes the admin role.
type SetAdminRequest struct {
	IsAdmin *bool `json:"isAdmin"`
}

// ContributorHandler exposes the contributor directory.
type ContributorHandler struct {
	service contributorService
}

// NewContributorHandler creates a new contributor handler.
func NewContributorHandler(svc contributorService) *ContributorHandler {
	return &ContributorHandler{service: svc}
}

// List godoc
// @Summary List contributors
// @Description Twenty contributors per page ordered by username. Pages start at 0.
// @Tags Contributors
// @Produce json
// @Param page query int false "Zero-based page"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /contributors/ [get]
func (h *ContributorHandler) List(c *gin.Context) {
	contributors, pagination, err := h.service.List(c.Request.Context(), authFromContext(c), c.Query("page"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contributors, pagination)
}

// Count godoc
// @Summary Count contributors
// @Tags Contributors
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /contributors/count [get]
func (h *ContributorHandler) Count(c *gin.Context) {
	total, err := h.service.Count(c.Request.Context(), authFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"count": total}, nil)
}

// Role godoc
// @Summary Caller role
// @Description Reports whether the caller is an administrator. Never fails.
// @Tags Contributors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /contributors/role [get]
func (h *ContributorHandler) Role(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.RoleOf(c.Request.Context(), authFromContext(c)), nil)
}

// Me godoc
// @Summary Caller profile
// @Tags Contributors
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /contributors/me [get]
func (h *ContributorHandler) Me(c *gin.Context) {
	contributor, err := h.service.Me(c.Request.Context(), authFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contributor, nil)
}

// ToggleBan godoc
// @Summary Toggle contributor ban
// @Description Flips the ban flag and returns the new state.
// @Tags Contributors
// @Produce json
// @Param id path string true "Contributor ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /contributors/ban/{id} [post]
func (h *ContributorHandler) ToggleBan(c *gin.Context) {
	view, err := h.service.ToggleBan(c.Request.Context(), authFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// SetAdmin godoc
// @Summary Assign admin role
// @Tags Contributors
// @Accept json
// @Produce json
// @Param id path string true "Contributor ID"
// @Param payload body SetAdminRequest true "Role payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /contributors/admin/{id} [post]
func (h *ContributorHandler) SetAdmin(c *gin.Context) {
	var req SetAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsAdmin == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "isAdmin is required"))
		return
	}

	contributor, err := h.service.SetAdmin(c.Request.Context(), authFromContext(c), c.Param("id"), *req.IsAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contributor, nil)
}
