package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fairu-api/internal/models"
	"github.com/noah-isme/fairu-api/internal/service"
	appErrors "github.com/noah-isme/fairu-api/pkg/errors"
	"github.com/noah-isme/fairu-api/pkg/response"
)

type fileService interface {
	List(ctx context.Context, page int, includeUnverified bool) ([]models.FileSummary, *models.Pagination, error)
	Count(ctx context.Context, includeUnverified bool) (int64, error)
	PageCount(ctx context.Context, includeUnverified bool) (int64, error)
	Search(ctx context.Context, query string, page int, includeUnverified bool) ([]models.FileSummary, *models.Pagination, error)
	SearchCount(ctx context.Context, query string, includeUnverified bool) (int64, error)
	SearchPageCount(ctx context.Context, query string, includeUnverified bool) (int64, error)
	Details(ctx context.Context, id string, auth models.AuthResult) (*models.FileDetails, error)
	ResolveDownload(ctx context.Context, id, index, captchaToken, clientIP string) (*models.DownloadLink, error)
	Create(ctx context.Context, auth models.AuthResult, req service.CreateFileRequest) (*models.File, error)
	Update(ctx context.Context, auth models.AuthResult, id string, req service.UpdateFileRequest) (*models.File, error)
	DeleteMany(ctx context.Context, auth models.AuthResult, ids []string) (*models.DeleteResult, error)
}

// DownloadRequest carries the CAPTCHA response token.
type DownloadRequest struct {
	CaptchaID string `json:"captchaID"`
}

// DeleteFilesRequest lists the files removed by a bulk delete.
type DeleteFilesRequest struct {
	IDs []string `json:"ids"`
}

// FileHandler exposes the file catalog.
type FileHandler struct {
	service fileService
}

// NewFileHandler creates a new file handler.
func NewFileHandler(svc fileService) *FileHandler {
	return &FileHandler{service: svc}
}

// List godoc
// @Summary List files
// @Description Twenty files per page, newest first. Unverified files are hidden unless requested.
// @Tags Files
// @Produce json
// @Param page query int false "Zero-based page"
// @Param unverified query bool false "Include unverified files"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /files/ [get]
func (h *FileHandler) List(c *gin.Context) {
	page, err := service.ParsePage(c.Query("page"))
	if err != nil {
		response.Error(c, err)
		return
	}

	files, pagination, err := h.service.List(c.Request.Context(), page, includeUnverified(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, files, pagination)
}

// Count godoc
// @Summary Count files
// @Tags Files
// @Produce json
// @Param unverified query bool false "Include unverified files"
// @Success 200 {object} response.Envelope
// @Router /files/count [get]
func (h *FileHandler) Count(c *gin.Context) {
	total, err := h.service.Count(c.Request.Context(), includeUnverified(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"count": total}, nil)
}

// PageCount godoc
// @Summary Count file pages
// @Tags Files
// @Produce json
// @Param unverified query bool false "Include unverified files"
// @Success 200 {object} response.Envelope
// @Router /files/pagecount [get]
func (h *FileHandler) PageCount(c *gin.Context) {
	pages, err := h.service.PageCount(c.Request.Context(), includeUnverified(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"pageCount": pages}, nil)
}

// Search godoc
// @Summary Search files
// @Description Case-insensitive substring match on filename, description and tags.
// @Tags Files
// @Produce json
// @Param query query string true "Search text"
// @Param page query int false "Zero-based page"
// @Param unverified query bool false "Include unverified files"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /files/search [get]
func (h *FileHandler) Search(c *gin.Context) {
	page, err := service.ParsePage(c.Query("page"))
	if err != nil {
		response.Error(c, err)
		return
	}

	files, pagination, err := h.service.Search(c.Request.Context(), c.Query("query"), page, includeUnverified(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, files, pagination)
}

// SearchCount godoc
// @Summary Count search results
// @Tags Files
// @Produce json
// @Param query query string true "Search text"
// @Param unverified query bool false "Include unverified files"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /files/search/count [get]
func (h *FileHandler) SearchCount(c *gin.Context) {
	total, err := h.service.SearchCount(c.Request.Context(), c.Query("query"), includeUnverified(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"count": total}, nil)
}

// SearchPageCount godoc
// @Summary Count search result pages
// @Tags Files
// @Produce json
// @Param query query string true "Search text"
// @Param unverified query bool false "Include unverified files"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /files/search/pagecount [get]
func (h *FileHandler) SearchPageCount(c *gin.Context) {
	pages, err := h.service.SearchPageCount(c.Request.Context(), c.Query("query"), includeUnverified(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"pageCount": pages}, nil)
}

// Details godoc
// @Summary File details
// @Description Moderators also receive the download URLs, uploader and verifier.
// @Tags Files
// @Produce json
// @Param id path string true "File ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/details/{id} [get]
func (h *FileHandler) Details(c *gin.Context) {
	details, err := h.service.Details(c.Request.Context(), c.Param("id"), authFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

// Download godoc
// @Summary Resolve a download link
// @Description Verifies the reCAPTCHA token, returns the selected URL and increments the download counter.
// @Tags Files
// @Accept json
// @Produce json
// @Param id path string true "File ID"
// @Param index path int true "Download URL index"
// @Param payload body DownloadRequest true "reCAPTCHA token"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /files/download/{id}/{index} [post]
func (h *FileHandler) Download(c *gin.Context) {
	var req DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrCaptchaRequired, ""))
		return
	}

	link, err := h.service.ResolveDownload(c.Request.Context(), c.Param("id"), c.Param("index"), req.CaptchaID, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Add godoc
// @Summary Add a file
// @Description New files start unverified and are owned by the caller.
// @Tags Files
// @Accept json
// @Produce json
// @Param payload body service.CreateFileRequest true "File payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /files/add [post]
func (h *FileHandler) Add(c *gin.Context) {
	var req service.CreateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	file, err := h.service.Create(c.Request.Context(), authFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, file)
}

// Update godoc
// @Summary Update a file
// @Description Partial update. Setting verified to true records the moderator as verifier.
// @Tags Files
// @Accept json
// @Produce json
// @Param id path string true "File ID"
// @Param payload body service.UpdateFileRequest true "Changed fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /files/update/{id} [post]
func (h *FileHandler) Update(c *gin.Context) {
	var req service.UpdateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	file, err := h.service.Update(c.Request.Context(), authFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, file, nil)
}

// Delete godoc
// @Summary Bulk delete files
// @Tags Files
// @Accept json
// @Produce json
// @Param payload body DeleteFilesRequest true "File IDs"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /files/delete [delete]
func (h *FileHandler) Delete(c *gin.Context) {
	var req DeleteFilesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "no file ids provided"))
		return
	}

	result, err := h.service.DeleteMany(c.Request.Context(), authFromContext(c), req.IDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
