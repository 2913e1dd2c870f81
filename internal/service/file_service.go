package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fairu-api/internal/models"
	"github.com/noah-isme/fairu-api/internal/repository"
	appErrors "github.com/noah-isme/fairu-api/pkg/errors"
)

const filesCachePattern = "files:*"

type fileRepository interface {
	List(ctx context.Context, filter models.FileFilter) ([]models.FileSummary, error)
	Count(ctx context.Context, filter models.FileFilter) (int64, error)
	FindByID(ctx context.Context, id string) (*models.File, error)
	Create(ctx context.Context, file *models.File) error
	Update(ctx context.Context, id string, changes models.FileChanges) (*models.File, error)
	IncrementDownloads(ctx context.Context, id string) (int64, error)
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

// CaptchaVerifier checks a CAPTCHA response token.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// CreateFileRequest is the upload payload. Moderation fields sent by clients
// are not part of it and are therefore ignored.
type CreateFileRequest struct {
	Filename     string   `json:"filename" validate:"required,min=5,max=256"`
	Description  string   `json:"description" validate:"max=400"`
	Tags         []string `json:"tags" validate:"max=256,dive,min=2,max=50"`
	Filetype     string   `json:"filetype" validate:"required,oneof=pdf doc pptx xlsx odf epub zip others"`
	DownloadURLs []string `json:"downloadURLs" validate:"required,min=1,max=12,dive,min=5,max=1000,url"`
}

// UpdateFileRequest is a partial update. Absent fields stay unchanged.
type UpdateFileRequest struct {
	Filename     *string   `json:"filename"`
	Description  *string   `json:"description"`
	Tags         *[]string `json:"tags"`
	Filetype     *string   `json:"filetype"`
	DownloadURLs *[]string `json:"downloadURLs"`
	Verified     *bool     `json:"verified"`
}

// FileService implements the file catalog.
type FileService struct {
	repo         fileRepository
	contributors contributorFinder
	captcha      CaptchaVerifier
	cache        *CacheService
	metrics      *MetricsService
	validator    *validator.Validate
	sanitizer    *textSanitizer
	logger       *zap.Logger
}

// NewFileService creates an instance of FileService.
func NewFileService(repo fileRepository, contributors contributorFinder, captcha CaptchaVerifier, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *FileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	useJSONNames(validate)
	return &FileService{
		repo:         repo,
		contributors: contributors,
		captcha:      captcha,
		cache:        cache,
		metrics:      metrics,
		validator:    validate,
		sanitizer:    newTextSanitizer(),
		logger:       logger,
	}
}

// List returns one page of the catalog, newest first.
func (s *FileService) List(ctx context.Context, page int, includeUnverified bool) ([]models.FileSummary, *models.Pagination, error) {
	if err := checkPage(page); err != nil {
		return nil, nil, err
	}
	filter := models.FileFilter{IncludeUnverified: includeUnverified, Page: page, PageSize: models.DefaultPageSize}
	files, err := s.cachedList(ctx, fmt.Sprintf("files:list:%d:%t", page, includeUnverified), filter)
	if err != nil {
		return nil, nil, err
	}
	return files, &models.Pagination{Page: page, PageSize: models.DefaultPageSize}, nil
}

// Count returns the number of listed files.
func (s *FileService) Count(ctx context.Context, includeUnverified bool) (int64, error) {
	return s.cachedCount(ctx, fmt.Sprintf("files:count:%t", includeUnverified), models.FileFilter{IncludeUnverified: includeUnverified})
}

// PageCount returns the number of listing pages.
func (s *FileService) PageCount(ctx context.Context, includeUnverified bool) (int64, error) {
	total, err := s.Count(ctx, includeUnverified)
	if err != nil {
		return 0, err
	}
	return models.PageCount(total, models.DefaultPageSize), nil
}

// Search matches query literally against filename, tags and description.
func (s *FileService) Search(ctx context.Context, query string, page int, includeUnverified bool) ([]models.FileSummary, *models.Pagination, error) {
	q, err := searchQuery(query)
	if err != nil {
		return nil, nil, err
	}
	if err := checkPage(page); err != nil {
		return nil, nil, err
	}
	filter := models.FileFilter{Query: q, IncludeUnverified: includeUnverified, Page: page, PageSize: models.DefaultPageSize}
	files, err := s.cachedList(ctx, fmt.Sprintf("files:search:%s:%d:%t", strings.ToLower(q), page, includeUnverified), filter)
	if err != nil {
		return nil, nil, err
	}
	return files, &models.Pagination{Page: page, PageSize: models.DefaultPageSize}, nil
}

// SearchCount returns the number of files matching query.
func (s *FileService) SearchCount(ctx context.Context, query string, includeUnverified bool) (int64, error) {
	q, err := searchQuery(query)
	if err != nil {
		return 0, err
	}
	filter := models.FileFilter{Query: q, IncludeUnverified: includeUnverified}
	return s.cachedCount(ctx, fmt.Sprintf("files:searchcount:%s:%t", strings.ToLower(q), includeUnverified), filter)
}

// SearchPageCount returns the number of search result pages.
func (s *FileService) SearchPageCount(ctx context.Context, query string, includeUnverified bool) (int64, error) {
	total, err := s.SearchCount(ctx, query, includeUnverified)
	if err != nil {
		return 0, err
	}
	return models.PageCount(total, models.DefaultPageSize), nil
}

func searchQuery(query string) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "please provide a query string")
	}
	return q, nil
}

func (s *FileService) cachedList(ctx context.Context, key string, filter models.FileFilter) ([]models.FileSummary, error) {
	return Remember(ctx, s.cache, key, func(ctx context.Context) ([]models.FileSummary, error) {
		files, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list files")
		}
		return files, nil
	})
}

func (s *FileService) cachedCount(ctx context.Context, key string, filter models.FileFilter) (int64, error) {
	return Remember(ctx, s.cache, key, func(ctx context.Context) (int64, error) {
		total, err := s.repo.Count(ctx, filter)
		if err != nil {
			return 0, appErrors.Internal(err, "failed to count files")
		}
		return total, nil
	})
}

// Details returns the detail view of a file. Moderators additionally receive
// the download URLs and the uploader and verifier identities; any failure
// while building that view falls back to the public one.
func (s *FileService) Details(ctx context.Context, id string, auth models.AuthResult) (*models.FileDetails, error) {
	file, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "file not found", "failed to load file")
	}

	details := &models.FileDetails{
		ID:                 file.ID,
		Filename:           file.Filename,
		Description:        file.Description,
		Tags:               file.Tags,
		Filetype:           file.Filetype,
		Verified:           file.Verified,
		Downloads:          file.Downloads,
		DownloadURLsLength: len(file.DownloadURLs),
		CreatedAt:          file.CreatedAt,
		UpdatedAt:          file.UpdatedAt,
	}

	if auth.Status() == models.AuthUnauthenticated {
		return details, nil
	}
	actor, err := resolveActor(ctx, s.contributors, auth)
	if err != nil || !IsPrivileged(actor) {
		return details, nil
	}

	uploader, err := s.contributors.FindByID(ctx, file.UploaderID)
	if err != nil {
		s.logger.Warn("failed to load uploader for file details", zap.String("file_id", file.ID), zap.Error(err))
		return details, nil
	}
	var verifier *models.Contributor
	if file.VerifiedBy != nil {
		verifier, err = s.contributors.FindByID(ctx, *file.VerifiedBy)
		if err != nil {
			s.logger.Warn("failed to load verifier for file details", zap.String("file_id", file.ID), zap.Error(err))
			return details, nil
		}
	}

	details.DownloadURLs = file.DownloadURLs
	details.Uploader = uploader.Ref()
	details.Verifier = verifier.Ref()
	return details, nil
}

// ResolveDownload checks the CAPTCHA, returns the requested download URL and
// counts the download.
func (s *FileService) ResolveDownload(ctx context.Context, id, index, captchaToken, clientIP string) (*models.DownloadLink, error) {
	if strings.TrimSpace(captchaToken) == "" {
		return nil, appErrors.Clone(appErrors.ErrCaptchaRequired, "")
	}
	if err := s.captcha.Verify(ctx, captchaToken, clientIP); err != nil {
		s.metrics.RecordCaptchaFailure()
		s.logger.Warn("captcha verification failed", zap.String("file_id", id), zap.Error(err))
		return nil, appErrors.Clone(appErrors.ErrCaptchaFailed, "")
	}

	file, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "file not found", "failed to load file")
	}

	position, err := strconv.Atoi(strings.TrimSpace(index))
	if err != nil || position < 0 || position >= len(file.DownloadURLs) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "download index is out of range")
	}

	downloads, err := s.repo.IncrementDownloads(ctx, file.ID)
	if err != nil {
		return nil, translateRepoError(err, "file not found", "failed to record download")
	}
	s.metrics.RecordDownload()
	s.invalidate(ctx)

	return &models.DownloadLink{DownloadURL: file.DownloadURLs[position], Downloads: downloads}, nil
}

// Create adds an unverified catalog entry owned by the caller.
func (s *FileService) Create(ctx context.Context, auth models.AuthResult, req CreateFileRequest) (*models.File, error) {
	actor, err := resolveActor(ctx, s.contributors, auth)
	if err != nil {
		return nil, err
	}
	if !CanUpload(actor) {
		return nil, appErrors.Clone(appErrors.ErrBanned, "")
	}

	req = s.sanitizeCreate(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, firstViolation(err)
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	file := &models.File{
		Filename:     req.Filename,
		Description:  req.Description,
		Tags:         tags,
		Filetype:     models.FileType(req.Filetype),
		DownloadURLs: req.DownloadURLs,
		UploaderID:   actor.ID,
	}
	if err := s.repo.Create(ctx, file); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a file with this filename already exists")
		}
		return nil, appErrors.Internal(err, "failed to create file")
	}

	s.metrics.RecordFileCreated()
	s.invalidate(ctx)
	s.logger.Info("file created", zap.String("file_id", file.ID), zap.String("uploader_id", actor.ID))
	return file, nil
}

// Update applies a partial update. Setting verified on an unverified file
// records the caller as verifier; clearing it keeps the previous verifier.
func (s *FileService) Update(ctx context.Context, auth models.AuthResult, id string, req UpdateFileRequest) (*models.File, error) {
	actor, err := resolveActor(ctx, s.contributors, auth)
	if err != nil {
		return nil, err
	}
	if actor.IsBanned {
		return nil, appErrors.Clone(appErrors.ErrBanned, "")
	}
	if !CanModerate(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "file not found", "failed to load file")
	}

	changes := s.sanitizeUpdate(req)
	merged := CreateFileRequest{
		Filename:     current.Filename,
		Description:  current.Description,
		Tags:         current.Tags,
		Filetype:     string(current.Filetype),
		DownloadURLs: current.DownloadURLs,
	}
	if changes.Filename != nil {
		merged.Filename = *changes.Filename
	}
	if changes.Description != nil {
		merged.Description = *changes.Description
	}
	if changes.Tags != nil {
		merged.Tags = changes.Tags
	}
	if changes.Filetype != nil {
		merged.Filetype = string(*changes.Filetype)
	}
	if changes.DownloadURLs != nil {
		merged.DownloadURLs = changes.DownloadURLs
	}
	if err := s.validator.Struct(merged); err != nil {
		return nil, firstViolation(err)
	}

	if changes.Verified != nil && *changes.Verified && !current.Verified {
		verifier := actor.ID
		changes.VerifiedBy = &verifier
	}
	if changes.Empty() {
		return current, nil
	}

	updated, err := s.repo.Update(ctx, current.ID, changes)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a file with this filename already exists")
		}
		return nil, translateRepoError(err, "file not found", "failed to update file")
	}

	if changes.VerifiedBy != nil {
		s.metrics.RecordModeration("verify")
	} else {
		s.metrics.RecordModeration("edit")
	}
	s.invalidate(ctx)
	s.logger.Info("file updated", zap.String("file_id", updated.ID), zap.String("actor_id", actor.ID))
	return updated, nil
}

// DeleteMany removes files in bulk. Only the superuser may do so.
func (s *FileService) DeleteMany(ctx context.Context, auth models.AuthResult, ids []string) (*models.DeleteResult, error) {
	actor, err := resolveActor(ctx, s.contributors, auth)
	if err != nil {
		return nil, err
	}
	if !CanBulkDelete(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if len(ids) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no file ids provided")
	}

	deleted, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		return nil, translateRepoError(err, "file not found", "failed to delete files")
	}

	s.metrics.RecordModeration("delete")
	s.invalidate(ctx)
	s.logger.Info("files deleted", zap.String("actor_id", actor.ID), zap.Int64("deleted", deleted))
	return &models.DeleteResult{DeletedCount: deleted}, nil
}

func (s *FileService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, filesCachePattern)
}

func (s *FileService) sanitizeCreate(req CreateFileRequest) CreateFileRequest {
	req.Filename = s.sanitizer.clean(req.Filename)
	req.Description = s.sanitizer.clean(req.Description)
	req.Tags = s.sanitizer.cleanAll(req.Tags)
	req.Filetype = strings.TrimSpace(req.Filetype)
	req.DownloadURLs = trimAll(req.DownloadURLs)
	return req
}

func (s *FileService) sanitizeUpdate(req UpdateFileRequest) models.FileChanges {
	changes := models.FileChanges{Verified: req.Verified}
	if req.Filename != nil {
		v := s.sanitizer.clean(*req.Filename)
		changes.Filename = &v
	}
	if req.Description != nil {
		v := s.sanitizer.clean(*req.Description)
		changes.Description = &v
	}
	if req.Tags != nil {
		changes.Tags = s.sanitizer.cleanAll(*req.Tags)
		if changes.Tags == nil {
			changes.Tags = []string{}
		}
	}
	if req.Filetype != nil {
		v := models.FileType(strings.TrimSpace(*req.Filetype))
		changes.Filetype = &v
	}
	if req.DownloadURLs != nil {
		changes.DownloadURLs = trimAll(*req.DownloadURLs)
		if changes.DownloadURLs == nil {
			changes.DownloadURLs = []string{}
		}
	}
	return changes
}
