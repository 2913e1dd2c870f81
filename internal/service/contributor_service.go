package service

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/fairu-api/internal/models"
	appErrors "github.com/noah-isme/fairu-api/pkg/errors"
)

type contributorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Contributor, error)
	List(ctx context.Context, page, pageSize int) ([]models.Contributor, error)
	Count(ctx context.Context) (int64, error)
	SetBanned(ctx context.Context, id string, banned bool) error
	SetAdmin(ctx context.Context, id string, admin bool) error
}

// ContributorService handles the contributor directory.
type ContributorService struct {
	repo   contributorRepository
	logger *zap.Logger
}

// NewContributorService creates an instance of ContributorService.
func NewContributorService(repo contributorRepository, logger *zap.Logger) *ContributorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContributorService{repo: repo, logger: logger}
}

// ParsePage validates a zero-based page query value. An empty value means 0.
func ParsePage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errInvalidPage()
	}
	if err := checkPage(page); err != nil {
		return 0, err
	}
	return page, nil
}

func checkPage(page int) error {
	if page < 0 || page > models.MaxPage {
		return errInvalidPage()
	}
	return nil
}

func errInvalidPage() error {
	return appErrors.Clone(appErrors.ErrValidation, "page is invalid")
}

// List returns one page of contributors to moderators. rawPage is parsed only
// once the caller is known to be a moderator.
func (s *ContributorService) List(ctx context.Context, auth models.AuthResult, rawPage string) ([]models.Contributor, *models.Pagination, error) {
	if _, err := s.moderator(ctx, auth); err != nil {
		return nil, nil, err
	}
	page, err := ParsePage(rawPage)
	if err != nil {
		return nil, nil, err
	}

	contributors, err := s.repo.List(ctx, page, models.DefaultPageSize)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list contributors")
	}
	return contributors, &models.Pagination{Page: page, PageSize: models.DefaultPageSize}, nil
}

// Count returns the number of registered contributors to moderators.
func (s *ContributorService) Count(ctx context.Context, auth models.AuthResult) (int64, error) {
	if _, err := s.moderator(ctx, auth); err != nil {
		return 0, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to count contributors")
	}
	return total, nil
}

// RoleOf reports whether the caller is privileged. Every failure reads as
// not privileged.
func (s *ContributorService) RoleOf(ctx context.Context, auth models.AuthResult) models.RoleView {
	actor, err := resolveActor(ctx, s.repo, auth)
	if err != nil {
		return models.RoleView{}
	}
	return models.RoleView{IsAdmin: IsPrivileged(actor)}
}

// Me returns the profile of the caller.
func (s *ContributorService) Me(ctx context.Context, auth models.AuthResult) (*models.Contributor, error) {
	return resolveActor(ctx, s.repo, auth)
}

// ToggleBan flips the ban flag of target and returns the new state. The
// read and the write are separate so concurrent toggles may cancel out.
func (s *ContributorService) ToggleBan(ctx context.Context, auth models.AuthResult, targetID string) (*models.BanView, error) {
	actor, err := s.moderator(ctx, auth)
	if err != nil {
		return nil, err
	}

	target, err := s.target(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.ID == actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot ban yourself")
	}
	if !CanBan(actor, target) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the superuser can ban administrators")
	}

	banned := !target.IsBanned
	if err := s.repo.SetBanned(ctx, target.ID, banned); err != nil {
		return nil, translateRepoError(err, "contributor not found", "failed to update contributor")
	}

	s.logger.Info("contributor ban toggled",
		zap.String("actor_id", actor.ID),
		zap.String("contributor_id", target.ID),
		zap.Bool("banned", banned),
	)
	return &models.BanView{ID: target.ID, IsBanned: banned}, nil
}

// SetAdmin grants or revokes the admin role. Only the superuser may do so.
func (s *ContributorService) SetAdmin(ctx context.Context, auth models.AuthResult, targetID string, isAdmin bool) (*models.Contributor, error) {
	actor, err := resolveActor(ctx, s.repo, auth)
	if err != nil {
		return nil, err
	}
	if !actor.IsSuperUser {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the superuser can assign roles")
	}

	target, err := s.target(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !CanAssignRoles(actor, target) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot change your own role")
	}

	if err := s.repo.SetAdmin(ctx, target.ID, isAdmin); err != nil {
		return nil, translateRepoError(err, "contributor not found", "failed to update contributor")
	}
	target.IsAdmin = isAdmin

	s.logger.Info("contributor role changed",
		zap.String("actor_id", actor.ID),
		zap.String("contributor_id", target.ID),
		zap.Bool("is_admin", isAdmin),
	)
	return target, nil
}

func (s *ContributorService) moderator(ctx context.Context, auth models.AuthResult) (*models.Contributor, error) {
	actor, err := resolveActor(ctx, s.repo, auth)
	if err != nil {
		return nil, err
	}
	if !IsPrivileged(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	return actor, nil
}

func (s *ContributorService) target(ctx context.Context, id string) (*models.Contributor, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidReference, "")
	}
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "contributor not found", "failed to load contributor")
	}
	return target, nil
}
