package service

import (
	"context"
	"errors"

	"github.com/noah-isme/fairu-api/internal/models"
	"github.com/noah-isme/fairu-api/internal/repository"
	appErrors "github.com/noah-isme/fairu-api/pkg/errors"
)

type contributorFinder interface {
	FindByID(ctx context.Context, id string) (*models.Contributor, error)
}

// resolveActor turns the request identity into a stored contributor. A token
// naming a contributor that no longer exists counts as unauthenticated.
func resolveActor(ctx context.Context, repo contributorFinder, auth models.AuthResult) (*models.Contributor, error) {
	switch auth.Status() {
	case models.AuthIdentified:
	case models.AuthExpired:
		return nil, appErrors.Clone(appErrors.ErrTokenExpired, "")
	default:
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}

	id, _ := auth.ContributorID()
	contributor, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
		}
		return nil, appErrors.Internal(err, "failed to resolve contributor")
	}
	return contributor, nil
}

// translateRepoError maps repository sentinels onto the public error taxonomy.
func translateRepoError(err error, notFoundMessage, internalMessage string) error {
	switch {
	case errors.Is(err, repository.ErrInvalidID):
		return appErrors.Clone(appErrors.ErrInvalidReference, "")
	case errors.Is(err, repository.ErrNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, notFoundMessage)
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Clone(appErrors.ErrConflict, "")
	default:
		return appErrors.Internal(err, internalMessage)
	}
}
