package repository

import (
	"context"

	"github.com/noah-isme/fairu-api/internal/models"
)

// ContributorStore is implemented by every contributor persistence backend.
type ContributorStore interface {
	FindByID(ctx context.Context, id string) (*models.Contributor, error)
	FindByEmail(ctx context.Context, email string) (*models.Contributor, error)
	List(ctx context.Context, page, pageSize int) ([]models.Contributor, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, contributor *models.Contributor) error
	SetBanned(ctx context.Context, id string, banned bool) error
	SetAdmin(ctx context.Context, id string, admin bool) error
	PromoteSuperUser(ctx context.Context, email string) (bool, error)
}

// FileStore is implemented by every file persistence backend.
type FileStore interface {
	List(ctx context.Context, filter models.FileFilter) ([]models.FileSummary, error)
	Count(ctx context.Context, filter models.FileFilter) (int64, error)
	FindByID(ctx context.Context, id string) (*models.File, error)
	Create(ctx context.Context, file *models.File) error
	Update(ctx context.Context, id string, changes models.FileChanges) (*models.File, error)
	IncrementDownloads(ctx context.Context, id string) (int64, error)
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

var (
	_ ContributorStore = (*ContributorRepository)(nil)
	_ FileStore        = (*FileRepository)(nil)
)
