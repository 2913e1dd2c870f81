package mongodb

import "github.com/noah-isme/fairu-api/internal/repository"

var (
	_ repository.ContributorStore = (*ContributorRepository)(nil)
	_ repository.FileStore        = (*FileRepository)(nil)
)
