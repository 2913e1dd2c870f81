package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fairu-api/internal/models"
)

const (
	fileID     = "1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed"
	otherFile  = "a3bb189e-8bf9-3888-9912-ace4e6543002"
	uploaderID = "6f1c1d3e-8a4b-4c2d-9e6f-0a1b2c3d4e5f"
)

func fileRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "filename", "description", "tags", "filetype", "download_urls", "uploader_id", "verified", "verified_by", "downloads", "created_at", "updated_at"})
}

func TestFileRepositoryListVerifiedOnly(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFileRepository(db)

	rows := sqlmock.NewRows([]string{"id", "filename", "description", "tags", "filetype", "verified", "downloads", "created_at", "updated_at"}).
		AddRow(fileID, "Calculus notes", "", "{math,calculus}", "pdf", true, 3, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, filename, description, tags, filetype, verified, downloads, created_at, updated_at FROM files WHERE 1=1 AND verified = TRUE ORDER BY created_at DESC LIMIT 20 OFFSET 20")).
		WillReturnRows(rows)

	files, err := repo.List(context.Background(), models.FileFilter{Page: 1})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, []string{"math", "calculus"}, files[0].Tags)
	assert.Equal(t, models.FileTypePDF, files[0].Filetype)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepositoryListPageBeyondOffsetRange(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFileRepository(db)

	files, err := repo.List(context.Background(), models.FileFilter{Page: 461168601842738791})
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepositoryCountSearchEscapesWildcards(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFileRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM files WHERE 1=1 AND (filename ILIKE $1 OR description ILIKE $1 OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE $1))")).
		WithArgs(`%50\%\_off%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	total, err := repo.Count(context.Background(), models.FileFilter{Query: " 50%_off ", IncludeUnverified: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFileRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM files WHERE id = $1 LIMIT 1")).
		WithArgs(fileID).
		WillReturnRows(fileRows().AddRow(fileID, "Calculus notes", "desc", "{}", "pdf", "{https://a.test/x,https://b.test/y}", uploaderID, true, uploaderID, 0, time.Now(), time.Now()))

	file, err := repo.FindByID(context.Background(), fileID)
	require.NoError(t, err)
	assert.Len(t, file.DownloadURLs, 2)
	require.NotNil(t, file.VerifiedBy)
	assert.Equal(t, uploaderID, *file.VerifiedBy)
	assert.Equal(t, []string{}, file.Tags)

	_, err = repo.FindByID(context.Background(), "507f1f77bcf86cd799439011")
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFileRepository(db)

	mock.ExpectExec("INSERT INTO files").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.File{
		Filename:     "Calculus notes",
		Filetype:     models.FileTypePDF,
		DownloadURLs: []string{"https://a.test/x"},
		UploaderID:   uploaderID,
	})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepositoryUpdatePartial(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFileRepository(db)

	verified := true
	verifier := uploaderID
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE files SET verified = $1, verified_by = $2, updated_at = $3 WHERE id = $4 RETURNING")).
		WithArgs(true, uploaderID, sqlmock.AnyArg(), fileID).
		WillReturnRows(fileRows().AddRow(fileID, "Calculus notes", "", "{}", "pdf", "{https://a.test/x}", uploaderID, true, uploaderID, 5, time.Now(), time.Now()))

	file, err := repo.Update(context.Background(), fileID, models.FileChanges{Verified: &verified, VerifiedBy: &verifier})
	require.NoError(t, err)
	assert.True(t, file.Verified)
	assert.Equal(t, int64(5), file.Downloads)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepositoryIncrementDownloads(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFileRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE files SET downloads = COALESCE(downloads, 0) + 1, updated_at = $2 WHERE id = $1 RETURNING downloads")).
		WithArgs(fileID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"downloads"}).AddRow(1))

	downloads, err := repo.IncrementDownloads(context.Background(), fileID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), downloads)

	mock.ExpectQuery("UPDATE files SET downloads").
		WithArgs(otherFile, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"downloads"}))

	_, err = repo.IncrementDownloads(context.Background(), otherFile)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepositoryDeleteMany(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFileRepository(db)

	_, err := repo.DeleteMany(context.Background(), []string{fileID, "bogus"})
	assert.ErrorIs(t, err, ErrInvalidID)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM files WHERE id = ANY($1)")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	deleted, err := repo.DeleteMany(context.Background(), []string{fileID, otherFile})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
