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

const contributorID = "6f1c1d3e-8a4b-4c2d-9e6f-0a1b2c3d4e5f"

func contributorRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "email", "is_admin", "is_super_user", "is_banned", "created_at", "updated_at"})
}

func TestContributorRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContributorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, email, is_admin, is_super_user, is_banned, created_at, updated_at FROM contributors WHERE id = $1 LIMIT 1")).
		WithArgs(contributorID).
		WillReturnRows(contributorRows().AddRow(contributorID, "alice", "alice@example.com", true, false, false, time.Now(), time.Now()))

	contributor, err := repo.FindByID(context.Background(), contributorID)
	require.NoError(t, err)
	assert.Equal(t, "alice", contributor.Username)
	assert.True(t, contributor.IsAdmin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContributorRepositoryFindByIDInvalidAndMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContributorRepository(db)

	_, err := repo.FindByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidID)

	mock.ExpectQuery("FROM contributors WHERE id").
		WithArgs(contributorID).
		WillReturnRows(contributorRows())

	_, err = repo.FindByID(context.Background(), contributorID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContributorRepositoryListAndCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContributorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM contributors ORDER BY username ASC LIMIT 20 OFFSET 40")).
		WillReturnRows(contributorRows().
			AddRow(contributorID, "alice", "alice@example.com", false, false, false, time.Now(), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM contributors")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(41))

	list, err := repo.List(context.Background(), 2, models.DefaultPageSize)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	total, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(41), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContributorRepositoryListPageBeyondOffsetRange(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContributorRepository(db)

	list, err := repo.List(context.Background(), 461168601842738791, models.DefaultPageSize)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContributorRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContributorRepository(db)

	mock.ExpectExec("INSERT INTO contributors").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Contributor{Username: "alice", Email: "alice@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContributorRepositorySetBanned(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContributorRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE contributors SET is_banned = $2, updated_at = $3 WHERE id = $1")).
		WithArgs(contributorID, true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetBanned(context.Background(), contributorID, true))

	mock.ExpectExec("UPDATE contributors SET is_admin").
		WithArgs(contributorID, true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.SetAdmin(context.Background(), contributorID, true), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContributorRepositoryPromoteSuperUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContributorRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE contributors SET is_super_user = TRUE").
		WithArgs("owner@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE contributors SET is_super_user = FALSE").
		WithArgs("owner@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	promoted, err := repo.PromoteSuperUser(context.Background(), "owner@example.com")
	require.NoError(t, err)
	assert.True(t, promoted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
