package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fairu-api/internal/models"
)

const contributorColumns = `id, username, email, is_admin, is_super_user, is_banned, created_at, updated_at`

// ContributorRepository provides database access for the contributor directory.
type ContributorRepository struct {
	db *sqlx.DB
}

// NewContributorRepository creates a new instance of ContributorRepository.
func NewContributorRepository(db *sqlx.DB) *ContributorRepository {
	return &ContributorRepository{db: db}
}

// FindByID returns a contributor by identifier.
func (r *ContributorRepository) FindByID(ctx context.Context, id string) (*models.Contributor, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}
	const query = `SELECT ` + contributorColumns + ` FROM contributors WHERE id = $1 LIMIT 1`
	var contributor models.Contributor
	if err := r.db.GetContext(ctx, &contributor, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find contributor by id: %w", err)
	}
	return &contributor, nil
}

// FindByEmail returns a contributor by email address, ignoring case.
func (r *ContributorRepository) FindByEmail(ctx context.Context, email string) (*models.Contributor, error) {
	const query = `SELECT ` + contributorColumns + ` FROM contributors WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var contributor models.Contributor
	if err := r.db.GetContext(ctx, &contributor, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find contributor by email: %w", err)
	}
	return &contributor, nil
}

// List returns one page of contributors ordered by username.
func (r *ContributorRepository) List(ctx context.Context, page, pageSize int) ([]models.Contributor, error) {
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}
	offset, ok := models.Offset(page, pageSize)
	if !ok {
		return []models.Contributor{}, nil
	}
	query := fmt.Sprintf("SELECT %s FROM contributors ORDER BY username ASC LIMIT %d OFFSET %d", contributorColumns, pageSize, offset)

	contributors := []models.Contributor{}
	if err := r.db.SelectContext(ctx, &contributors, query); err != nil {
		return nil, fmt.Errorf("list contributors: %w", err)
	}
	return contributors, nil
}

// Count returns the number of contributors.
func (r *ContributorRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM contributors`); err != nil {
		return 0, fmt.Errorf("count contributors: %w", err)
	}
	return total, nil
}

// Create inserts a new contributor.
func (r *ContributorRepository) Create(ctx context.Context, contributor *models.Contributor) error {
	if contributor.ID == "" {
		contributor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if contributor.CreatedAt.IsZero() {
		contributor.CreatedAt = now
	}
	contributor.UpdatedAt = now

	const query = `INSERT INTO contributors (id, username, email, is_admin, is_super_user, is_banned, created_at, updated_at) VALUES (:id, :username, :email, :is_admin, :is_super_user, :is_banned, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, contributor); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create contributor: %w", err)
	}
	return nil
}

// SetBanned stores the ban flag of a contributor.
func (r *ContributorRepository) SetBanned(ctx context.Context, id string, banned bool) error {
	return r.setFlag(ctx, "is_banned", id, banned)
}

// SetAdmin stores the admin flag of a contributor.
func (r *ContributorRepository) SetAdmin(ctx context.Context, id string, admin bool) error {
	return r.setFlag(ctx, "is_admin", id, admin)
}

func (r *ContributorRepository) setFlag(ctx context.Context, column, id string, value bool) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	query := fmt.Sprintf("UPDATE contributors SET %s = $2, updated_at = $3 WHERE id = $1", column)
	res, err := r.db.ExecContext(ctx, query, id, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update contributor %s: %w", column, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// PromoteSuperUser marks the contributor owning email as the superuser and
// clears the flag everywhere else. It reports whether a contributor matched.
func (r *ContributorRepository) PromoteSuperUser(ctx context.Context, email string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin promote superuser: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `UPDATE contributors SET is_super_user = TRUE, updated_at = $2 WHERE LOWER(email) = LOWER($1)`, email, now)
	if err != nil {
		return false, fmt.Errorf("promote superuser: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("promote superuser: %w", err)
	}
	if affected == 0 {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, `UPDATE contributors SET is_super_user = FALSE, updated_at = $2 WHERE is_super_user = TRUE AND LOWER(email) <> LOWER($1)`, email, now); err != nil {
		return false, fmt.Errorf("demote previous superuser: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit promote superuser: %w", err)
	}
	return true, nil
}
