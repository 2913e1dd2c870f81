package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/fairu-api/internal/models"
)

const (
	fileSummaryColumns = `id, filename, description, tags, filetype, verified, downloads, created_at, updated_at`
	fileColumns        = `id, filename, description, tags, filetype, download_urls, uploader_id, verified, verified_by, downloads, created_at, updated_at`
)

type fileRow struct {
	ID           string         `db:"id"`
	Filename     string         `db:"filename"`
	Description  string         `db:"description"`
	Tags         pq.StringArray `db:"tags"`
	Filetype     string         `db:"filetype"`
	DownloadURLs pq.StringArray `db:"download_urls"`
	UploaderID   string         `db:"uploader_id"`
	Verified     bool           `db:"verified"`
	VerifiedBy   sql.NullString `db:"verified_by"`
	Downloads    int64          `db:"downloads"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r fileRow) toModel() *models.File {
	file := &models.File{
		ID:           r.ID,
		Filename:     r.Filename,
		Description:  r.Description,
		Tags:         []string(r.Tags),
		Filetype:     models.FileType(r.Filetype),
		DownloadURLs: []string(r.DownloadURLs),
		UploaderID:   r.UploaderID,
		Verified:     r.Verified,
		Downloads:    r.Downloads,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if file.Tags == nil {
		file.Tags = []string{}
	}
	if r.VerifiedBy.Valid {
		verifier := r.VerifiedBy.String
		file.VerifiedBy = &verifier
	}
	return file
}

type fileSummaryRow struct {
	ID          string         `db:"id"`
	Filename    string         `db:"filename"`
	Description string         `db:"description"`
	Tags        pq.StringArray `db:"tags"`
	Filetype    string         `db:"filetype"`
	Verified    bool           `db:"verified"`
	Downloads   int64          `db:"downloads"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// FileRepository provides database access for the file catalog.
type FileRepository struct {
	db *sqlx.DB
}

// NewFileRepository creates a new instance of FileRepository.
func NewFileRepository(db *sqlx.DB) *FileRepository {
	return &FileRepository{db: db}
}

// List returns one page of catalog entries, newest first.
func (r *FileRepository) List(ctx context.Context, filter models.FileFilter) ([]models.FileSummary, error) {
	where, args := buildFileFilter(filter)

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}
	offset, ok := models.Offset(filter.Page, pageSize)
	if !ok {
		return []models.FileSummary{}, nil
	}

	query := fmt.Sprintf("SELECT %s FROM files %s ORDER BY created_at DESC LIMIT %d OFFSET %d", fileSummaryColumns, where, pageSize, offset)

	var rows []fileSummaryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	files := make([]models.FileSummary, 0, len(rows))
	for _, row := range rows {
		tags := []string(row.Tags)
		if tags == nil {
			tags = []string{}
		}
		files = append(files, models.FileSummary{
			ID:          row.ID,
			Filename:    row.Filename,
			Description: row.Description,
			Tags:        tags,
			Filetype:    models.FileType(row.Filetype),
			Verified:    row.Verified,
			Downloads:   row.Downloads,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
		})
	}
	return files, nil
}

// Count returns the number of catalog entries matching filter.
func (r *FileRepository) Count(ctx context.Context, filter models.FileFilter) (int64, error) {
	where, args := buildFileFilter(filter)
	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM files "+where, args...); err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return total, nil
}

// FindByID returns the full record of a file.
func (r *FileRepository) FindByID(ctx context.Context, id string) (*models.File, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}
	const query = `SELECT ` + fileColumns + ` FROM files WHERE id = $1 LIMIT 1`
	var row fileRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find file: %w", err)
	}
	return row.toModel(), nil
}

// Create inserts a file record.
func (r *FileRepository) Create(ctx context.Context, file *models.File) error {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	file.CreatedAt = now
	file.UpdatedAt = now

	const query = `INSERT INTO files (id, filename, description, tags, filetype, download_urls, uploader_id, verified, verified_by, downloads, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.db.ExecContext(ctx, query,
		file.ID,
		file.Filename,
		file.Description,
		pq.Array(nonNil(file.Tags)),
		string(file.Filetype),
		pq.Array(file.DownloadURLs),
		file.UploaderID,
		file.Verified,
		file.VerifiedBy,
		file.Downloads,
		file.CreatedAt,
		file.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

// Update applies the set fields of changes and returns the stored record.
func (r *FileRepository) Update(ctx context.Context, id string, changes models.FileChanges) (*models.File, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}

	sets := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if changes.Filename != nil {
		add("filename", *changes.Filename)
	}
	if changes.Description != nil {
		add("description", *changes.Description)
	}
	if changes.Tags != nil {
		add("tags", pq.Array(changes.Tags))
	}
	if changes.Filetype != nil {
		add("filetype", string(*changes.Filetype))
	}
	if changes.DownloadURLs != nil {
		add("download_urls", pq.Array(changes.DownloadURLs))
	}
	if changes.Verified != nil {
		add("verified", *changes.Verified)
	}
	if changes.VerifiedBy != nil {
		add("verified_by", *changes.VerifiedBy)
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE files SET %s WHERE id = $%d RETURNING %s", strings.Join(sets, ", "), len(args), fileColumns)

	var row fileRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("update file: %w", err)
	}
	return row.toModel(), nil
}

// IncrementDownloads adds one to the download counter in a single statement
// and returns the new value.
func (r *FileRepository) IncrementDownloads(ctx context.Context, id string) (int64, error) {
	if _, err := uuid.Parse(id); err != nil {
		return 0, ErrInvalidID
	}
	const query = `UPDATE files SET downloads = COALESCE(downloads, 0) + 1, updated_at = $2 WHERE id = $1 RETURNING downloads`
	var downloads int64
	if err := r.db.GetContext(ctx, &downloads, query, id, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("increment downloads: %w", err)
	}
	return downloads, nil
}

// DeleteMany removes every file whose id is listed. A malformed id rejects the
// batch before the database is touched.
func (r *FileRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return 0, ErrInvalidID
		}
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete files: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete files: %w", err)
	}
	return affected, nil
}

func buildFileFilter(filter models.FileFilter) (string, []interface{}) {
	clauses := []string{"1=1"}
	args := []interface{}{}

	if !filter.IncludeUnverified {
		clauses = append(clauses, "verified = TRUE")
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(filename ILIKE $%[1]d OR description ILIKE $%[1]d OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE $%[1]d))", n))
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
