package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/fairu-api/internal/models"
	"github.com/noah-isme/fairu-api/internal/repository"
)

type mockContributorRepo struct {
	contributors map[string]*models.Contributor
	findErr      error
	createErr    error
	promoteErr   error
	promoted     []string
	created      []*models.Contributor
	banWrites    int
}

func newMockContributorRepo(contributors ...*models.Contributor) *mockContributorRepo {
	m := &mockContributorRepo{contributors: map[string]*models.Contributor{}}
	for _, c := range contributors {
		m.contributors[c.ID] = c
	}
	return m
}

func (m *mockContributorRepo) FindByID(ctx context.Context, id string) (*models.Contributor, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if id == "malformed" {
		return nil, repository.ErrInvalidID
	}
	if c, ok := m.contributors[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockContributorRepo) FindByEmail(ctx context.Context, email string) (*models.Contributor, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, c := range m.contributors {
		if strings.EqualFold(c.Email, email) {
			copy := *c
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockContributorRepo) List(ctx context.Context, page, pageSize int) ([]models.Contributor, error) {
	list := make([]models.Contributor, 0, len(m.contributors))
	for _, c := range m.contributors {
		list = append(list, *c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })
	start := page * pageSize
	if start >= len(list) {
		return []models.Contributor{}, nil
	}
	end := start + pageSize
	if end > len(list) {
		end = len(list)
	}
	return list[start:end], nil
}

func (m *mockContributorRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.contributors)), nil
}

func (m *mockContributorRepo) Create(ctx context.Context, contributor *models.Contributor) error {
	if m.createErr != nil {
		return m.createErr
	}
	contributor.ID = "new-" + contributor.Email
	contributor.CreatedAt = time.Now()
	copy := *contributor
	m.contributors[contributor.ID] = &copy
	m.created = append(m.created, &copy)
	return nil
}

func (m *mockContributorRepo) SetBanned(ctx context.Context, id string, banned bool) error {
	c, ok := m.contributors[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.banWrites++
	c.IsBanned = banned
	return nil
}

func (m *mockContributorRepo) SetAdmin(ctx context.Context, id string, admin bool) error {
	c, ok := m.contributors[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.IsAdmin = admin
	return nil
}

func (m *mockContributorRepo) PromoteSuperUser(ctx context.Context, email string) (bool, error) {
	if m.promoteErr != nil {
		return false, m.promoteErr
	}
	m.promoted = append(m.promoted, email)
	found := false
	for _, c := range m.contributors {
		c.IsSuperUser = strings.EqualFold(c.Email, email)
		found = found || c.IsSuperUser
	}
	return found, nil
}

type mockFileRepo struct {
	files       map[string]*models.File
	listCalls   int
	countCalls  int
	lastFilter  models.FileFilter
	lastChanges models.FileChanges
	createErr   error
	listErr     error
	deleted     []string
}

func newMockFileRepo(files ...*models.File) *mockFileRepo {
	m := &mockFileRepo{files: map[string]*models.File{}}
	for _, f := range files {
		m.files[f.ID] = f
	}
	return m
}

func (m *mockFileRepo) List(ctx context.Context, filter models.FileFilter) ([]models.FileSummary, error) {
	m.listCalls++
	m.lastFilter = filter
	if m.listErr != nil {
		return nil, m.listErr
	}
	matched := m.matching(filter)
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}
	start, ok := models.Offset(filter.Page, pageSize)
	out := []models.FileSummary{}
	if !ok || start >= len(matched) {
		return out, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	for _, f := range matched[start:end] {
		out = append(out, models.FileSummary{ID: f.ID, Filename: f.Filename, Description: f.Description, Tags: f.Tags,
			Filetype: f.Filetype, Verified: f.Verified, Downloads: f.Downloads, CreatedAt: f.CreatedAt})
	}
	return out, nil
}

func (m *mockFileRepo) Count(ctx context.Context, filter models.FileFilter) (int64, error) {
	m.countCalls++
	m.lastFilter = filter
	return int64(len(m.matching(filter))), nil
}

// matching mirrors the repositories: verified unless asked otherwise, and a
// case-insensitive substring match on filename, description or any tag.
func (m *mockFileRepo) matching(filter models.FileFilter) []*models.File {
	q := strings.ToLower(filter.Query)
	out := []*models.File{}
	for _, f := range m.files {
		if !filter.IncludeUnverified && !f.Verified {
			continue
		}
		if q != "" && !fileMatches(f, q) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func fileMatches(f *models.File, q string) bool {
	if strings.Contains(strings.ToLower(f.Filename), q) || strings.Contains(strings.ToLower(f.Description), q) {
		return true
	}
	for _, tag := range f.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func (m *mockFileRepo) FindByID(ctx context.Context, id string) (*models.File, error) {
	if id == "malformed" {
		return nil, repository.ErrInvalidID
	}
	if f, ok := m.files[id]; ok {
		copy := *f
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockFileRepo) Create(ctx context.Context, file *models.File) error {
	if m.createErr != nil {
		return m.createErr
	}
	file.ID = "file-new"
	copy := *file
	m.files[file.ID] = &copy
	return nil
}

func (m *mockFileRepo) Update(ctx context.Context, id string, changes models.FileChanges) (*models.File, error) {
	f, ok := m.files[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	m.lastChanges = changes
	if changes.Filename != nil {
		f.Filename = *changes.Filename
	}
	if changes.Description != nil {
		f.Description = *changes.Description
	}
	if changes.Tags != nil {
		f.Tags = changes.Tags
	}
	if changes.Filetype != nil {
		f.Filetype = *changes.Filetype
	}
	if changes.DownloadURLs != nil {
		f.DownloadURLs = changes.DownloadURLs
	}
	if changes.Verified != nil {
		f.Verified = *changes.Verified
	}
	if changes.VerifiedBy != nil {
		v := *changes.VerifiedBy
		f.VerifiedBy = &v
	}
	copy := *f
	return &copy, nil
}

func (m *mockFileRepo) IncrementDownloads(ctx context.Context, id string) (int64, error) {
	f, ok := m.files[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	f.Downloads++
	return f.Downloads, nil
}

func (m *mockFileRepo) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	for _, id := range ids {
		if id == "malformed" {
			return 0, repository.ErrInvalidID
		}
	}
	var deleted int64
	for _, id := range ids {
		if _, ok := m.files[id]; ok {
			delete(m.files, id)
			m.deleted = append(m.deleted, id)
			deleted++
		}
	}
	return deleted, nil
}

type mockCaptcha struct {
	err   error
	calls int
}

func (m *mockCaptcha) Verify(ctx context.Context, token, remoteIP string) error {
	m.calls++
	return m.err
}

type mockGoogle struct {
	identity *models.GoogleIdentity
	err      error
}

func (m *mockGoogle) Verify(ctx context.Context, token string) (*models.GoogleIdentity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.identity, nil
}
