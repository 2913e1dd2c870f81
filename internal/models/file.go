package models

import "time"

// FileType enumerates the accepted file kinds.
type FileType string

const (
	FileTypePDF    FileType = "pdf"
	FileTypeDoc    FileType = "doc"
	FileTypePPTX   FileType = "pptx"
	FileTypeXLSX   FileType = "xlsx"
	FileTypeODF    FileType = "odf"
	FileTypeEPUB   FileType = "epub"
	FileTypeZip    FileType = "zip"
	FileTypeOthers FileType = "others"
)

// File limits enforced on create and update.
const (
	FilenameMinLength    = 5
	FilenameMaxLength    = 256
	DescriptionMaxLength = 400
	TagMinLength         = 2
	TagMaxLength         = 50
	MaxTags              = 256
	MinDownloadURLs      = 1
	MaxDownloadURLs      = 12
	DownloadURLMinLength = 5
	DownloadURLMaxLength = 1000
)

// File is a metadata record describing an externally hosted download.
type File struct {
	ID           string    `json:"_id"`
	Filename     string    `json:"filename"`
	Description  string    `json:"description,omitempty"`
	Tags         []string  `json:"tags"`
	Filetype     FileType  `json:"filetype"`
	DownloadURLs []string  `json:"downloadURLs"`
	UploaderID   string    `json:"uploaderID"`
	Verified     bool      `json:"verified"`
	VerifiedBy   *string   `json:"verifiedBy,omitempty"`
	Downloads    int64     `json:"downloads"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FileSummary is the public listing projection; it never carries the
// uploader or the download URLs.
type FileSummary struct {
	ID          string    `json:"_id"`
	Filename    string    `json:"filename"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags"`
	Filetype    FileType  `json:"filetype"`
	Verified    bool      `json:"verified"`
	Downloads   int64     `json:"downloads"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FileFilter selects catalog entries for listing, searching and counting.
type FileFilter struct {
	Query             string
	IncludeUnverified bool
	Page              int
	PageSize          int
}

// FileChanges lists the fields of a partial update. Nil means unchanged.
type FileChanges struct {
	Filename     *string
	Description  *string
	Tags         []string
	Filetype     *FileType
	DownloadURLs []string
	Verified     *bool
	VerifiedBy   *string
}

// Empty reports whether no field is set.
func (c FileChanges) Empty() bool {
	return c.Filename == nil && c.Description == nil && c.Tags == nil && c.Filetype == nil &&
		c.DownloadURLs == nil && c.Verified == nil && c.VerifiedBy == nil
}

// FileDetails is the role-sensitive detail view. Only moderators receive the
// URL list and the uploader and verifier identities.
type FileDetails struct {
	ID                 string          `json:"_id"`
	Filename           string          `json:"filename"`
	Description        string          `json:"description,omitempty"`
	Tags               []string        `json:"tags"`
	Filetype           FileType        `json:"filetype"`
	Verified           bool            `json:"verified"`
	Downloads          int64           `json:"downloads"`
	DownloadURLsLength int             `json:"downloadURLsLength"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
	DownloadURLs       []string        `json:"downloadURLs,omitempty"`
	Uploader           *ContributorRef `json:"uploader,omitempty"`
	Verifier           *ContributorRef `json:"verifier,omitempty"`
}

// DownloadLink is returned by a resolved download.
type DownloadLink struct {
	DownloadURL string `json:"downloadURL"`
	Downloads   int64  `json:"downloads"`
}

// DeleteResult summarises a bulk delete.
type DeleteResult struct {
	DeletedCount int64 `json:"deletedCount"`
}
