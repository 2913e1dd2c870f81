package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/noah-isme/fairu-api/internal/models"
	"github.com/noah-isme/fairu-api/internal/repository"
)

type contributorDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Username    string             `bson:"username"`
	Email       string             `bson:"email"`
	IsAdmin     bool               `bson:"isAdmin"`
	IsSuperUser bool               `bson:"isSuperUser"`
	IsBanned    bool               `bson:"isBanned"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d contributorDocument) toModel() *models.Contributor {
	return &models.Contributor{
		ID:          d.ID.Hex(),
		Username:    d.Username,
		Email:       d.Email,
		IsAdmin:     d.IsAdmin,
		IsSuperUser: d.IsSuperUser,
		IsBanned:    d.IsBanned,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type fileDocument struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty"`
	Filename     string              `bson:"filename"`
	Description  string              `bson:"description,omitempty"`
	Tags         []string            `bson:"tags"`
	Filetype     string              `bson:"filetype"`
	DownloadURLs []string            `bson:"downloadURLs,omitempty"`
	UploaderID   primitive.ObjectID  `bson:"uploaderID,omitempty"`
	Verified     bool                `bson:"verified"`
	VerifiedBy   *primitive.ObjectID `bson:"verifiedBy,omitempty"`
	Downloads    int64               `bson:"downloads,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt"`
}

func (d fileDocument) toModel() *models.File {
	file := &models.File{
		ID:           d.ID.Hex(),
		Filename:     d.Filename,
		Description:  d.Description,
		Tags:         d.Tags,
		Filetype:     models.FileType(d.Filetype),
		DownloadURLs: d.DownloadURLs,
		Verified:     d.Verified,
		Downloads:    d.Downloads,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if file.Tags == nil {
		file.Tags = []string{}
	}
	if !d.UploaderID.IsZero() {
		file.UploaderID = d.UploaderID.Hex()
	}
	if d.VerifiedBy != nil {
		verifier := d.VerifiedBy.Hex()
		file.VerifiedBy = &verifier
	}
	return file
}

func (d fileDocument) toSummary() models.FileSummary {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.FileSummary{
		ID:          d.ID.Hex(),
		Filename:    d.Filename,
		Description: d.Description,
		Tags:        tags,
		Filetype:    models.FileType(d.Filetype),
		Verified:    d.Verified,
		Downloads:   d.Downloads,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, repository.ErrInvalidID
	}
	return oid, nil
}
