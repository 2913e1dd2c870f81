package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/fairu-api/internal/models"
	"github.com/noah-isme/fairu-api/internal/repository"
	"github.com/noah-isme/fairu-api/pkg/database"
)

// listProjection hides the uploader and the download URLs from listings.
var listProjection = bson.M{"uploaderID": 0, "downloadURLs": 0, "verifiedBy": 0}

// FileRepository stores the file catalog in MongoDB.
type FileRepository struct {
	collection *mongo.Collection
}

// NewFileRepository creates a new instance of FileRepository.
func NewFileRepository(db *mongo.Database) *FileRepository {
	return &FileRepository{collection: db.Collection(database.FilesCollection)}
}

// List returns one page of catalog entries, newest first.
func (r *FileRepository) List(ctx context.Context, filter models.FileFilter) ([]models.FileSummary, error) {
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}
	offset, ok := models.Offset(filter.Page, pageSize)
	if !ok {
		return []models.FileSummary{}, nil
	}

	opts := options.Find().
		SetProjection(listProjection).
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(pageSize))

	cursor, err := r.collection.Find(ctx, buildFileFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []fileDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode files: %w", err)
	}

	files := make([]models.FileSummary, 0, len(docs))
	for _, doc := range docs {
		files = append(files, doc.toSummary())
	}
	return files, nil
}

// Count returns the number of catalog entries matching filter.
func (r *FileRepository) Count(ctx context.Context, filter models.FileFilter) (int64, error) {
	total, err := r.collection.CountDocuments(ctx, buildFileFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return total, nil
}

// FindByID returns the full record of a file.
func (r *FileRepository) FindByID(ctx context.Context, id string) (*models.File, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var doc fileDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find file: %w", err)
	}
	return doc.toModel(), nil
}

// Create inserts a file record and assigns its id.
func (r *FileRepository) Create(ctx context.Context, file *models.File) error {
	uploader, err := parseID(file.UploaderID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	file.CreatedAt = now
	file.UpdatedAt = now

	doc := fileDocument{
		ID:           primitive.NewObjectID(),
		Filename:     file.Filename,
		Description:  file.Description,
		Tags:         file.Tags,
		Filetype:     string(file.Filetype),
		DownloadURLs: file.DownloadURLs,
		UploaderID:   uploader,
		Verified:     file.Verified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("create file: %w", err)
	}
	file.ID = doc.ID.Hex()
	return nil
}

// Update applies the set fields of changes and returns the stored record.
func (r *FileRepository) Update(ctx context.Context, id string, changes models.FileChanges) (*models.File, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if changes.Filename != nil {
		set["filename"] = *changes.Filename
	}
	if changes.Description != nil {
		set["description"] = *changes.Description
	}
	if changes.Tags != nil {
		set["tags"] = changes.Tags
	}
	if changes.Filetype != nil {
		set["filetype"] = string(*changes.Filetype)
	}
	if changes.DownloadURLs != nil {
		set["downloadURLs"] = changes.DownloadURLs
	}
	if changes.Verified != nil {
		set["verified"] = *changes.Verified
	}
	if changes.VerifiedBy != nil {
		verifier, err := parseID(*changes.VerifiedBy)
		if err != nil {
			return nil, err
		}
		set["verifiedBy"] = verifier
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc fileDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("update file: %w", err)
	}
	return doc.toModel(), nil
}

// IncrementDownloads adds one to the download counter atomically and returns
// the new value. A missing counter starts at zero.
func (r *FileRepository) IncrementDownloads(ctx context.Context, id string) (int64, error) {
	oid, err := parseID(id)
	if err != nil {
		return 0, err
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"downloads": 1})

	var doc struct {
		Downloads int64 `bson:"downloads"`
	}
	update := bson.M{"$inc": bson.M{"downloads": 1}, "$set": bson.M{"updatedAt": time.Now().UTC()}}
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("increment downloads: %w", err)
	}
	return doc.Downloads, nil
}

// DeleteMany removes every file whose id is listed. A malformed id rejects the
// batch before the database is touched.
func (r *FileRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := parseID(id)
		if err != nil {
			return 0, err
		}
		oids = append(oids, oid)
	}

	res, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return 0, fmt.Errorf("delete files: %w", err)
	}
	return res.DeletedCount, nil
}

// buildFileFilter matches the query literally and case-insensitively against
// the filename, any tag or the description.
func buildFileFilter(filter models.FileFilter) bson.M {
	query := bson.M{}
	if !filter.IncludeUnverified {
		query["verified"] = true
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"filename": pattern},
			bson.M{"tags": pattern},
			bson.M{"description": pattern},
		}
	}
	return query
}
