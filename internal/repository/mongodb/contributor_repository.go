package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/fairu-api/internal/models"
	"github.com/noah-isme/fairu-api/internal/repository"
	"github.com/noah-isme/fairu-api/pkg/database"
)

var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

// ContributorRepository stores contributors in MongoDB.
type ContributorRepository struct {
	collection *mongo.Collection
}

// NewContributorRepository creates a new instance of ContributorRepository.
func NewContributorRepository(db *mongo.Database) *ContributorRepository {
	return &ContributorRepository{collection: db.Collection(database.ContributorsCollection)}
}

// FindByID returns a contributor by identifier.
func (r *ContributorRepository) FindByID(ctx context.Context, id string) (*models.Contributor, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid}, options.FindOne())
}

// FindByEmail returns a contributor by email address, ignoring case.
func (r *ContributorRepository) FindByEmail(ctx context.Context, email string) (*models.Contributor, error) {
	return r.findOne(ctx, bson.M{"email": email}, options.FindOne().SetCollation(caseInsensitive))
}

func (r *ContributorRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*models.Contributor, error) {
	var doc contributorDocument
	if err := r.collection.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find contributor: %w", err)
	}
	return doc.toModel(), nil
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

	opts := options.Find().
		SetSort(bson.D{{Key: "username", Value: 1}}).
		SetCollation(caseInsensitive).
		SetSkip(int64(offset)).
		SetLimit(int64(pageSize))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list contributors: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []contributorDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode contributors: %w", err)
	}

	contributors := make([]models.Contributor, 0, len(docs))
	for _, doc := range docs {
		contributors = append(contributors, *doc.toModel())
	}
	return contributors, nil
}

// Count returns the number of contributors.
func (r *ContributorRepository) Count(ctx context.Context) (int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count contributors: %w", err)
	}
	return total, nil
}

// Create inserts a new contributor and assigns its id.
func (r *ContributorRepository) Create(ctx context.Context, contributor *models.Contributor) error {
	now := time.Now().UTC()
	if contributor.CreatedAt.IsZero() {
		contributor.CreatedAt = now
	}
	contributor.UpdatedAt = now

	doc := contributorDocument{
		ID:          primitive.NewObjectID(),
		Username:    contributor.Username,
		Email:       contributor.Email,
		IsAdmin:     contributor.IsAdmin,
		IsSuperUser: contributor.IsSuperUser,
		IsBanned:    contributor.IsBanned,
		CreatedAt:   contributor.CreatedAt,
		UpdatedAt:   contributor.UpdatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("create contributor: %w", err)
	}
	contributor.ID = doc.ID.Hex()
	return nil
}

// SetBanned stores the ban flag of a contributor.
func (r *ContributorRepository) SetBanned(ctx context.Context, id string, banned bool) error {
	return r.setFlag(ctx, "isBanned", id, banned)
}

// SetAdmin stores the admin flag of a contributor.
func (r *ContributorRepository) SetAdmin(ctx context.Context, id string, admin bool) error {
	return r.setFlag(ctx, "isAdmin", id, admin)
}

func (r *ContributorRepository) setFlag(ctx context.Context, field, id string, value bool) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.collection.UpdateByID(ctx, oid, bson.M{"$set": bson.M{field: value, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("update contributor %s: %w", field, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// PromoteSuperUser marks the contributor owning email as the superuser and
// clears the flag everywhere else. It reports whether a contributor matched.
// Other superusers are demoted before the target is promoted, so a failure
// part way leaves no superuser rather than two; the next call repairs it.
func (r *ContributorRepository) PromoteSuperUser(ctx context.Context, email string) (bool, error) {
	var target contributorDocument
	err := r.collection.FindOne(ctx, bson.M{"email": email}, options.FindOne().SetCollation(caseInsensitive)).Decode(&target)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("find superuser: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.collection.UpdateMany(ctx,
		bson.M{"isSuperUser": true, "_id": bson.M{"$ne": target.ID}},
		bson.M{"$set": bson.M{"isSuperUser": false, "updatedAt": now}},
	)
	if err != nil {
		return false, fmt.Errorf("demote previous superuser: %w", err)
	}

	res, err := r.collection.UpdateByID(ctx, target.ID, bson.M{"$set": bson.M{"isSuperUser": true, "updatedAt": now}})
	if err != nil {
		return false, fmt.Errorf("promote superuser: %w", err)
	}
	return res.MatchedCount > 0, nil
}
