package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/fairu-api/pkg/config"
)

// Mongo collection names.
const (
	ContributorsCollection = "contributors"
	FilesCollection        = "files"
)

// caseInsensitive collation used by the unique indexes and lookups.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

// NewMongo connects to MongoDB and returns the configured database handle.
func NewMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout))
	if err != nil {
		return nil, nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	return client, client.Database(cfg.Database), nil
}

// MigrateMongo creates the unique and listing indexes.
func MigrateMongo(ctx context.Context, db *mongo.Database) error {
	contributorIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetCollation(caseInsensitive)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetCollation(caseInsensitive)},
	}
	if _, err := db.Collection(ContributorsCollection).Indexes().CreateMany(ctx, contributorIndexes); err != nil {
		return fmt.Errorf("create contributor indexes: %w", err)
	}

	fileIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "filename", Value: 1}}, Options: options.Index().SetUnique(true).SetCollation(caseInsensitive)},
		{Keys: bson.D{{Key: "verified", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	if _, err := db.Collection(FilesCollection).Indexes().CreateMany(ctx, fileIndexes); err != nil {
		return fmt.Errorf("create file indexes: %w", err)
	}
	return nil
}
