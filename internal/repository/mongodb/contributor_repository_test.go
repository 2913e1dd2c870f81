package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/noah-isme/fairu-api/internal/models"
	"github.com/noah-isme/fairu-api/internal/repository"
)

func TestContributorRepositoryWithMockDeployment(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find by email", func(mt *mtest.T) {
		repo := NewContributorRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "fairu.contributors", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "username", Value: "alice"},
			{Key: "email", Value: "alice@example.com"},
			{Key: "isAdmin", Value: true},
			{Key: "createdAt", Value: time.Now()},
		}))

		contributor, err := repo.FindByEmail(context.Background(), "ALICE@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), contributor.ID)
		assert.True(mt, contributor.IsAdmin)
		assert.False(mt, contributor.IsSuperUser)
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		repo := NewContributorRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}))

		err := repo.Create(context.Background(), &models.Contributor{Username: "alice", Email: "alice@example.com"})
		assert.ErrorIs(mt, err, repository.ErrDuplicate)
	})

	mt.Run("set banned on unknown contributor", func(mt *mtest.T) {
		repo := NewContributorRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.SetBanned(context.Background(), primitive.NewObjectID().Hex(), true)
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("promote superuser without account", func(mt *mtest.T) {
		repo := NewContributorRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "fairu.contributors", mtest.FirstBatch))

		promoted, err := repo.PromoteSuperUser(context.Background(), "owner@example.com")
		require.NoError(mt, err)
		assert.False(mt, promoted)
		assert.Equal(mt, []string{"find"}, commandNames(mt))
	})

	mt.Run("promote superuser demotes others before promoting", func(mt *mtest.T) {
		repo := NewContributorRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "fairu.contributors", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "username", Value: "owner"},
				{Key: "email", Value: "owner@example.com"},
			}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		promoted, err := repo.PromoteSuperUser(context.Background(), "Owner@Example.com")
		require.NoError(mt, err)
		assert.True(mt, promoted)

		events := dataEvents(mt)
		require.Len(mt, events, 3)
		assert.False(mt, events[1].Command.Lookup("updates", "0", "u", "$set", "isSuperUser").Boolean())
		assert.True(mt, events[2].Command.Lookup("updates", "0", "u", "$set", "isSuperUser").Boolean())
	})

	mt.Run("promote superuser stops when demotion fails", func(mt *mtest.T) {
		repo := NewContributorRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "fairu.contributors", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "email", Value: "owner@example.com"},
			}),
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 91, Name: "ShutdownInProgress", Message: "shutting down"}),
		)

		promoted, err := repo.PromoteSuperUser(context.Background(), "owner@example.com")
		require.Error(mt, err)
		assert.False(mt, promoted)
		assert.Equal(mt, []string{"find", "update"}, commandNames(mt))
	})

	mt.Run("list orders usernames ignoring case", func(mt *mtest.T) {
		repo := NewContributorRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "fairu.contributors", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "username", Value: "alice"}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "username", Value: "Zed"}},
		))

		list, err := repo.List(context.Background(), 1, models.DefaultPageSize)
		require.NoError(mt, err)
		require.Len(mt, list, 2)

		events := dataEvents(mt)
		require.Len(mt, events, 1)
		find := events[0].Command
		assert.Equal(mt, int32(2), find.Lookup("collation", "strength").Int32())
		assert.Equal(mt, "en", find.Lookup("collation", "locale").StringValue())
		assert.Equal(mt, int64(models.DefaultPageSize), find.Lookup("skip").AsInt64())
	})

	mt.Run("list beyond offset range skips the query", func(mt *mtest.T) {
		repo := NewContributorRepository(mt.DB)

		list, err := repo.List(context.Background(), 461168601842738791, models.DefaultPageSize)
		require.NoError(mt, err)
		assert.Empty(mt, list)
		assert.Empty(mt, dataEvents(mt))
	})
}

// dataEvents drops connection handshakes from the recorded commands.
func dataEvents(mt *mtest.T) []*event.CommandStartedEvent {
	var out []*event.CommandStartedEvent
	for _, e := range mt.GetAllStartedEvents() {
		switch e.CommandName {
		case "hello", "isMaster", "ismaster", "endSessions":
			continue
		}
		out = append(out, e)
	}
	return out
}

func commandNames(mt *mtest.T) []string {
	names := []string{}
	for _, e := range dataEvents(mt) {
		names = append(names, e.CommandName)
	}
	return names
}

func TestContributorRepositoryRejectsMalformedID(t *testing.T) {
	repo := &ContributorRepository{}
	_, err := repo.FindByID(context.Background(), "not-an-object-id")
	assert.ErrorIs(t, err, repository.ErrInvalidID)
}
