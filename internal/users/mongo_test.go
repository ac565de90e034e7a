package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert assigns id and default type", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u, err := repo.Insert(context.Background(), &User{Name: "Ann", Email: "ann@x.com", Password: "hash"})
		require.NoError(mt, err)
		assert.Len(mt, u.ID, 24)
		assert.Equal(mt, TypeUser, u.UserType)
		assert.Equal(mt, "hash", u.Password)
	})

	mt.Run("insert error is wrapped", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key",
		}))

		_, err := repo.Insert(context.Background(), &User{Email: "ann@x.com"})
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "db error")
	})

	mt.Run("find by email decodes all matches", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.Coll)
		created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		first := mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "name", Value: "Ann"},
				{Key: "email", Value: "ann@x.com"},
				{Key: "password", Value: "hash"},
				{Key: "user_type", Value: "admin"},
				{Key: "created_at", Value: created},
			},
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "name", Value: "Ann again"},
				{Key: "email", Value: "ann@x.com"},
				{Key: "password", Value: "hash2"},
				{Key: "user_type", Value: "bogus"},
			},
		)
		mt.AddMockResponses(first)

		found, err := repo.FindByEmail(context.Background(), "ann@x.com")
		require.NoError(mt, err)
		require.Len(mt, found, 2)
		assert.Equal(mt, TypeAdmin, found[0].UserType)
		assert.True(mt, created.Equal(found[0].CreatedAt))
		assert.Equal(mt, TypeUser, found[1].UserType)
	})

	mt.Run("find by email with no matches", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch))

		found, err := repo.FindByEmail(context.Background(), "nobody@x.com")
		require.NoError(mt, err)
		assert.Empty(mt, found)
	})

	mt.Run("set type returns matched count", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 2},
			bson.E{Key: "nModified", Value: 1},
		))

		n, err := repo.SetType(context.Background(), "ann@x.com", TypeAdmin)
		require.NoError(mt, err)
		assert.EqualValues(mt, 2, n)
	})

	mt.Run("set type rejects unknown type without a round trip", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.Coll)
		_, err := repo.SetType(context.Background(), "ann@x.com", Type("root"))
		assert.ErrorIs(mt, err, ErrInvalidType)
	})

	mt.Run("command error surfaces", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 13, Name: "Unauthorized", Message: "not authorized",
		}))

		_, err := repo.List(context.Background())
		require.Error(mt, err)
		var cmdErr mongo.CommandError
		assert.ErrorAs(mt, err, &cmdErr)
	})
}
