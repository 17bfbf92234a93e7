package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/miralles/users-api/internal/core/domain"
	"github.com/miralles/users-api/internal/core/ports"
)

var _ ports.UserRepository = (*UserRepository)(nil)

func TestDocumentMapping_RoundTrip(t *testing.T) {
	u := domain.User{ID: 3, Username: "admin", Email: "admin@example.com", Password: "hash", IsAdmin: true}

	raw, err := bson.Marshal(toDocument(u))
	require.NoError(t, err)

	var doc mongoUser
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, u, fromDocument(doc))
}

func TestDocumentMapping_FieldNames(t *testing.T) {
	raw, err := bson.Marshal(toDocument(domain.User{ID: 9, Email: "a@example.com"}))
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.Equal(t, int64(9), m["_id"])
	assert.Equal(t, "a@example.com", m["email"])
	assert.NotContains(t, m, "password_hash", "empty hashes are not stored")
}

func TestConnect_Unreachable(t *testing.T) {
	_, _, err := Connect(context.Background(), Config{
		URI:      "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200",
		Database: "users_api_test",
		Timeout:  500 * time.Millisecond,
	})
	assert.Error(t, err)
}

func TestUserRepository_MockDeployment(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := mtest.TestDb + "." + usersCollection

	mt.Run("save new user draws id from counter", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{{Key: "_id", Value: usersSequence}, {Key: "seq", Value: int64(7)}}}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: int64(7)}}}}),
		)

		got, err := repo.Save(context.Background(), domain.NewUser("alice", "alice@example.com"))
		require.NoError(mt, err)
		assert.Equal(mt, int64(7), got.ID)

		inc := mt.GetStartedEvent()
		require.NotNil(mt, inc)
		assert.Equal(mt, "findAndModify", inc.CommandName)
		assert.Equal(mt, countersCollection, inc.Command.Lookup("findAndModify").StringValue())
		assert.Equal(mt, int64(1), inc.Command.Lookup("update", "$inc", "seq").AsInt64())
		assert.True(mt, inc.Command.Lookup("upsert").Boolean())

		replace := mt.GetStartedEvent()
		require.NotNil(mt, replace)
		assert.Equal(mt, "update", replace.CommandName)
		assert.Equal(mt, int64(7), replace.Command.Lookup("updates", "0", "q", "_id").AsInt64())
		assert.Equal(mt, "alice@example.com", replace.Command.Lookup("updates", "0", "u", "email").StringValue())
		assert.True(mt, replace.Command.Lookup("updates", "0", "upsert").Boolean())
	})

	mt.Run("save explicit id raises counter", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		u := domain.NewUser("bob", "bob@example.com")
		u.ID = 42
		got, err := repo.Save(context.Background(), u)
		require.NoError(mt, err)
		assert.Equal(mt, int64(42), got.ID)

		bump := mt.GetStartedEvent()
		require.NotNil(mt, bump)
		assert.Equal(mt, "update", bump.CommandName)
		assert.Equal(mt, countersCollection, bump.Command.Lookup("update").StringValue())
		assert.Equal(mt, usersSequence, bump.Command.Lookup("updates", "0", "q", "_id").StringValue())
		assert.Equal(mt, int64(42), bump.Command.Lookup("updates", "0", "u", "$max", "seq").AsInt64())
		assert.True(mt, bump.Command.Lookup("updates", "0", "upsert").Boolean())

		replace := mt.GetStartedEvent()
		require.NotNil(mt, replace)
		assert.Equal(mt, usersCollection, replace.Command.Lookup("update").StringValue())
		assert.Equal(mt, int64(42), replace.Command.Lookup("updates", "0", "q", "_id").AsInt64())
	})

	mt.Run("counter failure aborts save", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 2, Name: "BadValue", Message: "bad counter",
		}))

		_, err := repo.Save(context.Background(), domain.NewUser("carol", "carol@example.com"))
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "next user id")
		assert.Equal(mt, "findAndModify", mt.GetStartedEvent().CommandName)
		assert.Nil(mt, mt.GetStartedEvent(), "no user write after a failed counter bump")
	})

	mt.Run("find by id absent", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, found, err := repo.FindByID(context.Background(), 99)
		require.NoError(mt, err)
		assert.False(mt, found)
	})

	mt.Run("find by email sorts by id", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: int64(2)},
			{Key: "username", Value: "a+b"},
			{Key: "email", Value: "a+b@example.com"},
			{Key: "password_hash", Value: "hash"},
			{Key: "is_admin", Value: false},
		}))

		got, found, err := repo.FindByEmail(context.Background(), "a+b@example.com")
		require.NoError(mt, err)
		require.True(mt, found)
		assert.Equal(mt, domain.User{ID: 2, Username: "a+b", Email: "a+b@example.com", Password: "hash"}, got)

		find := mt.GetStartedEvent()
		require.NotNil(mt, find)
		assert.Equal(mt, "find", find.CommandName)
		assert.Equal(mt, "a+b@example.com", find.Command.Lookup("filter", "email").StringValue())
		assert.Equal(mt, int64(1), find.Command.Lookup("sort", "_id").AsInt64())
	})

	mt.Run("find all decodes every document", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: int64(1)}, {Key: "username", Value: "admin"}, {Key: "email", Value: "admin@example.com"}, {Key: "is_admin", Value: true}},
			bson.D{{Key: "_id", Value: int64(3)}, {Key: "username", Value: "dave"}, {Key: "email", Value: "dave@example.com"}, {Key: "is_admin", Value: false}},
		))

		users, err := repo.FindAll(context.Background())
		require.NoError(mt, err)
		require.Len(mt, users, 2)
		assert.Equal(mt, int64(1), users[0].ID)
		assert.True(mt, users[0].IsAdmin)
		assert.Equal(mt, "dave", users[1].Username)

		find := mt.GetStartedEvent()
		require.NotNil(mt, find)
		assert.Equal(mt, int64(1), find.Command.Lookup("sort", "_id").AsInt64())
	})

	mt.Run("delete by id", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, repo.DeleteByID(context.Background(), 5))

		del := mt.GetStartedEvent()
		require.NotNil(mt, del)
		assert.Equal(mt, "delete", del.CommandName)
		assert.Equal(mt, int64(5), del.Command.Lookup("deletes", "0", "q", "_id").AsInt64())
	})

	mt.Run("server error is wrapped", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 13, Name: "Unauthorized", Message: "not authorized",
		}))

		_, err := repo.FindAll(context.Background())
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "find users")
	})
}
