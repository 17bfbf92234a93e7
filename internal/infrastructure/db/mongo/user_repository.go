package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/miralles/users-api/internal/core/domain"
)

const (
	usersCollection    = "users"
	countersCollection = "counters"
	usersSequence      = "users"
)

// UserRepository is the MongoDB User Store. Ids come from a counter document
// so they stay monotonic and are never handed out twice, deletes included.
type UserRepository struct {
	users    *mongo.Collection
	counters *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		users:    db.Collection(usersCollection),
		counters: db.Collection(countersCollection),
	}
}

type mongoUser struct {
	ID       int64  `bson:"_id"`
	Username string `bson:"username"`
	Email    string `bson:"email"`
	Password string `bson:"password_hash,omitempty"`
	IsAdmin  bool   `bson:"is_admin"`
}

type counter struct {
	Seq int64 `bson:"seq"`
}

// EnsureIndexes creates the email lookup index. It is deliberately not
// unique: uniqueness is the callers' policy.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (r *UserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	if user.IsNew() {
		id, err := r.nextID(ctx)
		if err != nil {
			return domain.User{}, err
		}
		user.ID = id
	} else if err := r.advance(ctx, user.ID); err != nil {
		return domain.User{}, err
	}

	_, err := r.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, toDocument(user), options.Replace().SetUpsert(true))
	if err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (domain.User, bool, error) {
	return r.findOne(ctx, bson.M{"_id": id}, options.FindOne())
}

func (r *UserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	cur, err := r.users.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, fromDocument(d))
	}
	return users, nil
}

func (r *UserRepository) DeleteByID(ctx context.Context, id int64) error {
	if _, err := r.users.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// FindByEmail matches exactly (no collation) and prefers the lowest id.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	return r.findOne(ctx, bson.M{"email": email}, opts)
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (domain.User, bool, error) {
	var doc mongoUser
	err := r.users.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, fmt.Errorf("find user: %w", err)
	}
	return fromDocument(doc), true, nil
}

func (r *UserRepository) nextID(ctx context.Context) (int64, error) {
	var c counter
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": usersSequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("next user id: %w", err)
	}
	return c.Seq, nil
}

// advance raises the counter to at least id so explicit ids are never
// handed out again.
func (r *UserRepository) advance(ctx context.Context, id int64) error {
	_, err := r.counters.UpdateOne(ctx,
		bson.M{"_id": usersSequence},
		bson.M{"$max": bson.M{"seq": id}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("advance user id: %w", err)
	}
	return nil
}

func toDocument(u domain.User) mongoUser {
	return mongoUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Password: u.Password,
		IsAdmin:  u.IsAdmin,
	}
}

func fromDocument(d mongoUser) domain.User {
	return domain.User{
		ID:       d.ID,
		Username: d.Username,
		Email:    d.Email,
		Password: d.Password,
		IsAdmin:  d.IsAdmin,
	}
}
