package users

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoUser は users コレクションのドキュメント形式です。
type mongoUser struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	UserType  string             `bson:"user_type"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d *mongoUser) toUser() *User {
	userType := Type(d.UserType)
	if !userType.Valid() {
		userType = TypeUser
	}
	return &User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Password:  d.Password,
		UserType:  userType,
		CreatedAt: d.CreatedAt,
	}
}

// MongoRepository は MongoDB の users コレクションを使う Repository 実装です。
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository は MongoRepository を作成します。
func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

// EnsureIndexes は email の検索用インデックスを作成します。
// email の一意性は保証しないため unique 指定はしません。
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("email_1"),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

func (r *MongoRepository) Insert(ctx context.Context, user *User) (*User, error) {
	if user == nil {
		return nil, fmt.Errorf("user is nil")
	}
	doc := mongoUser{
		Name:      user.Name,
		Email:     user.Email,
		Password:  user.Password,
		UserType:  string(user.UserType),
		CreatedAt: user.CreatedAt,
	}
	if doc.UserType == "" {
		doc.UserType = string(TypeUser)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toUser(), nil
}

func (r *MongoRepository) FindByEmail(ctx context.Context, email string) ([]*User, error) {
	return r.find(ctx, bson.M{"email": email}, nil)
}

func (r *MongoRepository) List(ctx context.Context) ([]*User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"password": 0})
	return r.find(ctx, bson.M{}, opts)
}

func (r *MongoRepository) SetType(ctx context.Context, email string, userType Type) (int64, error) {
	if !userType.Valid() {
		return 0, ErrInvalidType
	}
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"user_type": string(userType)}},
	)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.MatchedCount, nil
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*User, error) {
	var (
		cur *mongo.Cursor
		err error
	)
	if opts != nil {
		cur, err = r.coll.Find(ctx, filter, opts)
	} else {
		cur, err = r.coll.Find(ctx, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	out := make([]*User, len(docs))
	for i := range docs {
		out[i] = docs[i].toUser()
	}
	return out, nil
}
