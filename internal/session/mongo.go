package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoSession struct {
	ID      string         `bson:"_id"`
	Session map[string]any `bson:"session"`
	Expires time.Time      `bson:"expires"`
}

// MongoBackend はセッションを MongoDB の sessions コレクションに保存します。
// 期限切れドキュメントの削除は expires の TTL インデックスで行い、読み込み時にも期限を確認します。
type MongoBackend struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoBackend は MongoBackend を作成します。
func NewMongoBackend(coll *mongo.Collection) *MongoBackend {
	return &MongoBackend{coll: coll, now: time.Now}
}

// EnsureIndexes は expires の TTL インデックスを作成します。
func (b *MongoBackend) EnsureIndexes(ctx context.Context) error {
	_, err := b.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires", Value: 1}},
		Options: options.Index().SetName("expires_ttl").SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("failed to create session ttl index: %w", err)
	}
	return nil
}

func (b *MongoBackend) Get(ctx context.Context, id string) (map[string]any, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	filter := bson.M{
		"_id":     id,
		"expires": bson.M{"$gt": b.now().UTC()},
	}
	var doc mongoSession
	if err := b.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo find session: %w", err)
	}
	if doc.Session == nil {
		doc.Session = map[string]any{}
	}
	return doc.Session, nil
}

func (b *MongoBackend) Set(ctx context.Context, id string, values map[string]any, ttl time.Duration) error {
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	doc := mongoSession{
		ID:      id,
		Session: values,
		Expires: b.now().UTC().Add(ttl),
	}
	_, err := b.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo save session: %w", err)
	}
	return nil
}

func (b *MongoBackend) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if _, err := b.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongo delete session: %w", err)
	}
	return nil
}
