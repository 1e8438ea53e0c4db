// Package mongo stores slots as documents of a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aretw0/itt/pkg/core"
)

// DefaultCollection is the collection slots are stored in.
const DefaultCollection = "kv_slots"

// slotDocument is the stored shape of one slot.
type slotDocument struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	Version   int64     `bson:"version"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// KV implements core.Versioned on a MongoDB collection, one document per key.
type KV struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// Connect opens a client for uri and checks it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return client, nil
}

// NewKV creates a KV on the given collection of db.
func NewKV(db *mongo.Database, collection string, logger *slog.Logger) *KV {
	if collection == "" {
		collection = DefaultCollection
	}
	return &KV{
		collection: db.Collection(collection),
		logger:     logger,
	}
}

// Initialize pings the server. Documents are keyed by _id so no index is needed.
func (k *KV) Initialize(ctx context.Context) error {
	if err := k.collection.Database().Client().Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return nil
}

func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	value, _, found, err := k.GetVersioned(ctx, key)
	return value, found, err
}

// Set writes value unconditionally and bumps the version.
func (k *KV) Set(ctx context.Context, key, value string) error {
	update := bson.M{
		"$set": bson.M{"value": value, "updatedAt": time.Now().UTC()},
		"$inc": bson.M{"version": int64(1)},
	}
	_, err := k.collection.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	return nil
}

func (k *KV) GetVersioned(ctx context.Context, key string) (string, int64, bool, error) {
	var doc slotDocument
	err := k.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	return doc.Value, doc.Version, true, nil
}

// CompareAndSet inserts the slot when version is 0 and otherwise updates it
// only while its stored version still equals version.
func (k *KV) CompareAndSet(ctx context.Context, key, value string, version int64) error {
	now := time.Now().UTC()

	if version == 0 {
		_, err := k.collection.InsertOne(ctx, slotDocument{Key: key, Value: value, Version: 1, UpdatedAt: now})
		if mongo.IsDuplicateKeyError(err) {
			return core.ErrConflict
		}
		if err != nil {
			return fmt.Errorf("failed to insert slot %s: %w", key, err)
		}
		return nil
	}

	filter := bson.M{"_id": key, "version": version}
	update := bson.M{"$set": bson.M{"value": value, "version": version + 1, "updatedAt": now}}
	result, err := k.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update slot %s: %w", key, err)
	}
	if result.MatchedCount == 0 {
		if k.logger != nil {
			k.logger.Debug("stale slot version", "key", key, "version", version)
		}
		return core.ErrConflict
	}
	return nil
}

// ComponentType implements introspection.Component.
func (k *KV) ComponentType() string {
	return "mongo"
}

var (
	_ core.Versioned   = (*KV)(nil)
	_ core.Initializer = (*KV)(nil)
)
