package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoEntry is the document shape stored per key.
type mongoEntry struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

// Mongo is a Storage backed by a MongoDB collection, one document per key.
// QuotaBytes bounds the size of each stored value.
type Mongo struct {
	coll       *mongo.Collection
	quotaBytes int
}

// NewMongo creates a Mongo store on the given collection.
func NewMongo(coll *mongo.Collection, quotaBytes int) *Mongo {
	return &Mongo{
		coll:       coll,
		quotaBytes: quotaBytes,
	}
}

// Get retrieves the value stored under key.
func (m *Mongo) Get(ctx context.Context, key string) (string, bool, error) {
	var entry mongoEntry
	err := m.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return entry.Value, true, nil
}

// Set upserts the value stored under key.
func (m *Mongo) Set(ctx context.Context, key, value string) error {
	if exceedsQuota(m.quotaBytes, value) {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrQuotaExceeded, len(value), m.quotaBytes)
	}

	_, err := m.coll.ReplaceOne(ctx,
		bson.M{"_id": key},
		mongoEntry{Key: key, Value: value},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to store value: %w", err)
	}
	return nil
}

// Remove deletes key.
func (m *Mongo) Remove(ctx context.Context, key string) error {
	if _, err := m.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("failed to delete value: %w", err)
	}
	return nil
}
