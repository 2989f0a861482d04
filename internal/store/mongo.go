package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const cacheCollection = "cache"

// MongoStore implements Store with one document per key.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoEntry struct {
	Key        string    `bson:"_id"`
	Value      []byte    `bson:"value"`
	CapturedAt time.Time `bson:"capturedAt"`
}

// NewMongo connects to uri and uses the cache collection of database.
func NewMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctxWithTimeout, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if err := client.Ping(ctxWithTimeout, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(cacheCollection),
	}, nil
}

func (m *MongoStore) Save(ctx context.Context, key string, e Entry) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	doc := mongoEntry{Key: key, Value: e.Value, CapturedAt: e.CapturedAt.UTC()}
	_, err := m.coll.ReplaceOne(ctxWithTimeout, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

func (m *MongoStore) Load(ctx context.Context, key string) (Entry, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc mongoEntry
	err := m.coll.FindOne(ctxWithTimeout, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	return Entry{Value: doc.Value, CapturedAt: doc.CapturedAt.UTC()}, nil
}

func (m *MongoStore) Delete(ctx context.Context, key string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := m.coll.DeleteOne(ctxWithTimeout, bson.M{"_id": key})
	return err
}

// Close closes mongo db connection.
func (m *MongoStore) Close() error {
	if err := m.client.Disconnect(context.TODO()); err != nil {
		return fmt.Errorf("failed to disconnect from mongodb: %w", err)
	}
	return nil
}
