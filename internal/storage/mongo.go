package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Default MongoDB names.
const (
	DefaultMongoDatabase   = "moodbrain"
	DefaultMongoCollection = "feedback"
)

// MongoStore implements FeedbackStore on a MongoDB collection.
type MongoStore struct {
	uri            string
	databaseName   string
	collectionName string
	logger         *zap.Logger

	mu         sync.RWMutex
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore returns a store for database/collection at uri. Empty names use
// the defaults. No connection is made until Init.
func NewMongoStore(uri, database, collection string, logger *zap.Logger) *MongoStore {
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MongoStore{
		uri:            uri,
		databaseName:   database,
		collectionName: collection,
		logger:         logger,
	}
}

// Init connects, pings the primary and creates the submittedAt index.
func (m *MongoStore) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(m.uri).
		SetMaxPoolSize(20).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return &PersistenceError{Op: "init", Err: fmt.Errorf("failed to connect to MongoDB: %w", err)}
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return &PersistenceError{Op: "init", Err: fmt.Errorf("failed to ping MongoDB: %w", err)}
	}

	collection := client.Database(m.databaseName).Collection(m.collectionName)
	if _, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "submittedAt", Value: 1}, {Key: "_id", Value: 1}}},
	}); err != nil {
		_ = client.Disconnect(context.Background())
		return &PersistenceError{Op: "init", Err: fmt.Errorf("failed to create feedback indexes: %w", err)}
	}

	m.client = client
	m.collection = collection
	m.logger.Info("Connected to MongoDB feedback store",
		zap.String("database", m.databaseName),
		zap.String("collection", m.collectionName))
	return nil
}

func (m *MongoStore) coll(op string) (*mongo.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.collection == nil {
		return nil, &PersistenceError{Op: op, Err: ErrStoreUnavailable}
	}
	return m.collection, nil
}

// AppendFeedback inserts one record.
func (m *MongoStore) AppendFeedback(ctx context.Context, rec FeedbackRecord) error {
	coll, err := m.coll("append")
	if err != nil {
		return err
	}

	rec.SubmittedAt = rec.SubmittedAt.UTC()
	if _, err := coll.InsertOne(ctx, rec); err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}
	return nil
}

// PendingFeedback returns all records, oldest first.
func (m *MongoStore) PendingFeedback(ctx context.Context) ([]FeedbackRecord, error) {
	coll, err := m.coll("read")
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, &PersistenceError{Op: "read", Err: err}
	}
	defer cursor.Close(ctx)

	var records []FeedbackRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, &PersistenceError{Op: "read", Err: err}
	}
	return records, nil
}

// DeleteFeedback removes the records with the given IDs.
func (m *MongoStore) DeleteFeedback(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	coll, err := m.coll("delete")
	if err != nil {
		return 0, err
	}

	result, err := coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, &PersistenceError{Op: "delete", Err: err}
	}
	return int(result.DeletedCount), nil
}

// CountFeedback returns the number of pending records.
func (m *MongoStore) CountFeedback(ctx context.Context) (int, error) {
	coll, err := m.coll("count")
	if err != nil {
		return 0, err
	}

	n, err := coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, &PersistenceError{Op: "count", Err: err}
	}
	return int(n), nil
}

// Close disconnects the client.
func (m *MongoStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := m.client.Disconnect(ctx)
	m.client = nil
	m.collection = nil
	if err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	return nil
}
