package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Backend names accepted by Open.
const (
	BackendSQLite  = "sqlite"
	BackendMongoDB = "mongodb"
)

// Options selects and configures a feedback store backend.
type Options struct {
	Backend         string
	SQLitePath      string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	Logger          *zap.Logger
}

// Open builds the configured backend and initializes it.
func Open(ctx context.Context, opts Options) (FeedbackStore, error) {
	var store FeedbackStore
	switch opts.Backend {
	case "", BackendSQLite:
		if opts.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite feedback store requires a path")
		}
		store = NewSQLiteStore(opts.SQLitePath, opts.Logger)
	case BackendMemory:
		store = NewMemoryStore()
	case BackendMongoDB:
		if opts.MongoURI == "" {
			return nil, fmt.Errorf("mongodb feedback store requires a URI")
		}
		store = NewMongoStore(opts.MongoURI, opts.MongoDatabase, opts.MongoCollection, opts.Logger)
	default:
		return nil, fmt.Errorf("unknown feedback backend %q", opts.Backend)
	}

	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
