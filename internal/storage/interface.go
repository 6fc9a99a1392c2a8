/*
Package storage implements the external feedback store.

Corrections submitted by users are kept here until the brain updater folds
them into the corpus and deletes them. Two backends implement FeedbackStore:
a local SQLite database (modernc.org/sqlite, a pure Go, CGo-free
implementation) and a MongoDB collection.
*/
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// FeedbackStore defines the operations on pending feedback records.
type FeedbackStore interface {
	// Init opens the backend and prepares its schema or indexes.
	Init(ctx context.Context) error

	// AppendFeedback stores one record.
	AppendFeedback(ctx context.Context, rec FeedbackRecord) error

	// PendingFeedback returns all stored records, oldest first.
	PendingFeedback(ctx context.Context) ([]FeedbackRecord, error)

	// DeleteFeedback removes the records with the given IDs and reports how many
	// were removed. Unknown IDs are ignored.
	DeleteFeedback(ctx context.Context, ids []string) (int, error)

	// CountFeedback returns the number of pending records.
	CountFeedback(ctx context.Context) (int, error)

	// Close releases the backend.
	Close() error
}

// ErrStoreUnavailable is returned by a store whose Init failed or that was closed.
var ErrStoreUnavailable = errors.New("feedback store unavailable")

// SQLiteStore implements FeedbackStore using SQLite.
type SQLiteStore struct {
	db       *sql.DB
	dbPath   string
	enabled  bool
	logger   *zap.Logger
	mu       sync.Mutex
	initOnce sync.Once
	initErr  error
}

// NewSQLiteStore creates a SQLite feedback store at dbPath.
//
// If the directory doesn't exist, Init creates it.
func NewSQLiteStore(dbPath string, logger *zap.Logger) *SQLiteStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteStore{
		dbPath:  dbPath,
		enabled: true,
		logger:  logger,
	}
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Init opens the database and runs migrations.
//
// If initialization fails, the store is disabled and every later operation
// returns an error matching ErrStoreUnavailable.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
			s.disable(fmt.Errorf("failed to create db directory: %w", err))
			return
		}

		db, err := sql.Open("sqlite", s.dbPath)
		if err != nil {
			s.disable(fmt.Errorf("failed to open database: %w", err))
			return
		}
		// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		s.db = db

		if err := db.PingContext(ctx); err != nil {
			s.disable(fmt.Errorf("failed to ping database: %w", err))
			return
		}

		if err := s.runMigrations(ctx); err != nil {
			s.disable(fmt.Errorf("failed to run migrations: %w", err))
			return
		}

		s.logger.Debug("Feedback store ready", zap.String("path", s.dbPath))
	})

	if s.initErr != nil {
		return &PersistenceError{Op: "init", Err: s.initErr}
	}
	return nil
}

func (s *SQLiteStore) disable(err error) {
	s.initErr = err
	s.enabled = false
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
	s.logger.Warn("Feedback store disabled", zap.String("path", s.dbPath), zap.Error(err))
}

// ready must be called with s.mu held.
func (s *SQLiteStore) ready(op string) error {
	if !s.enabled || s.db == nil {
		return &PersistenceError{Op: op, Err: ErrStoreUnavailable}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	s.enabled = false
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.db = nil
	return nil
}
