package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// migration represents a single database migration.
type migration struct {
	version int
	name    string
	up      func(ctx context.Context) error
}

// runMigrations executes database schema migrations in order.
func (s *SQLiteStore) runMigrations(ctx context.Context) error {
	if err := s.createMigrationsTable(ctx); err != nil {
		return err
	}

	version, err := s.getCurrentMigrationVersion(ctx)
	if err != nil {
		return err
	}

	migrations := []migration{
		{version: 1, name: "feedback", up: s.migration001Feedback},
	}

	for _, m := range migrations {
		if version < m.version {
			s.logger.Info("Running migration", zap.Int("version", m.version), zap.String("name", m.name))
			if err := m.up(ctx); err != nil {
				return fmt.Errorf("migration %d failed: %w", m.version, err)
			}
			if err := s.setMigrationVersion(ctx, m); err != nil {
				return err
			}
		}
	}

	return nil
}

// createMigrationsTable creates the schema_migrations table.
func (s *SQLiteStore) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// getCurrentMigrationVersion returns the highest applied migration version.
func (s *SQLiteStore) getCurrentMigrationVersion(ctx context.Context) (int, error) {
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")

	var version int
	if err := row.Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

// setMigrationVersion records a migration as applied.
func (s *SQLiteStore) setMigrationVersion(ctx context.Context, m migration) error {
	_, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.version, m.name)
	return err
}

// migration001Feedback creates the feedback table.
func (s *SQLiteStore) migration001Feedback(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS feedback (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			user_label TEXT NOT NULL,
			model_suggestion TEXT,
			submitter_id TEXT NOT NULL DEFAULT '',
			submitted_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create feedback table: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_feedback_submitted_at
		ON feedback(submitted_at)
	`); err != nil {
		return fmt.Errorf("failed to create feedback submitted_at index: %w", err)
	}

	return nil
}
