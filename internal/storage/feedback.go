package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/khanglvm/moodbrain/internal/mood"
)

const (
	// deleteBatchSize keeps IN lists well below SQLite's host parameter limit.
	deleteBatchSize = 500

	// timeLayout is fixed width so submitted_at sorts lexicographically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// AppendFeedback stores one feedback record.
func (s *SQLiteStore) AppendFeedback(ctx context.Context, rec FeedbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready("append"); err != nil {
		return err
	}

	var suggestion sql.NullString
	if rec.ModelSuggestion != mood.NoLabel {
		suggestion = sql.NullString{String: string(rec.ModelSuggestion), Valid: true}
	}

	query := `
		INSERT INTO feedback (id, text, user_label, model_suggestion, submitter_id, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	if _, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Text,
		string(rec.UserLabel),
		suggestion,
		rec.SubmitterID,
		rec.SubmittedAt.UTC().Format(timeLayout),
	); err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}

	return nil
}

// PendingFeedback returns all stored records, oldest first.
func (s *SQLiteStore) PendingFeedback(ctx context.Context) ([]FeedbackRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready("read"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, text, user_label, model_suggestion, submitter_id, submitted_at
		FROM feedback
		ORDER BY submitted_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &PersistenceError{Op: "read", Err: err}
	}
	defer rows.Close()

	var records []FeedbackRecord
	for rows.Next() {
		var rec FeedbackRecord
		var userLabel, submittedAt string
		var suggestion sql.NullString

		if err := rows.Scan(
			&rec.ID,
			&rec.Text,
			&userLabel,
			&suggestion,
			&rec.SubmitterID,
			&submittedAt,
		); err != nil {
			return nil, &PersistenceError{Op: "read", Err: err}
		}

		rec.UserLabel = mood.Label(userLabel)
		if suggestion.Valid {
			rec.ModelSuggestion = mood.Label(suggestion.String)
		}

		rec.SubmittedAt, err = time.Parse(timeLayout, submittedAt)
		if err != nil {
			s.logger.Warn("Failed to parse feedback timestamp",
				zap.String("id", rec.ID), zap.String("value", submittedAt), zap.Error(err))
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "read", Err: err}
	}

	return records, nil
}

// DeleteFeedback removes the records with the given IDs in one transaction.
func (s *SQLiteStore) DeleteFeedback(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready("delete"); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &PersistenceError{Op: "delete", Err: err}
	}
	defer tx.Rollback()

	deleted := 0
	for start := 0; start < len(ids); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(ids))
		batch := ids[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		res, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM feedback WHERE id IN (%s)", placeholders), args...)
		if err != nil {
			return 0, &PersistenceError{Op: "delete", Err: err}
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, &PersistenceError{Op: "delete", Err: err}
		}
		deleted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, &PersistenceError{Op: "delete", Err: err}
	}
	return deleted, nil
}

// CountFeedback returns the number of pending records.
func (s *SQLiteStore) CountFeedback(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready("count"); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feedback").Scan(&count); err != nil {
		return 0, &PersistenceError{Op: "count", Err: err}
	}
	return count, nil
}
