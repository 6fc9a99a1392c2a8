package config

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/khanglvm/moodbrain/internal/jobs"
	"github.com/khanglvm/moodbrain/internal/logging"
	"github.com/khanglvm/moodbrain/internal/storage"
)

// Validate checks every field and returns all problems combined.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	var errs error
	if _, err := cfg.Vocabulary(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("labels: %w", err))
	}
	if cfg.Corpus.Path == "" {
		errs = multierr.Append(errs, fmt.Errorf("corpus.path: must not be empty"))
	}
	errs = multierr.Append(errs, validateFeedback(cfg.Feedback))

	if _, err := jobs.ParseRetrainMode(cfg.Training.RetrainMode); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("training.retrainMode: %w", err))
	}
	if cfg.Training.UpdateSchedule != "" {
		if err := jobs.ValidateSchedule(cfg.Training.UpdateSchedule); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("training.updateSchedule: %w", err))
		}
	}

	if ttl := cfg.Cache.TTLSeconds; ttl != nil && *ttl < 0 {
		errs = multierr.Append(errs, fmt.Errorf("cache.ttlSeconds: must be >= 0, got %d", *ttl))
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errs
}

func validateFeedback(fb FeedbackConfig) error {
	var errs error
	switch fb.Backend {
	case storage.BackendSQLite:
		if fb.SQLitePath == "" {
			errs = multierr.Append(errs, fmt.Errorf("feedback.sqlitePath: required for sqlite backend"))
		}
	case storage.BackendMongoDB:
		if fb.MongoURI == "" {
			errs = multierr.Append(errs, fmt.Errorf("feedback.mongoUri: required for mongodb backend"))
		}
	case storage.BackendMemory:
	default:
		errs = multierr.Append(errs, fmt.Errorf("feedback.backend: unknown backend %q (valid: sqlite, mongodb, memory)", fb.Backend))
	}
	if fb.QueueSize < 0 {
		errs = multierr.Append(errs, fmt.Errorf("feedback.queueSize: must be positive, got %d", fb.QueueSize))
	}
	return errs
}
