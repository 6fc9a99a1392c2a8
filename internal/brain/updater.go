/*
Package brain folds pending user corrections into the training corpus.

An update reads every pending feedback record, appends the ones whose
normalized text is new to a copy of the corpus, saves that copy, and only
then deletes the consumed records. A crash between the save and the delete
leaves records that the next run recognizes as duplicates and deletes, so
replays never grow the corpus twice.

The updater does not retrain the live model; see the jobs package for the
configured retrain trigger.
*/
package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/khanglvm/moodbrain/internal/corpus"
	"github.com/khanglvm/moodbrain/internal/metrics"
	"github.com/khanglvm/moodbrain/internal/mood"
	"github.com/khanglvm/moodbrain/internal/storage"
)

// ErrUpdateInProgress is returned when Run is called while another run is active.
var ErrUpdateInProgress = errors.New("brain update already in progress")

// UpdateError reports a failed update stage. When Stage is "save" no feedback
// was deleted.
type UpdateError struct {
	Stage string // "load", "read", "save" or "delete"
	Err   error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("brain update failed at %s: %v", e.Stage, e.Err)
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}

// Report summarizes one update run.
type Report struct {
	// Pending is the number of feedback records read.
	Pending int
	// Accepted is the number of new corpus examples.
	Accepted int
	// Duplicates were already in the corpus or repeated within the run.
	Duplicates int
	// Conflicts counts duplicates whose corpus label differs from the
	// correction. The corpus label is kept.
	Conflicts int
	// Rejected records had blank text or a label outside the vocabulary.
	Rejected int
	// Deleted is the number of feedback records removed after the save.
	Deleted int
	// CorpusSize is the number of examples after the run.
	CorpusSize int
}

// Updater runs brain updates. Runs never overlap.
type Updater struct {
	corpus   corpus.Store
	feedback storage.FeedbackStore
	vocab    *mood.Vocabulary
	logger   *zap.Logger
	metrics  *metrics.Metrics

	running sync.Mutex
}

// Option configures an Updater.
type Option func(*Updater)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(u *Updater) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// WithMetrics records run outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(u *Updater) { u.metrics = m }
}

// NewUpdater returns an updater moving records from feedback into corpusStore.
// Records whose label is outside vocab are rejected and deleted.
func NewUpdater(corpusStore corpus.Store, feedback storage.FeedbackStore, vocab *mood.Vocabulary, opts ...Option) *Updater {
	if vocab == nil {
		vocab = mood.DefaultVocabulary()
	}
	u := &Updater{
		corpus:   corpusStore,
		feedback: feedback,
		vocab:    vocab,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Run performs one update. It returns ErrUpdateInProgress if another run is
// active, and an *UpdateError naming the failed stage otherwise.
func (u *Updater) Run(ctx context.Context) (Report, error) {
	if !u.running.TryLock() {
		return Report{}, ErrUpdateInProgress
	}
	defer u.running.Unlock()

	report, err := u.run(ctx)
	u.metrics.RecordUpdate(report.Accepted, report.CorpusSize, err)
	if err != nil {
		u.logger.Error("Brain update failed", zap.Error(err))
		return report, err
	}

	u.logger.Info("Brain update complete",
		zap.Int("pending", report.Pending),
		zap.Int("accepted", report.Accepted),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("conflicts", report.Conflicts),
		zap.Int("rejected", report.Rejected),
		zap.Int("deleted", report.Deleted),
		zap.Int("corpus", report.CorpusSize))
	return report, nil
}

func (u *Updater) run(ctx context.Context) (Report, error) {
	var report Report

	records, err := u.feedback.PendingFeedback(ctx)
	if err != nil {
		return report, &UpdateError{Stage: "read", Err: err}
	}
	report.Pending = len(records)

	current, err := u.corpus.Load(ctx)
	if err != nil {
		// A missing corpus file starts an empty corpus; anything else is fatal.
		var unavailable *corpus.UnavailableError
		if !errors.As(err, &unavailable) || unavailable.Reason != "file not found" {
			return report, &UpdateError{Stage: "load", Err: err}
		}
		current = corpus.New()
	}

	if len(records) == 0 {
		report.CorpusSize = current.Len()
		return report, nil
	}

	// The clone's key index is the dedup set; the loaded corpus is never mutated.
	updated := current.Clone()
	consumed := make([]string, 0, len(records))

	for _, rec := range records {
		consumed = append(consumed, rec.ID)

		label, err := u.vocab.Parse(string(rec.UserLabel))
		text := strings.TrimSpace(rec.Text)
		if err != nil || text == "" {
			report.Rejected++
			u.logger.Warn("Rejecting feedback record",
				zap.String("id", rec.ID),
				zap.String("label", string(rec.UserLabel)),
				zap.Bool("blankText", text == ""))
			continue
		}

		switch err := updated.Add(corpus.Example{Text: text, Label: label}); {
		case err == nil:
			report.Accepted++
		case errors.Is(err, corpus.ErrDuplicateExample):
			report.Duplicates++
			if existing, ok := updated.Lookup(text); ok && existing.Label != label {
				report.Conflicts++
				u.logger.Info("Correction conflicts with corpus label",
					zap.String("id", rec.ID),
					zap.String("corpus", string(existing.Label)),
					zap.String("correction", string(label)))
			}
		default:
			report.Rejected++
			u.logger.Warn("Rejecting feedback record", zap.String("id", rec.ID), zap.Error(err))
		}
	}
	report.CorpusSize = updated.Len()

	// The corpus must be durable before any feedback is deleted.
	if report.Accepted > 0 {
		if err := u.corpus.Save(ctx, updated); err != nil {
			report.CorpusSize = current.Len()
			return report, &UpdateError{Stage: "save", Err: err}
		}
	}

	deleted, err := u.feedback.DeleteFeedback(ctx, consumed)
	report.Deleted = deleted
	if err != nil {
		return report, &UpdateError{Stage: "delete", Err: err}
	}

	return report, nil
}

// Pending returns the number of feedback records waiting for the next run.
func (u *Updater) Pending(ctx context.Context) (int, error) {
	return u.feedback.CountFeedback(ctx)
}
