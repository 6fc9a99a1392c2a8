package feedback

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/khanglvm/moodbrain/internal/metrics"
	"github.com/khanglvm/moodbrain/internal/mood"
	"github.com/khanglvm/moodbrain/internal/storage"
)

const (
	// DefaultQueueSize is the buffer size for pending corrections.
	// If full, corrections are dropped (non-blocking).
	DefaultQueueSize = 1000

	// batchFlushSize is the number of corrections that triggers an immediate flush.
	batchFlushSize = 10

	// flushInterval is how often queued corrections are written.
	flushInterval = 50 * time.Millisecond

	// writeTimeout bounds a single store write.
	writeTimeout = 5 * time.Second
)

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records feedback outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Collector) { c.metrics = m }
}

// WithVocabulary rejects user labels outside vocab and canonicalizes the rest.
func WithVocabulary(vocab *mood.Vocabulary) Option {
	return func(c *Collector) { c.vocab = vocab }
}

// WithQueueSize sets the queue capacity. Values below 1 keep the default.
func WithQueueSize(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// Collector writes corrections to a feedback store in the background.
type Collector struct {
	store     storage.FeedbackStore
	logger    *zap.Logger
	metrics   *metrics.Metrics
	vocab     *mood.Vocabulary
	queueSize int

	queue    chan Correction
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// NewCollector starts a collector writing to store. The store must already be
// initialized.
func NewCollector(store storage.FeedbackStore, opts ...Option) *Collector {
	c := &Collector{
		store:     store,
		logger:    zap.NewNop(),
		queueSize: DefaultQueueSize,
		stopChan:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.queue = make(chan Correction, c.queueSize)

	c.wg.Add(1)
	go c.process()

	return c
}

// RecordCorrection queues a correction if userLabel differs from suggestion
// or no suggestion was made. It never blocks and never reports an error.
func (c *Collector) RecordCorrection(text string, suggestion, userLabel mood.Label, submitterID string) {
	c.Record(Correction{
		Text:        text,
		Suggestion:  suggestion,
		UserLabel:   userLabel,
		SubmitterID: submitterID,
		SubmittedAt: time.Now().UTC(),
	})
}

// Record queues corr. See RecordCorrection.
func (c *Collector) Record(corr Correction) {
	corr, ok := c.validate(corr)
	if !ok {
		return
	}
	if !corr.Overrides() {
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stopped {
		c.logger.Warn("Feedback collector stopped, dropping correction", zap.String("label", string(corr.UserLabel)))
		c.metrics.RecordFeedback("dropped")
		return
	}

	select {
	case c.queue <- corr:
		c.metrics.RecordFeedback("queued")
	default:
		c.logger.Warn("Feedback queue full, dropping correction", zap.String("label", string(corr.UserLabel)))
		c.metrics.RecordFeedback("dropped")
	}
}

func (c *Collector) validate(corr Correction) (Correction, bool) {
	corr.Text = strings.TrimSpace(corr.Text)
	if corr.Text == "" {
		c.logger.Warn("Ignoring correction with empty text", zap.String("submitter", corr.SubmitterID))
		c.metrics.RecordFeedback("skipped")
		return corr, false
	}

	if c.vocab == nil {
		return corr, corr.UserLabel != mood.NoLabel
	}

	label, err := c.vocab.Parse(string(corr.UserLabel))
	if err != nil {
		c.logger.Warn("Ignoring correction with unknown label", zap.Error(err))
		c.metrics.RecordFeedback("skipped")
		return corr, false
	}
	corr.UserLabel = label

	if corr.Suggestion != mood.NoLabel {
		if s, err := c.vocab.Parse(string(corr.Suggestion)); err == nil {
			corr.Suggestion = s
		}
	}
	return corr, true
}

// Stop flushes queued corrections and stops the background writer.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.stopped = true
		c.mu.Unlock()

		close(c.stopChan)
		c.wg.Wait()
	})
}

// QueueLen returns the number of corrections waiting to be written.
func (c *Collector) QueueLen() int {
	return len(c.queue)
}

// process runs in the background, batching and flushing corrections.
func (c *Collector) process() {
	defer c.wg.Done()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]Correction, 0, batchFlushSize)

	for {
		select {
		case corr := <-c.queue:
			batch = append(batch, corr)
			if len(batch) >= batchFlushSize {
				c.flush(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				c.flush(batch)
				batch = batch[:0]
			}

		case <-c.stopChan:
			// No sends happen after stopped is set, so draining is final.
			for {
				select {
				case corr := <-c.queue:
					batch = append(batch, corr)
				default:
					c.flush(batch)
					return
				}
			}
		}
	}
}

// flush writes a batch of corrections to the store.
func (c *Collector) flush(batch []Correction) {
	for _, corr := range batch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.store.AppendFeedback(ctx, corr.ToRecord())
		cancel()

		if err != nil {
			c.logger.Warn("Failed to persist feedback",
				zap.String("label", string(corr.UserLabel)),
				zap.String("submitter", corr.SubmitterID),
				zap.Error(err))
			c.metrics.RecordFeedback("failed")
			continue
		}
		c.metrics.RecordFeedback("persisted")
	}
}
