/*
Package inference owns the live classifier model.

A Service is built once at process start and passed to every caller. The
first Classify call trains a model from the corpus store; concurrent first
callers share that single training run. Once installed, the model is read
through an atomic pointer and classification takes no lock.
*/
package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/khanglvm/moodbrain/internal/classifier"
	"github.com/khanglvm/moodbrain/internal/corpus"
	"github.com/khanglvm/moodbrain/internal/features"
	"github.com/khanglvm/moodbrain/internal/metrics"
	"github.com/khanglvm/moodbrain/internal/mood"
)

// ErrClassifierNotReady is returned while no model could be trained.
// The returned error also wraps the training failure.
var ErrClassifierNotReady = errors.New("classifier not ready")

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records classification and training metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithCacheTTL enables the result cache. A zero or negative ttl disables it.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cache = gocache.New(ttl, 2*ttl)
		} else {
			s.cache = nil
		}
	}
}

// WithInstallHook calls hook with the corpus snapshot a model was trained
// on, each time that model is installed. Calls are serialized and follow
// install order.
func WithInstallHook(hook func(*corpus.Corpus)) Option {
	return func(s *Service) { s.onInstall = hook }
}

// Service classifies text with the most recently trained model.
type Service struct {
	store     corpus.Store
	extractor *features.Extractor
	logger    *zap.Logger
	metrics   *metrics.Metrics
	cache     *gocache.Cache
	onInstall func(*corpus.Corpus)

	model  atomic.Pointer[classifier.Model]
	group  singleflight.Group
	reload sync.Mutex

	mu      sync.RWMutex
	failure error
}

type cachedResult struct {
	model *classifier.Model
	label mood.Label
}

// New returns a Service that trains from store using extractor.
// No training happens until the first Classify or Reload.
func New(store corpus.Store, extractor *features.Extractor, opts ...Option) *Service {
	if extractor == nil {
		extractor = features.New()
	}
	s := &Service{
		store:     store,
		extractor: extractor,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Classify returns the mood label for text, training the model on first use.
// If training failed, the error matches ErrClassifierNotReady and the cause;
// the failure persists until Reload succeeds.
func (s *Service) Classify(ctx context.Context, text string) (mood.Label, error) {
	m, err := s.ensureModel(ctx)
	if err != nil {
		s.metrics.RecordClassifyError()
		return mood.NoLabel, err
	}

	key := corpus.Normalize(text)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if res := v.(cachedResult); res.model == m {
				s.metrics.RecordClassification(string(res.label), true)
				return res.label, nil
			}
		}
	}

	label := m.Classify(text)
	if s.cache != nil {
		s.cache.SetDefault(key, cachedResult{model: m, label: label})
	}
	s.metrics.RecordClassification(string(label), false)
	return label, nil
}

// Probabilities returns the posterior for every reachable label.
func (s *Service) Probabilities(ctx context.Context, text string) (map[mood.Label]float64, error) {
	m, err := s.ensureModel(ctx)
	if err != nil {
		return nil, err
	}
	return m.Probabilities(text), nil
}

// Reload trains a fresh model and installs it. On failure the current model,
// if any, stays in place.
func (s *Service) Reload(ctx context.Context) error {
	s.reload.Lock()
	defer s.reload.Unlock()

	m, c, err := s.train(ctx)
	if err != nil {
		if s.model.Load() == nil {
			s.setFailure(fmt.Errorf("%w: %w", ErrClassifierNotReady, err))
		}
		return fmt.Errorf("reload failed: %w", err)
	}

	s.install(m, c)
	return nil
}

// Ready reports whether a model is installed.
func (s *Service) Ready() bool {
	return s.model.Load() != nil
}

// Model returns the installed model or nil.
func (s *Service) Model() *classifier.Model {
	return s.model.Load()
}

// Err returns the sticky initialization failure, if any.
func (s *Service) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failure
}

func (s *Service) ensureModel(ctx context.Context) (*classifier.Model, error) {
	if m := s.model.Load(); m != nil {
		return m, nil
	}
	if err := s.Err(); err != nil {
		return nil, err
	}

	// Training outlives any single caller's cancellation; the others share it.
	trainCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do("init", func() (any, error) {
		if m := s.model.Load(); m != nil {
			return m, nil
		}
		if err := s.Err(); err != nil {
			return nil, err
		}

		s.reload.Lock()
		defer s.reload.Unlock()

		// A Reload may have installed a model while this call waited.
		if m := s.model.Load(); m != nil {
			return m, nil
		}

		m, c, err := s.train(trainCtx)
		if err != nil {
			notReady := fmt.Errorf("%w: %w", ErrClassifierNotReady, err)
			s.setFailure(notReady)
			return nil, notReady
		}
		s.install(m, c)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*classifier.Model), nil
}

func (s *Service) train(ctx context.Context) (*classifier.Model, *corpus.Corpus, error) {
	start := time.Now()

	c, err := s.store.Load(ctx)
	var m *classifier.Model
	if err == nil {
		m, err = classifier.Train(c, s.extractor)
	}

	elapsed := time.Since(start)
	if err != nil {
		s.metrics.RecordTraining(elapsed, 0, err)
		s.logger.Error("Training failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return nil, nil, err
	}

	s.metrics.RecordTraining(elapsed, m.VocabularySize(), nil)
	s.logger.Info("Model trained",
		zap.Int("examples", c.Len()),
		zap.Int("vocabulary", m.VocabularySize()),
		zap.Int("labels", len(m.Labels())),
		zap.Duration("elapsed", elapsed))
	return m, c, nil
}

// install must be called with s.reload held.
func (s *Service) install(m *classifier.Model, c *corpus.Corpus) {
	s.model.Store(m)
	s.setFailure(nil)
	if s.cache != nil {
		s.cache.Flush()
	}
	if s.onInstall != nil {
		s.onInstall(c)
	}
}

func (s *Service) setFailure(err error) {
	s.mu.Lock()
	s.failure = err
	s.mu.Unlock()
}
