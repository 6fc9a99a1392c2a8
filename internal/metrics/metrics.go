/*
Package metrics holds the Prometheus collectors for the classifier, the
feedback loop and the brain updater.

All Record methods are safe on a nil *Metrics, so components can be built
without metrics in tests and one-shot CLI commands.
*/
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "moodbrain"

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// Inference metrics
	Classifications *prometheus.CounterVec
	ClassifyErrors  prometheus.Counter
	CacheHits       prometheus.Counter

	// Training metrics
	TrainingRuns     *prometheus.CounterVec
	TrainingDuration prometheus.Histogram
	ModelVocabulary  prometheus.Gauge

	// Feedback metrics
	Feedback   *prometheus.CounterVec
	QueueDepth prometheus.GaugeFunc

	// Brain updater metrics
	UpdateRuns     *prometheus.CounterVec
	UpdateAccepted prometheus.Counter
	CorpusSize     prometheus.Gauge
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Total number of classifications by predicted label",
		}, []string{"label"}),

		ClassifyErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classify_errors_total",
			Help:      "Classifications that failed because no model was ready",
		}),

		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classify_cache_hits_total",
			Help:      "Classifications served from the result cache",
		}),

		// result: "ok" or "error"
		TrainingRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "training_runs_total",
			Help:      "Training pipeline runs by result",
		}, []string{"result"}),

		TrainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "training_duration_seconds",
			Help:      "Training pipeline duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),

		ModelVocabulary: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_vocabulary_size",
			Help:      "Distinct tokens in the installed model",
		}),

		// outcome: "queued", "dropped", "persisted", "failed", "skipped"
		Feedback: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_records_total",
			Help:      "Feedback corrections by outcome",
		}, []string{"outcome"}),

		UpdateRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "brain_update_runs_total",
			Help:      "Brain updater runs by result",
		}, []string{"result"}),

		UpdateAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "brain_update_accepted_total",
			Help:      "Feedback records accepted into the corpus",
		}),

		CorpusSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_examples",
			Help:      "Examples in the corpus after the last brain update",
		}),
	}
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordClassification records a successful classification
func (m *Metrics) RecordClassification(label string, cached bool) {
	if m == nil {
		return
	}
	m.Classifications.WithLabelValues(label).Inc()
	if cached {
		m.CacheHits.Inc()
	}
}

// RecordClassifyError records a classification that returned an error
func (m *Metrics) RecordClassifyError() {
	if m == nil {
		return
	}
	m.ClassifyErrors.Inc()
}

// RecordTraining records one training run
func (m *Metrics) RecordTraining(d time.Duration, vocabularySize int, err error) {
	if m == nil {
		return
	}
	m.TrainingDuration.Observe(d.Seconds())
	if err != nil {
		m.TrainingRuns.WithLabelValues("error").Inc()
		return
	}
	m.TrainingRuns.WithLabelValues("ok").Inc()
	m.ModelVocabulary.Set(float64(vocabularySize))
}

// RecordFeedback records a feedback outcome
func (m *Metrics) RecordFeedback(outcome string) {
	if m == nil {
		return
	}
	m.Feedback.WithLabelValues(outcome).Inc()
}

// RecordUpdate records one brain updater run
func (m *Metrics) RecordUpdate(accepted, corpusSize int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.UpdateRuns.WithLabelValues("error").Inc()
		return
	}
	m.UpdateRuns.WithLabelValues("ok").Inc()
	m.UpdateAccepted.Add(float64(accepted))
	if corpusSize > 0 {
		m.CorpusSize.Set(float64(corpusSize))
	}
}

// RegisterQueueDepth exports depth as the feedback queue gauge. It is read
// at scrape time. Registering twice panics.
func (m *Metrics) RegisterQueueDepth(depth func() int) {
	if m == nil {
		return
	}
	m.QueueDepth = promauto.With(m.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "feedback_queue_depth",
		Help:      "Corrections waiting to be written to the feedback store",
	}, func() float64 { return float64(depth()) })
}

// Handler returns an http.Handler exposing the collectors.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
