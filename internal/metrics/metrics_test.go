package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordClassification("happy", true)
	m.RecordClassifyError()
	m.RecordTraining(time.Second, 10, nil)
	m.RecordFeedback("queued")
	m.RecordUpdate(1, 2, nil)
	m.RegisterQueueDepth(func() int { return 1 })
	if m.Registry() != nil {
		t.Error("expected nil registry for nil metrics")
	}
}

func TestRecordClassification(t *testing.T) {
	m := New()
	m.RecordClassification("happy", false)
	m.RecordClassification("happy", true)
	m.RecordClassification("sad", false)

	if got := testutil.ToFloat64(m.Classifications.WithLabelValues("happy")); got != 2 {
		t.Errorf("expected 2 happy classifications, got %v", got)
	}
	if got := testutil.ToFloat64(m.CacheHits); got != 1 {
		t.Errorf("expected 1 cache hit, got %v", got)
	}
}

func TestRecordTraining(t *testing.T) {
	m := New()
	m.RecordTraining(10*time.Millisecond, 42, nil)
	m.RecordTraining(time.Millisecond, 0, errors.New("boom"))

	if got := testutil.ToFloat64(m.TrainingRuns.WithLabelValues("ok")); got != 1 {
		t.Errorf("expected 1 ok run, got %v", got)
	}
	if got := testutil.ToFloat64(m.TrainingRuns.WithLabelValues("error")); got != 1 {
		t.Errorf("expected 1 failed run, got %v", got)
	}
	if got := testutil.ToFloat64(m.ModelVocabulary); got != 42 {
		t.Errorf("expected vocabulary gauge 42, got %v", got)
	}
}

func TestRecordUpdate(t *testing.T) {
	m := New()
	m.RecordUpdate(3, 40, nil)
	m.RecordUpdate(0, 0, errors.New("save failed"))

	if got := testutil.ToFloat64(m.UpdateAccepted); got != 3 {
		t.Errorf("expected 3 accepted, got %v", got)
	}
	if got := testutil.ToFloat64(m.CorpusSize); got != 40 {
		t.Errorf("expected corpus gauge 40, got %v", got)
	}
	if got := testutil.ToFloat64(m.UpdateRuns.WithLabelValues("error")); got != 1 {
		t.Errorf("expected 1 failed run, got %v", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordFeedback("persisted")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `moodbrain_feedback_records_total{outcome="persisted"} 1`) {
		t.Errorf("metrics output missing feedback counter:\n%s", body)
	}
}

func TestNewUsesIsolatedRegistries(t *testing.T) {
	// Creating twice must not panic on duplicate registration.
	a, b := New(), New()
	if a.Registry() == b.Registry() {
		t.Error("expected separate registries")
	}
}

func TestRegisterQueueDepth(t *testing.T) {
	m := New()
	depth := 3
	m.RegisterQueueDepth(func() int { return depth })

	if got := testutil.ToFloat64(m.QueueDepth); got != 3 {
		t.Errorf("expected queue depth 3, got %v", got)
	}

	depth = 0
	if got := testutil.ToFloat64(m.QueueDepth); got != 0 {
		t.Errorf("expected gauge to follow the queue, got %v", got)
	}
}
