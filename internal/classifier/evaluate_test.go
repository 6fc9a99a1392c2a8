package classifier

import (
	"testing"

	"github.com/khanglvm/moodbrain/internal/corpus"
)

func TestEvaluate(t *testing.T) {
	m := mustTrain(t, []corpus.Example{
		{Text: "I am happy", Label: "happy"},
		{Text: "I am sad", Label: "sad"},
	})

	metrics := Evaluate(m, []corpus.Example{
		{Text: "happy happy", Label: "happy"},
		{Text: "so sad", Label: "sad"},
		{Text: "sad again", Label: "happy"},
	})

	if metrics.Total != 3 {
		t.Errorf("expected total 3, got %d", metrics.Total)
	}
	if metrics.Correct != 2 {
		t.Errorf("expected 2 correct, got %d", metrics.Correct)
	}
	if metrics.Confusion["happy"]["sad"] != 1 {
		t.Errorf("expected one happy->sad confusion, got %v", metrics.Confusion)
	}
	if acc := metrics.Accuracy(); acc < 0.66 || acc > 0.67 {
		t.Errorf("unexpected accuracy %v", acc)
	}
}

func TestMetrics_AccuracyEmpty(t *testing.T) {
	if acc := (Metrics{}).Accuracy(); acc != 0 {
		t.Errorf("expected 0 accuracy for empty metrics, got %v", acc)
	}
}
