package classifier

import (
	"github.com/khanglvm/moodbrain/internal/corpus"
	"github.com/khanglvm/moodbrain/internal/mood"
)

// Metrics captures evaluation results on a labeled dataset.
type Metrics struct {
	Total   int
	Correct int
	// Confusion maps actual label -> predicted label -> count.
	Confusion map[mood.Label]map[mood.Label]int
}

// Accuracy returns the share of correct predictions in [0,1].
func (m Metrics) Accuracy() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.Correct) / float64(m.Total)
}

// Evaluate classifies every example with m and tallies the results.
func Evaluate(m *Model, examples []corpus.Example) Metrics {
	metrics := Metrics{
		Total:     len(examples),
		Confusion: make(map[mood.Label]map[mood.Label]int),
	}

	for _, ex := range examples {
		predicted := m.Classify(ex.Text)
		if predicted == ex.Label {
			metrics.Correct++
		}
		if metrics.Confusion[ex.Label] == nil {
			metrics.Confusion[ex.Label] = make(map[mood.Label]int)
		}
		metrics.Confusion[ex.Label][predicted]++
	}

	return metrics
}
