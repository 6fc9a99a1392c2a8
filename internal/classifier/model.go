package classifier

import (
	"math"

	"github.com/khanglvm/moodbrain/internal/features"
	"github.com/khanglvm/moodbrain/internal/mood"
)

// Model is a trained Naive Bayes classifier. Labels without training examples
// are not part of the model and can never be produced.
type Model struct {
	extractor      *features.Extractor
	labels         []mood.Label // lexicographic order
	examples       int
	vocabularySize int

	docCounts   map[mood.Label]int
	tokenCounts map[mood.Label]map[string]int
	tokenTotals map[mood.Label]int

	logPriors      map[mood.Label]float64
	logLikelihoods map[mood.Label]map[string]float64
	logUnseen      map[mood.Label]float64
}

// Stats summarizes a trained model.
type Stats struct {
	Examples       int
	VocabularySize int
	Labels         []mood.Label
	ExamplesPer    map[mood.Label]int
	TokensPer      map[mood.Label]int
}

// Classify returns the label with the highest score for text.
//
// Labels are scored in lexicographic order and a later label only replaces
// the leader with a strictly greater score, so exact ties resolve to the
// lexicographically smallest label. Tokens never seen during training are
// ignored; an input made only of such tokens is decided by the priors.
func (m *Model) Classify(text string) mood.Label {
	tokens := m.extractor.Tokenize(text)

	best := m.labels[0]
	bestScore := math.Inf(-1)
	for _, label := range m.labels {
		score := m.score(label, tokens)
		if score > bestScore {
			best = label
			bestScore = score
		}
	}
	return best
}

// Scores returns the log score of every model label for text.
func (m *Model) Scores(text string) map[mood.Label]float64 {
	tokens := m.extractor.Tokenize(text)
	scores := make(map[mood.Label]float64, len(m.labels))
	for _, label := range m.labels {
		scores[label] = m.score(label, tokens)
	}
	return scores
}

// Probabilities returns the posterior of every model label for text,
// normalized to sum to 1.
func (m *Model) Probabilities(text string) map[mood.Label]float64 {
	scores := m.Scores(text)

	maxScore := math.Inf(-1)
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}

	probs := make(map[mood.Label]float64, len(scores))
	var sum float64
	for label, s := range scores {
		v := math.Exp(s - maxScore)
		probs[label] = v
		sum += v
	}
	for label := range probs {
		probs[label] /= sum
	}
	return probs
}

func (m *Model) score(label mood.Label, tokens []string) float64 {
	score := m.logPriors[label]
	likelihoods := m.logLikelihoods[label]
	for _, tok := range tokens {
		if ll, ok := likelihoods[tok]; ok {
			score += ll
		}
	}
	return score
}

// Likelihood returns the smoothed P(token|label) for an already stemmed token.
// Tokens unseen under label, or unseen in training altogether, get the
// smoothing mass 1/(tokens(label)+|V|). Labels outside the model return 0.
func (m *Model) Likelihood(token string, label mood.Label) float64 {
	likelihoods, ok := m.logLikelihoods[label]
	if !ok {
		return 0
	}
	if ll, ok := likelihoods[token]; ok {
		return math.Exp(ll)
	}
	return math.Exp(m.logUnseen[label])
}

// Prior returns P(label), or 0 for labels without training examples.
func (m *Model) Prior(label mood.Label) float64 {
	lp, ok := m.logPriors[label]
	if !ok {
		return 0
	}
	return math.Exp(lp)
}

// Labels returns the reachable labels in lexicographic order.
func (m *Model) Labels() []mood.Label {
	out := make([]mood.Label, len(m.labels))
	copy(out, m.labels)
	return out
}

// VocabularySize returns the number of distinct training tokens.
func (m *Model) VocabularySize() int {
	return m.vocabularySize
}

// Stats returns summary counts for the model.
func (m *Model) Stats() Stats {
	s := Stats{
		Examples:       m.examples,
		VocabularySize: m.vocabularySize,
		Labels:         m.Labels(),
		ExamplesPer:    make(map[mood.Label]int, len(m.labels)),
		TokensPer:      make(map[mood.Label]int, len(m.labels)),
	}
	for _, label := range m.labels {
		s.ExamplesPer[label] = m.docCounts[label]
		s.TokensPer[label] = m.tokenTotals[label]
	}
	return s
}
