/*
Package classifier implements a multinomial Naive Bayes mood classifier.

Train builds a Model from a corpus snapshot; it is a pure function of its
input, so the same corpus always yields the same model. A Model is read-only
after Train returns and is safe for concurrent use.

Likelihoods use Laplace (add-one) smoothing:

	P(token|label) = (count(token,label) + 1) / (tokens(label) + |V|)

so every probability is strictly positive.
*/
package classifier

import (
	"errors"
	"math"
	"sort"

	"github.com/khanglvm/moodbrain/internal/corpus"
	"github.com/khanglvm/moodbrain/internal/features"
	"github.com/khanglvm/moodbrain/internal/mood"
)

// Train builds a model from every example in c, tokenized with ex.
// An empty or nil corpus fails with an error matching corpus.ErrCorpusUnavailable.
func Train(c *corpus.Corpus, ex *features.Extractor) (*Model, error) {
	if ex == nil {
		return nil, errors.New("classifier: nil feature extractor")
	}
	if c.Len() == 0 {
		return nil, &corpus.UnavailableError{Reason: "no training examples"}
	}

	docCounts := make(map[mood.Label]int)
	tokenCounts := make(map[mood.Label]map[string]int)
	tokenTotals := make(map[mood.Label]int)
	vocabulary := make(map[string]struct{})

	examples := c.Examples()
	for _, example := range examples {
		label := example.Label
		docCounts[label]++
		if tokenCounts[label] == nil {
			tokenCounts[label] = make(map[string]int)
		}
		for _, tok := range ex.Tokenize(example.Text) {
			vocabulary[tok] = struct{}{}
			tokenCounts[label][tok]++
			tokenTotals[label]++
		}
	}

	labels := make([]mood.Label, 0, len(docCounts))
	for label := range docCounts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	m := &Model{
		extractor:      ex,
		labels:         labels,
		examples:       len(examples),
		vocabularySize: len(vocabulary),
		docCounts:      docCounts,
		tokenCounts:    tokenCounts,
		tokenTotals:    tokenTotals,
		logPriors:      make(map[mood.Label]float64, len(labels)),
		logLikelihoods: make(map[mood.Label]map[string]float64, len(labels)),
		logUnseen:      make(map[mood.Label]float64, len(labels)),
	}

	total := float64(len(examples))
	vocabSize := float64(len(vocabulary))
	for _, label := range labels {
		m.logPriors[label] = math.Log(float64(docCounts[label]) / total)

		denominator := float64(tokenTotals[label]) + vocabSize
		likelihoods := make(map[string]float64, len(vocabulary))
		for tok := range vocabulary {
			likelihoods[tok] = math.Log(float64(tokenCounts[label][tok]+1) / denominator)
		}
		m.logLikelihoods[label] = likelihoods
		m.logUnseen[label] = math.Log(1 / denominator)
	}

	return m, nil
}
