package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/khanglvm/moodbrain/internal/mood"
)

const defaultLimit = 10

var errClosed = errors.New("search index closed")

// Similar returns examples sharing stemmed words with text, best first.
// A non-empty label restricts hits to that label.
func (i *Indexer) Similar(text string, label mood.Label, limit int) ([]Result, error) {
	stems := i.extractor.Unique(text)
	if len(stems) == 0 {
		return []Result{}, nil
	}

	// Stems carry the match; the raw text lifts exact word forms.
	stemsQuery := bleve.NewMatchQuery(strings.Join(stems, " "))
	stemsQuery.SetField("stems")
	textQuery := bleve.NewMatchQuery(text)
	textQuery.SetField("text")
	textQuery.SetBoost(0.5)

	var q query.Query = bleve.NewDisjunctionQuery(stemsQuery, textQuery)
	if label != mood.NoLabel {
		q = bleve.NewConjunctionQuery(q, labelQuery(label))
	}

	return i.search(q, limit)
}

// ByLabel returns up to limit examples with the given label.
func (i *Indexer) ByLabel(label mood.Label, limit int) ([]Result, error) {
	return i.search(labelQuery(label), limit)
}

// All returns up to limit indexed examples.
func (i *Indexer) All(limit int) ([]Result, error) {
	return i.search(bleve.NewMatchAllQuery(), limit)
}

func labelQuery(label mood.Label) query.Query {
	q := bleve.NewTermQuery(string(label))
	q.SetField("label")
	return q
}

func (i *Indexer) search(q query.Query, limit int) ([]Result, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.closed {
		return nil, errClosed
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	searchRequest := bleve.NewSearchRequestOptions(q, limit, 0, false)
	searchRequest.Fields = []string{"text", "label"}

	results, err := i.bleveIndex.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	return convertBleveResults(results), nil
}

// convertBleveResults converts Bleve search results to our Result format.
func convertBleveResults(results *bleve.SearchResult) []Result {
	out := make([]Result, 0, len(results.Hits))
	for _, hit := range results.Hits {
		text, _ := hit.Fields["text"].(string)
		label, _ := hit.Fields["label"].(string)
		out = append(out, Result{
			Text:  text,
			Label: mood.Label(label),
			Score: hit.Score,
		})
	}
	return out
}
