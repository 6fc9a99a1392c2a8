/*
Package search finds corpus examples similar to a piece of text.

Examples are kept in an in-memory Bleve index with the raw text, the label,
and the feature extractor's stemmed tokens, so a query matches the same
word forms the classifier sees.
*/
package search

import "github.com/khanglvm/moodbrain/internal/mood"

// Result is a matching corpus example with its relevance score.
type Result struct {
	Text  string     `json:"text"`
	Label mood.Label `json:"label"`
	Score float64    `json:"score"`
}
