/*
Package features turns raw text into the stemmed tokens the classifier works on.

Training and inference must see identical tokens, so a trained model keeps a
reference to the Extractor it was built with and reuses it when classifying.
*/
package features

import (
	"strings"
	"unicode"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
)

// Extractor produces canonical tokens from text.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Tokenize lowercases text, splits it on every rune that is not a letter or a
// digit, and Porter-stems each word. Empty input yields no tokens.
func (e *Extractor) Tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), isSeparator)
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		stem := string(porterstemmer.StemWithoutLowerCasing([]rune(word)))
		if stem == "" {
			continue
		}
		tokens = append(tokens, stem)
	}
	return tokens
}

// Unique returns the distinct tokens of text in first-seen order.
func (e *Extractor) Unique(text string) []string {
	tokens := e.Tokenize(text)
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, tok := range tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}
