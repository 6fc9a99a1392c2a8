/*
Package corpus holds the labeled training examples the classifier learns from.

A Corpus is an ordered list of examples keyed by normalized text (trimmed and
lowercased), so duplicate detection is a map lookup. A loaded Corpus is never
edited in place: writers Clone it, append, and persist the copy wholesale.

On disk the corpus is a JSON array:

	[
	  {"text": "I finally got the job!", "label": "happy"},
	  {"text": "Can't stop crying today", "label": "sad"}
	]
*/
package corpus

import (
	"errors"
	"fmt"
	"strings"

	"github.com/khanglvm/moodbrain/internal/mood"
)

// ErrDuplicateExample is returned when an example's normalized text is already present.
var ErrDuplicateExample = errors.New("duplicate corpus example")

// Example is a single labeled training sample.
type Example struct {
	Text  string     `json:"text"`
	Label mood.Label `json:"label"`
}

// Corpus is an ordered, duplicate-free collection of examples.
type Corpus struct {
	examples []Example
	keys     map[string]int
}

// Normalize returns the dedup key for text.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// New returns an empty corpus.
func New() *Corpus {
	return &Corpus{keys: make(map[string]int)}
}

// FromExamples builds a corpus, rejecting blank texts and duplicates.
func FromExamples(examples []Example) (*Corpus, error) {
	c := &Corpus{
		examples: make([]Example, 0, len(examples)),
		keys:     make(map[string]int, len(examples)),
	}
	for i, ex := range examples {
		if err := c.Add(ex); err != nil {
			return nil, fmt.Errorf("example %d: %w", i, err)
		}
	}
	return c, nil
}

// Add appends an example. The stored text is trimmed.
func (c *Corpus) Add(ex Example) error {
	key := Normalize(ex.Text)
	if key == "" {
		return fmt.Errorf("example text is empty")
	}
	if ex.Label == mood.NoLabel {
		return fmt.Errorf("example %q has no label", ex.Text)
	}
	if _, exists := c.keys[key]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateExample, ex.Text)
	}

	ex.Text = strings.TrimSpace(ex.Text)
	c.keys[key] = len(c.examples)
	c.examples = append(c.examples, ex)
	return nil
}

// Contains reports whether an example with the same normalized text exists.
func (c *Corpus) Contains(text string) bool {
	_, ok := c.keys[Normalize(text)]
	return ok
}

// Lookup returns the example stored for text, if any.
func (c *Corpus) Lookup(text string) (Example, bool) {
	i, ok := c.keys[Normalize(text)]
	if !ok {
		return Example{}, false
	}
	return c.examples[i], true
}

// Len returns the number of examples.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.examples)
}

// Examples returns a copy of the examples in insertion order.
func (c *Corpus) Examples() []Example {
	out := make([]Example, len(c.examples))
	copy(out, c.examples)
	return out
}

// Clone returns an independent copy.
func (c *Corpus) Clone() *Corpus {
	clone := &Corpus{
		examples: make([]Example, len(c.examples)),
		keys:     make(map[string]int, len(c.keys)),
	}
	copy(clone.examples, c.examples)
	for k, v := range c.keys {
		clone.keys[k] = v
	}
	return clone
}

// LabelCounts returns the number of examples per label.
func (c *Corpus) LabelCounts() map[mood.Label]int {
	counts := make(map[mood.Label]int)
	for _, ex := range c.examples {
		counts[ex.Label]++
	}
	return counts
}

// Validate checks every label against the vocabulary.
func (c *Corpus) Validate(vocab *mood.Vocabulary) error {
	for i, ex := range c.examples {
		if !vocab.Contains(ex.Label) {
			return fmt.Errorf("example %d (%q): %w", i, ex.Text, &mood.UnknownLabelError{Label: string(ex.Label)})
		}
	}
	return nil
}
