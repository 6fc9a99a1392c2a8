/*
Package mood defines the closed set of emotion labels the classifier can produce.

A Vocabulary is built once from configuration at process start and never
changes afterwards. Every label that enters the system (corpus rows, user
corrections, model output) is checked against it.
*/
package mood

import (
	"fmt"
	"sort"
	"strings"
)

// Label is a single emotion category.
type Label string

// NoLabel marks an absent label, e.g. when the model made no suggestion.
const NoLabel Label = ""

// DefaultLabels is the vocabulary used when the configuration does not name one.
var DefaultLabels = []Label{"angry", "anxious", "calm", "happy", "love", "sad", "tired"}

// String returns the label name.
func (l Label) String() string {
	return string(l)
}

// UnknownLabelError is returned when a label is not part of the vocabulary.
type UnknownLabelError struct {
	Label string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("unknown mood label %q", e.Label)
}

// Vocabulary is an immutable, lexicographically ordered set of labels.
type Vocabulary struct {
	labels []Label
	index  map[Label]struct{}
}

// NewVocabulary builds a vocabulary from label names.
// Names are trimmed and lowercased; empty or duplicate names are rejected.
func NewVocabulary(names []string) (*Vocabulary, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("label vocabulary is empty")
	}

	v := &Vocabulary{
		labels: make([]Label, 0, len(names)),
		index:  make(map[Label]struct{}, len(names)),
	}
	for _, name := range names {
		label := Label(canonical(name))
		if label == NoLabel {
			return nil, fmt.Errorf("label vocabulary contains an empty label")
		}
		if _, exists := v.index[label]; exists {
			return nil, fmt.Errorf("label vocabulary contains %q twice", label)
		}
		v.index[label] = struct{}{}
		v.labels = append(v.labels, label)
	}

	sort.Slice(v.labels, func(i, j int) bool { return v.labels[i] < v.labels[j] })
	return v, nil
}

// DefaultVocabulary returns the built-in seven-label vocabulary.
func DefaultVocabulary() *Vocabulary {
	names := make([]string, len(DefaultLabels))
	for i, l := range DefaultLabels {
		names[i] = string(l)
	}
	v, err := NewVocabulary(names)
	if err != nil {
		panic(err)
	}
	return v
}

// Labels returns the labels in lexicographic order.
func (v *Vocabulary) Labels() []Label {
	out := make([]Label, len(v.labels))
	copy(out, v.labels)
	return out
}

// Len returns the number of labels.
func (v *Vocabulary) Len() int {
	return len(v.labels)
}

// Contains reports whether label is part of the vocabulary.
func (v *Vocabulary) Contains(label Label) bool {
	_, ok := v.index[label]
	return ok
}

// Parse converts user input into a label of the vocabulary.
func (v *Vocabulary) Parse(name string) (Label, error) {
	label := Label(canonical(name))
	if !v.Contains(label) {
		return NoLabel, &UnknownLabelError{Label: name}
	}
	return label, nil
}

func canonical(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
