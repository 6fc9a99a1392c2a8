package corpus

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/khanglvm/moodbrain/internal/mood"
)

//go:embed data/seed.json
var seedData []byte

// Seed returns the built-in starter corpus, restricted to labels in vocab.
func Seed(vocab *mood.Vocabulary) (*Corpus, error) {
	var examples []Example
	if err := json.Unmarshal(seedData, &examples); err != nil {
		return nil, fmt.Errorf("failed to decode seed corpus: %w", err)
	}

	c := New()
	for _, ex := range examples {
		if vocab != nil && !vocab.Contains(ex.Label) {
			continue
		}
		if err := c.Add(ex); err != nil {
			return nil, fmt.Errorf("seed corpus: %w", err)
		}
	}
	return c, nil
}
