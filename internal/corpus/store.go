package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/khanglvm/moodbrain/internal/mood"
)

// Store loads and persists a whole corpus.
type Store interface {
	// Load reads the current corpus. Failures match ErrCorpusUnavailable.
	Load(ctx context.Context) (*Corpus, error)

	// Save replaces the persisted corpus with c.
	Save(ctx context.Context, c *Corpus) error
}

// FileStore keeps the corpus in a JSON file and replaces it atomically.
type FileStore struct {
	path   string
	vocab  *mood.Vocabulary
	logger *zap.Logger
}

// NewFileStore returns a store for the JSON file at path.
// Labels read from disk are validated against vocab.
func NewFileStore(path string, vocab *mood.Vocabulary, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, vocab: vocab, logger: logger}
}

// Path returns the corpus file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and validates the corpus file.
func (s *FileStore) Load(ctx context.Context) (*Corpus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		reason := "unreadable"
		if os.IsNotExist(err) {
			reason = "file not found"
		}
		return nil, &UnavailableError{Path: s.path, Reason: reason, Err: err}
	}

	var examples []Example
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, &UnavailableError{Path: s.path, Reason: "malformed JSON", Err: err}
	}

	c, err := FromExamples(examples)
	if err != nil {
		return nil, &UnavailableError{Path: s.path, Reason: "invalid example", Err: err}
	}
	if s.vocab != nil {
		if err := c.Validate(s.vocab); err != nil {
			return nil, &UnavailableError{Path: s.path, Reason: "invalid label", Err: err}
		}
	}

	s.logger.Debug("Corpus loaded", zap.String("path", s.path), zap.Int("examples", c.Len()))
	return c, nil
}

// Save writes the corpus with a .bak copy of the previous file and an atomic rename.
func (s *FileStore) Save(ctx context.Context, c *Corpus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c.Examples(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal corpus: %w", err)
	}

	if err := backupFile(s.path); err != nil {
		s.logger.Warn("Failed to back up corpus", zap.String("path", s.path), zap.Error(err))
	}

	if err := atomicWrite(s.path, data); err != nil {
		return fmt.Errorf("failed to write corpus %s: %w", s.path, err)
	}

	s.logger.Info("Corpus saved", zap.String("path", s.path), zap.Int("examples", c.Len()))
	return nil
}

func backupFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // first write
		}
		return err
	}
	return os.WriteFile(path+".bak", data, 0644)
}

func atomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}
