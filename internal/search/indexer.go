package search

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/whitespace"
	"github.com/blevesearch/bleve/v2/mapping"
	"go.uber.org/zap"

	"github.com/khanglvm/moodbrain/internal/corpus"
	"github.com/khanglvm/moodbrain/internal/features"
)

// stemsAnalyzer splits the pre-stemmed field on spaces and nothing else.
const stemsAnalyzer = "moodbrain_stems"

// Indexer manages the search index over corpus examples.
type Indexer struct {
	bleveIndex bleve.Index
	extractor  *features.Extractor
	logger     *zap.Logger
	mu         sync.RWMutex
	closed     bool
}

// NewIndexer creates an empty in-memory index. Queries and documents are
// stemmed with extractor.
func NewIndexer(extractor *features.Extractor, logger *zap.Logger) (*Indexer, error) {
	if extractor == nil {
		extractor = features.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	index, err := newMemIndex()
	if err != nil {
		return nil, err
	}

	return &Indexer{
		bleveIndex: index,
		extractor:  extractor,
		logger:     logger,
	}, nil
}

func newMemIndex() (bleve.Index, error) {
	indexMapping, err := buildIndexMapping()
	if err != nil {
		return nil, err
	}
	index, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}
	return index, nil
}

// buildIndexMapping creates the Bleve index mapping.
func buildIndexMapping() (mapping.IndexMapping, error) {
	indexMapping := bleve.NewIndexMapping()
	if err := indexMapping.AddCustomAnalyzer(stemsAnalyzer, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": whitespace.Name,
	}); err != nil {
		return nil, fmt.Errorf("failed to register stems analyzer: %w", err)
	}

	exampleMapping := bleve.NewDocumentMapping()

	// Text field: searchable and returned with hits
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Store = true
	exampleMapping.AddFieldMappingsAt("text", textFieldMapping)

	// Label field: exact match for filtering
	labelFieldMapping := bleve.NewTextFieldMapping()
	labelFieldMapping.Analyzer = keyword.Name
	labelFieldMapping.Store = true
	labelFieldMapping.IncludeInAll = false
	exampleMapping.AddFieldMappingsAt("label", labelFieldMapping)

	// Stems field: extractor output, not stored
	stemsFieldMapping := bleve.NewTextFieldMapping()
	stemsFieldMapping.Analyzer = stemsAnalyzer
	stemsFieldMapping.Store = false
	stemsFieldMapping.IncludeInAll = false
	exampleMapping.AddFieldMappingsAt("stems", stemsFieldMapping)

	indexMapping.DefaultMapping = exampleMapping
	return indexMapping, nil
}

// IndexCorpus replaces the index contents with the examples of c.
func (i *Indexer) IndexCorpus(c *corpus.Corpus) error {
	fresh, err := newMemIndex()
	if err != nil {
		return err
	}

	batch := fresh.NewBatch()
	for _, ex := range c.Examples() {
		doc := map[string]interface{}{
			"text":  ex.Text,
			"label": string(ex.Label),
			"stems": strings.Join(i.extractor.Tokenize(ex.Text), " "),
		}

		// The normalized text is unique within a corpus.
		docID := corpus.Normalize(ex.Text)
		if err := batch.Index(docID, doc); err != nil {
			i.logger.Warn("Failed to index example", zap.String("id", docID), zap.Error(err))
		}
	}

	if err := fresh.Batch(batch); err != nil {
		fresh.Close()
		return fmt.Errorf("failed to batch index examples: %w", err)
	}

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		fresh.Close()
		return errClosed
	}
	old := i.bleveIndex
	i.bleveIndex = fresh
	i.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			i.logger.Warn("Failed to close previous index", zap.Error(err))
		}
	}
	return nil
}

// Count returns the total number of indexed examples.
func (i *Indexer) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.closed {
		return 0, errClosed
	}
	docCount, err := i.bleveIndex.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to get doc count: %w", err)
	}

	return docCount, nil
}

// Close closes the index and releases resources. A closed Indexer
// rejects further queries and rebuilds.
func (i *Indexer) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.closed = true
	if i.bleveIndex != nil {
		err := i.bleveIndex.Close()
		i.bleveIndex = nil
		return err
	}

	return nil
}
