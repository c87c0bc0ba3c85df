package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// Index wraps a Bleve index over the shop catalog. All methods are safe
// for concurrent use; the mutex keeps readers out during Rebuild.
type Index struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Logger for operations (uses stderr if nil)
}

// mappingVersion changes whenever the index mapping does, forcing a
// rebuild on the next startup. The catalog is the source of truth, so
// a rebuild only costs one reindex pass.
const mappingVersion = "1"

// NewIndex opens the index at <DataPath>/search.bleve, recreating it
// when missing, corrupted, or built with an outdated mapping.
func NewIndex(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	index, err := openExisting(indexPath, versionPath, logger)
	if err != nil {
		return nil, err
	}

	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0644); writeErr != nil {
			logger.Warn("failed to write search version file", "error", writeErr)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &Index{index: index, path: indexPath, logger: logger}, nil
}

// openExisting returns the usable on-disk index, or nil when a fresh
// one must be created. A stale mapping or unreadable index is removed
// rather than reported; only filesystem failures are errors.
func openExisting(indexPath, versionPath string, logger *slog.Logger) (bleve.Index, error) {
	if _, err := os.Stat(indexPath); err != nil {
		return nil, nil
	}

	stale := false
	existingVersion, err := os.ReadFile(versionPath)
	switch {
	case err != nil:
		logger.Info("search index has no version file, will rebuild with current mapping",
			"new_version", mappingVersion)
		stale = true
	case string(existingVersion) != mappingVersion:
		logger.Info("search index mapping version changed, will rebuild",
			"old_version", string(existingVersion), "new_version", mappingVersion)
		stale = true
	}

	if !stale {
		index, err := bleve.Open(indexPath)
		if err == nil {
			return index, nil
		}
		logger.Warn("failed to open existing index, will recreate", "path", indexPath, "error", err)
	}

	if err := os.RemoveAll(indexPath); err != nil {
		return nil, fmt.Errorf("remove old index: %w", err)
	}
	return nil, nil
}

// Close closes the index and releases resources.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexDocument indexes a single document.
func (s *Index) IndexDocument(doc *Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// The map form keeps field names aligned with the lowercase mapping.
	return s.index.Index(doc.ID, doc.ToMap())
}

// IndexDocuments indexes documents in batches of 500, bounding memory
// when a large organizer reindexes thousands of items at once.
func (s *Index) IndexDocuments(docs []*Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500
	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))

		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// DeleteDocument removes a document from the index.
func (s *Index) DeleteDocument(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// DeleteDocuments removes multiple documents in one batch.
func (s *Index) DeleteDocuments(ids []string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return s.index.Batch(batch)
}

// DocumentCount returns the total number of indexed documents.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and creates an empty one with the current
// mapping. It holds the exclusive lock, so callers should reindex from
// the catalog immediately afterwards.
func (s *Index) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)
	return nil
}
