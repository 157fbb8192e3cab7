// Package history persists the per-run audit ledger.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/paperwheel/arxiv-feed-bot/internal/pipeline"
)

// Entry is the per-record tuple stored in a history document.
type Entry struct {
	Title          string     `json:"title"`
	ID             string     `json:"id"`
	Published      *time.Time `json:"published"`
	Categories     []string   `json:"categories"`
	KeywordMatches []string   `json:"keyword_matches"`
}

// Document is the immutable audit record written once per successful run.
type Document struct {
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Config      pipeline.RunConfig `json:"config"`
	PapersCount int                `json:"papers_count"`
	Papers      []Entry            `json:"papers"`
	OutputFile  string             `json:"output_file"`
}

// FileStore writes one JSON document per run under a dedicated directory,
// named by a freshly generated identifier. Documents are never mutated or
// deleted here; retention is an external concern.
type FileStore struct {
	dir     string
	enabled bool
	ids     pipeline.IDGenerator
	clock   pipeline.Clock
	logger  *zap.Logger
}

// NewFileStore constructs a FileStore. When enabled is false, Record is a
// no-op returning an empty identifier.
func NewFileStore(dir string, enabled bool, ids pipeline.IDGenerator, clock pipeline.Clock, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{dir: dir, enabled: enabled, ids: ids, clock: clock, logger: logger}
}

// Record writes the history document and returns its identifier. Errors are
// returned for the caller to log; they must never abort the run.
func (s *FileStore) Record(cfg pipeline.RunConfig, records []pipeline.Record, feedPath string) (string, error) {
	if !s.enabled {
		return "", nil
	}

	id, err := s.ids.NewID()
	if err != nil {
		return "", fmt.Errorf("generate history id: %w", err)
	}

	doc := Document{
		ID:          id,
		Timestamp:   s.clock.Now(),
		Config:      cfg,
		PapersCount: len(records),
		Papers:      make([]Entry, 0, len(records)),
		OutputFile:  filepath.Base(feedPath),
	}
	for _, rec := range records {
		entry := Entry{
			Title:          rec.Title,
			ID:             rec.Identity(),
			Categories:     rec.Categories,
			KeywordMatches: rec.MatchedKeywords,
		}
		if !rec.Published.IsZero() {
			published := rec.Published
			entry.Published = &published
		}
		doc.Papers = append(doc.Papers, entry)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal history document: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("create history directory: %w", err)
	}
	path := filepath.Join(s.dir, id+".json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write history document: %w", err)
	}
	s.logger.Debug("saved history document", zap.String("path", path))
	return id, nil
}
