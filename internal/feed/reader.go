package feed

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/paperwheel/arxiv-feed-bot/internal/pipeline"
)

// Reader parses a previously written feed document back into records.
type Reader struct {
	parser *gofeed.Parser
}

// NewReader constructs a Reader.
func NewReader() *Reader {
	return &Reader{parser: gofeed.NewParser()}
}

// Read parses the document at path into records.
func (r *Reader) Read(path string) ([]pipeline.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed file: %w", err)
	}
	defer f.Close()

	parsed, err := r.parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse feed file: %w", err)
	}

	records := make([]pipeline.Record, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		rec := pipeline.Record{
			GUID:        item.GUID,
			Title:       item.Title,
			Link:        item.Link,
			Description: item.Description,
			Categories:  item.Categories,
		}
		if item.PublishedParsed != nil {
			rec.Published = item.PublishedParsed.UTC()
		}
		records = append(records, rec)
	}
	return records, nil
}

// Latest returns the path of the most recently named feed document in dir.
// Filenames embed the run timestamp, so lexical order is chronological.
func Latest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read output directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".xml") {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no feed documents in %s", dir)
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}
