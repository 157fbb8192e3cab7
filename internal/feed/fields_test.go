package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paperwheel/arxiv-feed-bot/internal/pipeline"
)

func TestFirstItemFields(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 20, 15, 4, 5, 0, time.UTC)
	w := NewWriter(WriterConfig{OutputDir: t.TempDir()}, &fakeClock{now: now}, zap.NewNop())

	path, err := w.Write([]pipeline.Record{
		{
			GUID:        "id-1",
			Title:       "First",
			Link:        "https://example.com/1",
			Description: "body",
			Published:   now,
			Categories:  []string{"cs.AI", "cs.LG"},
		},
		{
			GUID:  "id-2",
			Title: "Second, ignored: only the first item is inspected",
		},
	})
	require.NoError(t, err)

	fields, err := FirstItemFields(path)
	require.NoError(t, err)
	// Document order, duplicates (the two category elements) collapsed.
	require.Equal(t, []string{"title", "link", "description", "pubDate", "category", "guid"}, fields)
}

func TestFirstItemFields_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := FirstItemFields("does-not-exist.xml")
	require.Error(t, err)
}
