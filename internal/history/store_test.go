package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paperwheel/arxiv-feed-bot/internal/pipeline"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type fakeIDGen struct{ id string }

func (g *fakeIDGen) NewID() (string, error) { return g.id, nil }

func TestFileStore_Record(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	published := now.AddDate(0, 0, -1)
	store := NewFileStore(dir, true, &fakeIDGen{id: "run-123"}, &fakeClock{now: now}, zap.NewNop())

	cfg := pipeline.RunConfig{
		Keywords:   []string{"diffusion"},
		MaxDaysOld: 7,
		Categories: []string{"cs.AI"},
	}
	records := []pipeline.Record{
		{
			GUID:            "http://arxiv.org/abs/2401.12345v1",
			Title:           "A Paper",
			Published:       published,
			Categories:      []string{"cs.AI"},
			MatchedKeywords: []string{"diffusion"},
		},
		{Title: "Undated paper"},
	}

	id, err := store.Record(cfg, records, filepath.Join("output", "20240120_120000_ALL.xml"))
	require.NoError(t, err)
	require.Equal(t, "run-123", id)

	data, err := os.ReadFile(filepath.Join(dir, "run-123.json"))
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, "run-123", doc.ID)
	require.Equal(t, cfg, doc.Config)
	require.Equal(t, 2, doc.PapersCount)
	require.Equal(t, "20240120_120000_ALL.xml", doc.OutputFile)
	require.Len(t, doc.Papers, 2)
	require.Equal(t, "http://arxiv.org/abs/2401.12345v1", doc.Papers[0].ID)
	require.NotNil(t, doc.Papers[0].Published)
	require.True(t, published.Equal(*doc.Papers[0].Published))
	require.Nil(t, doc.Papers[1].Published)
}

func TestFileStore_Disabled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewFileStore(dir, false, &fakeIDGen{id: "unused"}, &fakeClock{}, zap.NewNop())

	id, err := store.Record(pipeline.RunConfig{}, nil, "feed.xml")
	require.NoError(t, err)
	require.Empty(t, id)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
