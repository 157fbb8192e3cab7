package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paperwheel/arxiv-feed-bot/internal/pipeline"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestMatchKeywords(t *testing.T) {
	t.Parallel()

	keywords := []string{"Neural Network", "transformer", "RL"}

	// Case-insensitive substring matching, preserving configured order and casing.
	matched := MatchKeywords("A survey of neural networks and TRANSFORMER models", keywords)
	require.Equal(t, []string{"Neural Network", "transformer"}, matched)

	// Substring containment has no word boundaries: "RL" matches inside "world".
	require.Equal(t, []string{"RL"}, MatchKeywords("hello world", keywords))

	require.Empty(t, MatchKeywords("unrelated text", []string{"quantum"}))
	require.Empty(t, MatchKeywords("anything", nil))
}

func TestFilterer_Apply(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	f := New(Config{
		Keywords:   []string{"diffusion"},
		MaxDaysOld: 7,
		Categories: []string{"cs.AI"},
	}, &fakeClock{now: now}, zap.NewNop())

	records := []pipeline.Record{
		{
			GUID:       "fresh-match",
			Title:      "Diffusion models revisited",
			Published:  now.AddDate(0, 0, -2),
			Categories: []string{"cs.AI"},
		},
		{
			GUID:       "stale",
			Title:      "Old diffusion work",
			Published:  now.AddDate(0, 0, -30),
			Categories: []string{"cs.AI"},
		},
		{
			GUID:       "wrong-category",
			Title:      "Diffusion in fluids",
			Published:  now.AddDate(0, 0, -1),
			Categories: []string{"physics.flu-dyn"},
		},
		{
			GUID:       "no-keyword",
			Title:      "Graph neural networks",
			Published:  now.AddDate(0, 0, -1),
			Categories: []string{"cs.AI"},
		},
	}

	passed := f.Apply(records)
	require.Len(t, passed, 1)
	require.Equal(t, "fresh-match", passed[0].GUID)
	require.Equal(t, []string{"diffusion"}, passed[0].MatchedKeywords)
}

func TestFilterer_NoKeywordsPassesEverything(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	f := New(Config{MaxDaysOld: 7}, &fakeClock{now: now}, zap.NewNop())

	passed := f.Apply([]pipeline.Record{
		{GUID: "a", Title: "anything", Published: now.AddDate(0, 0, -1)},
		{GUID: "b", Title: "undated"},
	})
	require.Len(t, passed, 2)
	require.Empty(t, passed[0].MatchedKeywords)
}

func TestFilterer_CategoryMatchIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	f := New(Config{Categories: []string{"CS.ai"}}, &fakeClock{now: now}, zap.NewNop())

	passed := f.Apply([]pipeline.Record{
		{GUID: "a", Categories: []string{"cs.AI"}, Published: now},
	})
	require.Len(t, passed, 1)
}
