package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paperwheel/arxiv-feed-bot/internal/pipeline"
)

type countingFetcher struct {
	attempts int
	fails    int
	records  []pipeline.Record
}

func (f *countingFetcher) Fetch(_ context.Context, _ pipeline.FetchParams) ([]pipeline.Record, error) {
	f.attempts++
	if f.attempts <= f.fails {
		return nil, errors.New("transient error")
	}
	return f.records, nil
}

func noSleep(_ context.Context, _ time.Duration) error { return nil }

func TestRetryingFetcher_SucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	// Fails 2 times, succeeds on 3rd attempt.
	inner := &countingFetcher{fails: 2, records: []pipeline.Record{{GUID: "a"}}}
	f := NewRetryingFetcher(inner, zap.NewNop())
	f.sleep = noSleep

	records, err := f.Fetch(context.Background(), pipeline.FetchParams{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 3, inner.attempts)
}

func TestRetryingFetcher_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	inner := &countingFetcher{fails: 5}
	f := NewRetryingFetcher(inner, zap.NewNop())
	f.sleep = noSleep

	_, err := f.Fetch(context.Background(), pipeline.FetchParams{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "after 3 attempts")
	require.Equal(t, 3, inner.attempts)
}

func TestRetryingFetcher_AcceptsEmptyResult(t *testing.T) {
	t.Parallel()

	// An empty successful response is a valid outcome, not a retry trigger.
	inner := &countingFetcher{records: nil}
	f := NewRetryingFetcher(inner, zap.NewNop())
	f.sleep = noSleep

	records, err := f.Fetch(context.Background(), pipeline.FetchParams{})
	require.NoError(t, err)
	require.Empty(t, records)
	require.Equal(t, 1, inner.attempts)
}

func TestRetryingFetcher_ContextCancelStopsBackoff(t *testing.T) {
	t.Parallel()

	inner := &countingFetcher{fails: 5}
	f := NewRetryingFetcher(inner, zap.NewNop()).WithBackoff(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, pipeline.FetchParams{})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, inner.attempts)
}
