// Package fetch implements the upstream record fetch and its retry wrapper.
package fetch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/paperwheel/arxiv-feed-bot/internal/metrics"
	"github.com/paperwheel/arxiv-feed-bot/internal/pipeline"
)

// RetryingFetcher wraps a Fetcher with bounded retries and a fixed back-off.
// An empty-but-successful result is accepted immediately: upstream soft
// faults surface as errors, not as empty lists.
type RetryingFetcher struct {
	inner       pipeline.Fetcher
	maxAttempts int
	backoff     time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	logger      *zap.Logger
}

// NewRetryingFetcher builds a wrapper with the standard 3 attempts and a
// 60 second back-off between them.
func NewRetryingFetcher(inner pipeline.Fetcher, logger *zap.Logger) *RetryingFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingFetcher{
		inner:       inner,
		maxAttempts: 3,
		backoff:     60 * time.Second,
		sleep:       sleepContext,
		logger:      logger,
	}
}

// WithBackoff overrides the back-off interval. Mainly for tests.
func (f *RetryingFetcher) WithBackoff(d time.Duration) *RetryingFetcher {
	f.backoff = d
	return f
}

// Fetch calls the wrapped fetcher up to the attempt ceiling. The last error
// is propagated once attempts are exhausted; the caller must treat that as a
// fatal run failure rather than an empty result.
func (f *RetryingFetcher) Fetch(ctx context.Context, params pipeline.FetchParams) ([]pipeline.Record, error) {
	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		records, err := f.inner.Fetch(ctx, params)
		if err == nil {
			return records, nil
		}
		lastErr = err
		metrics.ObserveFetchRetry()
		f.logger.Warn("fetch attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", f.maxAttempts),
			zap.Error(err),
		)
		if attempt == f.maxAttempts {
			break
		}
		if err := f.sleep(ctx, f.backoff); err != nil {
			return nil, fmt.Errorf("fetch retry interrupted: %w", err)
		}
	}
	return nil, fmt.Errorf("fetch failed after %d attempts: %w", f.maxAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
