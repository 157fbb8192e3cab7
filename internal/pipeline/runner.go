package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/paperwheel/arxiv-feed-bot/internal/metrics"
)

// RunnerConfig controls Runner behavior.
type RunnerConfig struct {
	PublishEnabled bool
	PublishLimit   int
	NotifyOnError  bool
}

// Runner executes the full pipeline: fetch, filter, write the feed, record
// history, and optionally deliver to the remote sink.
type Runner struct {
	fetcher   Fetcher
	filterer  Filterer
	writer    FeedWriter
	history   HistoryStore
	publisher SinkPublisher
	notifier  Notifier
	clock     Clock
	cfg       RunnerConfig
	logger    *zap.Logger
}

// NewRunner constructs a Runner. The publisher and notifier may be nil when
// the corresponding features are disabled.
func NewRunner(
	fetcher Fetcher,
	filterer Filterer,
	writer FeedWriter,
	history HistoryStore,
	publisher SinkPublisher,
	notifier Notifier,
	clock Clock,
	cfg RunnerConfig,
	logger *zap.Logger,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		fetcher:   fetcher,
		filterer:  filterer,
		writer:    writer,
		history:   history,
		publisher: publisher,
		notifier:  notifier,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run executes one pipeline invocation. Fetch and feed serialization faults
// are fatal; history, ledger, and per-record sink faults are collected as
// soft failures on the result.
func (r *Runner) Run(ctx context.Context, params FetchParams, runCfg RunConfig) (RunResult, error) {
	start := r.clock.Now()
	r.logger.Info("starting pipeline run",
		zap.Int("max_days", params.MaxDays),
		zap.Int("max_results", params.MaxResults),
		zap.Strings("categories", params.Categories),
	)

	records, err := r.fetcher.Fetch(ctx, params)
	if err != nil {
		r.fail(fmt.Sprintf("fetch failed: %v", err))
		metrics.ObserveRun("failed", r.clock.Now().Sub(start))
		return RunResult{Success: false, Message: "fetch failed"}, fmt.Errorf("fetch records: %w", err)
	}
	metrics.ObserveFetched(len(records))
	r.logger.Info("fetched records", zap.Int("count", len(records)))

	filtered := r.filterer.Apply(records)
	metrics.ObserveFiltered(len(filtered))
	r.logger.Info("filtered records", zap.Int("count", len(filtered)))

	result := RunResult{Success: true, PapersCount: len(filtered)}
	if len(filtered) == 0 {
		result.Message = "no records passed filters"
		result.Elapsed = r.clock.Now().Sub(start)
		metrics.ObserveRun("succeeded", result.Elapsed)
		return result, nil
	}

	feedPath, err := r.writer.Write(filtered)
	if err != nil {
		r.fail(fmt.Sprintf("feed generation failed: %v", err))
		metrics.ObserveRun("failed", r.clock.Now().Sub(start))
		return RunResult{Success: false, Message: "feed generation failed"}, fmt.Errorf("write feed: %w", err)
	}
	result.OutputFile = feedPath
	r.logger.Info("generated feed", zap.String("path", feedPath))

	historyID, err := r.history.Record(runCfg, filtered, feedPath)
	if err != nil {
		// History is a secondary audit concern and never aborts the run.
		r.logger.Error("history record failed", zap.Error(err))
		result.SoftFailures = append(result.SoftFailures, fmt.Sprintf("history: %v", err))
	} else if historyID != "" {
		result.HistoryID = historyID
		r.logger.Info("saved history record", zap.String("history_id", historyID))
	}

	if r.cfg.PublishEnabled && r.publisher != nil {
		pub := r.publisher.Publish(ctx, filtered, r.cfg.PublishLimit)
		r.logger.Info("sink publish finished",
			zap.Int("created", pub.Created),
			zap.Int("skipped", pub.Skipped),
			zap.Int("errors", len(pub.Errors)),
		)
		for _, re := range pub.Errors {
			result.SoftFailures = append(result.SoftFailures,
				fmt.Sprintf("sink: %s (status %d): %s", re.Title, re.Status, re.Detail))
		}
		result.SoftFailures = append(result.SoftFailures, pub.SoftFailures...)
	}

	result.Message = "pipeline completed successfully"
	result.Elapsed = r.clock.Now().Sub(start)
	metrics.ObserveRun("succeeded", result.Elapsed)
	r.logger.Info("pipeline completed",
		zap.Int("papers", result.PapersCount),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func (r *Runner) fail(detail string) {
	r.logger.Error("pipeline run failed", zap.String("detail", detail))
	if !r.cfg.NotifyOnError || r.notifier == nil {
		return
	}
	if err := r.notifier.Notify("arXiv feed bot run failed", detail); err != nil {
		r.logger.Error("error notification failed", zap.Error(err))
	}
}
