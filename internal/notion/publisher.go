package notion

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/paperwheel/arxiv-feed-bot/internal/metrics"
	"github.com/paperwheel/arxiv-feed-bot/internal/pipeline"
)

// API is the full sink surface the publisher drives.
type API interface {
	SchemaAPI
	QueryPages(ctx context.Context) ([]Page, error)
	CreatePage(ctx context.Context, properties map[string]any, children []any) error
	UpdatePage(ctx context.Context, pageID string, properties map[string]any) error
}

// Publisher delivers records to the sink in two modes: ledger-gated appends
// (Publish) and a title-keyed update-or-create pass (Backfill).
type Publisher struct {
	api        API
	ledger     pipeline.Ledger
	reconciler *Reconciler
	keywords   []string
	logger     *zap.Logger
}

// NewPublisher constructs a Publisher over its own per-sink ledger.
func NewPublisher(api API, led pipeline.Ledger, keywords []string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		api:        api,
		ledger:     led,
		reconciler: NewReconciler(api, logger),
		keywords:   keywords,
		logger:     logger,
	}
}

// Publish creates a page for each record not already in the ledger, up to
// limit creations. Per-record failures are collected and never abort the
// batch. Deduplication is against the ledger as loaded: marks are applied
// after the loop, so records sharing an identity within one batch are all
// delivered and skipped together on the next run.
func (p *Publisher) Publish(ctx context.Context, records []pipeline.Record, limit int) pipeline.PublishResult {
	var result pipeline.PublishResult

	schema, soft := p.reconciler.Reconcile(ctx, nil)
	result.SoftFailures = append(result.SoftFailures, soft...)

	if err := p.ledger.Load(); err != nil {
		p.logger.Warn("ledger load failed, proceeding empty", zap.Error(err))
		result.SoftFailures = append(result.SoftFailures, fmt.Sprintf("ledger load: %v", err))
	}

	var delivered []string
	for _, rec := range records {
		if limit > 0 && result.Created >= limit {
			break
		}
		identity := rec.Identity()
		if identity == "" {
			// Not eligible for ledger-tracked delivery.
			result.Skipped++
			continue
		}
		if p.ledger.Contains(identity) {
			result.Skipped++
			continue
		}

		props := BuildProperties(rec, schema, p.keywords)
		err := p.api.CreatePage(ctx, props, descriptionChildren(rec.Description))
		if err != nil {
			result.Errors = append(result.Errors, recordError(rec.Title, err))
			metrics.ObserveSinkPage("error")
			continue
		}
		result.Created++
		delivered = append(delivered, identity)
		metrics.ObserveSinkPage("created")
		p.logger.Debug("created sink page", zap.String("title", rec.Title))
	}

	for _, identity := range delivered {
		p.ledger.Mark(identity)
	}
	p.persistLedger(&result)
	return result
}

// Backfill updates the properties of every record whose exact title already
// exists in the database, and creates the rest. The full remote listing is
// drained before any write. Title matching is a heuristic identity join:
// colliding titles merge and retitled records duplicate.
func (p *Publisher) Backfill(ctx context.Context, records []pipeline.Record) (pipeline.PublishResult, error) {
	var result pipeline.PublishResult

	schema, soft := p.reconciler.Reconcile(ctx, nil)
	result.SoftFailures = append(result.SoftFailures, soft...)

	if err := p.ledger.Load(); err != nil {
		p.logger.Warn("ledger load failed, proceeding empty", zap.Error(err))
		result.SoftFailures = append(result.SoftFailures, fmt.Sprintf("ledger load: %v", err))
	}

	pages, err := p.api.QueryPages(ctx)
	if err != nil {
		return result, fmt.Errorf("list sink pages: %w", err)
	}
	byTitle := make(map[string]string, len(pages))
	for _, page := range pages {
		if _, seen := byTitle[page.Title]; !seen {
			byTitle[page.Title] = page.ID
		}
	}

	for _, rec := range records {
		props := BuildProperties(rec, schema, p.keywords)
		if pageID, ok := byTitle[rec.Title]; ok {
			if err := p.api.UpdatePage(ctx, pageID, props); err != nil {
				result.Errors = append(result.Errors, recordError(rec.Title, err))
				metrics.ObserveSinkPage("error")
				continue
			}
			result.Updated++
			metrics.ObserveSinkPage("updated")
			continue
		}
		if err := p.api.CreatePage(ctx, props, nil); err != nil {
			result.Errors = append(result.Errors, recordError(rec.Title, err))
			metrics.ObserveSinkPage("error")
			continue
		}
		result.Created++
		p.ledger.Mark(rec.Identity())
		metrics.ObserveSinkPage("created")
	}

	p.persistLedger(&result)
	return result, nil
}

// persistLedger flushes the ledger once per batch. A persist fault is
// reported on the result but never re-raised; the prior on-disk ledger
// remains authoritative.
func (p *Publisher) persistLedger(result *pipeline.PublishResult) {
	if err := p.ledger.Persist(); err != nil {
		p.logger.Error("ledger persist failed", zap.Error(err))
		result.SoftFailures = append(result.SoftFailures, fmt.Sprintf("ledger persist: %v", err))
	}
}

func recordError(title string, err error) pipeline.RecordError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return pipeline.RecordError{Title: title, Status: apiErr.Status, Detail: apiErr.Body}
	}
	return pipeline.RecordError{Title: title, Detail: err.Error()}
}
