// Package filter matches records against the configured interest criteria.
package filter

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/paperwheel/arxiv-feed-bot/internal/pipeline"
)

// MatchKeywords returns the subset of keywords whose lowercase form is a
// substring of the text's lowercase form, in the configured order and with
// the configured casing. Substring containment only; no word boundaries.
func MatchKeywords(text string, keywords []string) []string {
	lowered := strings.ToLower(text)
	var matched []string
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// Config captures the filter predicates.
type Config struct {
	Keywords   []string
	MaxDaysOld int
	Categories []string
}

// Filterer applies the keyword, recency, and category predicates and stamps
// surviving records with their matched keywords.
type Filterer struct {
	cfg    Config
	clock  pipeline.Clock
	logger *zap.Logger
}

// New constructs a Filterer.
func New(cfg Config, clock pipeline.Clock, logger *zap.Logger) *Filterer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filterer{cfg: cfg, clock: clock, logger: logger}
}

// Apply returns the records passing every predicate, in input order.
func (f *Filterer) Apply(records []pipeline.Record) []pipeline.Record {
	cutoff := time.Time{}
	if f.cfg.MaxDaysOld > 0 {
		cutoff = f.clock.Now().AddDate(0, 0, -f.cfg.MaxDaysOld)
	}

	passed := make([]pipeline.Record, 0, len(records))
	for _, rec := range records {
		if !cutoff.IsZero() && !rec.Published.IsZero() && rec.Published.Before(cutoff) {
			continue
		}
		if !f.matchesCategory(rec) {
			continue
		}
		matched := MatchKeywords(rec.Title+" "+rec.Description, f.cfg.Keywords)
		if len(f.cfg.Keywords) > 0 && len(matched) == 0 {
			continue
		}
		rec.MatchedKeywords = matched
		passed = append(passed, rec)
	}
	f.logger.Debug("filter applied",
		zap.Int("in", len(records)),
		zap.Int("out", len(passed)),
	)
	return passed
}

func (f *Filterer) matchesCategory(rec pipeline.Record) bool {
	if len(f.cfg.Categories) == 0 {
		return true
	}
	for _, want := range f.cfg.Categories {
		for _, have := range rec.Categories {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}
