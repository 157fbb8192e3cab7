package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/paperwheel/arxiv-feed-bot/internal/pipeline"
)

// Fetch cap bounds: wide enough to cover the recency window, capped to keep
// a single upstream query reasonable.
const (
	fetchFloor   = 100
	fetchCeiling = 1000
	perDayFactor = 15
)

// SearchOverrides are per-run search tweaks loaded from a standalone YAML
// file so users can adjust the window without touching the main config.
type SearchOverrides struct {
	StartDate  string `yaml:"start_date"`
	MaxDaysOld int    `yaml:"max_days_old"`
	MaxResults int    `yaml:"max_results"`
}

// LoadSearchOverrides reads the overrides file. A missing file yields zero
// overrides; a malformed one is an error for the caller to log and ignore.
func LoadSearchOverrides(path string) (SearchOverrides, error) {
	var ov SearchOverrides
	if path == "" {
		return ov, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ov, nil
		}
		return ov, fmt.Errorf("read search overrides: %w", err)
	}
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return ov, fmt.Errorf("parse search overrides: %w", err)
	}
	return ov, nil
}

// EffectiveMaxDays resolves the recency window after overrides: a start
// date wins, then an explicit max_days_old override, then the config value.
func (c Config) EffectiveMaxDays(ov SearchOverrides, now time.Time) int {
	maxDays := c.MaxDaysOld
	if ov.StartDate != "" {
		if start, err := time.Parse("2006-01-02", ov.StartDate); err == nil {
			days := int(now.Sub(start).Hours() / 24)
			if days < 1 {
				days = 1
			}
			return days
		}
	}
	if ov.MaxDaysOld > 0 {
		return ov.MaxDaysOld
	}
	return maxDays
}

// FetchParams derives the upstream query parameters, scaling the result cap
// with the window and category count unless explicitly overridden.
func (c Config) FetchParams(ov SearchOverrides, now time.Time) pipeline.FetchParams {
	maxDays := c.EffectiveMaxDays(ov, now)

	categories := c.Categories
	if len(categories) == 0 {
		categories = []string{"cs.AI"}
	}

	fetchMax := maxDays * len(categories) * perDayFactor
	if fetchMax < fetchFloor {
		fetchMax = fetchFloor
	}
	if fetchMax > fetchCeiling {
		fetchMax = fetchCeiling
	}
	if ov.MaxResults > 0 {
		fetchMax = ov.MaxResults
	}

	return pipeline.FetchParams{
		MaxDays:    maxDays,
		MaxResults: fetchMax,
		Categories: categories,
	}
}

// RunConfig returns the configuration snapshot recorded with each run.
func (c Config) RunConfig(maxDays int) pipeline.RunConfig {
	return pipeline.RunConfig{
		Keywords:   c.Keywords,
		MaxDaysOld: maxDays,
		Categories: c.Categories,
	}
}
