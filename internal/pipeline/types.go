// Package pipeline defines core types shared across subsystems.
package pipeline

import (
	"time"
)

// Record is a single publication entry flowing through the pipeline.
type Record struct {
	GUID            string    `json:"guid"`
	Title           string    `json:"title"`
	Link            string    `json:"link"`
	Description     string    `json:"description"`
	Published       time.Time `json:"published"`
	Categories      []string  `json:"categories,omitempty"`
	MatchedKeywords []string  `json:"keyword_matches,omitempty"`
}

// Identity returns the stable deduplication key for the record: the GUID
// when present, the link otherwise. An empty identity means the record is
// not eligible for ledger-tracked delivery.
func (r Record) Identity() string {
	if r.GUID != "" {
		return r.GUID
	}
	return r.Link
}

// FetchParams captures everything the upstream fetch needs.
type FetchParams struct {
	MaxDays    int
	MaxResults int
	Categories []string
}

// RunConfig is the configuration snapshot recorded with each run.
type RunConfig struct {
	Keywords   []string `json:"keywords"`
	MaxDaysOld int      `json:"max_days_old"`
	Categories []string `json:"categories"`
}

// RunResult summarizes a single pipeline invocation.
type RunResult struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	PapersCount  int           `json:"papers_count"`
	OutputFile   string        `json:"output_file,omitempty"`
	HistoryID    string        `json:"history_id,omitempty"`
	Elapsed      time.Duration `json:"-"`
	SoftFailures []string      `json:"soft_failures,omitempty"`
}

// RecordError describes a per-record sink failure. It never aborts a batch;
// failed identities stay out of the ledger and are retried next run.
type RecordError struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"error"`
}

// PublishResult aggregates the outcome of a publish or backfill batch.
type PublishResult struct {
	Created      int           `json:"created"`
	Updated      int           `json:"updated"`
	Skipped      int           `json:"skipped"`
	Errors       []RecordError `json:"errors,omitempty"`
	SoftFailures []string      `json:"soft_failures,omitempty"`
}
