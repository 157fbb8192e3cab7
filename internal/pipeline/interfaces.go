package pipeline

import (
	"context"
	"time"
)

// Fetcher retrieves raw records from the upstream source.
type Fetcher interface {
	Fetch(ctx context.Context, params FetchParams) ([]Record, error)
}

// Filterer reduces raw records to the set matching the configured interests.
type Filterer interface {
	Apply(records []Record) []Record
}

// FeedWriter serializes records into a uniquely named syndication document
// and returns its location.
type FeedWriter interface {
	Write(records []Record) (string, error)
}

// HistoryStore records an immutable audit document per run and returns its
// identifier. History failures must never abort a run.
type HistoryStore interface {
	Record(cfg RunConfig, records []Record, feedPath string) (string, error)
}

// Ledger tracks identities already delivered to one sink. Entries are only
// added, never removed, by normal operation.
type Ledger interface {
	Load() error
	Contains(identity string) bool
	Mark(identity string)
	Persist() error
}

// SinkPublisher delivers records to a remote structured sink.
type SinkPublisher interface {
	Publish(ctx context.Context, records []Record, limit int) PublishResult
}

// Notifier delivers out-of-band failure notifications.
type Notifier interface {
	Notify(subject, body string) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces history record IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
