package notion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paperwheel/arxiv-feed-bot/internal/pipeline"
)

type memLedger struct {
	entries    map[string]struct{}
	persists   int
	loadErr    error
	persistErr error
}

func newMemLedger() *memLedger {
	return &memLedger{entries: make(map[string]struct{})}
}

func (l *memLedger) Load() error { return l.loadErr }

func (l *memLedger) Contains(identity string) bool {
	_, ok := l.entries[identity]
	return ok
}

func (l *memLedger) Mark(identity string) {
	if identity != "" {
		l.entries[identity] = struct{}{}
	}
}

func (l *memLedger) Persist() error {
	l.persists++
	return l.persistErr
}

type fakeAPI struct {
	fakeSchemaAPI

	pages     []Page
	queryErr  error
	createErr error
	updateErr error

	created []map[string]any
	updated map[string]map[string]any
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		fakeSchemaAPI: fakeSchemaAPI{schema: completeSchema()},
		updated:       make(map[string]map[string]any),
	}
}

func (f *fakeAPI) QueryPages(_ context.Context) ([]Page, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.pages, nil
}

func (f *fakeAPI) CreatePage(_ context.Context, properties map[string]any, _ []any) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, properties)
	return nil
}

func (f *fakeAPI) UpdatePage(_ context.Context, pageID string, properties map[string]any) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated[pageID] = properties
	return nil
}

func TestPublisher_PublishSkipsDelivered(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	led := newMemLedger()
	p := NewPublisher(api, led, nil, zap.NewNop())

	records := []pipeline.Record{
		{GUID: "guid-x", Title: "X", Link: "https://arxiv.org/abs/1"},
		{GUID: "guid-y", Title: "Y", Link: "https://arxiv.org/abs/2"},
	}

	first := p.Publish(context.Background(), records, 0)
	require.Equal(t, 2, first.Created)
	require.Equal(t, 0, first.Skipped)
	require.Empty(t, first.Errors)
	require.Equal(t, 1, led.persists)

	// The same batch again delivers nothing.
	second := p.Publish(context.Background(), records, 0)
	require.Equal(t, 0, second.Created)
	require.Equal(t, 2, second.Skipped)
	require.Len(t, api.created, 2)
}

func TestPublisher_SharedIdentityWithinBatch(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	led := newMemLedger()
	p := NewPublisher(api, led, nil, zap.NewNop())

	// Deduplication is against the ledger as loaded, so two records sharing
	// an identity are both delivered the first time around.
	records := []pipeline.Record{
		{GUID: "X", Title: "First copy"},
		{GUID: "X", Title: "Second copy"},
	}
	first := p.Publish(context.Background(), records, 0)
	require.Equal(t, 2, first.Created)
	require.True(t, led.Contains("X"))

	second := p.Publish(context.Background(), records, 0)
	require.Equal(t, 0, second.Created)
	require.Equal(t, 2, second.Skipped)
}

func TestPublisher_PublishHonorsLimit(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	p := NewPublisher(api, newMemLedger(), nil, zap.NewNop())

	records := []pipeline.Record{
		{GUID: "a", Title: "A"},
		{GUID: "b", Title: "B"},
		{GUID: "c", Title: "C"},
	}
	result := p.Publish(context.Background(), records, 2)
	require.Equal(t, 2, result.Created)
	require.Len(t, api.created, 2)
}

func TestPublisher_PublishCollectsPerRecordErrors(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.createErr = &APIError{Status: 400, Body: "validation_error"}
	led := newMemLedger()
	p := NewPublisher(api, led, nil, zap.NewNop())

	result := p.Publish(context.Background(), []pipeline.Record{
		{GUID: "a", Title: "A"},
		{GUID: "b", Title: "B"},
	}, 0)

	require.Equal(t, 0, result.Created)
	require.Len(t, result.Errors, 2)
	require.Equal(t, 400, result.Errors[0].Status)
	require.Equal(t, "validation_error", result.Errors[0].Detail)
	// Failed identities stay out of the ledger for a later retry.
	require.False(t, led.Contains("a"))
	require.Equal(t, 1, led.persists)
}

func TestPublisher_PublishSkipsEmptyIdentity(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	p := NewPublisher(api, newMemLedger(), nil, zap.NewNop())

	result := p.Publish(context.Background(), []pipeline.Record{{Title: "no identity"}}, 0)
	require.Equal(t, 0, result.Created)
	require.Equal(t, 1, result.Skipped)
	require.Empty(t, api.created)
}

func TestPublisher_PersistFaultIsSoft(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	led := newMemLedger()
	led.persistErr = errors.New("disk full")
	p := NewPublisher(api, led, nil, zap.NewNop())

	result := p.Publish(context.Background(), []pipeline.Record{{GUID: "a", Title: "A"}}, 0)

	// The batch outcome stands; the persist fault is reported, not re-raised.
	require.Equal(t, 1, result.Created)
	require.Empty(t, result.Errors)
	require.Len(t, result.SoftFailures, 1)
	require.Contains(t, result.SoftFailures[0], "ledger persist")
	require.Equal(t, 1, led.persists)
}

func TestPublisher_BackfillUpdatesByTitle(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.pages = []Page{{ID: "page-1", Title: "Foo"}}
	led := newMemLedger()
	p := NewPublisher(api, led, nil, zap.NewNop())

	result, err := p.Backfill(context.Background(), []pipeline.Record{
		{GUID: "guid-foo", Title: "Foo"},
		{GUID: "guid-bar", Title: "Bar"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Updated)
	require.Equal(t, 1, result.Created)
	require.Contains(t, api.updated, "page-1")
	require.Len(t, api.created, 1)

	// Updated pages are not new deliveries; only the created one is marked.
	require.False(t, led.Contains("guid-foo"))
	require.True(t, led.Contains("guid-bar"))
}

func TestPublisher_BackfillFirstTitleWins(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.pages = []Page{
		{ID: "page-1", Title: "Dup"},
		{ID: "page-2", Title: "Dup"},
	}
	p := NewPublisher(api, newMemLedger(), nil, zap.NewNop())

	result, err := p.Backfill(context.Background(), []pipeline.Record{{GUID: "g", Title: "Dup"}})
	require.NoError(t, err)
	require.Equal(t, 1, result.Updated)
	require.Contains(t, api.updated, "page-1")
	require.NotContains(t, api.updated, "page-2")
}

func TestPublisher_BackfillListingFaultIsFatal(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.queryErr = errors.New("network down")
	p := NewPublisher(api, newMemLedger(), nil, zap.NewNop())

	_, err := p.Backfill(context.Background(), []pipeline.Record{{GUID: "g", Title: "T"}})
	require.Error(t, err)
	require.Empty(t, api.created)
	require.Empty(t, api.updated)
}

func TestPublisher_SchemaFaultStillPublishesTitles(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.getErr = errors.New("unreachable")
	p := NewPublisher(api, newMemLedger(), nil, zap.NewNop())

	result := p.Publish(context.Background(), []pipeline.Record{{GUID: "a", Title: "Only title"}}, 0)
	require.Equal(t, 1, result.Created)
	require.NotEmpty(t, result.SoftFailures)

	// With no schema only the title property is written.
	require.Len(t, api.created, 1)
	require.Len(t, api.created[0], 1)
	require.Contains(t, api.created[0], "Name")
}
