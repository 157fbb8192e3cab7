package notion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSchemaAPI struct {
	schema   Schema
	getErr   error
	patchErr error

	getCalls int
	patches  []map[string]PropertyType
}

func (f *fakeSchemaAPI) GetDatabase(_ context.Context) (Database, error) {
	f.getCalls++
	if f.getErr != nil {
		return Database{}, f.getErr
	}
	return Database{ID: "db-1", Title: "Papers", Properties: f.schema}, nil
}

func (f *fakeSchemaAPI) UpdateDatabase(_ context.Context, patch map[string]PropertyType) error {
	f.patches = append(f.patches, patch)
	if f.patchErr != nil {
		return f.patchErr
	}
	for name, t := range patch {
		f.schema[name] = t
	}
	return nil
}

func completeSchema() Schema {
	s := Schema{"Name": PropertyTitle}
	for name, t := range RequiredProperties() {
		s[name] = t
	}
	return s
}

func TestReconciler_AddsMissingProperties(t *testing.T) {
	t.Parallel()

	api := &fakeSchemaAPI{schema: Schema{"Name": PropertyTitle}}
	schema, soft := NewReconciler(api, zap.NewNop()).Reconcile(context.Background(), []string{"title", "link", "pubDate"})

	require.Empty(t, soft)
	require.Len(t, api.patches, 1)
	patch := api.patches[0]
	require.Equal(t, PropertyURL, patch["URL"])
	require.Equal(t, PropertyMultiSelect, patch["Authors"])
	require.Equal(t, PropertyDate, patch["Date"])
	require.Equal(t, PropertyURL, patch["link"])
	require.Equal(t, PropertyDate, patch["pubDate"])
	// A title-like sample field never becomes a new property.
	require.NotContains(t, patch, "title")

	require.True(t, schema.Has("URL", PropertyURL))
	require.True(t, schema.Has("link", PropertyURL))
}

func TestReconciler_SatisfiedSchemaIsUntouched(t *testing.T) {
	t.Parallel()

	api := &fakeSchemaAPI{schema: completeSchema()}
	r := NewReconciler(api, zap.NewNop())

	schema, soft := r.Reconcile(context.Background(), nil)
	require.Empty(t, soft)
	require.Empty(t, api.patches)

	// A second pass is equally a no-op.
	again, soft := r.Reconcile(context.Background(), nil)
	require.Empty(t, soft)
	require.Empty(t, api.patches)
	require.Equal(t, schema, again)
}

func TestReconciler_FetchFaultYieldsEmptySchema(t *testing.T) {
	t.Parallel()

	api := &fakeSchemaAPI{getErr: errors.New("boom")}
	schema, soft := NewReconciler(api, zap.NewNop()).Reconcile(context.Background(), nil)

	require.Empty(t, schema)
	require.Len(t, soft, 1)
	require.Contains(t, soft[0], "schema fetch")
	require.Empty(t, api.patches)
}

func TestReconciler_PatchFaultKeepsStaleSchema(t *testing.T) {
	t.Parallel()

	api := &fakeSchemaAPI{schema: Schema{"Name": PropertyTitle}, patchErr: errors.New("forbidden")}
	schema, soft := NewReconciler(api, zap.NewNop()).Reconcile(context.Background(), nil)

	require.Len(t, soft, 1)
	require.Contains(t, soft[0], "schema patch")
	// The stale schema is still usable for title-only writes.
	require.Equal(t, "Name", schema.TitleProperty())
	require.False(t, schema.Has("URL", PropertyURL))
}
