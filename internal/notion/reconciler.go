package notion

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// SchemaAPI is the slice of the sink API the reconciler needs.
type SchemaAPI interface {
	GetDatabase(ctx context.Context) (Database, error)
	UpdateDatabase(ctx context.Context, patch map[string]PropertyType) error
}

// Reconciler brings the sink's property schema up to what record delivery
// requires: the fixed well-known set plus, optionally, fields discovered
// from a representative feed item. Reconciling an already-satisfied schema
// performs zero mutation calls.
type Reconciler struct {
	api    SchemaAPI
	logger *zap.Logger
}

// NewReconciler constructs a Reconciler.
func NewReconciler(api SchemaAPI, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{api: api, logger: logger}
}

// Reconcile returns the best schema it could establish plus any soft
// failures encountered. It never fails hard: on a fetch fault the caller
// proceeds with an empty schema and writes only the title; on a patch fault
// it proceeds with the stale schema, silently omitting unsupported fields.
func (r *Reconciler) Reconcile(ctx context.Context, sampleFields []string) (Schema, []string) {
	var soft []string

	db, err := r.api.GetDatabase(ctx)
	if err != nil {
		r.logger.Warn("schema fetch failed", zap.Error(err))
		return Schema{}, append(soft, fmt.Sprintf("schema fetch: %v", err))
	}
	schema := db.Properties

	diff := r.diff(schema, sampleFields)
	if len(diff) == 0 {
		return schema, soft
	}

	names := make([]string, 0, len(diff))
	for name := range diff {
		names = append(names, name)
	}
	r.logger.Info("patching sink schema", zap.Strings("properties", names))

	if err := r.api.UpdateDatabase(ctx, diff); err != nil {
		r.logger.Warn("schema patch failed, proceeding with stale schema", zap.Error(err))
		return schema, append(soft, fmt.Sprintf("schema patch: %v", err))
	}

	refreshed, err := r.api.GetDatabase(ctx)
	if err != nil {
		r.logger.Warn("schema refresh failed, proceeding with stale schema", zap.Error(err))
		return schema, append(soft, fmt.Sprintf("schema refresh: %v", err))
	}
	return refreshed.Properties, soft
}

// diff computes the required properties absent or type-mismatched in the
// current schema.
func (r *Reconciler) diff(schema Schema, sampleFields []string) map[string]PropertyType {
	required := RequiredProperties()
	for _, field := range sampleFields {
		t := InferType(field)
		if t == PropertyTitle {
			continue
		}
		if _, known := required[field]; !known {
			required[field] = t
		}
	}

	need := make(map[string]PropertyType)
	for name, t := range required {
		if !schema.Has(name, t) {
			need[name] = t
		}
	}
	return need
}
