package workspace

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/google/uuid"

	"github.com/crosspost/crosspost/internal/core"
	"github.com/crosspost/crosspost/internal/core/store"
	"github.com/crosspost/crosspost/internal/metrics"
)

// MaxVariations is the hard cap on live variations. There is no eviction.
const MaxVariations = 5

// Variations is a bounded list of named content snapshots.
type Variations struct {
	Records RecordStore
	Logger  *logging.Logger
	Clock   func() time.Time
	// NewID overrides id generation (uuid v7 by default).
	NewID func() string

	mu     sync.Mutex
	items  []core.ContentVariation
	loaded bool
}

// NewVariations returns a store backed by records.
func NewVariations(records RecordStore, logger *logging.Logger) *Variations {
	return &Variations{Records: records, Logger: logger}
}

// Create adds a variation. It returns nil, false when MaxVariations are
// already stored; the caller must delete one first.
func (v *Variations) Create(ctx context.Context, name, description string, hashtags []string) (*core.ContentVariation, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ensureLoaded(ctx)

	if len(v.items) >= MaxVariations {
		metrics.RecordVariationOperation("create", false)
		return nil, false
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Variation %d", len(v.items)+1)
	}

	variation := core.ContentVariation{
		ID:          v.newID(),
		Name:        name,
		Description: description,
		Hashtags:    append([]string(nil), hashtags...),
		CreatedAt:   v.now(),
	}
	v.items = append(v.items, variation)
	v.persist(ctx)

	metrics.RecordVariationOperation("create", true)
	out := cloneVariation(variation)
	return &out, true
}

// Delete removes id if present. Deleting an unknown id is a no-op.
func (v *Variations) Delete(ctx context.Context, id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ensureLoaded(ctx)

	kept := v.items[:0]
	for _, item := range v.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	v.items = kept
	v.persist(ctx)
	metrics.RecordVariationOperation("delete", true)
}

// List returns the variations in creation order.
func (v *Variations) List(ctx context.Context) []core.ContentVariation {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ensureLoaded(ctx)

	out := make([]core.ContentVariation, 0, len(v.items))
	for _, item := range v.items {
		out = append(out, cloneVariation(item))
	}
	return out
}

// Get returns the variation with id.
func (v *Variations) Get(ctx context.Context, id string) (core.ContentVariation, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ensureLoaded(ctx)

	for _, item := range v.items {
		if item.ID == id {
			return cloneVariation(item), true
		}
	}
	return core.ContentVariation{}, false
}

func (v *Variations) ensureLoaded(ctx context.Context) {
	if v.loaded {
		return
	}
	v.loaded = true

	var stored []core.ContentVariation
	if loadRecord(ctx, v.Records, v.Logger, store.RecordVariations, &stored) {
		if len(stored) > MaxVariations {
			stored = stored[:MaxVariations]
		}
		v.items = stored
	}
}

func (v *Variations) persist(ctx context.Context) {
	items := v.items
	if items == nil {
		items = []core.ContentVariation{}
	}
	saveRecord(ctx, v.Records, v.Logger, store.RecordVariations, items)
}

func (v *Variations) newID() string {
	if v.NewID != nil {
		return v.NewID()
	}
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (v *Variations) now() time.Time {
	if v.Clock != nil {
		return v.Clock()
	}
	return time.Now().UTC()
}

func cloneVariation(item core.ContentVariation) core.ContentVariation {
	item.Hashtags = append([]string(nil), item.Hashtags...)
	return item
}
