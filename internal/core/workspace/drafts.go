package workspace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"

	"github.com/crosspost/crosspost/internal/core"
	"github.com/crosspost/crosspost/internal/core/compose"
	"github.com/crosspost/crosspost/internal/core/platform"
	"github.com/crosspost/crosspost/internal/core/store"
)

// Drafts is the single current-draft slot. Every Save replaces the whole
// record; debouncing is the caller's concern.
type Drafts struct {
	Records  RecordStore
	Registry *platform.Registry
	Logger   *logging.Logger
	Clock    func() time.Time

	mu      sync.Mutex
	current *core.ComposeDraft
	loaded  bool
}

// NewDrafts returns a draft slot validated against registry.
func NewDrafts(records RecordStore, registry *platform.Registry, logger *logging.Logger) *Drafts {
	return &Drafts{Records: records, Registry: registry, Logger: logger}
}

// Save validates draft, stamps LastModified and overwrites the slot.
// Only validation problems are returned; storage failures are logged.
func (d *Drafts) Save(ctx context.Context, draft core.ComposeDraft) (core.ComposeDraft, error) {
	registry := d.registry()
	ids := dedupe(draft.SelectedPlatformIDs)
	if err := registry.Validate(ids); err != nil {
		return core.ComposeDraft{}, fmt.Errorf("invalid draft: %w", err)
	}

	draft.SelectedPlatformIDs = ids
	draft.Hashtags = compose.NormalizeHashtags(draft.Hashtags, false)
	draft.LastModified = d.now()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded = true
	stored := cloneDraft(draft)
	d.current = &stored
	saveRecord(ctx, d.Records, d.Logger, store.RecordDraft, stored)

	return cloneDraft(draft), nil
}

// Load returns the current draft and whether one exists.
func (d *Drafts) Load(ctx context.Context) (core.ComposeDraft, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.loaded {
		d.loaded = true
		var stored core.ComposeDraft
		if loadRecord(ctx, d.Records, d.Logger, store.RecordDraft, &stored) {
			d.current = &stored
		}
	}
	if d.current == nil {
		return core.ComposeDraft{}, false
	}
	return cloneDraft(*d.current), true
}

// Clear empties the slot.
func (d *Drafts) Clear(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded = true
	d.current = nil
	deleteRecord(ctx, d.Records, d.Logger, store.RecordDraft)
}

func (d *Drafts) registry() *platform.Registry {
	if d.Registry != nil {
		return d.Registry
	}
	return platform.Default()
}

func (d *Drafts) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now().UTC()
}

func cloneDraft(draft core.ComposeDraft) core.ComposeDraft {
	draft.Hashtags = append([]string(nil), draft.Hashtags...)
	draft.SelectedPlatformIDs = append([]string(nil), draft.SelectedPlatformIDs...)
	if draft.LinkPreview != nil {
		preview := *draft.LinkPreview
		if preview.ImageDimensions != nil {
			dims := *preview.ImageDimensions
			preview.ImageDimensions = &dims
		}
		draft.LinkPreview = &preview
	}
	return draft
}

// dedupe keeps the first occurrence of each id.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
