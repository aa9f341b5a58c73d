package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosspost/crosspost/internal/core"
	"github.com/crosspost/crosspost/internal/core/store"
)

type memoryRecords struct {
	mu   sync.Mutex
	data map[string][]byte
	puts int
}

func newMemoryRecords() *memoryRecords {
	return &memoryRecords{data: map[string][]byte{}}
}

func (m *memoryRecords) GetRecord(_ context.Context, key string, dst any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return store.ErrRecordNotFound
	}
	return json.Unmarshal(raw, dst)
}

func (m *memoryRecords) PutRecord(_ context.Context, key string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = raw
	m.puts++
	return nil
}

func (m *memoryRecords) DeleteRecord(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type failingRecords struct{}

var errDiskFull = errors.New("disk full")

func (failingRecords) GetRecord(context.Context, string, any) error { return errDiskFull }
func (failingRecords) PutRecord(context.Context, string, any) error { return errDiskFull }
func (failingRecords) DeleteRecord(context.Context, string) error { return errDiskFull }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestVariationsCap(t *testing.T) {
	ctx := context.Background()
	vars := &Variations{Records: newMemoryRecords(), NewID: sequentialIDs()}

	for i := 0; i < MaxVariations; i++ {
		created, ok := vars.Create(ctx, fmt.Sprintf("v%d", i), "text", []string{"#go"})
		require.True(t, ok)
		require.NotNil(t, created)
	}

	created, ok := vars.Create(ctx, "overflow", "text", nil)
	assert.False(t, ok)
	assert.Nil(t, created)
	assert.Len(t, vars.List(ctx), MaxVariations)

	vars.Delete(ctx, "id-2")
	assert.Len(t, vars.List(ctx), MaxVariations-1)

	created, ok = vars.Create(ctx, "replacement", "new", nil)
	require.True(t, ok)
	assert.Equal(t, "id-6", created.ID)
	assert.Len(t, vars.List(ctx), MaxVariations)
}

func TestVariationsDeleteUnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	vars := &Variations{Records: newMemoryRecords(), NewID: sequentialIDs()}
	_, ok := vars.Create(ctx, "a", "b", nil)
	require.True(t, ok)

	vars.Delete(ctx, "missing")
	assert.Len(t, vars.List(ctx), 1)
}

func TestVariationsPersistAndReload(t *testing.T) {
	ctx := context.Background()
	records := newMemoryRecords()
	created := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	first := &Variations{Records: records, Clock: func() time.Time { return created }}
	v, ok := first.Create(ctx, "  Launch  ", "Big news", []string{"#launch"})
	require.True(t, ok)
	assert.Equal(t, "Launch", v.Name)
	assert.Len(t, v.ID, 36)
	assert.Equal(t, created, v.CreatedAt)

	second := NewVariations(records, nil)
	list := second.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, v.ID, list[0].ID)
	assert.Equal(t, []string{"#launch"}, list[0].Hashtags)

	got, ok := second.Get(ctx, v.ID)
	require.True(t, ok)
	assert.Equal(t, "Big news", got.Description)

	_, ok = second.Get(ctx, "nope")
	assert.False(t, ok)
}

func TestVariationsDefaultName(t *testing.T) {
	ctx := context.Background()
	vars := &Variations{NewID: sequentialIDs()}
	v, ok := vars.Create(ctx, "", "x", nil)
	require.True(t, ok)
	assert.Equal(t, "Variation 1", v.Name)
}

func TestVariationsStorageFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	vars := &Variations{Records: failingRecords{}, NewID: sequentialIDs()}

	_, ok := vars.Create(ctx, "a", "b", nil)
	require.True(t, ok)
	assert.Len(t, vars.List(ctx), 1)
}

func TestVariationsReturnedCopiesAreIsolated(t *testing.T) {
	ctx := context.Background()
	vars := &Variations{NewID: sequentialIDs()}
	v, ok := vars.Create(ctx, "a", "b", []string{"#one"})
	require.True(t, ok)
	v.Hashtags[0] = "#mutated"

	list := vars.List(ctx)
	assert.Equal(t, []string{"#one"}, list[0].Hashtags)
}

func TestDraftsSaveOverwritesWholeRecord(t *testing.T) {
	ctx := context.Background()
	records := newMemoryRecords()
	stamp := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	drafts := &Drafts{Records: records, Clock: func() time.Time { return stamp }}

	saved, err := drafts.Save(ctx, core.ComposeDraft{
		Description:         "Hello",
		Hashtags:            []string{"go", "#news"},
		URL:                 "https://example.com",
		SelectedPlatformIDs: []string{"twitter", "linkedin", "twitter"},
	})
	require.NoError(t, err)
	assert.Equal(t, stamp, saved.LastModified)
	assert.Equal(t, []string{"#go", "#news"}, saved.Hashtags)
	assert.Equal(t, []string{"twitter", "linkedin"}, saved.SelectedPlatformIDs)

	_, err = drafts.Save(ctx, core.ComposeDraft{Description: "Second"})
	require.NoError(t, err)

	reloaded := NewDrafts(records, nil, nil)
	got, ok := reloaded.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, "Second", got.Description)
	assert.Empty(t, got.URL)
	assert.Empty(t, got.SelectedPlatformIDs)
	assert.Equal(t, 2, records.puts)
}

func TestDraftsRejectUnknownPlatforms(t *testing.T) {
	ctx := context.Background()
	records := newMemoryRecords()
	drafts := NewDrafts(records, nil, nil)

	_, err := drafts.Save(ctx, core.ComposeDraft{SelectedPlatformIDs: []string{"twitter", "myspace"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "myspace")
	assert.Equal(t, 0, records.puts)

	_, ok := drafts.Load(ctx)
	assert.False(t, ok)
}

func TestDraftsClear(t *testing.T) {
	ctx := context.Background()
	records := newMemoryRecords()
	drafts := NewDrafts(records, nil, nil)

	_, err := drafts.Save(ctx, core.ComposeDraft{Description: "x"})
	require.NoError(t, err)
	drafts.Clear(ctx)

	_, ok := drafts.Load(ctx)
	assert.False(t, ok)
	_, ok = NewDrafts(records, nil, nil).Load(ctx)
	assert.False(t, ok)
}

func TestDraftsStorageFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	drafts := NewDrafts(failingRecords{}, nil, nil)

	_, err := drafts.Save(ctx, core.ComposeDraft{Description: "kept"})
	require.NoError(t, err)

	got, ok := drafts.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, "kept", got.Description)
}

func TestPreferencesDefaultsAndSave(t *testing.T) {
	ctx := context.Background()
	records := newMemoryRecords()
	prefs := NewPreferenceStore(records, nil, nil)

	assert.Equal(t, DefaultPreferences(), prefs.Load(ctx))

	saved, err := prefs.Save(ctx, core.Preferences{
		DefaultPlatforms:  []string{"bluesky", "mastodon"},
		LowercaseHashtags: true,
		Theme:             "DARK",
	})
	require.NoError(t, err)
	assert.Equal(t, core.ThemeDark, saved.Theme)

	reloaded := NewPreferenceStore(records, nil, nil).Load(ctx)
	assert.Equal(t, []string{"bluesky", "mastodon"}, reloaded.DefaultPlatforms)
	assert.True(t, reloaded.LowercaseHashtags)
	assert.Equal(t, core.ThemeDark, reloaded.Theme)
}

func TestPreferencesValidation(t *testing.T) {
	ctx := context.Background()
	prefs := NewPreferenceStore(newMemoryRecords(), nil, nil)

	_, err := prefs.Save(ctx, core.Preferences{Theme: "sepia"})
	require.Error(t, err)

	_, err = prefs.Save(ctx, core.Preferences{DefaultPlatforms: []string{"orkut"}})
	require.Error(t, err)

	saved, err := prefs.Save(ctx, core.Preferences{})
	require.NoError(t, err)
	assert.Equal(t, core.ThemeSystem, saved.Theme)
}

func TestParseTheme(t *testing.T) {
	for input, want := range map[string]core.Theme{
		"":        core.ThemeSystem,
		"system":  core.ThemeSystem,
		" Light ": core.ThemeLight,
		"dark":    core.ThemeDark,
	} {
		got, err := ParseTheme(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got)
	}
}
