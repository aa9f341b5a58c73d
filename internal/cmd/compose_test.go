package cmd

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosspost/crosspost/internal/core"
	"github.com/crosspost/crosspost/internal/core/platform"
	"github.com/crosspost/crosspost/internal/core/workspace"
)

func memorySession() *session {
	registry := platform.Default()
	return &session{
		registry:    registry,
		drafts:      workspace.NewDrafts(nil, registry, nil),
		variations:  workspace.NewVariations(nil, nil),
		preferences: workspace.NewPreferenceStore(nil, registry, nil),
	}
}

func parsedDraftCommand(t *testing.T, f *draftFlags, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	bindDraftFlags(cmd, f)
	cmd.SetContext(context.Background())
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestBuildCompose(t *testing.T) {
	draft := core.ComposeDraft{
		Description:         "Shipping v2",
		Hashtags:            []string{"Go", "#release", "go"},
		URL:                 "https://example.com",
		SelectedPlatformIDs: []string{"twitter", "instagram"},
	}

	result, err := buildCompose(platform.Default(), draft, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"#go", "#release"}, result.Hashtags)
	assert.Equal(t, "Shipping v2\n\n#go #release\n\nhttps://example.com", result.Formatted)
	require.Len(t, result.Statuses, 2)
	assert.Equal(t, "twitter", result.Statuses[0].PlatformID)
	assert.Contains(t, result.ShareLinks, "twitter")
	assert.NotContains(t, result.ShareLinks, "instagram")
}

func TestBuildComposeRejectsBadPlatforms(t *testing.T) {
	_, err := buildCompose(platform.Default(), core.ComposeDraft{Description: "hi"}, false)
	assert.Error(t, err)

	_, err = buildCompose(platform.Default(), core.ComposeDraft{Description: "hi", SelectedPlatformIDs: []string{"myspace"}}, false)
	assert.Error(t, err)
}

func TestResolveDraftUsesPreferenceDefaults(t *testing.T) {
	s := memorySession()
	var f draftFlags
	cmd := parsedDraftCommand(t, &f, "-d", "hello", "-t", "a,b")

	draft, lowercase := resolveDraft(cmd, s, &f)
	assert.Equal(t, "hello", draft.Description)
	assert.Equal(t, []string{"a", "b"}, draft.Hashtags)
	assert.Equal(t, workspace.DefaultPreferences().DefaultPlatforms, draft.SelectedPlatformIDs)
	assert.False(t, lowercase)
}

func TestResolveDraftFlagsOverrideSavedDraft(t *testing.T) {
	s := memorySession()
	ctx := context.Background()
	_, err := s.drafts.Save(ctx, core.ComposeDraft{
		Description:         "saved text",
		URL:                 "https://saved.example",
		SelectedPlatformIDs: []string{"bluesky"},
	})
	require.NoError(t, err)

	var f draftFlags
	cmd := parsedDraftCommand(t, &f, "--from-draft", "-d", "new text", "--lowercase")

	draft, lowercase := resolveDraft(cmd, s, &f)
	assert.Equal(t, "new text", draft.Description)
	assert.Equal(t, "https://saved.example", draft.URL)
	assert.Equal(t, []string{"bluesky"}, draft.SelectedPlatformIDs)
	assert.True(t, lowercase)
}

func TestResolveDraftIgnoresSavedDraftWithoutFlag(t *testing.T) {
	s := memorySession()
	_, err := s.drafts.Save(context.Background(), core.ComposeDraft{Description: "saved"})
	require.NoError(t, err)

	var f draftFlags
	cmd := parsedDraftCommand(t, &f)
	draft, _ := resolveDraft(cmd, s, &f)
	assert.Empty(t, draft.Description)
}
