package cmd

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crosspost/crosspost/internal/core"
	"github.com/crosspost/crosspost/internal/core/compose"
	"github.com/crosspost/crosspost/internal/core/platform"
	"github.com/crosspost/crosspost/internal/metrics"
	"github.com/crosspost/crosspost/internal/output"
)

// draftFlags are the content flags shared by compose, share and draft save.
type draftFlags struct {
	description string
	hashtags    []string
	url         string
	platforms   []string
	lowercase   bool
	fromDraft   bool
}

func bindDraftFlags(cmd *cobra.Command, f *draftFlags) {
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "Post text")
	cmd.Flags().StringSliceVarP(&f.hashtags, "hashtags", "t", nil, "Hashtags, comma or space separated (# optional)")
	cmd.Flags().StringVarP(&f.url, "url", "u", "", "Link to attach")
	cmd.Flags().StringSliceVarP(&f.platforms, "platforms", "p", nil, "Target platform ids (default: preferred platforms)")
	cmd.Flags().BoolVar(&f.lowercase, "lowercase", false, "Lowercase hashtags (default: preference)")
	cmd.Flags().BoolVar(&f.fromDraft, "from-draft", false, "Start from the saved draft; flags override its fields")
}

// resolveDraft merges the saved draft (when requested), preferences and flags.
func resolveDraft(cmd *cobra.Command, s *session, f *draftFlags) (core.ComposeDraft, bool) {
	ctx := cmd.Context()
	prefs := s.preferences.Load(ctx)

	var draft core.ComposeDraft
	if f.fromDraft {
		draft, _ = s.drafts.Load(ctx)
	}

	flags := cmd.Flags()
	if flags.Changed("description") {
		draft.Description = f.description
	}
	if flags.Changed("hashtags") {
		draft.Hashtags = f.hashtags
	}
	if flags.Changed("url") {
		draft.URL = strings.TrimSpace(f.url)
	}
	if flags.Changed("platforms") {
		draft.SelectedPlatformIDs = f.platforms
	}
	if len(draft.SelectedPlatformIDs) == 0 {
		draft.SelectedPlatformIDs = prefs.DefaultPlatforms
	}

	lowercase := prefs.LowercaseHashtags
	if flags.Changed("lowercase") {
		lowercase = f.lowercase
	}
	return draft, lowercase
}

// buildCompose formats draft and evaluates it against every selected platform.
func buildCompose(registry *platform.Registry, draft core.ComposeDraft, lowercase bool) (*output.ComposeResult, error) {
	if len(draft.SelectedPlatformIDs) == 0 {
		return nil, errors.New("select at least one platform")
	}
	if err := registry.Validate(draft.SelectedPlatformIDs); err != nil {
		return nil, err
	}

	draft.Hashtags = compose.NormalizeHashtags(draft.Hashtags, lowercase)
	shareText := compose.FormatForPlatform(draft.Description, draft.Hashtags, "")
	metrics.RecordCompose(len(draft.SelectedPlatformIDs))

	return &output.ComposeResult{
		Formatted:  compose.FormatForPlatform(draft.Description, draft.Hashtags, draft.URL),
		Hashtags:   draft.Hashtags,
		Statuses:   compose.Statuses(draft, registry),
		ShareLinks: compose.ShareLinks(registry, draft.SelectedPlatformIDs, shareText, draft.URL),
	}, nil
}

var (
	composeFlags draftFlags
	composeSave  bool
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Format a post and check it against each platform's limits",
	Example: `  crosspost compose -d "Shipping v2 today" -t go,release -u https://example.com -p twitter,linkedin
  crosspost compose --from-draft -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close() // nolint:errcheck // best-effort cleanup

		draft, lowercase := resolveDraft(cmd, s, &composeFlags)
		result, err := buildCompose(s.registry, draft, lowercase)
		if err != nil {
			return err
		}

		if composeSave {
			draft.Hashtags = result.Hashtags
			if _, err := s.drafts.Save(cmd.Context(), draft); err != nil {
				return err
			}
		}

		return writeResult(cmd, "compose", func(f output.Formatter) (string, error) {
			return f.FormatCompose(result)
		})
	},
}

var shareFlags draftFlags

var shareCmd = &cobra.Command{
	Use:   "share [platform...]",
	Short: "Print share links for platforms that support them",
	Long: `Print deep links that open each platform's share dialog prefilled with the
post text and link. Platforms without a share endpoint are omitted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close() // nolint:errcheck // best-effort cleanup

		draft, lowercase := resolveDraft(cmd, s, &shareFlags)
		if len(args) > 0 {
			draft.SelectedPlatformIDs = args
		}
		result, err := buildCompose(s.registry, draft, lowercase)
		if err != nil {
			return err
		}

		return writeResult(cmd, "share", func(f output.Formatter) (string, error) {
			return f.FormatShareLinks(result.ShareLinks)
		})
	},
}

func init() {
	bindDraftFlags(composeCmd, &composeFlags)
	composeCmd.Flags().BoolVar(&composeSave, "save", false, "Save the result as the current draft")
	addOutFlag(composeCmd)

	bindDraftFlags(shareCmd, &shareFlags)
	_ = shareCmd.Flags().MarkHidden("platforms")

	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(shareCmd)
}
