package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crosspost/crosspost/internal/core/workspace"
	"github.com/crosspost/crosspost/internal/output"
)

var variationCmd = &cobra.Command{
	Use:     "variation",
	Aliases: []string{"variations"},
	Short:   "Keep up to 5 named versions of the post text",
}

var variationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved variations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close() // nolint:errcheck // best-effort cleanup

		items := s.variations.List(cmd.Context())
		return writeResult(cmd, "variations", func(f output.Formatter) (string, error) {
			return f.FormatVariations(items)
		})
	},
}

var (
	variationName     string
	variationFromFlag draftFlags
)

var variationCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Save the draft text (or the given text) as a variation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close() // nolint:errcheck // best-effort cleanup

		variationFromFlag.fromDraft = true
		draft, _ := resolveDraft(cmd, s, &variationFromFlag)
		created, ok := s.variations.Create(ctx, variationName, draft.Description, draft.Hashtags)
		if !ok {
			return fmt.Errorf("variation limit reached (%d); delete one first", workspace.MaxVariations)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created variation %q (%s)\n", created.Name, created.ID)
		return err
	},
}

var variationDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a variation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close() // nolint:errcheck // best-effort cleanup

		s.variations.Delete(cmd.Context(), args[0])
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted variation %s\n", args[0])
		return err
	},
}

var variationApplyCmd = &cobra.Command{
	Use:   "apply <id>",
	Short: "Copy a variation's text and hashtags into the draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close() // nolint:errcheck // best-effort cleanup

		item, ok := s.variations.Get(ctx, args[0])
		if !ok {
			return fmt.Errorf("variation %s not found", args[0])
		}
		draft, _ := s.drafts.Load(ctx)
		draft.Description = item.Description
		draft.Hashtags = item.Hashtags
		saved, err := s.drafts.Save(ctx, draft)
		if err != nil {
			return err
		}
		return writeResult(cmd, "draft", func(f output.Formatter) (string, error) {
			return f.FormatDraft(saved)
		})
	},
}

func init() {
	variationCreateCmd.Flags().StringVarP(&variationName, "name", "n", "", "Variation name (default \"Variation N\")")
	variationCreateCmd.Flags().StringVarP(&variationFromFlag.description, "description", "d", "", "Text to save instead of the draft's")
	variationCreateCmd.Flags().StringSliceVarP(&variationFromFlag.hashtags, "hashtags", "t", nil, "Hashtags to save instead of the draft's")

	variationCmd.AddCommand(variationListCmd, variationCreateCmd, variationDeleteCmd, variationApplyCmd)
	rootCmd.AddCommand(variationCmd)
}
