package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crosspost/crosspost/internal/output"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Show, save or clear the working draft",
}

var draftShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved draft",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close() // nolint:errcheck // best-effort cleanup

		draft, ok := s.drafts.Load(cmd.Context())
		if !ok {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "No saved draft.")
			return err
		}
		return writeResult(cmd, "draft", func(f output.Formatter) (string, error) {
			return f.FormatDraft(draft)
		})
	},
}

var draftSaveFlags draftFlags

var draftSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the working draft (flags replace the saved fields)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close() // nolint:errcheck // best-effort cleanup

		draftSaveFlags.fromDraft = true
		draft, _ := resolveDraft(cmd, s, &draftSaveFlags)
		saved, err := s.drafts.Save(cmd.Context(), draft)
		if err != nil {
			return err
		}
		return writeResult(cmd, "draft", func(f output.Formatter) (string, error) {
			return f.FormatDraft(saved)
		})
	},
}

var draftClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the saved draft",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close() // nolint:errcheck // best-effort cleanup

		s.drafts.Clear(cmd.Context())
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "Draft cleared.")
		return err
	},
}

func init() {
	bindDraftFlags(draftSaveCmd, &draftSaveFlags)
	_ = draftSaveCmd.Flags().MarkHidden("from-draft")
	_ = draftSaveCmd.Flags().MarkHidden("lowercase")

	draftCmd.AddCommand(draftShowCmd, draftSaveCmd, draftClearCmd)
	rootCmd.AddCommand(draftCmd)
}
