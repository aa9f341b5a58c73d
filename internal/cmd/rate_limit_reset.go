package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/crosspost/crosspost/internal/output"
)

var (
	rateLimitResetAll    bool
	rateLimitResetScope  string
	rateLimitResetPrefix string
	rateLimitResetYes    bool
	rateLimitResetDryRun bool
)

var rateLimitResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset stored client rate limit state",
	Long: `Reset stored client rate limit state.

Select what to clear with --scope (exact), --prefix, or --all. Clearing
everything requires --yes unless --dry-run is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		query := scopeQuery(rateLimitResetAll, rateLimitResetScope, rateLimitResetPrefix)
		if err := query.Validate(); err != nil {
			return err
		}
		if query.All && !rateLimitResetYes && !rateLimitResetDryRun {
			return errors.New("--all requires --yes (or use --dry-run)")
		}

		db, _, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		matched, err := db.CountClientRateLimits(cmd.Context(), query)
		if err != nil {
			return err
		}

		result := output.ResetResult{Matched: matched, DryRun: rateLimitResetDryRun}
		if !rateLimitResetDryRun {
			result.Deleted, err = db.ResetClientRateLimits(cmd.Context(), query)
			if err != nil {
				return err
			}
		}

		rendered, err := output.NewRateLimitFormatter(format).FormatReset(result)
		if err != nil {
			return err
		}
		return emit(cmd, "rate-limit.reset", format, rendered)
	},
}

func init() {
	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetAll, "all", false, "Reset all scopes")
	rateLimitResetCmd.Flags().StringVar(&rateLimitResetScope, "scope", "", "Reset a single scope (exact match)")
	rateLimitResetCmd.Flags().StringVar(&rateLimitResetPrefix, "prefix", "", "Reset scopes with matching prefix")
	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetYes, "yes", false, "Confirm destructive reset")
	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetDryRun, "dry-run", false, "Show what would be deleted")
	addOutFlag(rateLimitResetCmd)
}
