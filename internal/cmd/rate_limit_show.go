package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/crosspost/crosspost/internal/core/store"
	"github.com/crosspost/crosspost/internal/output"
)

var (
	rateLimitShowScope  string
	rateLimitShowPrefix string
)

var rateLimitShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"list"},
	Short:   "Show stored client rate limit state",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		query := scopeQuery(false, rateLimitShowScope, rateLimitShowPrefix)
		if query.Scope == "" && query.Prefix == "" {
			query.All = true
		}

		db, _, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		entries, err := db.ListClientRateLimits(cmd.Context(), query)
		if err != nil {
			return err
		}

		rendered, err := output.NewRateLimitFormatter(format).FormatRateLimits(rateLimitRows(entries), time.Now())
		if err != nil {
			return err
		}
		return emit(cmd, "rate-limit", format, rendered)
	},
}

func rateLimitRows(entries []store.RateLimitEntry) []output.RateLimitRow {
	rows := make([]output.RateLimitRow, 0, len(entries))
	for _, entry := range entries {
		row := output.RateLimitRow{
			Scope:       entry.Scope,
			Attempts:    len(entry.State.Requests),
			LockedUntil: entry.State.LockedUntil,
		}
		if n := len(entry.State.Requests); n > 0 {
			last := entry.State.Requests[n-1]
			row.LastAttempt = &last
		}
		rows = append(rows, row)
	}
	return rows
}

func init() {
	rateLimitShowCmd.Flags().StringVar(&rateLimitShowScope, "scope", "", "Show a single scope (exact match)")
	rateLimitShowCmd.Flags().StringVar(&rateLimitShowPrefix, "prefix", "", "Show scopes with matching prefix")
	addOutFlag(rateLimitShowCmd)
}
