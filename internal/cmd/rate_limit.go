package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/crosspost/crosspost/internal/core/store"
)

var rateLimitCmd = &cobra.Command{
	Use:   "rate-limit",
	Short: "Inspect or reset persisted client rate limit state",
}

// scopeQuery builds a store query from the shared --all/--scope/--prefix flags.
func scopeQuery(all bool, scope, prefix string) store.RateLimitQuery {
	return store.RateLimitQuery{
		All:    all,
		Scope:  strings.TrimSpace(scope),
		Prefix: strings.TrimSpace(prefix),
	}
}

func init() {
	rateLimitCmd.AddCommand(rateLimitShowCmd)
	rateLimitCmd.AddCommand(rateLimitResetCmd)
	rootCmd.AddCommand(rateLimitCmd)
}
