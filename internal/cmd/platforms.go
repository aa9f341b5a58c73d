package cmd

import (
	"github.com/spf13/cobra"

	"github.com/crosspost/crosspost/internal/core/platform"
	"github.com/crosspost/crosspost/internal/output"
)

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List supported platforms and their posting rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeResult(cmd, "platforms", func(f output.Formatter) (string, error) {
			return f.FormatPlatforms(platform.Default().All())
		})
	},
}

func init() {
	rootCmd.AddCommand(platformsCmd)
	addOutFlag(platformsCmd)
}
