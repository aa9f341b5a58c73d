package cmd

import (
	"github.com/spf13/cobra"

	"github.com/crosspost/crosspost/internal/core/workspace"
	"github.com/crosspost/crosspost/internal/output"
)

var prefsCmd = &cobra.Command{
	Use:     "prefs",
	Aliases: []string{"preferences"},
	Short:   "Show or change default platforms, hashtag casing and theme",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close() // nolint:errcheck // best-effort cleanup

		prefs := s.preferences.Load(cmd.Context())
		return writeResult(cmd, "preferences", func(f output.Formatter) (string, error) {
			return f.FormatPreferences(prefs)
		})
	},
}

var (
	prefsPlatforms []string
	prefsLowercase bool
	prefsTheme     string
)

var prefsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change preferences; unset flags keep their current value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close() // nolint:errcheck // best-effort cleanup

		prefs := s.preferences.Load(ctx)
		flags := cmd.Flags()
		if flags.Changed("platforms") {
			prefs.DefaultPlatforms = prefsPlatforms
		}
		if flags.Changed("lowercase-hashtags") {
			prefs.LowercaseHashtags = prefsLowercase
		}
		if flags.Changed("theme") {
			theme, err := workspace.ParseTheme(prefsTheme)
			if err != nil {
				return err
			}
			prefs.Theme = theme
		}

		saved, err := s.preferences.Save(ctx, prefs)
		if err != nil {
			return err
		}
		return writeResult(cmd, "preferences", func(f output.Formatter) (string, error) {
			return f.FormatPreferences(saved)
		})
	},
}

func init() {
	prefsSetCmd.Flags().StringSliceVarP(&prefsPlatforms, "platforms", "p", nil, "Default platform ids")
	prefsSetCmd.Flags().BoolVar(&prefsLowercase, "lowercase-hashtags", false, "Lowercase hashtags when composing")
	prefsSetCmd.Flags().StringVar(&prefsTheme, "theme", "", "Theme: light|dark|system")

	prefsCmd.AddCommand(prefsShowCmd, prefsSetCmd)
	rootCmd.AddCommand(prefsCmd)
}
