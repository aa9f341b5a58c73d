package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crosspost/crosspost/internal/core/preview"
	errwrap "github.com/crosspost/crosspost/internal/errors"
	"github.com/crosspost/crosspost/internal/observability"
	"github.com/crosspost/crosspost/internal/output"
)

// previewScope is the client limiter scope shared by every preview invocation.
const previewScope = "link-preview"

var previewAttach bool

var previewCmd = &cobra.Command{
	Use:   "preview <url>",
	Short: "Fetch the title, description and image a link will show",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close() // nolint:errcheck // best-effort cleanup

		if _, err := preview.ValidateURL(args[0]); err != nil {
			return errwrap.WrapInvalidInput(ctx, err, "Please enter a valid http or https URL.")
		}

		decision := s.limiter.Attempt(ctx, previewScope)
		if !decision.Allowed {
			return errwrap.NewRateLimitedError(decision.Message(), decision.MinutesRemaining*60)
		}

		fetcher := &preview.Fetcher{
			UserAgent:    s.cfg.Preview.UserAgent,
			Timeout:      s.cfg.Preview.Timeout,
			MaxBodyBytes: s.cfg.Preview.MaxBodyBytes,
		}
		result, err := fetcher.Fetch(ctx, args[0])
		if err != nil {
			if perr, ok := preview.AsError(err); ok {
				observability.CLILogger.Debug("preview failed", zap.Error(err))
				return previewFailure(cmd, perr)
			}
			return err
		}

		if previewAttach {
			draft, _ := s.drafts.Load(ctx)
			draft.URL = result.Preview.URL
			draft.LinkPreview = &result.Preview
			if _, err := s.drafts.Save(ctx, draft); err != nil {
				return err
			}
		}

		return writeResult(cmd, "preview", func(f output.Formatter) (string, error) {
			return f.FormatPreview(&output.PreviewResult{Preview: &result.Preview, Decision: decision})
		})
	},
}

// previewFailure maps a fetch failure to an envelope carrying only the safe message.
func previewFailure(cmd *cobra.Command, perr *preview.Error) error {
	ctx := cmd.Context()
	switch perr.Kind {
	case preview.KindInvalidURL:
		return errwrap.WrapInvalidInput(ctx, perr, perr.SafeMessage())
	case preview.KindRateLimited:
		return errwrap.NewRateLimitedError(perr.SafeMessage(), perr.RetryAfter)
	case preview.KindTimeout:
		return errwrap.WrapTimeout(ctx, perr, perr.SafeMessage())
	default:
		return errwrap.WrapExternalService(ctx, perr, perr.SafeMessage())
	}
}

func init() {
	previewCmd.Flags().BoolVar(&previewAttach, "attach", false, "Attach the preview and link to the saved draft")
	addOutFlag(previewCmd)
	rootCmd.AddCommand(previewCmd)
}
