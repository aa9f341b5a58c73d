package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crosspost/crosspost/internal/config"
	"github.com/crosspost/crosspost/internal/core/platform"
	"github.com/crosspost/crosspost/internal/core/store"
	errwrap "github.com/crosspost/crosspost/internal/errors"
	"github.com/crosspost/crosspost/internal/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long:  "Verify that configuration loads, the platform table is intact and the local store opens.",
	Run: func(cmd *cobra.Command, args []string) {
		log := observability.CLILogger
		if log == nil {
			ExitWithCodeStderr(foundry.ExitConfigInvalid, "Logger not initialized", errwrap.NewConfigInvalidError("Logger not initialized"))
			return
		}
		log.Info("Running health check...")

		if versionInfo.Version == "" {
			ExitWithCode(log, foundry.ExitConfigInvalid, "Version information missing", errwrap.NewConfigInvalidError("Version information missing"))
			return
		}
		log.Info("✅ Version information available", zap.String("version", versionInfo.Version))

		cfg, err := config.Load(cmd.Context())
		if err != nil {
			ExitWithCode(log, foundry.ExitConfigInvalid, "Configuration invalid", errwrap.NewConfigInvalidError(err.Error()))
			return
		}
		log.Info("✅ Configuration loaded")

		if err := platform.Default().Validate(platform.Default().IDs()); err != nil {
			ExitWithCode(log, foundry.ExitConfigInvalid, "Platform rules invalid", errwrap.NewConfigInvalidError(err.Error()))
			return
		}
		log.Info(fmt.Sprintf("✅ %d platforms registered", len(platform.Default().IDs())))

		db, err := store.Open(cmd.Context(), cfg.Store)
		if err == nil {
			err = db.Ping(cmd.Context())
			_ = db.Close()
		}
		if err != nil {
			// Compose works without the store, so this only warns.
			log.Warn("⚠️  Store unavailable; drafts and rate limits will not persist", zap.Error(err))
		} else {
			log.Info("✅ Store reachable", zap.String("driver", cfg.Store.Driver))
		}

		log.Info("")
		log.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
