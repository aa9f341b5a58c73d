package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crosspost/crosspost/internal/config"
	"github.com/crosspost/crosspost/internal/core/platform"
	"github.com/crosspost/crosspost/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display environment, configuration, and version information.",
	Run: func(cmd *cobra.Command, args []string) {
		log := observability.CLILogger
		version := crucible.GetVersion()
		identity := GetAppIdentity()

		name := "crosspost"
		if identity != nil && identity.BinaryName != "" {
			name = identity.BinaryName
		}

		log.Info("=== Environment Information ===")
		log.Info("Application:")
		log.Info("  Name:       " + name)
		log.Info("  Version:    " + versionInfo.Version)
		log.Info("  Commit:     " + versionInfo.Commit)
		log.Info("  Built:      " + versionInfo.BuildDate)
		log.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		log.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		log.Info("")

		log.Info("Runtime:")
		log.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		log.Info("  GOOS/ARCH:  "+runtime.GOOS+"/"+runtime.GOARCH, zap.String("goos", runtime.GOOS), zap.String("goarch", runtime.GOARCH))
		log.Info("")

		cfg, err := config.Load(cmd.Context())
		if err != nil {
			log.Warn("Config load failed", zap.Error(err))
			return
		}

		log.Info("Server:")
		log.Info(fmt.Sprintf("  Listen:         %s:%d", cfg.Server.Host, cfg.Server.Port), zap.String("host", cfg.Server.Host), zap.Int("port", cfg.Server.Port))
		log.Info("  Shutdown after: " + cfg.Server.ShutdownTimeout.String())
		log.Info("")

		log.Info("Store:")
		log.Info("  Driver:         "+cfg.Store.Driver, zap.String("db_driver", cfg.Store.Driver))
		if strings.TrimSpace(cfg.Store.URL) != "" {
			log.Info("  URL:            "+cfg.Store.URL, zap.String("db_url", cfg.Store.URL))
			log.Info("  Auth token:     " + setOrNot(cfg.Store.AuthToken))
		} else {
			log.Info("  Path:           "+cfg.Store.Path, zap.String("db_path", cfg.Store.Path))
		}
		log.Info("")

		log.Info("Link preview:")
		log.Info("  Timeout:        " + cfg.Preview.Timeout.String())
		log.Info("  User agent:     " + cfg.Preview.UserAgent)
		log.Info(fmt.Sprintf("  Max body:       %d bytes", cfg.Preview.MaxBodyBytes))
		log.Info("")

		log.Info("Rate limits:")
		log.Info(fmt.Sprintf("  Server:         %d/min", cfg.RateLimit.ServerPerMinute))
		log.Info(fmt.Sprintf("  Client:         %d/min, %d min lockout", cfg.RateLimit.ClientPerMinute, cfg.RateLimit.LockoutMinutes))
		log.Info("")

		log.Info("Visits:")
		log.Info(fmt.Sprintf("  Enabled:        %t", cfg.Visits.Enabled), zap.Bool("visits_enabled", cfg.Visits.Enabled))
		log.Info("  Sink:           " + cfg.Visits.Sink)
		if cfg.Visits.Sink == "redis" {
			log.Info("  Redis URL:      " + setOrNot(cfg.Visits.RedisURL))
			log.Info("  Redis stream:   " + cfg.Visits.RedisStream)
		}
		log.Info("")

		log.Info("Observability:")
		log.Info("  Log level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		log.Info("  Log profile:    "+cfg.Logging.Profile, zap.String("log_profile", cfg.Logging.Profile))
		log.Info(fmt.Sprintf("  Metrics:        %t (port %d)", cfg.Metrics.Enabled, cfg.Metrics.Port))
		log.Info(fmt.Sprintf("  pprof:          %t", cfg.Debug.Enabled && cfg.Debug.PprofEnabled))
		log.Info("  Config file:    "+config.DefaultConfigPath(), zap.String("config_file", config.DefaultConfigPath()))
		log.Info("")

		log.Info(fmt.Sprintf("Platforms: %s", strings.Join(platform.Default().IDs(), ", ")))
		log.Info("=== End Environment Information ===")
	},
}

func setOrNot(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(not set)"
	}
	return "(set)"
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
