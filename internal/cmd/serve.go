package cmd

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/crosspost/crosspost/internal/config"
	"github.com/crosspost/crosspost/internal/core/engine"
	"github.com/crosspost/crosspost/internal/core/platform"
	"github.com/crosspost/crosspost/internal/core/preview"
	"github.com/crosspost/crosspost/internal/core/store"
	"github.com/crosspost/crosspost/internal/core/visit"
	errwrap "github.com/crosspost/crosspost/internal/errors"
	"github.com/crosspost/crosspost/internal/metrics"
	"github.com/crosspost/crosspost/internal/observability"
	"github.com/crosspost/crosspost/internal/server"
	"github.com/crosspost/crosspost/internal/server/handlers"
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the link-preview HTTP server",
	Long: `Start the HTTP server that serves /api/link-preview, /api/platforms and
/api/compose, with health, version and metrics routes.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Re-read configuration and report changes that need a restart`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := config.Load(ctx, serveOverrides(cmd))
	if err != nil {
		return errwrap.WrapConfigInvalid(ctx, err, "config load failed")
	}

	identity := GetAppIdentity()
	namespace := identity.TelemetryNamespace()
	observability.InitServerLogger(observability.ServerLoggerOptions{
		Service:   identity.BinaryName,
		Level:     cfg.Logging.Level,
		Profile:   cfg.Logging.Profile,
		Namespace: namespace,
	})
	logger := observability.ServerLogger

	health := handlers.NewHealthManager(versionInfo.Version)

	if cfg.Metrics.Enabled {
		if err := observability.InitMetrics(namespace, cfg.Metrics.Port); err != nil {
			logger.Error("Failed to initialize metrics", zap.Error(err))
			return errwrap.WrapInternal(ctx, err, "metrics initialization failed")
		}
		health.RegisterChecker("telemetry", telemetryHealthChecker{})
	}

	// The server keeps running without a database; only the store visit sink needs it.
	var db *store.Store
	if opened, _, err := openStore(ctx); err != nil {
		logger.Warn("Local store unavailable", zap.Error(err))
	} else {
		db = opened
		health.RegisterChecker("store", handlers.CheckFunc(db.Ping))
	}

	var visitStore visit.VisitWriter
	if db != nil {
		visitStore = db
	}
	dispatcher, closeVisits, err := visit.NewDispatcher(cfg.Visits, visitStore, logger)
	if err != nil {
		return errwrap.WrapConfigInvalid(ctx, err, "visit sink initialization failed")
	}

	limiter := engine.NewWindowLimiter(cfg.RateLimit.ServerPerMinute, nil)
	fetcher := &preview.Fetcher{
		Limiter:      limiter,
		UserAgent:    cfg.Preview.UserAgent,
		Timeout:      cfg.Preview.Timeout,
		MaxBodyBytes: cfg.Preview.MaxBodyBytes,
	}

	srv := server.New(server.Options{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		IdleTimeout:   cfg.Server.IdleTimeout,
		Registry:      platform.Default(),
		Fetcher:       fetcher,
		Visits:        dispatcher,
		Health:        health,
		Build:         handlers.BuildInfo{Name: identity.BinaryName, Version: versionInfo.Version, Commit: versionInfo.Commit, BuildDate: versionInfo.BuildDate},
		AdminToken:    os.Getenv(identity.EnvPrefix + "ADMIN_TOKEN"),
		EnableHealth:  cfg.Health.Enabled,
		EnableMetrics: cfg.Metrics.Enabled,
		EnablePprof:   cfg.Debug.Enabled && cfg.Debug.PprofEnabled,
		Logger:        logger,
	})

	started := time.Now()
	metrics.SetServerStartTime(started.Unix())
	logger.Info("Initializing server",
		zap.String("service", identity.BinaryName),
		zap.String("version", versionInfo.Version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Int("server_rate_limit", limiter.Limit()),
		zap.Bool("visits", dispatcher != nil))

	registerShutdown(srv, db, closeVisits, cfg.Server.ShutdownTimeout, started)
	registerReload(cfg)

	if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
		Window:  2 * time.Second,
		Message: "Press Ctrl+C again within 2 seconds to force quit",
	}); err != nil {
		logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
	}

	errChan := make(chan error, 2)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
			return
		}
		errChan <- nil
	}()
	go func() {
		if err := signals.Listen(ctx); err != nil {
			logger.Error("Signal handler error", zap.Error(err))
			errChan <- err
		}
	}()

	if err := <-errChan; err != nil {
		return errwrap.WrapInternal(ctx, err, "server error")
	}
	return nil
}

// registerShutdown orders teardown; signals runs handlers last-registered first.
func registerShutdown(srv *server.Server, db *store.Store, closeVisits func() error, timeout time.Duration, started time.Time) {
	logger := observability.ServerLogger
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	signals.OnShutdown(func(ctx context.Context) error {
		if err := logger.Sync(); err != nil {
			logger.Debug("Logger sync returned error (may be benign)", zap.Error(err))
		}
		return nil
	})

	signals.OnShutdown(func(ctx context.Context) error {
		if err := closeVisits(); err != nil {
			logger.Warn("Closing visit sink failed", zap.Error(err))
		}
		if db != nil {
			if err := db.Close(); err != nil {
				logger.Warn("Closing store failed", zap.Error(err))
			}
		}
		return nil
	})

	signals.OnShutdown(func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		metrics.SetServerUptime(int64(time.Since(started).Seconds()))
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errwrap.WrapInternal(ctx, err, "server shutdown failed")
		}
		logger.Info("HTTP server stopped gracefully")
		return nil
	})
}

// registerReload re-reads configuration on SIGHUP. Running components keep
// their settings; the log reports which sections changed.
func registerReload(current *config.Config) {
	logger := observability.ServerLogger
	signals.OnReload(func(ctx context.Context) error {
		next, err := config.Load(ctx)
		if err != nil {
			logger.Error("Failed to reload config", zap.Error(err))
			return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
		}
		changed := changedSections(current, next)
		if len(changed) == 0 {
			logger.Info("Configuration reloaded; no changes")
			return nil
		}
		logger.Warn("Configuration changed; restart to apply", zap.Strings("sections", changed))
		return nil
	})
}

func changedSections(a, b *config.Config) []string {
	var changed []string
	add := func(name string, differs bool) {
		if differs {
			changed = append(changed, name)
		}
	}
	add("server", a.Server != b.Server)
	add("store", a.Store != b.Store)
	add("preview", a.Preview != b.Preview)
	add("rate_limit", a.RateLimit != b.RateLimit)
	add("visits", a.Visits != b.Visits)
	add("logging", a.Logging != b.Logging)
	add("metrics", a.Metrics != b.Metrics)
	add("health", a.Health != b.Health)
	add("debug", a.Debug != b.Debug)
	return changed
}

// serveOverrides turns explicitly set flags into a runtime config layer.
func serveOverrides(cmd *cobra.Command) map[string]any {
	server := map[string]any{}
	if cmd.Flags().Changed("host") {
		server["host"] = viper.GetString("server.host")
	}
	if cmd.Flags().Changed("port") {
		server["port"] = viper.GetInt("server.port")
	}
	if len(server) == 0 {
		return nil
	}
	return map[string]any{"server": server}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
