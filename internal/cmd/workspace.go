package cmd

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/crosspost/crosspost/internal/config"
	"github.com/crosspost/crosspost/internal/core/engine"
	"github.com/crosspost/crosspost/internal/core/platform"
	"github.com/crosspost/crosspost/internal/core/store"
	"github.com/crosspost/crosspost/internal/core/workspace"
	"github.com/crosspost/crosspost/internal/observability"
)

// session bundles the local-first state a CLI command works with.
// When the database cannot be opened, records is nil and every component
// keeps its state in memory for the life of the command.
type session struct {
	cfg         *config.Config
	db          *store.Store
	registry    *platform.Registry
	drafts      *workspace.Drafts
	variations  *workspace.Variations
	preferences *workspace.PreferenceStore
	limiter     *engine.ClientLimiter
}

func openSession(ctx context.Context) (*session, error) {
	logger := observability.CLILogger
	registry := platform.Default()

	db, cfg, storeErr := openStore(ctx)
	if storeErr != nil {
		var err error
		if cfg, err = config.Load(ctx); err != nil {
			return nil, err
		}
		if logger != nil {
			logger.Warn("Local store unavailable; changes will not persist", zap.Error(storeErr))
		}
	}

	var records workspace.RecordStore
	var rates engine.ClientRateStore
	if db != nil {
		records = db
		rates = db
	}

	return &session{
		cfg:         cfg,
		db:          db,
		registry:    registry,
		drafts:      workspace.NewDrafts(records, registry, logger),
		variations:  workspace.NewVariations(records, logger),
		preferences: workspace.NewPreferenceStore(records, registry, logger),
		limiter: &engine.ClientLimiter{
			Store:          rates,
			LimitPerMinute: cfg.RateLimit.ClientPerMinute,
			Lockout:        lockoutDuration(cfg.RateLimit.LockoutMinutes),
			Logger:         logger,
		},
	}, nil
}

func (s *session) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func lockoutDuration(minutes int) time.Duration {
	if minutes <= 0 {
		return engine.DefaultLockout
	}
	return time.Duration(minutes) * time.Minute
}
