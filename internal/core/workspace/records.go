// Package workspace holds the client-local compose state: the current draft,
// up to five saved content variations, and user preferences. Each is kept in
// memory and mirrored to an independent JSON record; the in-memory copy stays
// authoritative when the record store fails.
package workspace

import (
	"context"
	"errors"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/crosspost/crosspost/internal/core/store"
)

// RecordStore persists JSON records by key. *store.Store satisfies it.
type RecordStore interface {
	GetRecord(ctx context.Context, key string, dst any) error
	PutRecord(ctx context.Context, key string, v any) error
	DeleteRecord(ctx context.Context, key string) error
}

// loadRecord reads key into dst. It reports whether a value was found;
// storage failures are logged and treated as absent.
func loadRecord(ctx context.Context, records RecordStore, logger *logging.Logger, key string, dst any) bool {
	if records == nil {
		return false
	}
	err := records.GetRecord(ctx, key, dst)
	if err == nil {
		return true
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		warnStorage(logger, "load", key, err)
	}
	return false
}

func saveRecord(ctx context.Context, records RecordStore, logger *logging.Logger, key string, v any) {
	if records == nil {
		return
	}
	if err := records.PutRecord(ctx, key, v); err != nil {
		warnStorage(logger, "save", key, err)
	}
}

func deleteRecord(ctx context.Context, records RecordStore, logger *logging.Logger, key string) {
	if records == nil {
		return
	}
	if err := records.DeleteRecord(ctx, key); err != nil {
		warnStorage(logger, "delete", key, err)
	}
}

func warnStorage(logger *logging.Logger, op, key string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("workspace storage error",
		zap.String("operation", op),
		zap.String("record", key),
		zap.Error(err))
}
