package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crosspost/crosspost/internal/config"
	"github.com/stretchr/testify/require"
)

func TestBuildLibsqlDSN(t *testing.T) {
	t.Run("URLUsesRawValue", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123", dsn)
	})

	t.Run("URLWithExistingQuery", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io?foo=bar",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123&foo=bar", dsn)
	})

	t.Run("PathWithFilePrefix", func(t *testing.T) {
		cfg := config.StoreConfig{Path: "file:./crosspost.db"}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "file:./crosspost.db", dsn)
	})

	t.Run("PathMissing", func(t *testing.T) {
		cfg := config.StoreConfig{}

		_, err := buildLibsqlDSN(cfg)
		require.Error(t, err)
	})

	t.Run("MemoryPath", func(t *testing.T) {
		cfg := config.StoreConfig{Path: ":memory:"}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, ":memory:", dsn)
	})
}

func TestBuildSQLiteDSN(t *testing.T) {
	t.Run("PlainPath", func(t *testing.T) {
		dir := t.TempDir()
		dsn, err := buildSQLiteDSN(config.StoreConfig{Path: dir + "/nested/crosspost.db"})
		require.NoError(t, err)
		require.Equal(t, filepath.Join(dir, "nested", "crosspost.db"), dsn)
		require.DirExists(t, filepath.Join(dir, "nested"))
	})

	t.Run("FilePrefixStripped", func(t *testing.T) {
		dir := t.TempDir()
		dsn, err := buildSQLiteDSN(config.StoreConfig{Path: "file:" + dir + "/crosspost.db"})
		require.NoError(t, err)
		require.Equal(t, filepath.Join(dir, "crosspost.db"), dsn)
	})

	t.Run("URLRejected", func(t *testing.T) {
		_, err := buildSQLiteDSN(config.StoreConfig{URL: "libsql://example.turso.io"})
		require.Error(t, err)
	})

	t.Run("PathMissing", func(t *testing.T) {
		_, err := buildSQLiteDSN(config.StoreConfig{})
		require.Error(t, err)
	})
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "postgres", Path: "x"})
	require.Error(t, err)
}

// openTestStore opens a migrated pure-Go store in a temp dir.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, config.StoreConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "crosspost.db")})
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenSQLiteConfiguresLocal(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.Equal(t, "sqlite", s.Driver())
	require.Equal(t, 1, s.DB.Stats().MaxOpenConnections)

	var journalMode string
	require.NoError(t, s.DB.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode))
	require.Equal(t, "wal", strings.ToLower(journalMode))

	// Migrate is idempotent.
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Ping(ctx))
}

func TestNilStore(t *testing.T) {
	var s *Store
	require.NoError(t, s.Close())
	require.Equal(t, "", s.Driver())
	require.Error(t, s.Migrate(context.Background()))
	_, err := s.GetClientRateLimit(context.Background(), "x")
	require.Error(t, err)
}
