package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Well-known local record keys.
const (
	RecordDraft       = "draft"
	RecordVariations  = "variations"
	RecordPreferences = "preferences"
)

// ErrRecordNotFound is returned when a key has no stored value.
var ErrRecordNotFound = errors.New("record not found")

// GetRecord decodes the JSON value stored under key into dst.
func (s *Store) GetRecord(ctx context.Context, key string, dst any) error {
	if err := s.ready(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("record key is required")
	}

	var value string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM local_records WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("fetch record %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(value), dst); err != nil {
		return fmt.Errorf("decode record %s: %w", key, err)
	}
	return nil
}

// PutRecord replaces the value stored under key with the JSON encoding of v.
func (s *Store) PutRecord(ctx context.Context, key string, v any) error {
	if err := s.ready(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("record key is required")
	}

	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", key, err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO local_records (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, string(encoded), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("store record %s: %w", key, err)
	}
	return nil
}

// DeleteRecord removes key. Deleting a missing key is not an error.
func (s *Store) DeleteRecord(ctx context.Context, key string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM local_records WHERE key = ?`, strings.TrimSpace(key)); err != nil {
		return fmt.Errorf("delete record %s: %w", key, err)
	}
	return nil
}
