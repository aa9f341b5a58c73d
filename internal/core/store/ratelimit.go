package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crosspost/crosspost/internal/core"
)

// GetClientRateLimit returns the stored sliding log for scope, or nil when
// the scope has never been seen.
func (s *Store) GetClientRateLimit(ctx context.Context, scope string) (*core.ClientRateLimitState, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	scope = strings.TrimSpace(scope)
	if scope == "" {
		return nil, errors.New("scope is required")
	}

	var (
		requests    string
		lockedUntil sql.NullInt64
	)

	row := s.DB.QueryRowContext(ctx, `
		SELECT requests, locked_until
		FROM client_rate_limits
		WHERE scope = ?
	`, scope)

	if err := row.Scan(&requests, &lockedUntil); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch client rate limit: %w", err)
	}

	return decodeClientState(requests, lockedUntil)
}

// UpdateClientRateLimit persists the sliding log for scope.
func (s *Store) UpdateClientRateLimit(ctx context.Context, scope string, state *core.ClientRateLimitState) error {
	if err := s.ready(); err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	scope = strings.TrimSpace(scope)
	if scope == "" {
		return errors.New("scope is required")
	}
	if state == nil {
		return errors.New("rate limit state is required")
	}

	requests := make([]int64, 0, len(state.Requests))
	for _, ts := range state.Requests {
		requests = append(requests, ts.UTC().UnixMilli())
	}
	encoded, err := json.Marshal(requests)
	if err != nil {
		return fmt.Errorf("encode client rate limit: %w", err)
	}

	var lockedUntil sql.NullInt64
	if state.LockedUntil != nil {
		lockedUntil = sql.NullInt64{Int64: state.LockedUntil.UTC().UnixMilli(), Valid: true}
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO client_rate_limits (scope, requests, locked_until, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET
			requests = excluded.requests,
			locked_until = excluded.locked_until,
			updated_at = excluded.updated_at
	`, scope, string(encoded), lockedUntil, time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("store client rate limit: %w", err)
	}

	return nil
}

// decodeClientState converts stored epoch milliseconds back into state.
func decodeClientState(requests string, lockedUntil sql.NullInt64) (*core.ClientRateLimitState, error) {
	var millis []int64
	if strings.TrimSpace(requests) != "" {
		if err := json.Unmarshal([]byte(requests), &millis); err != nil {
			return nil, fmt.Errorf("decode client rate limit: %w", err)
		}
	}

	state := &core.ClientRateLimitState{Requests: make([]time.Time, 0, len(millis))}
	for _, ms := range millis {
		state.Requests = append(state.Requests, time.UnixMilli(ms).UTC())
	}
	if lockedUntil.Valid {
		value := time.UnixMilli(lockedUntil.Int64).UTC()
		state.LockedUntil = &value
	}
	return state, nil
}
