package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/crosspost/crosspost/internal/core"
)

// RateLimitEntry is one stored client scope.
type RateLimitEntry struct {
	Scope string                    `json:"scope"`
	State core.ClientRateLimitState `json:"state"`
}

// RateLimitQuery selects scopes for the admin commands.
type RateLimitQuery struct {
	All    bool
	Scope  string
	Prefix string
}

func (q RateLimitQuery) Validate() error {
	if q.All {
		return nil
	}
	if strings.TrimSpace(q.Scope) != "" {
		return nil
	}
	if strings.TrimSpace(q.Prefix) != "" {
		return nil
	}
	return errors.New("must specify --all, --scope, or --prefix")
}

func (q RateLimitQuery) whereClause() (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}
	if q.All {
		return "", nil, nil
	}
	if scope := strings.TrimSpace(q.Scope); scope != "" {
		return "WHERE scope = ?", []any{scope}, nil
	}
	return "WHERE scope LIKE ?", []any{strings.TrimSpace(q.Prefix) + "%"}, nil
}

// ListClientRateLimits returns stored scopes ordered by name.
func (s *Store) ListClientRateLimits(ctx context.Context, q RateLimitQuery) ([]RateLimitEntry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT scope, requests, locked_until
		FROM client_rate_limits
		%s
		ORDER BY scope
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list client rate limits: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	entries := []RateLimitEntry{}
	for rows.Next() {
		var (
			scope       string
			requests    string
			lockedUntil sql.NullInt64
		)
		if err := rows.Scan(&scope, &requests, &lockedUntil); err != nil {
			return nil, fmt.Errorf("scan client rate limits: %w", err)
		}

		state, err := decodeClientState(requests, lockedUntil)
		if err != nil {
			return nil, err
		}
		entries = append(entries, RateLimitEntry{Scope: scope, State: *state})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list client rate limits: %w", err)
	}

	return entries, nil
}

// CountClientRateLimits counts scopes matching q.
func (s *Store) CountClientRateLimits(ctx context.Context, q RateLimitQuery) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	row := s.DB.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*)
		FROM client_rate_limits
		%s
	`, where), args...)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count client rate limits: %w", err)
	}
	return count, nil
}

// ResetClientRateLimits deletes scopes matching q and reports how many went.
func (s *Store) ResetClientRateLimits(ctx context.Context, q RateLimitQuery) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	result, err := s.DB.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM client_rate_limits
		%s
	`, where), args...)
	if err != nil {
		return 0, fmt.Errorf("reset client rate limits: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset client rate limits: %w", err)
	}
	return affected, nil
}
