package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crosspost/crosspost/internal/core"
)

// InsertVisit appends one visit event.
func (s *Store) InsertVisit(ctx context.Context, visit core.Visit) error {
	if err := s.ready(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if strings.TrimSpace(visit.SessionID) == "" {
		return errors.New("visit session id is required")
	}
	occurred := visit.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO visits (session_id, device_type, user_agent, screen_resolution, language, referrer, target_url, remote_addr, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, visit.SessionID, visit.DeviceType, visit.UserAgent, visit.ScreenResolution,
		visit.Language, visit.Referrer, visit.TargetURL, visit.RemoteAddr, occurred.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("store visit: %w", err)
	}
	return nil
}

// RecentVisits returns up to limit visits, newest first.
func (s *Store) RecentVisits(ctx context.Context, limit int) ([]core.Visit, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT session_id, device_type, user_agent, screen_resolution, language, referrer, target_url, remote_addr, occurred_at
		FROM visits
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	visits := []core.Visit{}
	for rows.Next() {
		var (
			v        core.Visit
			device   sql.NullString
			ua       sql.NullString
			screen   sql.NullString
			lang     sql.NullString
			referrer sql.NullString
			target   sql.NullString
			remote   sql.NullString
			occurred int64
		)
		if err := rows.Scan(&v.SessionID, &device, &ua, &screen, &lang, &referrer, &target, &remote, &occurred); err != nil {
			return nil, fmt.Errorf("scan visits: %w", err)
		}
		v.DeviceType = device.String
		v.UserAgent = ua.String
		v.ScreenResolution = screen.String
		v.Language = lang.String
		v.Referrer = referrer.String
		v.TargetURL = target.String
		v.RemoteAddr = remote.String
		v.OccurredAt = time.UnixMilli(occurred).UTC()
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	return visits, nil
}
