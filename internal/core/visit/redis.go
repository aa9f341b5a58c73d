package visit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crosspost/crosspost/internal/core"
)

// DefaultStream is the stream key visits are appended to.
const DefaultStream = "crosspost:visits"

// StreamAdder is the subset of *redis.Client used by RedisSink.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisSink appends visits to a Redis stream, trimming it to roughly MaxLen.
type RedisSink struct {
	Client StreamAdder
	Stream string
	MaxLen int64
}

// NewRedisSink connects to url (redis://...) and returns the sink plus the
// client so the caller can close it.
func NewRedisSink(url, stream string) (*RedisSink, *redis.Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	return &RedisSink{Client: client, Stream: stream, MaxLen: 100000}, client, nil
}

func (s *RedisSink) Record(ctx context.Context, v core.Visit) error {
	if s.Client == nil {
		return errors.New("redis client is not configured")
	}
	stream := s.Stream
	if strings.TrimSpace(stream) == "" {
		stream = DefaultStream
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"session_id":        v.SessionID,
			"device_type":       v.DeviceType,
			"user_agent":        v.UserAgent,
			"screen_resolution": v.ScreenResolution,
			"language":          v.Language,
			"referrer":          v.Referrer,
			"target_url":        v.TargetURL,
			"remote_addr":       v.RemoteAddr,
			"occurred_at":       v.OccurredAt.UTC().Format(time.RFC3339Nano),
		},
	}
	if s.MaxLen > 0 {
		args.MaxLen = s.MaxLen
		args.Approx = true
	}

	if err := s.Client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", stream, err)
	}
	return nil
}
