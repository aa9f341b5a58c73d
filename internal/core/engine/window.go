package engine

import (
	"math"
	"sync"
	"time"
)

const (
	// DefaultServerLimitPerMinute is the shared server cap per window.
	DefaultServerLimitPerMinute = 10

	serverWindow = time.Minute
)

// WindowLimiter is a fixed-window counter shared by every caller in the
// process. The whole count resets at the window boundary; individual
// requests are not tracked. State lives only as long as the instance, so a
// restart starts a fresh window. Instances do not coordinate, so N replicas
// allow N times the limit.
type WindowLimiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	clock       func() time.Time
	count       int
	throttled   int
	windowStart time.Time
}

// WindowDecision is the outcome of one request against the shared window.
type WindowDecision struct {
	Allowed      bool `json:"allowed"`
	Remaining    int  `json:"remaining"`
	ResetSeconds int  `json:"reset_seconds"`
	// QueuePosition counts denials in the current window. It is not a
	// position in any real queue.
	QueuePosition int `json:"queue_position"`
}

// WindowSnapshot reports the counters without consuming a request.
type WindowSnapshot struct {
	Count          int       `json:"count"`
	Limit          int       `json:"limit"`
	ThrottledCount int       `json:"throttled_count"`
	WindowStart    time.Time `json:"window_start"`
}

// NewWindowLimiter creates a limiter whose first window opens now.
// A non-positive limit uses DefaultServerLimitPerMinute; a nil clock uses
// wall time.
func NewWindowLimiter(limitPerMinute int, clock func() time.Time) *WindowLimiter {
	if limitPerMinute <= 0 {
		limitPerMinute = DefaultServerLimitPerMinute
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &WindowLimiter{
		limit:       limitPerMinute,
		window:      serverWindow,
		clock:       clock,
		windowStart: clock(),
	}
}

// Allow consumes one request from the current window if any remain.
func (l *WindowLimiter) Allow() WindowDecision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	elapsed := now.Sub(l.windowStart)
	if elapsed >= l.window {
		l.count = 0
		l.throttled = 0
		l.windowStart = now
		elapsed = 0
	}

	allowed := l.count < l.limit
	if allowed {
		l.count++
	} else {
		l.throttled++
	}

	remaining := l.limit - l.count
	if remaining < 0 {
		remaining = 0
	}

	return WindowDecision{
		Allowed:       allowed,
		Remaining:     remaining,
		ResetSeconds:  int(math.Ceil(float64((l.window - elapsed).Milliseconds()) / 1000)),
		QueuePosition: l.throttled,
	}
}

// Snapshot returns the current counters.
func (l *WindowLimiter) Snapshot() WindowSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return WindowSnapshot{
		Count:          l.count,
		Limit:          l.limit,
		ThrottledCount: l.throttled,
		WindowStart:    l.windowStart,
	}
}

// Limit returns the per-window cap.
func (l *WindowLimiter) Limit() int {
	return l.limit
}
