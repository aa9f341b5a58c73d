package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/crosspost/crosspost/internal/core"
	"github.com/crosspost/crosspost/internal/metrics"
)

const (
	// DefaultClientLimitPerMinute is the client tier's per-minute cap.
	DefaultClientLimitPerMinute = 5
	// DefaultLockout is how long the client tier locks out after the cap is hit.
	DefaultLockout = 10 * time.Minute

	clientWindow = time.Minute
)

// ClientRateStore persists client limiter state by scope.
type ClientRateStore interface {
	GetClientRateLimit(ctx context.Context, scope string) (*core.ClientRateLimitState, error)
	UpdateClientRateLimit(ctx context.Context, scope string, state *core.ClientRateLimitState) error
}

// ClientLimiter is a persisted sliding-log limiter with a hard lockout.
// There is no soft-throttle state: once the per-minute cap is reached the
// scope is locked out for Lockout.
//
// Concurrent processes sharing a store read and write state without
// coordination; the last write wins. Once a save for a scope fails, the
// in-memory state for that scope is authoritative until a save succeeds.
type ClientLimiter struct {
	Store          ClientRateStore
	LimitPerMinute int
	Lockout        time.Duration
	Clock          func() time.Time
	Logger         *logging.Logger

	mu    sync.Mutex
	cache map[string]*core.ClientRateLimitState
	// unsaved marks scopes whose latest state never reached the store.
	unsaved map[string]bool
}

// ClientDecision is the outcome of one attempt.
type ClientDecision struct {
	Allowed          bool       `json:"allowed"`
	MinutesRemaining int        `json:"minutes_remaining,omitempty"`
	LockedUntil      *time.Time `json:"locked_until,omitempty"`
	Attempts         int        `json:"attempts"`
	Limit            int        `json:"limit"`
}

// Message returns a user-facing explanation for a denial.
func (d ClientDecision) Message() string {
	if d.Allowed {
		return ""
	}
	unit := "minutes"
	if d.MinutesRemaining == 1 {
		unit = "minute"
	}
	return fmt.Sprintf("Too many requests. Please wait %d %s before trying again.", d.MinutesRemaining, unit)
}

// Attempt records an attempt for scope and decides whether it may proceed.
// Storage failures are logged and do not change the decision.
func (c *ClientLimiter) Attempt(ctx context.Context, scope string) ClientDecision {
	decision := c.attempt(ctx, scope)
	metrics.RecordRateLimitDecision(metrics.TierClient, decision.Allowed)
	return decision
}

func (c *ClientLimiter) attempt(ctx context.Context, scope string) ClientDecision {
	scope = normalizeScope(scope)
	now := c.now()
	limit := c.limit()

	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.load(ctx, scope)

	if state.LockedUntil != nil {
		if now.Before(*state.LockedUntil) {
			return ClientDecision{
				Allowed:          false,
				MinutesRemaining: ceilMinutes(state.LockedUntil.Sub(now)),
				LockedUntil:      copyTime(state.LockedUntil),
				Attempts:         len(state.Requests),
				Limit:            limit,
			}
		}
		state = &core.ClientRateLimitState{}
	}

	state.Requests = pruneBefore(state.Requests, now.Add(-clientWindow))

	if len(state.Requests) >= limit {
		until := now.Add(c.lockout())
		state.LockedUntil = &until
		c.save(ctx, scope, state)
		return ClientDecision{
			Allowed:          false,
			MinutesRemaining: ceilMinutes(until.Sub(now)),
			LockedUntil:      copyTime(&until),
			Attempts:         len(state.Requests),
			Limit:            limit,
		}
	}

	state.Requests = append(state.Requests, now)
	c.save(ctx, scope, state)
	return ClientDecision{Allowed: true, Attempts: len(state.Requests), Limit: limit}
}

// State returns the current stored state for scope without recording an attempt.
func (c *ClientLimiter) State(ctx context.Context, scope string) *core.ClientRateLimitState {
	scope = normalizeScope(scope)
	c.mu.Lock()
	defer c.mu.Unlock()
	state := c.load(ctx, scope)
	return cloneState(state)
}

// Reset clears history and lockout for scope.
func (c *ClientLimiter) Reset(ctx context.Context, scope string) {
	scope = normalizeScope(scope)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.save(ctx, scope, &core.ClientRateLimitState{})
}

func (c *ClientLimiter) load(ctx context.Context, scope string) *core.ClientRateLimitState {
	cached, hasCached := c.cache[scope]
	if hasCached && c.unsaved[scope] {
		return cloneState(cached)
	}
	if c.Store != nil {
		state, err := c.Store.GetClientRateLimit(ctx, scope)
		if err == nil {
			if state == nil {
				state = &core.ClientRateLimitState{}
			}
			return cloneState(state)
		}
		c.storageError("load client rate limit state", scope, err)
	}
	if hasCached {
		return cloneState(cached)
	}
	return &core.ClientRateLimitState{}
}

func (c *ClientLimiter) save(ctx context.Context, scope string, state *core.ClientRateLimitState) {
	if c.cache == nil {
		c.cache = make(map[string]*core.ClientRateLimitState)
		c.unsaved = make(map[string]bool)
	}
	c.cache[scope] = cloneState(state)

	if c.Store == nil {
		return
	}
	if err := c.Store.UpdateClientRateLimit(ctx, scope, state); err != nil {
		c.unsaved[scope] = true
		c.storageError("persist client rate limit state", scope, err)
		return
	}
	delete(c.unsaved, scope)
}

func (c *ClientLimiter) storageError(msg, scope string, err error) {
	if c.Logger == nil {
		return
	}
	c.Logger.Warn(msg, zap.String("scope", scope), zap.Error(err))
}

func (c *ClientLimiter) limit() int {
	if c == nil || c.LimitPerMinute <= 0 {
		return DefaultClientLimitPerMinute
	}
	return c.LimitPerMinute
}

func (c *ClientLimiter) lockout() time.Duration {
	if c == nil || c.Lockout <= 0 {
		return DefaultLockout
	}
	return c.Lockout
}

func (c *ClientLimiter) now() time.Time {
	if c != nil && c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}

func normalizeScope(scope string) string {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return "default"
	}
	return scope
}

// pruneBefore drops timestamps at or before cutoff.
func pruneBefore(requests []time.Time, cutoff time.Time) []time.Time {
	kept := requests[:0]
	for _, ts := range requests {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}

func ceilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(float64(d.Milliseconds()) / float64(time.Minute.Milliseconds())))
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneState(state *core.ClientRateLimitState) *core.ClientRateLimitState {
	if state == nil {
		return &core.ClientRateLimitState{}
	}
	return &core.ClientRateLimitState{
		Requests:    append([]time.Time(nil), state.Requests...),
		LockedUntil: copyTime(state.LockedUntil),
	}
}
