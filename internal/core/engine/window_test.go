package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWindowLimiterFixedWindow(t *testing.T) {
	clock := newClock()
	limiter := NewWindowLimiter(10, clock.Now)

	for i := 0; i < 10; i++ {
		decision := limiter.Allow()
		require.True(t, decision.Allowed, "request %d", i+1)
		require.Equal(t, 10-(i+1), decision.Remaining)
		clock.Advance(time.Second)
	}

	denied := limiter.Allow()
	require.False(t, denied.Allowed)
	require.Equal(t, 0, denied.Remaining)
	require.Equal(t, 1, denied.QueuePosition)
	require.Equal(t, 50, denied.ResetSeconds)
	require.Equal(t, 1, limiter.Snapshot().ThrottledCount)

	second := limiter.Allow()
	require.False(t, second.Allowed)
	require.Equal(t, 2, second.QueuePosition)

	// The window opened at construction; advancing to its end resets every counter.
	clock.now = limiter.Snapshot().WindowStart.Add(60 * time.Second)
	reset := limiter.Allow()
	require.True(t, reset.Allowed)
	require.Equal(t, 9, reset.Remaining)
	require.Equal(t, 0, reset.QueuePosition)
	require.Equal(t, 60, reset.ResetSeconds)

	snapshot := limiter.Snapshot()
	require.Equal(t, 1, snapshot.Count)
	require.Equal(t, 0, snapshot.ThrottledCount)
}

func TestWindowLimiterResetIsNotSliding(t *testing.T) {
	clock := newClock()
	limiter := NewWindowLimiter(1, clock.Now)

	// The only allowed request arrives late in the window.
	clock.Advance(59 * time.Second)
	require.True(t, limiter.Allow().Allowed)
	require.False(t, limiter.Allow().Allowed)

	// One second later the window boundary passes, even though the allowed
	// request is only a second old.
	clock.Advance(time.Second)
	require.True(t, limiter.Allow().Allowed)
}

func TestWindowLimiterResetSecondsRoundsUp(t *testing.T) {
	clock := newClock()
	limiter := NewWindowLimiter(10, clock.Now)

	clock.Advance(10*time.Second + 1*time.Millisecond)
	decision := limiter.Allow()
	require.Equal(t, 50, decision.ResetSeconds)
}

func TestWindowLimiterDefaults(t *testing.T) {
	limiter := NewWindowLimiter(0, nil)
	require.Equal(t, DefaultServerLimitPerMinute, limiter.Limit())
}

func TestWindowLimiterConcurrent(t *testing.T) {
	clock := newClock()
	limiter := NewWindowLimiter(10, clock.Now)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow().Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 10, allowed)
	require.Equal(t, 40, limiter.Snapshot().ThrottledCount)
}
