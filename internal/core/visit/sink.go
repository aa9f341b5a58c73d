// Package visit records the session and device metadata that arrives with
// preview requests. Delivery is fire-and-forget: a slow or failing sink never
// delays or fails the request that produced the visit.
package visit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/crosspost/crosspost/internal/core"
	"github.com/crosspost/crosspost/internal/metrics"
)

// ErrDropped is returned by ThrottledSink when the event budget is spent.
var ErrDropped = errors.New("visit dropped: sink busy")

// Sink receives visit events.
type Sink interface {
	Record(ctx context.Context, visit core.Visit) error
}

// LogSink writes visits to a structured logger.
type LogSink struct {
	Logger *logging.Logger
}

func (s LogSink) Record(_ context.Context, v core.Visit) error {
	if s.Logger == nil {
		return nil
	}
	s.Logger.Info("visit",
		zap.String("session_id", v.SessionID),
		zap.String("device_type", v.DeviceType),
		zap.String("user_agent", v.UserAgent),
		zap.String("screen_resolution", v.ScreenResolution),
		zap.String("language", v.Language),
		zap.String("referrer", v.Referrer),
		zap.String("target_url", v.TargetURL),
		zap.String("remote_addr", v.RemoteAddr),
		zap.Time("occurred_at", v.OccurredAt))
	return nil
}

// VisitWriter is the store method StoreSink needs.
type VisitWriter interface {
	InsertVisit(ctx context.Context, visit core.Visit) error
}

// StoreSink appends visits to the local database.
type StoreSink struct {
	Store VisitWriter
}

func (s StoreSink) Record(ctx context.Context, v core.Visit) error {
	if s.Store == nil {
		return errors.New("visit store is not configured")
	}
	return s.Store.InsertVisit(ctx, v)
}

// ThrottledSink drops events beyond a token-bucket budget instead of queueing.
type ThrottledSink struct {
	Next    Sink
	Limiter *rate.Limiter
}

// NewThrottledSink allows perSecond events with the given burst.
func NewThrottledSink(next Sink, perSecond float64, burst int) *ThrottledSink {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &ThrottledSink{Next: next, Limiter: rate.NewLimiter(limit, burst)}
}

func (s *ThrottledSink) Record(ctx context.Context, v core.Visit) error {
	if s.Limiter != nil && !s.Limiter.Allow() {
		return ErrDropped
	}
	if s.Next == nil {
		return nil
	}
	return s.Next.Record(ctx, v)
}

// Dispatcher hands visits to a Sink on background goroutines.
type Dispatcher struct {
	Sink    Sink
	Timeout time.Duration
	Logger  *logging.Logger
	Clock   func() time.Time

	wg sync.WaitGroup
}

// DefaultDispatchTimeout bounds a single sink write.
const DefaultDispatchTimeout = 2 * time.Second

// Dispatch records v asynchronously and returns immediately. A nil
// Dispatcher or Sink discards the event.
func (d *Dispatcher) Dispatch(v core.Visit) {
	if d == nil || d.Sink == nil {
		return
	}
	if v.OccurredAt.IsZero() {
		v.OccurredAt = d.now()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.report(v, fmt.Errorf("visit sink panic: %v", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout())
		defer cancel()
		d.report(v, d.Sink.Record(ctx, v))
	}()
}

// Wait blocks until in-flight dispatches finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	if d == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) report(v core.Visit, err error) {
	switch {
	case err == nil:
		metrics.RecordVisitEvent("delivered")
	case errors.Is(err, ErrDropped):
		metrics.RecordVisitEvent("dropped")
		if d.Logger != nil {
			d.Logger.Debug("visit dropped", zap.String("session_id", v.SessionID))
		}
	default:
		metrics.RecordVisitEvent("failed")
		if d.Logger != nil {
			d.Logger.Warn("visit sink failed", zap.String("session_id", v.SessionID), zap.Error(err))
		}
	}
}

func (d *Dispatcher) timeout() time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}
	return DefaultDispatchTimeout
}

func (d *Dispatcher) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now().UTC()
}
