package visit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosspost/crosspost/internal/config"
	"github.com/crosspost/crosspost/internal/core"
)

type recordingSink struct {
	mu     sync.Mutex
	visits []core.Visit
	err    error
	block  chan struct{}
}

func (r *recordingSink) Record(ctx context.Context, v core.Visit) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visits = append(r.visits, v)
	return r.err
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visits)
}

func TestDispatchDoesNotBlock(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	d := &Dispatcher{Sink: sink, Timeout: time.Second}

	started := time.Now()
	d.Dispatch(core.Visit{SessionID: "s1"})
	assert.Less(t, time.Since(started), 100*time.Millisecond)

	close(sink.block)
	require.NoError(t, d.Wait(context.Background()))
	assert.Equal(t, 1, sink.count())
}

func TestDispatchStampsTime(t *testing.T) {
	sink := &recordingSink{}
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	d := &Dispatcher{Sink: sink, Clock: func() time.Time { return at }}

	d.Dispatch(core.Visit{SessionID: "s1"})
	require.NoError(t, d.Wait(context.Background()))
	require.Equal(t, 1, sink.count())
	assert.Equal(t, at, sink.visits[0].OccurredAt)
}

func TestDispatchTimeoutAndErrorsAreSwallowed(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	d := &Dispatcher{Sink: sink, Timeout: 20 * time.Millisecond}
	d.Dispatch(core.Visit{SessionID: "slow"})
	require.NoError(t, d.Wait(context.Background()))
	assert.Equal(t, 0, sink.count())

	failing := &recordingSink{err: errors.New("boom")}
	d = &Dispatcher{Sink: failing}
	d.Dispatch(core.Visit{SessionID: "x"})
	require.NoError(t, d.Wait(context.Background()))
}

func TestNilDispatcherDiscards(t *testing.T) {
	var d *Dispatcher
	require.NotPanics(t, func() { d.Dispatch(core.Visit{SessionID: "x"}) })
	require.NoError(t, d.Wait(context.Background()))
}

func TestThrottledSinkDrops(t *testing.T) {
	next := &recordingSink{}
	sink := NewThrottledSink(next, 0.001, 2)

	ctx := context.Background()
	require.NoError(t, sink.Record(ctx, core.Visit{SessionID: "1"}))
	require.NoError(t, sink.Record(ctx, core.Visit{SessionID: "2"}))
	require.ErrorIs(t, sink.Record(ctx, core.Visit{SessionID: "3"}), ErrDropped)
	assert.Equal(t, 2, next.count())
}

func TestThrottledSinkUnlimited(t *testing.T) {
	next := &recordingSink{}
	sink := NewThrottledSink(next, 0, 0)
	for i := 0; i < 100; i++ {
		require.NoError(t, sink.Record(context.Background(), core.Visit{SessionID: "x"}))
	}
	assert.Equal(t, 100, next.count())
}

type memoryVisits struct {
	visits []core.Visit
}

func (m *memoryVisits) InsertVisit(_ context.Context, v core.Visit) error {
	m.visits = append(m.visits, v)
	return nil
}

func TestStoreSink(t *testing.T) {
	mem := &memoryVisits{}
	require.NoError(t, StoreSink{Store: mem}.Record(context.Background(), core.Visit{SessionID: "a"}))
	assert.Len(t, mem.visits, 1)

	require.Error(t, StoreSink{}.Record(context.Background(), core.Visit{}))
}

func TestLogSinkWithoutLogger(t *testing.T) {
	require.NoError(t, LogSink{}.Record(context.Background(), core.Visit{SessionID: "a"}))
}

type fakeStream struct {
	args []*redis.XAddArgs
	err  error
}

func (f *fakeStream) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.args = append(f.args, a)
	return redis.NewStringResult("1-0", f.err)
}

func TestRedisSink(t *testing.T) {
	stream := &fakeStream{}
	sink := &RedisSink{Client: stream, MaxLen: 10}
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	err := sink.Record(context.Background(), core.Visit{SessionID: "s", DeviceType: "mobile", OccurredAt: at})
	require.NoError(t, err)
	require.Len(t, stream.args, 1)

	args := stream.args[0]
	assert.Equal(t, DefaultStream, args.Stream)
	assert.Equal(t, int64(10), args.MaxLen)
	assert.True(t, args.Approx)
	values, ok := args.Values.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "mobile", values["device_type"])
	assert.Equal(t, "2025-01-01T00:00:00Z", values["occurred_at"])

	stream.err = errors.New("connection refused")
	require.Error(t, sink.Record(context.Background(), core.Visit{SessionID: "s"}))
}

func TestNewRedisSinkValidation(t *testing.T) {
	_, _, err := NewRedisSink("", "x")
	require.Error(t, err)
	_, _, err = NewRedisSink("http://not-redis", "x")
	require.Error(t, err)

	sink, client, err := NewRedisSink("redis://localhost:6379/0", "custom")
	require.NoError(t, err)
	defer func() { _ = client.Close() }()
	assert.Equal(t, "custom", sink.Stream)
}

func TestNewDispatcher(t *testing.T) {
	d, closeFn, err := NewDispatcher(config.VisitsConfig{Enabled: false}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, d)
	require.NoError(t, closeFn())

	d, _, err = NewDispatcher(config.VisitsConfig{Enabled: true, Sink: "log", PerSecond: 5, Burst: 5}, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, d)
	_, ok := d.Sink.(*ThrottledSink)
	assert.True(t, ok)

	_, _, err = NewDispatcher(config.VisitsConfig{Enabled: true, Sink: "store"}, nil, nil)
	require.Error(t, err)

	d, _, err = NewDispatcher(config.VisitsConfig{Enabled: true, Sink: "store"}, &memoryVisits{}, nil)
	require.NoError(t, err)
	require.NotNil(t, d)

	_, _, err = NewDispatcher(config.VisitsConfig{Enabled: true, Sink: "kafka"}, nil, nil)
	require.Error(t, err)
}
