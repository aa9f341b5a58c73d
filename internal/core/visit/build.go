package visit

import (
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/logging"

	"github.com/crosspost/crosspost/internal/config"
)

// NewDispatcher builds the configured sink chain. The returned close func
// releases any connection the sink opened. Disabled config yields a nil
// Dispatcher, which discards events.
func NewDispatcher(cfg config.VisitsConfig, store VisitWriter, logger *logging.Logger) (*Dispatcher, func() error, error) {
	noop := func() error { return nil }
	if !cfg.Enabled {
		return nil, noop, nil
	}

	var (
		sink    Sink
		closeFn = noop
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Sink)) {
	case "", "log":
		sink = LogSink{Logger: logger}
	case "store":
		if store == nil {
			return nil, noop, fmt.Errorf("visits sink %q requires a store", cfg.Sink)
		}
		sink = StoreSink{Store: store}
	case "redis":
		redisSink, client, err := NewRedisSink(cfg.RedisURL, cfg.RedisStream)
		if err != nil {
			return nil, noop, err
		}
		sink = redisSink
		closeFn = client.Close
	default:
		return nil, noop, fmt.Errorf("unsupported visits sink: %s", cfg.Sink)
	}

	return &Dispatcher{
		Sink:    NewThrottledSink(sink, cfg.PerSecond, cfg.Burst),
		Timeout: cfg.Timeout,
		Logger:  logger,
	}, closeFn, nil
}
