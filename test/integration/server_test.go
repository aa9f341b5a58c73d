package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosspost/crosspost/internal/core"
	"github.com/crosspost/crosspost/internal/core/engine"
	"github.com/crosspost/crosspost/internal/core/preview"
	"github.com/crosspost/crosspost/internal/core/visit"
	"github.com/crosspost/crosspost/internal/observability"
	"github.com/crosspost/crosspost/internal/server"
	"github.com/crosspost/crosspost/internal/server/handlers"
)

const articleHTML = `<!doctype html><html><head>
<title>Fallback title</title>
<meta property="og:title" content="Launch day">
<meta property="og:description" content="We shipped it.">
<meta property="og:image" content="/img/cover.png">
<meta property="og:site_name" content="Example Blog">
</head><body>hello</body></html>`

type recordingSink struct {
	mu     sync.Mutex
	visits []core.Visit
}

func (s *recordingSink) Record(_ context.Context, v core.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits = append(s.visits, v)
	return nil
}

func (s *recordingSink) all() []core.Visit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Visit(nil), s.visits...)
}

func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EACCES) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{"permission denied", "operation not permitted", "not permitted"} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// listenOrSkip binds IPv4 loopback and skips when the sandbox refuses sockets.
func listenOrSkip(t *testing.T) net.Listener {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if isPermissionError(err) {
			t.Skipf("skipping: loopback sockets unavailable: %v", err)
		}
		require.NoError(t, err)
	}
	return listener
}

func startServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	ts := &httptest.Server{Listener: listenOrSkip(t), Config: &http.Server{Handler: handler}}
	ts.Start()
	t.Cleanup(ts.Close)
	return ts
}

func initMetricsOrSkip(t *testing.T) {
	t.Helper()
	if err := observability.InitMetrics("crosspost_test", 0); err != nil {
		if isPermissionError(err) {
			t.Skipf("skipping metrics: %v", err)
		}
		require.NoError(t, err)
	}
	t.Cleanup(func() {
		if observability.PrometheusExporter != nil {
			_ = observability.PrometheusExporter.Stop()
			observability.PrometheusExporter = nil
		}
		observability.TelemetrySystem = nil
	})
}

func TestServerEndToEnd(t *testing.T) {
	observability.InitCLILogger("test", false)
	observability.InitServerLogger(observability.ServerLoggerOptions{Service: "test", Level: "info", Profile: "simple"})
	initMetricsOrSkip(t)

	upstream := startServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, articleHTML)
	}))

	sink := &recordingSink{}
	dispatcher := &visit.Dispatcher{Sink: sink, Logger: observability.Logger()}
	srv := server.New(server.Options{
		Fetcher: &preview.Fetcher{
			Limiter: engine.NewWindowLimiter(2, nil),
			Timeout: 2 * time.Second,
		},
		Visits:        dispatcher,
		Health:        handlers.NewHealthManager("test"),
		Build:         handlers.BuildInfo{Name: "crosspost", Version: "test"},
		EnableHealth:  true,
		EnableMetrics: true,
	})
	ts := startServer(t, srv.Handler())
	client := ts.Client()

	previewURL := fmt.Sprintf("%s/api/link-preview?url=%s/post&sessionId=s-1", ts.URL, upstream.URL)

	resp, err := client.Get(previewURL)
	require.NoError(t, err)
	var ok handlers.PreviewResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ok))
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, ok.Success)
	assert.Equal(t, "Launch day", ok.Data.Title)
	assert.Equal(t, upstream.URL+"/img/cover.png", ok.Data.Image)
	assert.Equal(t, 1, ok.RateLimit.Remaining)

	resp, err = client.Get(previewURL)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(previewURL)
	require.NoError(t, err)
	var limited handlers.PreviewResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&limited))
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.False(t, limited.Success)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.Equal(t, 1, limited.QueuePosition)

	body := bytes.NewBufferString(`{"description":"Launch day","hashtags":["go"],"url":"https://example.com","platforms":["twitter","linkedin"]}`)
	resp, err = client.Post(ts.URL+"/api/compose", "application/json", body)
	require.NoError(t, err)
	var composed handlers.ComposeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&composed))
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"#go"}, composed.Hashtags)
	assert.Len(t, composed.Statuses, 2)

	resp, err = client.Get(ts.URL + "/health/ready")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, dispatcher.Wait(ctx))
	visits := sink.all()
	require.Len(t, visits, 3)
	assert.Equal(t, "s-1", visits[0].SessionID)

	resp, err = client.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	metricsBody, readErr := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, readErr)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(metricsBody), "http_requests_total")
	assert.Contains(t, string(metricsBody), "preview_fetch_total")
}

func TestMetricsUnavailableWithoutExporter(t *testing.T) {
	observability.InitServerLogger(observability.ServerLoggerOptions{Service: "test", Level: "info", Profile: "simple"})

	originalExporter := observability.PrometheusExporter
	originalTelemetry := observability.TelemetrySystem
	observability.PrometheusExporter = nil
	observability.TelemetrySystem = nil
	t.Cleanup(func() {
		observability.PrometheusExporter = originalExporter
		observability.TelemetrySystem = originalTelemetry
	})

	srv := server.New(server.Options{EnableMetrics: true})
	ts := startServer(t, srv.Handler())

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
