// Package preview fetches a page and extracts link-preview metadata.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/crosspost/crosspost/internal/core"
	"github.com/crosspost/crosspost/internal/core/engine"
	"github.com/crosspost/crosspost/internal/metrics"
)

const (
	// DefaultTimeout bounds the whole upstream request, body included.
	DefaultTimeout = 5 * time.Second
	// DefaultUserAgent identifies the fetcher to upstream sites.
	DefaultUserAgent = "crosspost-linkpreview/1.0 (+https://github.com/crosspost/crosspost)"
	// DefaultMaxBodyBytes caps how much HTML is parsed.
	DefaultMaxBodyBytes int64 = 2 << 20
)

// Fetcher retrieves link previews, consulting a shared window limiter first.
type Fetcher struct {
	Client       *http.Client
	Limiter      *engine.WindowLimiter
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64
}

// Result is a successful fetch along with the limiter state after it.
type Result struct {
	Preview      core.LinkPreview `json:"preview"`
	Remaining    int              `json:"remaining"`
	ResetSeconds int              `json:"reset_seconds"`
}

// Fetch validates rawURL, checks the limiter, fetches the page within the
// timeout and extracts its metadata. Every failure is an *Error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	result, err := f.fetch(ctx, rawURL)
	if err == nil {
		metrics.RecordPreviewFetch("success")
		return result, nil
	}
	if perr, ok := AsError(err); ok {
		metrics.RecordPreviewFetch(string(perr.Kind))
	}
	return nil, err
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	target, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	var decision engine.WindowDecision
	if f.Limiter != nil {
		decision = f.Limiter.Allow()
		metrics.RecordRateLimitDecision(metrics.TierServer, decision.Allowed)
		if !decision.Allowed {
			return nil, &Error{
				Kind:          KindRateLimited,
				RetryAfter:    decision.ResetSeconds,
				QueuePosition: decision.QueuePosition,
			}
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client().Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindUpstreamFetch, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes()))
	if err != nil {
		return nil, transportError(err)
	}

	// Relative references resolve against the page reached after redirects.
	base := target.String()
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL.String()
	}
	preview, err := Extract(bytes.NewReader(body), base)
	if err != nil {
		return nil, &Error{Kind: KindUpstreamFetch, Status: resp.StatusCode, Err: fmt.Errorf("parse html: %w", err)}
	}
	preview.URL = target.String()

	return &Result{
		Preview:      preview,
		Remaining:    decision.Remaining,
		ResetSeconds: decision.ResetSeconds,
	}, nil
}

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(rawURL string) (*url.URL, error) {
	value := strings.TrimSpace(rawURL)
	if value == "" {
		return nil, &Error{Kind: KindInvalidURL, Err: errors.New("url is required")}
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, Err: err}
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, &Error{Kind: KindInvalidURL, Err: fmt.Errorf("unsupported scheme %q", parsed.Scheme)}
	}
	if parsed.Host == "" {
		return nil, &Error{Kind: KindInvalidURL, Err: errors.New("url host is required")}
	}
	return parsed, nil
}

// transportError separates timeouts from other network failures.
func transportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindUpstreamFetch, Err: err}
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return &http.Client{Timeout: f.timeout()}
}

func (f *Fetcher) timeout() time.Duration {
	if f.Timeout > 0 {
		return f.Timeout
	}
	return DefaultTimeout
}

func (f *Fetcher) userAgent() string {
	if ua := strings.TrimSpace(f.UserAgent); ua != "" {
		return ua
	}
	return DefaultUserAgent
}

func (f *Fetcher) maxBodyBytes() int64 {
	if f.MaxBodyBytes > 0 {
		return f.MaxBodyBytes
	}
	return DefaultMaxBodyBytes
}
