package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/crosspost/crosspost/internal/core"
	"github.com/crosspost/crosspost/internal/core/preview"
	"github.com/crosspost/crosspost/internal/core/visit"
	"github.com/crosspost/crosspost/internal/server/middleware"
)

// PreviewResponse is the body of GET /api/link-preview.
type PreviewResponse struct {
	Success       bool              `json:"success"`
	Data          *core.LinkPreview `json:"data,omitempty"`
	Error         string            `json:"error,omitempty"`
	RateLimit     *RateLimitInfo    `json:"rateLimit,omitempty"`
	RetryAfter    int               `json:"retryAfter,omitempty"`
	QueuePosition int               `json:"queuePosition,omitempty"`
}

// RateLimitInfo reports the shared limiter after the request.
type RateLimitInfo struct {
	Remaining int `json:"remaining"`
	ResetTime int `json:"resetTime"`
}

// PreviewHandler serves link previews and forwards visit metadata.
type PreviewHandler struct {
	Fetcher *preview.Fetcher
	Visits  *visit.Dispatcher
	Logger  *logging.Logger
}

func (h *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	target := query.Get("url")

	h.Visits.Dispatch(visitFromRequest(r, target))

	result, err := h.Fetcher.Fetch(r.Context(), target)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	writePreview(w, http.StatusOK, PreviewResponse{
		Success:   true,
		Data:      &result.Preview,
		RateLimit: &RateLimitInfo{Remaining: result.Remaining, ResetTime: result.ResetSeconds},
	})
}

func (h *PreviewHandler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	perr, ok := preview.AsError(err)
	if !ok {
		h.log(r, "preview failed", http.StatusInternalServerError, err)
		writePreview(w, http.StatusInternalServerError, PreviewResponse{
			Error: "Could not load a preview for this link. Please try again.",
		})
		return
	}

	resp := PreviewResponse{Error: perr.SafeMessage()}
	status := statusForPreviewError(perr)
	if perr.Kind == preview.KindRateLimited {
		resp.RetryAfter = perr.RetryAfter
		resp.QueuePosition = perr.QueuePosition
		resp.RateLimit = &RateLimitInfo{Remaining: 0, ResetTime: perr.RetryAfter}
		w.Header().Set("Retry-After", strconv.Itoa(perr.RetryAfter))
	}

	h.log(r, "preview failed", status, err)
	writePreview(w, status, resp)
}

func (h *PreviewHandler) log(r *http.Request, msg string, status int, err error) {
	if h.Logger == nil {
		return
	}
	h.Logger.Info(msg,
		zap.Int("status", status),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.Error(err))
}

func statusForPreviewError(perr *preview.Error) int {
	switch perr.Kind {
	case preview.KindInvalidURL:
		return http.StatusBadRequest
	case preview.KindRateLimited:
		return http.StatusTooManyRequests
	case preview.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// visitFromRequest reads the session and device query parameters, falling
// back to request headers where the client did not send them.
func visitFromRequest(r *http.Request, target string) core.Visit {
	query := r.URL.Query()
	v := core.Visit{
		SessionID:        strings.TrimSpace(query.Get("sessionId")),
		DeviceType:       query.Get("deviceType"),
		UserAgent:        query.Get("userAgent"),
		ScreenResolution: query.Get("screenResolution"),
		Language:         query.Get("language"),
		Referrer:         query.Get("referrer"),
		TargetURL:        target,
		RemoteAddr:       r.RemoteAddr,
	}
	if v.SessionID == "" {
		v.SessionID = "anonymous"
	}
	if v.UserAgent == "" {
		v.UserAgent = r.UserAgent()
	}
	if v.Language == "" {
		v.Language = r.Header.Get("Accept-Language")
	}
	if v.Referrer == "" {
		v.Referrer = r.Referer()
	}
	return v
}

func writePreview(w http.ResponseWriter, status int, resp PreviewResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
