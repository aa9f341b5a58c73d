package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/crosspost/crosspost/internal/core"
	"github.com/crosspost/crosspost/internal/core/compose"
	"github.com/crosspost/crosspost/internal/core/platform"
	apperrors "github.com/crosspost/crosspost/internal/errors"
	"github.com/crosspost/crosspost/internal/metrics"
)

const maxComposeBody = 64 << 10

// ComposeRequest is the body of POST /api/compose.
type ComposeRequest struct {
	Description       string   `json:"description"`
	Hashtags          []string `json:"hashtags"`
	URL               string   `json:"url"`
	Platforms         []string `json:"platforms"`
	LowercaseHashtags bool     `json:"lowercase_hashtags"`
}

// ComposeResponse carries everything a client needs to post the draft.
type ComposeResponse struct {
	Formatted  string                `json:"formatted"`
	Hashtags   []string              `json:"hashtags"`
	Statuses   []core.PlatformStatus `json:"statuses"`
	ShareLinks map[string]string     `json:"share_links"`
}

// ComposeHandler serves the platform table and draft evaluation.
type ComposeHandler struct {
	Registry *platform.Registry
}

// Platforms lists every registered platform in registry order.
func (h *ComposeHandler) Platforms(w http.ResponseWriter, r *http.Request) {
	rules := h.registry().All()
	out := make([]platform.Info, 0, len(rules))
	for _, rule := range rules {
		out = append(out, rule.Info())
	}
	writeJSON(w, http.StatusOK, map[string]any{"platforms": out})
}

// Compose formats a draft and evaluates it against the selected platforms.
func (h *ComposeHandler) Compose(w http.ResponseWriter, r *http.Request) {
	var req ComposeRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxComposeBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "request body must be a JSON compose draft"))
		return
	}

	if len(req.Platforms) == 0 {
		respondWithError(w, r, apperrors.WrapValidationError(r.Context(), errors.New("no platforms"), "select at least one platform"))
		return
	}
	registry := h.registry()
	if err := registry.Validate(req.Platforms); err != nil {
		respondWithError(w, r, apperrors.WrapValidationError(r.Context(), err, err.Error()))
		return
	}

	hashtags := compose.NormalizeHashtags(req.Hashtags, req.LowercaseHashtags)
	draft := core.ComposeDraft{
		Description:         req.Description,
		Hashtags:            hashtags,
		URL:                 req.URL,
		SelectedPlatformIDs: req.Platforms,
	}

	shareText := compose.FormatForPlatform(req.Description, hashtags, "")
	metrics.RecordCompose(len(req.Platforms))

	writeJSON(w, http.StatusOK, ComposeResponse{
		Formatted:  compose.FormatForPlatform(req.Description, hashtags, req.URL),
		Hashtags:   hashtags,
		Statuses:   compose.Statuses(draft, registry),
		ShareLinks: compose.ShareLinks(registry, req.Platforms, shareText, req.URL),
	})
}

func (h *ComposeHandler) registry() *platform.Registry {
	if h.Registry != nil {
		return h.Registry
	}
	return platform.Default()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
