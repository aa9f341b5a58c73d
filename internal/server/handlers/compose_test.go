package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosspost/crosspost/internal/core/platform"
)

func TestPlatformsHandler(t *testing.T) {
	h := &ComposeHandler{}
	rec := httptest.NewRecorder()
	h.Platforms(rec, httptest.NewRequest(http.MethodGet, "/api/platforms", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Platforms []platform.Info `json:"platforms"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Platforms)
	assert.Equal(t, "twitter", resp.Platforms[0].ID)
	assert.Equal(t, 280, resp.Platforms[0].CharLimit)
	assert.True(t, resp.Platforms[0].ShareSupported)
}

func TestComposeHandler(t *testing.T) {
	h := &ComposeHandler{}
	body := `{"description":"Hello world","hashtags":["#Go","go","rust"],"url":"https://example.com","platforms":["twitter","instagram"]}`
	rec := httptest.NewRecorder()
	h.Compose(rec, httptest.NewRequest(http.MethodPost, "/api/compose", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ComposeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, strings.HasPrefix(resp.Formatted, "Hello world"))
	assert.Contains(t, resp.Formatted, "https://example.com")
	require.Len(t, resp.Statuses, 2)
	assert.Equal(t, "twitter", resp.Statuses[0].PlatformID)
	assert.Contains(t, resp.ShareLinks, "twitter")
	assert.NotContains(t, resp.ShareLinks, "instagram")
}

func TestComposeHandlerRejectsBadInput(t *testing.T) {
	h := &ComposeHandler{}
	cases := map[string]string{
		"no platforms":    `{"description":"x","platforms":[]}`,
		"unknown":         `{"description":"x","platforms":["myspace"]}`,
		"malformed":       `{"description":`,
		"unexpected keys": `{"description":"x","platforms":["twitter"],"extra":1}`,
	}
	for name, body := range cases {
		rec := httptest.NewRecorder()
		h.Compose(rec, httptest.NewRequest(http.MethodPost, "/api/compose", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}
