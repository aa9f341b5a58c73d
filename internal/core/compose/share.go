package compose

import (
	"net/url"
	"strings"

	"github.com/crosspost/crosspost/internal/core/platform"
)

// GenerateShareURL fills the platform's deep-link template with the encoded
// text and link. It returns "" when the platform is unknown or has no share
// endpoint; callers should hide the share action in that case.
func GenerateShareURL(registry *platform.Registry, platformID, text, link string) string {
	rule, ok := registry.Get(platformID)
	if !ok {
		return ""
	}
	pattern, ok := rule.Share.Pattern()
	if !ok {
		return ""
	}
	replacer := strings.NewReplacer(
		"{text}", encodeComponent(text),
		"{url}", encodeComponent(link),
	)
	return replacer.Replace(pattern)
}

// ShareLinks returns deep links for the supported platforms among ids.
func ShareLinks(registry *platform.Registry, ids []string, text, link string) map[string]string {
	links := make(map[string]string, len(ids))
	for _, id := range ids {
		if shareURL := GenerateShareURL(registry, id, text, link); shareURL != "" {
			links[id] = shareURL
		}
	}
	return links
}

// componentUnescapes restores the characters a URI component leaves as-is
// but url.QueryEscape encodes, and turns + back into %20.
var componentUnescapes = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%2A", "*",
	"%27", "'",
	"%28", "(",
	"%29", ")",
)

// encodeComponent escapes like a URI component: spaces become %20 and
// !*'() stay literal.
func encodeComponent(value string) string {
	return componentUnescapes.Replace(url.QueryEscape(value))
}
