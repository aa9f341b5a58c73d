// Package output renders CLI results as tables, markdown, JSON or YAML.
package output

import (
	"fmt"
	"strings"

	"github.com/crosspost/crosspost/internal/core"
	"github.com/crosspost/crosspost/internal/core/engine"
	"github.com/crosspost/crosspost/internal/core/platform"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ComposeResult is a formatted draft evaluated against its platforms.
type ComposeResult struct {
	Formatted  string                `json:"formatted" yaml:"formatted"`
	Hashtags   []string              `json:"hashtags" yaml:"hashtags"`
	Statuses   []core.PlatformStatus `json:"statuses" yaml:"statuses"`
	ShareLinks map[string]string     `json:"share_links,omitempty" yaml:"share_links,omitempty"`
}

// PreviewResult pairs a preview with the client limiter decision that let it through.
type PreviewResult struct {
	Preview  *core.LinkPreview     `json:"preview" yaml:"preview"`
	Decision engine.ClientDecision `json:"rate_limit" yaml:"rate_limit"`
}

// Formatter renders each CLI result type.
type Formatter interface {
	FormatPlatforms(rules []platform.Rule) (string, error)
	FormatCompose(result *ComposeResult) (string, error)
	FormatShareLinks(links map[string]string) (string, error)
	FormatPreview(result *PreviewResult) (string, error)
	FormatDraft(draft core.ComposeDraft) (string, error)
	FormatVariations(items []core.ContentVariation) (string, error)
	FormatPreferences(prefs core.Preferences) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &EncodingFormatter{Encoding: FormatJSON}
	case FormatYAML:
		return &EncodingFormatter{Encoding: FormatYAML}
	case FormatMarkdown:
		return &TableFormatter{Markdown: true}
	default:
		return &TableFormatter{}
	}
}

func platformInfos(rules []platform.Rule) []platform.Info {
	out := make([]platform.Info, 0, len(rules))
	for _, rule := range rules {
		out = append(out, rule.Info())
	}
	return out
}
