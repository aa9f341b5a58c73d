// Package compose counts, validates and renders draft text per platform.
//
// Character counts are approximations. Platforms that shorten links on
// their own side are modelled only through a fixed per-link cost.
package compose

import (
	"strings"
	"unicode/utf8"

	"github.com/crosspost/crosspost/internal/core"
	"github.com/crosspost/crosspost/internal/core/platform"
)

const (
	hashtagSeparator = " "
	blockSeparator   = "\n\n"
)

// CalculateCharacterCount returns the characters a post consumes on a platform.
// Lengths are counted in Unicode code points.
func CalculateCharacterCount(description string, hashtags []string, link string, rule platform.Rule) int {
	count := utf8.RuneCountInString(description)
	if len(hashtags) > 0 {
		count += utf8.RuneCountInString(hashtagSeparator + strings.Join(hashtags, hashtagSeparator))
	}
	if link != "" {
		count += rule.URLCost.Cost(link) + 1
	}
	return count
}

// GetPlatformStatus evaluates a post against a platform rule.
func GetPlatformStatus(description string, hashtags []string, link string, rule platform.Rule) core.PlatformStatus {
	count := CalculateCharacterCount(description, hashtags, link, rule)

	var percentage float64
	if rule.CharLimit > 0 {
		percentage = float64(count) / float64(rule.CharLimit) * 100
	}

	return core.PlatformStatus{
		PlatformID:     rule.ID,
		CharacterCount: count,
		CharLimit:      rule.CharLimit,
		IsOverLimit:    count > rule.CharLimit,
		HashtagWarning: rule.Hashtags.Warn(len(hashtags)),
		Percentage:     percentage,
	}
}

// FormatForPlatform renders the final post text: description, hashtags, link.
func FormatForPlatform(description string, hashtags []string, link string) string {
	var b strings.Builder
	b.WriteString(description)
	if len(hashtags) > 0 {
		b.WriteString(blockSeparator)
		b.WriteString(strings.Join(hashtags, hashtagSeparator))
	}
	if link != "" {
		b.WriteString(blockSeparator)
		b.WriteString(link)
	}
	return b.String()
}

// Statuses evaluates the draft against each selected platform, in selection
// order. Unknown ids are skipped.
func Statuses(draft core.ComposeDraft, registry *platform.Registry) []core.PlatformStatus {
	out := make([]core.PlatformStatus, 0, len(draft.SelectedPlatformIDs))
	for _, id := range draft.SelectedPlatformIDs {
		rule, ok := registry.Get(id)
		if !ok {
			continue
		}
		out = append(out, GetPlatformStatus(draft.Description, draft.Hashtags, draft.URL, rule))
	}
	return out
}

// NormalizeHashtags cleans raw user input into prefixed, de-duplicated tags.
// Inputs may be separated by whitespace or commas.
func NormalizeHashtags(raw []string, lowercase bool) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, field := range strings.FieldsFunc(entry, isTagSeparator) {
			tag := strings.TrimLeft(strings.TrimSpace(field), "#")
			if tag == "" {
				continue
			}
			if lowercase {
				tag = strings.ToLower(tag)
			}
			tag = "#" + tag
			key := strings.ToLower(tag)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

func isTagSeparator(r rune) bool {
	return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
