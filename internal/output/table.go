package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/crosspost/crosspost/internal/core"
	"github.com/crosspost/crosspost/internal/core/platform"
)

// TableFormatter renders results as rounded tables, or markdown tables when Markdown is set.
type TableFormatter struct {
	Markdown bool
}

func (f *TableFormatter) newWriter() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) render(t table.Writer) string {
	if f.Markdown {
		return t.RenderMarkdown()
	}
	return t.Render()
}

func (f *TableFormatter) FormatPlatforms(rules []platform.Rule) (string, error) {
	t := f.newWriter()
	t.AppendHeader(table.Row{"ID", "Platform", "Limit", "Links", "Hashtags", "Tone", "Share"})
	for _, rule := range rules {
		share := "-"
		if rule.Share.Supported() {
			share = "yes"
		}
		t.AppendRow(table.Row{rule.ID, rule.DisplayName, rule.CharLimit, rule.URLCost.String(), rule.Hashtags.String(), string(rule.Tone), share})
	}
	return f.render(t), nil
}

func (f *TableFormatter) FormatCompose(result *ComposeResult) (string, error) {
	if result == nil {
		return "", nil
	}

	t := f.newWriter()
	t.AppendHeader(table.Row{"Platform", "Characters", "Used", "Status"})
	over := 0
	for _, status := range result.Statuses {
		if status.IsOverLimit {
			over++
		}
		t.AppendRow(table.Row{
			status.PlatformID,
			fmt.Sprintf("%d/%d", status.CharacterCount, status.CharLimit),
			fmt.Sprintf("%.0f%%", status.Percentage),
			statusLabel(status),
		})
	}
	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d/%d within limits", len(result.Statuses)-over, len(result.Statuses))})

	var b strings.Builder
	b.WriteString(result.Formatted)
	b.WriteString("\n\n")
	b.WriteString(f.render(t))

	if len(result.ShareLinks) > 0 {
		links, _ := f.FormatShareLinks(result.ShareLinks)
		b.WriteString("\n\n")
		b.WriteString(links)
	}
	return b.String(), nil
}

func (f *TableFormatter) FormatShareLinks(links map[string]string) (string, error) {
	t := f.newWriter()
	t.AppendHeader(table.Row{"Platform", "Share link"})
	for _, id := range sortedKeys(links) {
		t.AppendRow(table.Row{id, links[id]})
	}
	return f.render(t), nil
}

func (f *TableFormatter) FormatPreview(result *PreviewResult) (string, error) {
	if result == nil || result.Preview == nil {
		return "", nil
	}
	p := result.Preview

	t := f.newWriter()
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"Title", p.Title})
	t.AppendRow(table.Row{"Description", p.Description})
	t.AppendRow(table.Row{"Image", p.Image})
	if p.ImageDimensions != nil {
		t.AppendRow(table.Row{"Image size", fmt.Sprintf("%dx%d", p.ImageDimensions.Width, p.ImageDimensions.Height)})
	}
	if p.SiteName != "" {
		t.AppendRow(table.Row{"Site", p.SiteName})
	}
	if p.Type != "" {
		t.AppendRow(table.Row{"Type", p.Type})
	}
	t.AppendRow(table.Row{"URL", p.URL})
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d of %d previews used this minute", result.Decision.Attempts, result.Decision.Limit)})
	return f.render(t), nil
}

func (f *TableFormatter) FormatDraft(draft core.ComposeDraft) (string, error) {
	t := f.newWriter()
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"Description", draft.Description})
	t.AppendRow(table.Row{"Hashtags", strings.Join(draft.Hashtags, " ")})
	t.AppendRow(table.Row{"URL", draft.URL})
	t.AppendRow(table.Row{"Platforms", strings.Join(draft.SelectedPlatformIDs, ", ")})
	if !draft.LastModified.IsZero() {
		t.AppendRow(table.Row{"Last modified", draft.LastModified.Local().Format("2006-01-02 15:04:05")})
	}
	return f.render(t), nil
}

func (f *TableFormatter) FormatVariations(items []core.ContentVariation) (string, error) {
	t := f.newWriter()
	t.AppendHeader(table.Row{"ID", "Name", "Description", "Hashtags", "Created"})
	for _, item := range items {
		t.AppendRow(table.Row{
			item.ID,
			item.Name,
			truncate(item.Description, 48),
			strings.Join(item.Hashtags, " "),
			item.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return f.render(t), nil
}

func (f *TableFormatter) FormatPreferences(prefs core.Preferences) (string, error) {
	t := f.newWriter()
	t.AppendHeader(table.Row{"Preference", "Value"})
	t.AppendRow(table.Row{"Default platforms", strings.Join(prefs.DefaultPlatforms, ", ")})
	t.AppendRow(table.Row{"Lowercase hashtags", prefs.LowercaseHashtags})
	t.AppendRow(table.Row{"Theme", string(prefs.Theme)})
	return f.render(t), nil
}

func statusLabel(status core.PlatformStatus) string {
	switch {
	case status.IsOverLimit:
		return "over limit"
	case status.HashtagWarning:
		return "check hashtags"
	default:
		return "ok"
	}
}

// truncate shortens value to at most max runes, marking the cut with "...".
func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
