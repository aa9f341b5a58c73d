package output

import (
	"fmt"
	"time"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/jedib0t/go-pretty/v6/table"
)

// RateLimitRow summarizes one persisted client scope.
type RateLimitRow struct {
	Scope       string     `json:"scope" yaml:"scope"`
	Attempts    int        `json:"attempts" yaml:"attempts"`
	LastAttempt *time.Time `json:"last_attempt,omitempty" yaml:"last_attempt,omitempty"`
	LockedUntil *time.Time `json:"locked_until,omitempty" yaml:"locked_until,omitempty"`
}

// ResetResult reports a rate-limit reset or its dry run.
type ResetResult struct {
	Matched int   `json:"matched" yaml:"matched"`
	Deleted int64 `json:"deleted" yaml:"deleted"`
	DryRun  bool  `json:"dry_run" yaml:"dry_run"`
}

// RateLimitFormatter renders the rate-limit admin results.
type RateLimitFormatter interface {
	FormatRateLimits(rows []RateLimitRow, now time.Time) (string, error)
	FormatReset(result ResetResult) (string, error)
}

// NewRateLimitFormatter returns a rate-limit formatter for format.
func NewRateLimitFormatter(format Format) RateLimitFormatter {
	switch format {
	case FormatJSON, FormatYAML:
		return &EncodingFormatter{Encoding: format}
	case FormatMarkdown:
		return &TableFormatter{Markdown: true}
	default:
		return &TableFormatter{}
	}
}

func (f *EncodingFormatter) FormatRateLimits(rows []RateLimitRow, _ time.Time) (string, error) {
	if rows == nil {
		rows = []RateLimitRow{}
	}
	return f.encode(rows)
}

func (f *EncodingFormatter) FormatReset(result ResetResult) (string, error) {
	return f.encode(result)
}

func (f *TableFormatter) FormatRateLimits(rows []RateLimitRow, now time.Time) (string, error) {
	if len(rows) == 0 {
		if f.Markdown {
			return "_No stored rate limit state._", nil
		}
		return ascii.DrawBox("No stored rate limit state", 0), nil
	}
	t := f.newWriter()
	t.AppendHeader(table.Row{"Scope", "Attempts", "Last attempt", "Status"})
	for _, row := range rows {
		last := "-"
		if row.LastAttempt != nil {
			last = row.LastAttempt.Local().Format("2006-01-02 15:04:05")
		}
		t.AppendRow(table.Row{row.Scope, row.Attempts, last, lockStatus(row.LockedUntil, now)})
	}
	return f.render(t), nil
}

func (f *TableFormatter) FormatReset(result ResetResult) (string, error) {
	var line string
	if result.DryRun {
		line = fmt.Sprintf("Would delete %d rate limit entr(ies)", result.Matched)
	} else {
		line = fmt.Sprintf("Deleted %d/%d rate limit entr(ies)", result.Deleted, result.Matched)
	}
	if f.Markdown {
		return line, nil
	}
	return ascii.DrawBox(line, 0), nil
}

func lockStatus(until *time.Time, now time.Time) string {
	if until == nil || !now.Before(*until) {
		return "open"
	}
	minutes := int(until.Sub(now).Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("locked (%dm left)", minutes)
}
