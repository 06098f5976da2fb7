package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	rtruncate "github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

// wrapText wraps at width terminal cells. Styled text is measured without
// its escape sequences.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}

// truncate cuts text to limit terminal cells, ending with an ellipsis.
func truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if lipgloss.Width(text) <= limit {
		return text
	}
	if limit <= 1 {
		return rtruncate.String(text, uint(limit))
	}
	return rtruncate.StringWithTail(text, uint(limit), "…")
}

func compactSingleLine(text string, limit int) string {
	compact := strings.Join(strings.Fields(text), " ")
	return truncate(compact, limit)
}

func nullCoalesce(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// splitCommand separates a slash command from its argument text.
func splitCommand(input string) (string, string) {
	input = strings.TrimSpace(input)
	name, rest, _ := strings.Cut(input, " ")
	return strings.ToLower(name), strings.TrimSpace(rest)
}
