package tui

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"github.com/entrhq/tabpilot/pkg/types"
)

// getRandomLoadingMessage returns a random loading message to display while agent is thinking
func getRandomLoadingMessage() string {
	messages := []string{
		"Thinking...",
		"Reading the page...",
		"Looking around...",
		"Working on it...",
		"Following links...",
		"Scanning the tab...",
		"Planning the next step...",
		"Checking the results...",
		"Consulting the search engine...",
		"Squinting at the screenshot...",
		"Counting the buttons...",
		"Scrolling with purpose...",
		"Politely waiting for the page to load...",
		"Negotiating with a cookie banner...",
		"Hunting for the right input box...",
	}
	return messages[rand.Intn(len(messages))] //nolint:gosec
}

// formatOption renders the n-th ask_selection option with its shortcut number.
func formatOption(i int, opt types.Option) string {
	return fmt.Sprintf("%d. %s", i+1, opt.Label)
}

// formatTokenCount formats a token count with K/M suffixes for readability
func formatTokenCount(count int) string {
	if count >= 1000000 {
		return fmt.Sprintf("%.1fM", float64(count)/1000000)
	}
	if count >= 1000 {
		return fmt.Sprintf("%.1fK", float64(count)/1000)
	}
	return fmt.Sprintf("%d", count)
}

// formatEntry wraps icon+text to the chat width and styles it. With iconOnly
// only the icon is styled and the text keeps the default color.
func formatEntry(icon string, text string, style lipgloss.Style, width int, iconOnly bool) string {
	wrapped := wordWrap(icon+text, width-4)
	if !iconOnly {
		return style.Render(wrapped)
	}
	return strings.Replace(wrapped, icon, style.Render(icon), 1)
}

// wordWrap wraps text at word boundaries, hard-breaking words longer than
// width. Blank lines are dropped.
func wordWrap(text string, width int) string {
	if width <= 0 {
		width = 80
	}

	paragraphs := make([]string, 0, strings.Count(text, "\n")+1)
	for _, para := range strings.Split(text, "\n") {
		if para = strings.TrimSpace(para); para != "" {
			paragraphs = append(paragraphs, para)
		}
	}
	return wrap.String(wordwrap.String(strings.Join(paragraphs, "\n"), width), width)
}

// preview shortens s to limit cells, marking the cut with "...".
func preview(s string, limit int) string {
	if lipgloss.Width(s) <= limit {
		return s
	}
	return truncate.StringWithTail(s, uint(limit), "...")
}

// updateTextAreaHeight grows the input with its content, up to MaxHeight.
func (m *model) updateTextAreaHeight() {
	width := m.textarea.Width() - lipgloss.Width(m.textarea.Prompt)
	if width <= 0 {
		width = 78
	}

	lines := 0
	for _, line := range strings.Split(m.textarea.Value(), "\n") {
		w := lipgloss.Width(line)
		lines += max(1, (w+width-1)/width)
	}
	lines = min(max(lines, 1), m.textarea.MaxHeight)

	if lines != m.textarea.Height() {
		m.textarea.SetHeight(lines)
		m.recalculateLayout()
	}
}
