package llm

import (
	"fmt"
	"strings"

	"github.com/entrhq/tabpilot/pkg/types"
)

// MemoryBlock renders the user's memory items for the system prompt.
// Empty when there are no items.
func MemoryBlock(items []types.MemoryItem) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n[User Memory]\nThe user has provided the following context/preferences to remember:\n")
	for _, m := range items {
		fmt.Fprintf(&b, "- %s: %s\n", m.Key, m.Value)
	}
	return b.String()
}

// ContextBlock renders the page snapshot appended to the user turn.
// Page content is cut to limit characters; the trailing "..." is always added.
func ContextBlock(ctx *types.TurnContext, limit int) string {
	if ctx == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\n\n[Current Page Context]\nTitle: %s\nURL: %s\nContent: %s...",
		ctx.Title, ctx.URL, truncateRunes(ctx.Content, limit))

	if len(ctx.OpenTabs) > 0 {
		b.WriteString("\n\n[Open Tabs]")
		for _, t := range ctx.OpenTabs {
			fmt.Fprintf(&b, "\n- ID: %d, Title: \"%s\", URL: %s", t.ID, t.Title, t.URL)
		}
	}
	return b.String()
}

// MergeAlternating drops empty turns and joins consecutive turns of the same
// role with a blank line, for vendors that require strict user/assistant
// alternation.
func MergeAlternating(history []HistoryEntry) []HistoryEntry {
	var out []HistoryEntry
	for _, h := range history {
		if strings.TrimSpace(h.Content) == "" {
			continue
		}
		role := types.RoleUser
		if h.Role == types.RoleAssistant {
			role = types.RoleAssistant
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content += "\n\n" + h.Content
			continue
		}
		out = append(out, HistoryEntry{Role: role, Content: h.Content})
	}
	return out
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
