// Package parser separates reasoning blocks from model replies.
//
// Reasoning models (Perplexity sonar-reasoning, some OpenRouter routes) prefix
// their JSON decision with a <think>...</think> block. The block can contain
// braces of its own, which would confuse the greedy JSON match done on the
// reply, so adapters strip it first.
package parser

import "strings"

var reasoningTags = []struct{ open, close string }{
	{"<think>", "</think>"},
	{"<thinking>", "</thinking>"},
}

// SplitReasoning removes every closed reasoning block from raw and returns the
// concatenated reasoning and the remaining reply, both trimmed.
// An unclosed block is left in the reply untouched.
func SplitReasoning(raw string) (reasoning, reply string) {
	var thoughts []string
	rest := raw

	for {
		start, tag := firstOpenTag(rest)
		if start < 0 {
			break
		}
		bodyStart := start + len(tag.open)
		end := strings.Index(rest[bodyStart:], tag.close)
		if end < 0 {
			break
		}
		end += bodyStart

		if t := strings.TrimSpace(rest[bodyStart:end]); t != "" {
			thoughts = append(thoughts, t)
		}
		rest = rest[:start] + rest[end+len(tag.close):]
	}

	return strings.Join(thoughts, "\n\n"), strings.TrimSpace(rest)
}

func firstOpenTag(s string) (int, struct{ open, close string }) {
	best := -1
	var found struct{ open, close string }
	for _, tag := range reasoningTags {
		if i := strings.Index(s, tag.open); i >= 0 && (best < 0 || i < best) {
			best = i
			found = tag
		}
	}
	return best, found
}
