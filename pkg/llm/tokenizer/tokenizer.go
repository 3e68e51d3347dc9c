// Package tokenizer estimates prompt sizes with tiktoken.
//
// Counts are estimates: every vendor tokenizes differently, and cl100k_base is
// used for all of them.
package tokenizer

import (
	"github.com/pkoukk/tiktoken-go"

	"github.com/entrhq/tabpilot/pkg/llm"
)

const (
	encodingName = "cl100k_base"

	// perMessageOverhead approximates the role and separator tokens chat
	// formats add around each message.
	perMessageOverhead = 4
)

// Tokenizer counts tokens for prompt size estimates.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New loads the cl100k_base encoding. The first call may download the BPE
// ranks, so callers should treat errors as non-fatal.
func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	return &Tokenizer{enc: enc}, nil
}

// CountTokens returns the token count of text. A nil Tokenizer falls back to
// a four-characters-per-token estimate.
func (t *Tokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if t == nil || t.enc == nil {
		return (len(text) + 3) / 4
	}
	return len(t.enc.Encode(text, nil, nil))
}

// CountRequestTokens estimates the prompt size of a provider request as the
// adapters will send it (system prompt with memory, history, new message and
// page context). Images are not counted.
func (t *Tokenizer) CountRequestTokens(req *llm.Request, contextLimit int) int {
	total := t.CountTokens(req.SystemPrompt()) + perMessageOverhead
	for _, h := range req.History {
		total += t.CountTokens(h.Content) + perMessageOverhead
	}
	total += t.CountTokens(req.Message+llm.AttachmentText(req.Attachments, false)+llm.ContextBlock(req.Context, contextLimit)) + perMessageOverhead
	return total
}
