// Package anthropic implements the Claude adapter over the Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/entrhq/tabpilot/pkg/llm"
	"github.com/entrhq/tabpilot/pkg/types"
)

const (
	// DefaultBaseURL is the Anthropic API base URL
	DefaultBaseURL = "https://api.anthropic.com"

	apiVersion       = "2023-06-01"
	defaultMaxTokens = 4096
)

// Adapter sends requests to the Claude Messages API.
type Adapter struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = c
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(a *Adapter) {
		a.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithMaxTokens sets max_tokens for every request.
func WithMaxTokens(n int) Option {
	return func(a *Adapter) {
		a.maxTokens = n
	}
}

// New builds a Claude adapter for sel.
func New(sel llm.Selection, opts ...Option) (*Adapter, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	if sel.Provider != llm.ProviderClaude {
		return nil, llm.NewAuthError(sel.Provider, fmt.Errorf("provider %q is not served by the Claude adapter", sel.Provider))
	}

	a := &Adapter{
		httpClient: &http.Client{},
		apiKey:     sel.APIKey,
		baseURL:    DefaultBaseURL,
		model:      sel.ModelID(),
		maxTokens:  defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Factory returns an llm.Factory building Claude adapters with opts applied.
func Factory(opts ...Option) llm.Factory {
	return func(sel llm.Selection) (llm.Adapter, error) {
		return New(sel, opts...)
	}
}

// Provider implements llm.Adapter.
func (a *Adapter) Provider() llm.ProviderID {
	return llm.ProviderClaude
}

// Send implements llm.Adapter.
func (a *Adapter) Send(ctx context.Context, req *llm.Request) (string, error) {
	model := a.model
	if req.Model != "" {
		model = req.Model
	}

	body := messagesRequest{
		Model:     model,
		System:    req.SystemPrompt(),
		Messages:  buildMessages(req),
		MaxTokens: a.maxTokens,
	}

	resp, err := a.post(ctx, body)
	if err != nil {
		return "", err
	}

	for _, c := range resp.Content {
		if c.Type == "text" && c.Text != "" {
			return c.Text, nil
		}
	}
	return "", llm.NewProtocolError(llm.ProviderClaude, "Claude returned no text content")
}

// buildMessages produces a strictly alternating message list that starts and
// ends with a user turn.
func buildMessages(req *llm.Request) []message {
	history := llm.MergeAlternating(req.History)
	if len(history) > 0 && history[0].Role == types.RoleAssistant {
		history = history[1:]
	}

	var carried string
	if n := len(history); n > 0 && history[n-1].Role == types.RoleUser {
		carried = history[n-1].Content + "\n\n"
		history = history[:n-1]
	}

	msgs := make([]message, 0, len(history)+1)
	for _, h := range history {
		msgs = append(msgs, message{Role: string(h.Role), Content: h.Content})
	}

	blocks := []content{{Type: "text", Text: carried + req.Message + llm.AttachmentText(req.Attachments, false)}}
	if req.Context != nil {
		blocks = append(blocks, content{Type: "text", Text: llm.ContextBlock(req.Context, llm.ContextLimit(llm.ProviderClaude))})
		if req.Context.Screenshot != "" {
			if b, ok := imageBlock(req.Context.Screenshot, "image/png"); ok {
				blocks = append(blocks, b)
			}
		}
	}
	for _, img := range llm.ImageAttachments(req.Attachments) {
		if b, ok := imageBlock(img.DataURL(), "image/jpeg"); ok {
			blocks = append(blocks, b)
		}
	}

	return append(msgs, message{Role: string(types.RoleUser), Content: blocks})
}

func imageBlock(dataURL, fallbackMime string) (content, bool) {
	mime, data := llm.SplitDataURL(dataURL, fallbackMime)
	if data == "" {
		return content{}, false
	}
	return content{
		Type:   "image",
		Source: &imageSource{Type: "base64", MediaType: mime, Data: data},
	}, true
}

func (a *Adapter) post(ctx context.Context, body messagesRequest) (*messagesResponse, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, llm.NewTransportError(llm.ProviderClaude, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llm.NewTransportError(llm.ProviderClaude, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		detail := string(raw)
		var envelope errorResponse
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
			detail = envelope.Error.Type + ": " + envelope.Error.Message
		}
		return nil, llm.ClassifyStatus(llm.ProviderClaude, resp.StatusCode, detail)
	}

	var out messagesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, llm.NewProtocolError(llm.ProviderClaude, "decode Claude response: %v", err)
	}
	return &out, nil
}
