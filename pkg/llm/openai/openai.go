// Package openai implements the OpenAI-compatible adapters: OpenAI itself,
// OpenRouter, Perplexity, and a user-configured custom endpoint.
//
// Example usage:
//
//	adapter, err := openai.New(llm.Selection{
//	    Provider: llm.ProviderOpenAI,
//	    APIKey:   os.Getenv("OPENAI_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	reply, err := adapter.Send(ctx, &llm.Request{System: prompt, Message: "Hello!"})
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openai/openai-go"

	"github.com/entrhq/tabpilot/pkg/llm"
	"github.com/entrhq/tabpilot/pkg/llm/parser"
	"github.com/entrhq/tabpilot/pkg/types"
)

const (
	// DefaultBaseURL is the default OpenAI API base URL
	DefaultBaseURL = "https://api.openai.com/v1"

	// OpenRouterBaseURL is the OpenRouter API base URL
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"

	// PerplexityBaseURL is the Perplexity API base URL
	PerplexityBaseURL = "https://api.perplexity.ai"

	openRouterReferer = "https://github.com/entrhq/tabpilot"
	openRouterTitle   = "tabpilot"
)

// userTurnStyle controls how the new user turn is assembled.
type userTurnStyle int

const (
	// styleParts sends text, context and images as separate content parts.
	styleParts userTurnStyle = iota
	// styleInlineContext folds the context into the text and only uses parts for uploaded images.
	styleInlineContext
	// styleTextOnly sends a single string and never an image.
	styleTextOnly
)

// Adapter talks to one OpenAI-compatible chat completions endpoint.
type Adapter struct {
	httpClient *http.Client
	headers    map[string]string
	id         llm.ProviderID
	apiKey     string
	baseURL    string
	model      string
	style      userTurnStyle

	// screenshot sends the page screenshot as an image part.
	screenshot bool
	// jsonMode requests response_format json_object.
	jsonMode bool
	// omitUploadedImages replaces uploaded images with a textual notice.
	omitUploadedImages bool
	// requireContent turns an empty reply into a protocol error instead of "{}".
	requireContent bool
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = c
	}
}

// WithBaseURL overrides the endpoint base URL.
func WithBaseURL(baseURL string) Option {
	return func(a *Adapter) {
		a.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// New builds the adapter for sel. The selection must name one of the
// OpenAI-compatible providers.
func New(sel llm.Selection, opts ...Option) (*Adapter, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	a := &Adapter{
		httpClient: &http.Client{},
		headers:    map[string]string{},
		id:         sel.Provider,
		apiKey:     sel.APIKey,
		model:      sel.ModelID(),
	}

	switch sel.Provider {
	case llm.ProviderOpenAI:
		a.baseURL = DefaultBaseURL
		a.style = styleParts
		a.screenshot = true
		a.jsonMode = true
	case llm.ProviderOpenRouter:
		a.baseURL = OpenRouterBaseURL
		a.style = styleInlineContext
		a.headers["HTTP-Referer"] = openRouterReferer
		a.headers["X-Title"] = openRouterTitle
	case llm.ProviderPerplexity:
		a.baseURL = PerplexityBaseURL
		a.style = styleTextOnly
		a.omitUploadedImages = true
		a.requireContent = true
	case llm.ProviderCustom:
		a.baseURL = strings.TrimRight(sel.CustomBaseURL, "/")
		a.style = styleParts
		a.screenshot = true
		a.omitUploadedImages = true
	default:
		return nil, llm.NewAuthError(sel.Provider, fmt.Errorf("provider %q is not OpenAI-compatible", sel.Provider))
	}

	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Factory returns an llm.Factory building adapters with opts applied.
func Factory(opts ...Option) llm.Factory {
	return func(sel llm.Selection) (llm.Adapter, error) {
		return New(sel, opts...)
	}
}

// Provider implements llm.Adapter.
func (a *Adapter) Provider() llm.ProviderID {
	return a.id
}

// Model returns the model requests are sent to by default.
func (a *Adapter) Model() string {
	return a.model
}

// BaseURL returns the endpoint base URL.
func (a *Adapter) BaseURL() string {
	return a.baseURL
}

// Send implements llm.Adapter.
func (a *Adapter) Send(ctx context.Context, req *llm.Request) (string, error) {
	model := a.model
	if req.Model != "" && a.id != llm.ProviderCustom {
		model = req.Model
	}

	reqBody := map[string]interface{}{
		"model":    model,
		"messages": a.buildMessages(req),
	}
	if a.jsonMode {
		reqBody["response_format"] = map[string]string{"type": "json_object"}
	}

	content, err := a.post(ctx, reqBody)
	if err != nil {
		return "", err
	}

	reasoning, reply := parser.SplitReasoning(content)
	if reply == "" && reasoning == "" {
		if a.requireContent {
			return "", llm.NewProtocolError(a.id, "%s API returned an empty response", a.id)
		}
		return "{}", nil
	}
	if reply == "" {
		return content, nil
	}
	return reply, nil
}

// buildMessages converts the normalized request to OpenAI message params.
func (a *Adapter) buildMessages(req *llm.Request) []openai.ChatCompletionMessageParamUnion {
	history := req.History
	if a.style == styleTextOnly {
		history = llm.MergeAlternating(history)
		if len(history) > 0 && history[0].Role == types.RoleAssistant {
			history = history[1:]
		}
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	msgs = append(msgs, openai.SystemMessage(req.SystemPrompt()))

	// A text-only vendor rejects two user turns in a row, so the new message
	// is folded into a trailing user turn.
	var carried string
	if a.style == styleTextOnly && len(history) > 0 && history[len(history)-1].Role == types.RoleUser {
		carried = history[len(history)-1].Content + "\n\n"
		history = history[:len(history)-1]
	}

	for _, h := range history {
		if h.Role == types.RoleAssistant {
			msgs = append(msgs, openai.AssistantMessage(h.Content))
		} else {
			msgs = append(msgs, openai.UserMessage(h.Content))
		}
	}

	limit := llm.ContextLimit(a.id)
	text := req.Message + llm.AttachmentText(req.Attachments, a.omitUploadedImages)
	contextText := llm.ContextBlock(req.Context, limit)

	switch a.style {
	case styleTextOnly:
		msgs = append(msgs, openai.UserMessage(carried+text+contextText))

	case styleInlineContext:
		images := uploadedImages(req, a.omitUploadedImages)
		if len(images) == 0 {
			msgs = append(msgs, openai.UserMessage(text+contextText))
			break
		}
		parts := []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(text + contextText)}
		msgs = append(msgs, openai.UserMessage(append(parts, images...)))

	default:
		parts := []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(text)}
		if contextText != "" {
			parts = append(parts, openai.TextContentPart(contextText))
			if a.screenshot && req.Context.Screenshot != "" {
				parts = append(parts, imagePart(req.Context.Screenshot))
			}
		}
		parts = append(parts, uploadedImages(req, a.omitUploadedImages)...)
		msgs = append(msgs, openai.UserMessage(parts))
	}

	return msgs
}

func uploadedImages(req *llm.Request, omit bool) []openai.ChatCompletionContentPartUnionParam {
	if omit {
		return nil
	}
	var parts []openai.ChatCompletionContentPartUnionParam
	for _, img := range llm.ImageAttachments(req.Attachments) {
		parts = append(parts, imagePart(img.DataURL()))
	}
	return parts
}

func imagePart(url string) openai.ChatCompletionContentPartUnionParam {
	return openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: url})
}

// post sends the chat completion request and returns the first choice's content.
func (a *Adapter) post(ctx context.Context, reqBody map[string]interface{}) (string, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := a.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	for k, v := range a.headers {
		req.Header.Set(k, v)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", llm.NewTransportError(a.id, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llm.NewTransportError(a.id, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", llm.ClassifyStatus(a.id, resp.StatusCode, string(body))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", llm.NewProtocolError(a.id, "decode %s response: %v", a.id, err)
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}
