// Package gemini implements the Google Gemini adapter on the genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/entrhq/tabpilot/pkg/llm"
	"github.com/entrhq/tabpilot/pkg/types"
)

const (
	temperature     = float32(0.7)
	maxOutputTokens = int32(2048)
)

// Adapter sends requests to the Gemini API.
type Adapter struct {
	client *genai.Client
	model  string
}

type settings struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures an Adapter.
type Option func(*settings)

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		s.httpClient = c
	}
}

// WithBaseURL points the SDK at a different endpoint.
func WithBaseURL(baseURL string) Option {
	return func(s *settings) {
		s.baseURL = baseURL
	}
}

// New builds a Gemini adapter for sel.
func New(sel llm.Selection, opts ...Option) (*Adapter, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	if sel.Provider != llm.ProviderGemini {
		return nil, llm.NewAuthError(sel.Provider, fmt.Errorf("provider %q is not served by the Gemini adapter", sel.Provider))
	}

	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	cfg := &genai.ClientConfig{
		APIKey:     sel.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: s.httpClient,
	}
	if s.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: s.baseURL}
	}

	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, llm.NewAuthError(llm.ProviderGemini, fmt.Errorf("creating Gemini client: %w", err))
	}

	return &Adapter{client: client, model: sel.ModelID()}, nil
}

// Factory returns an llm.Factory building Gemini adapters with opts applied.
func Factory(opts ...Option) llm.Factory {
	return func(sel llm.Selection) (llm.Adapter, error) {
		return New(sel, opts...)
	}
}

// Provider implements llm.Adapter.
func (a *Adapter) Provider() llm.ProviderID {
	return llm.ProviderGemini
}

// Send implements llm.Adapter.
func (a *Adapter) Send(ctx context.Context, req *llm.Request) (string, error) {
	model := a.model
	if req.Model != "" {
		model = req.Model
	}

	temp := temperature
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemPrompt(), genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   maxOutputTokens,
		ResponseMIMEType:  "application/json",
	}

	res, err := a.client.Models.GenerateContent(ctx, model, buildContents(req), cfg)
	if err != nil {
		return "", classify(err)
	}

	text := res.Text()
	if text == "" {
		return "{}", nil
	}
	return text, nil
}

// buildContents maps history to user/model turns and appends the new user
// turn with context, screenshot and uploaded images as inline parts.
func buildContents(req *llm.Request) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, h := range req.History {
		role := genai.Role(genai.RoleUser)
		if h.Role == types.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(h.Content, role))
	}

	text := req.Message +
		llm.AttachmentText(req.Attachments, false) +
		llm.ContextBlock(req.Context, llm.ContextLimit(llm.ProviderGemini))
	parts := []*genai.Part{genai.NewPartFromText(text)}

	for _, img := range llm.ImageAttachments(req.Attachments) {
		if p := inlinePart(img.DataURL(), "image/jpeg"); p != nil {
			parts = append(parts, p)
		}
	}
	if req.Context != nil && req.Context.Screenshot != "" {
		if p := inlinePart(req.Context.Screenshot, "image/png"); p != nil {
			parts = append(parts, p)
		}
	}

	return append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
}

func inlinePart(dataURL, fallbackMime string) *genai.Part {
	mime, data, err := llm.DecodeDataURL(dataURL, fallbackMime)
	if err != nil {
		return nil
	}
	return genai.NewPartFromBytes(data, mime)
}

// classify converts SDK errors into llm errors.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return llm.ClassifyStatus(llm.ProviderGemini, apiErr.Code, apiErr.Status+" "+apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return llm.ClassifyStatus(llm.ProviderGemini, apiErrPtr.Code, apiErrPtr.Status+" "+apiErrPtr.Message)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return llm.NewTransportError(llm.ProviderGemini, fmt.Errorf("gemini generate content: %w", err))
}
