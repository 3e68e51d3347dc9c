package llm

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ProviderID names a model vendor.
type ProviderID string

const (
	ProviderGemini     ProviderID = "gemini"
	ProviderOpenAI     ProviderID = "openai"
	ProviderClaude     ProviderID = "claude"
	ProviderPerplexity ProviderID = "perplexity"
	ProviderOpenRouter ProviderID = "openrouter"
	ProviderCustom     ProviderID = "custom"
)

// Model is one entry of a provider's model catalogue.
type Model struct {
	ID   string
	Name string
}

// ProviderInfo describes a provider's defaults.
type ProviderInfo struct {
	ID           ProviderID
	DisplayName  string
	DefaultModel string
	EnvKey       string
	Models       []Model

	// ContextLimit is the number of page-content characters sent per call.
	ContextLimit int
}

var providerInfo = map[ProviderID]ProviderInfo{
	ProviderGemini: {
		ID:           ProviderGemini,
		DisplayName:  "Google Gemini",
		DefaultModel: "gemini-2.0-flash",
		EnvKey:       "GEMINI_API_KEY",
		ContextLimit: 15000,
		Models: []Model{
			{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro"},
			{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash"},
			{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash"},
			{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro"},
			{ID: "gemini-1.5-flash", Name: "Gemini 1.5 Flash"},
		},
	},
	ProviderOpenAI: {
		ID:           ProviderOpenAI,
		DisplayName:  "OpenAI",
		DefaultModel: "gpt-4o",
		EnvKey:       "OPENAI_API_KEY",
		ContextLimit: 15000,
		Models: []Model{
			{ID: "gpt-4o", Name: "GPT-4o"},
			{ID: "gpt-4o-mini", Name: "GPT-4o Mini"},
			{ID: "gpt-4-turbo", Name: "GPT-4 Turbo"},
			{ID: "o1-preview", Name: "o1 Preview"},
			{ID: "o1-mini", Name: "o1 Mini"},
		},
	},
	ProviderClaude: {
		ID:           ProviderClaude,
		DisplayName:  "Anthropic Claude",
		DefaultModel: "claude-3-5-sonnet-20240620",
		EnvKey:       "ANTHROPIC_API_KEY",
		ContextLimit: 20000,
		Models: []Model{
			{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet (New)"},
			{ID: "claude-3-5-sonnet-20240620", Name: "Claude 3.5 Sonnet"},
			{ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku"},
			{ID: "claude-3-opus-20240229", Name: "Claude 3 Opus"},
			{ID: "claude-3-sonnet-20240229", Name: "Claude 3 Sonnet"},
		},
	},
	ProviderPerplexity: {
		ID:           ProviderPerplexity,
		DisplayName:  "Perplexity",
		DefaultModel: "sonar",
		EnvKey:       "PERPLEXITY_API_KEY",
		ContextLimit: 15000,
		Models: []Model{
			{ID: "sonar-pro", Name: "Sonar Pro"},
			{ID: "sonar", Name: "Sonar"},
			{ID: "sonar-reasoning-pro", Name: "Sonar Reasoning Pro"},
			{ID: "sonar-reasoning", Name: "Sonar Reasoning"},
		},
	},
	ProviderOpenRouter: {
		ID:           ProviderOpenRouter,
		DisplayName:  "OpenRouter",
		DefaultModel: "openai/gpt-4o",
		EnvKey:       "OPENROUTER_API_KEY",
		ContextLimit: 15000,
		Models: []Model{
			{ID: "openai/gpt-4o", Name: "GPT-4o (OpenRouter)"},
			{ID: "anthropic/claude-3.5-sonnet", Name: "Claude 3.5 Sonnet (OpenRouter)"},
			{ID: "google/gemini-2.0-flash-001", Name: "Gemini 2.0 Flash (OpenRouter)"},
		},
	},
	ProviderCustom: {
		ID:           ProviderCustom,
		DisplayName:  "Custom (OpenAI-compatible)",
		DefaultModel: "gpt-3.5-turbo",
		ContextLimit: 10000,
	},
}

// Info returns the defaults for id.
func Info(id ProviderID) (ProviderInfo, bool) {
	info, ok := providerInfo[id]
	return info, ok
}

// Providers returns all known provider ids in stable order.
func Providers() []ProviderID {
	ids := make([]ProviderID, 0, len(providerInfo))
	for id := range providerInfo {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ParseProviderID validates a provider name.
func ParseProviderID(s string) (ProviderID, error) {
	id := ProviderID(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := providerInfo[id]; !ok {
		return "", fmt.Errorf("unsupported provider %q", s)
	}
	return id, nil
}

// ContextLimit returns the page-content budget for id.
func ContextLimit(id ProviderID) int {
	if info, ok := providerInfo[id]; ok {
		return info.ContextLimit
	}
	return 10000
}

// Selection is the provider choice and credentials for one turn.
type Selection struct {
	Provider ProviderID
	APIKey   string
	Model    string

	// CustomBaseURL and CustomModel configure the custom provider.
	CustomBaseURL string
	CustomModel   string
}

// ModelID returns the model to request, falling back to the provider default.
func (s Selection) ModelID() string {
	if s.Provider == ProviderCustom {
		if s.CustomModel != "" {
			return s.CustomModel
		}
		return providerInfo[ProviderCustom].DefaultModel
	}
	if s.Model != "" {
		return s.Model
	}
	return providerInfo[s.Provider].DefaultModel
}

// Validate reports configuration problems that must stop a turn before any
// network attempt.
func (s Selection) Validate() error {
	if _, ok := providerInfo[s.Provider]; !ok {
		return NewAuthError(s.Provider, fmt.Errorf("unsupported provider %q", s.Provider))
	}
	if strings.TrimSpace(s.APIKey) == "" {
		return NewAuthError(s.Provider, ErrMissingAPIKey)
	}
	if s.Provider == ProviderCustom && strings.TrimSpace(s.CustomBaseURL) == "" {
		return NewAuthError(s.Provider, fmt.Errorf("custom provider requires a base URL"))
	}
	return nil
}

// Factory builds an adapter for a validated selection.
type Factory func(sel Selection) (Adapter, error)

// Registry maps provider ids to adapter factories.
type Registry struct {
	factories map[ProviderID]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[ProviderID]Factory)}
}

// Register installs the factory for id, replacing any previous one.
func (r *Registry) Register(id ProviderID, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = f
}

// Build validates sel and constructs its adapter.
func (r *Registry) Build(sel Selection) (Adapter, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	f, ok := r.factories[sel.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, NewAuthError(sel.Provider, fmt.Errorf("no adapter registered for provider %q", sel.Provider))
	}
	return f(sel)
}
