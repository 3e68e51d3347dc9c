package config

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/entrhq/tabpilot/pkg/llm"
)

const (
	// SectionIDLLM is the identifier for the LLM settings section
	SectionIDLLM = "llm"

	keyProvider        = "provider"
	keyModelID         = "model_id"
	keyCustomBaseURL   = "custom_base_url"
	keyCustomModelName = "custom_model_name"
)

// apiKeyField returns the settings key holding the API key for id.
func apiKeyField(id llm.ProviderID) string {
	return string(id) + "_api_key"
}

// LLMSection holds the provider selection and one API key per provider.
type LLMSection struct {
	Provider        llm.ProviderID
	ModelID         string
	APIKeys         map[llm.ProviderID]string
	CustomBaseURL   string
	CustomModelName string
	mu              sync.RWMutex
}

// NewLLMSection creates a new LLM section with default settings.
func NewLLMSection() *LLMSection {
	return &LLMSection{
		Provider: llm.ProviderGemini,
		APIKeys:  make(map[llm.ProviderID]string),
	}
}

// ID returns the section identifier.
func (s *LLMSection) ID() string {
	return SectionIDLLM
}

// Title returns the section title.
func (s *LLMSection) Title() string {
	return "LLM Settings"
}

// Description returns the section description.
func (s *LLMSection) Description() string {
	return "Choose the model provider and model, and store an API key for each provider. The custom provider talks to any OpenAI-compatible endpoint."
}

// Data returns the current configuration data.
func (s *LLMSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := map[string]any{
		keyProvider:        string(s.Provider),
		keyModelID:         s.ModelID,
		keyCustomBaseURL:   s.CustomBaseURL,
		keyCustomModelName: s.CustomModelName,
	}
	for _, id := range llm.Providers() {
		data[apiKeyField(id)] = s.APIKeys[id]
	}
	return data
}

// SetData updates the configuration from the provided data.
func (s *LLMSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := data[keyProvider]; ok {
		name, err := stringValue(keyProvider, v)
		if err != nil {
			return err
		}
		if name != "" {
			id, err := llm.ParseProviderID(name)
			if err != nil {
				return err
			}
			s.Provider = id
		}
	}

	if v, ok := data[keyModelID].(string); ok {
		s.ModelID = v
	}
	if v, ok := data[keyCustomBaseURL].(string); ok {
		s.CustomBaseURL = v
	}
	if v, ok := data[keyCustomModelName].(string); ok {
		s.CustomModelName = v
	}

	if s.APIKeys == nil {
		s.APIKeys = make(map[llm.ProviderID]string)
	}
	for _, id := range llm.Providers() {
		if v, ok := data[apiKeyField(id)].(string); ok {
			s.APIKeys[id] = v
		}
	}
	return nil
}

// Validate validates the current configuration.
// Missing API keys are reported when a turn starts, not here.
func (s *LLMSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := llm.Info(s.Provider); !ok {
		return fmt.Errorf("unsupported provider %q", s.Provider)
	}
	if s.CustomBaseURL != "" {
		u, err := url.Parse(s.CustomBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("custom_base_url must be an http(s) URL, got %q", s.CustomBaseURL)
		}
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *LLMSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Provider = llm.ProviderGemini
	s.ModelID = ""
	s.APIKeys = make(map[llm.ProviderID]string)
	s.CustomBaseURL = ""
	s.CustomModelName = ""
}

// GetProvider returns the selected provider.
func (s *LLMSection) GetProvider() llm.ProviderID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Provider
}

// SetProvider switches provider and clears the model, which belongs to the
// previous provider's catalogue.
func (s *LLMSection) SetProvider(id llm.ProviderID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Provider != id {
		s.ModelID = ""
	}
	s.Provider = id
}

// GetModelID returns the configured model, empty for the provider default.
func (s *LLMSection) GetModelID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ModelID
}

// SetModelID sets the model.
func (s *LLMSection) SetModelID(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ModelID = model
}

// GetAPIKey returns the stored key for id.
func (s *LLMSection) GetAPIKey(id llm.ProviderID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.APIKeys[id]
}

// SetAPIKey stores the key for id.
func (s *LLMSection) SetAPIKey(id llm.ProviderID, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.APIKeys == nil {
		s.APIKeys = make(map[llm.ProviderID]string)
	}
	s.APIKeys[id] = key
}

// GetCustom returns the custom provider's base URL and model name.
func (s *LLMSection) GetCustom() (baseURL, model string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.CustomBaseURL, s.CustomModelName
}

// SetCustom sets the custom provider's base URL and model name.
func (s *LLMSection) SetCustom(baseURL, model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CustomBaseURL = baseURL
	s.CustomModelName = model
}
