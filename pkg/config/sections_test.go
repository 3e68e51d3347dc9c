package config

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/tabpilot/pkg/llm"
)

func TestLLMSection_DataRoundTrip(t *testing.T) {
	s := NewLLMSection()
	s.SetProvider(llm.ProviderCustom)
	s.SetCustom("http://localhost:11434/v1", "llama3")
	s.SetAPIKey(llm.ProviderCustom, "local")

	data := s.Data()
	assert.Equal(t, "custom", data["provider"])
	assert.Equal(t, "local", data["custom_api_key"])
	assert.Contains(t, data, "gemini_api_key")

	other := NewLLMSection()
	require.NoError(t, other.SetData(data))
	baseURL, model := other.GetCustom()
	assert.Equal(t, "http://localhost:11434/v1", baseURL)
	assert.Equal(t, "llama3", model)
	assert.Equal(t, "local", other.GetAPIKey(llm.ProviderCustom))
}

func TestLLMSection_SetProviderClearsModel(t *testing.T) {
	s := NewLLMSection()
	s.SetModelID("gemini-2.5-pro")

	s.SetProvider(llm.ProviderGemini)
	assert.Equal(t, "gemini-2.5-pro", s.GetModelID())

	s.SetProvider(llm.ProviderOpenAI)
	assert.Empty(t, s.GetModelID())
}

func TestLLMSection_Validate(t *testing.T) {
	s := NewLLMSection()
	assert.NoError(t, s.Validate())

	s.SetCustom("ftp://example.com", "")
	assert.Error(t, s.Validate())

	s.SetCustom("https://llm.example.com/v1", "")
	assert.NoError(t, s.Validate())
}

func TestLLMSection_Reset(t *testing.T) {
	s := NewLLMSection()
	require.NoError(t, s.SetData(map[string]any{"provider": "perplexity", "perplexity_api_key": "pplx"}))
	s.Reset()

	assert.Equal(t, llm.ProviderGemini, s.GetProvider())
	assert.Empty(t, s.GetAPIKey(llm.ProviderPerplexity))
}

func TestAgentSection_SetData(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]any
		wantErr bool
		check   func(t *testing.T, s *AgentSection)
	}{
		{
			name: "json numbers",
			data: map[string]any{"max_loops": float64(7), "history_window": float64(4)},
			check: func(t *testing.T, s *AgentSection) {
				loops, window := s.Limits()
				assert.Equal(t, 7, loops)
				assert.Equal(t, 4, window)
			},
		},
		{
			name: "numeric retry delay is milliseconds",
			data: map[string]any{"retry_delay": 1500},
			check: func(t *testing.T, s *AgentSection) {
				assert.Equal(t, 1500*time.Millisecond, s.RetryPolicy().Delay)
			},
		},
		{
			name:    "fractional loops",
			data:    map[string]any{"max_loops": 2.5},
			wantErr: true,
		},
		{
			name:    "bad duration",
			data:    map[string]any{"retry_delay": "soon"},
			wantErr: true,
		},
		{
			name: "unknown keys ignored",
			data: map[string]any{"future_setting": true},
			check: func(t *testing.T, s *AgentSection) {
				loops, _ := s.Limits()
				assert.Equal(t, DefaultMaxLoops, loops)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewAgentSection()
			err := s.SetData(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestAgentSection_Validate(t *testing.T) {
	s := NewAgentSection()
	assert.NoError(t, s.Validate())

	s.RetryDelay = 2 * time.Minute
	assert.Error(t, s.Validate())

	s.Reset()
	s.HistoryWindow = -1
	assert.Error(t, s.Validate())
}

func TestBrowserSection_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *BrowserSection)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*BrowserSection) {}},
		{name: "search url without placeholder", mutate: func(s *BrowserSection) { s.SearchURL = "https://duckduckgo.com/" }, wantErr: true},
		{name: "custom search url", mutate: func(s *BrowserSection) { s.SearchURL = "https://duckduckgo.com/?q=%s" }},
		{name: "interval too short", mutate: func(s *BrowserSection) { s.NavPollInterval = time.Millisecond }, wantErr: true},
		{name: "no attempts", mutate: func(s *BrowserSection) { s.NavPollAttempts = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewBrowserSection()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBrowserSection_SetDataTypes(t *testing.T) {
	s := NewBrowserSection()
	assert.Error(t, s.SetData(map[string]any{"restricted_patterns": []any{"ok", 3}}))
	assert.Error(t, s.SetData(map[string]any{"headless": "maybe"}))
	require.NoError(t, s.SetData(map[string]any{"headless": "false"}))
	assert.False(t, s.IsHeadless())
}

func TestUISection(t *testing.T) {
	s := NewUISection()
	style, wrap := s.RenderSettings()
	assert.Equal(t, "auto", style)
	assert.Equal(t, 100, wrap)
	assert.True(t, s.ThoughtsVisible())

	require.NoError(t, s.SetData(map[string]any{"markdown_style": " Dark ", "word_wrap": float64(80)}))
	style, wrap = s.RenderSettings()
	assert.Equal(t, "dark", style)
	assert.Equal(t, 80, wrap)
	assert.NoError(t, s.Validate())

	require.NoError(t, s.SetData(map[string]any{"markdown_style": "neon"}))
	assert.Error(t, s.Validate())

	s.Reset()
	s.WordWrap = 5
	assert.Error(t, s.Validate())
}

func TestSections_ThreadSafety(t *testing.T) {
	llmSection := NewLLMSection()
	agent := NewAgentSection()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			llmSection.SetAPIKey(llm.ProviderOpenAI, "k")
			_ = llmSection.Data()
		}()
		go func() {
			defer wg.Done()
			agent.SetCustomInstructions("x")
			_ = agent.RetryPolicy()
		}()
	}
	wg.Wait()
}
