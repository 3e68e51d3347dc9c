// Package providers wires every vendor adapter into an llm.Registry.
package providers

import (
	"net/http"

	"github.com/entrhq/tabpilot/pkg/llm"
	"github.com/entrhq/tabpilot/pkg/llm/anthropic"
	"github.com/entrhq/tabpilot/pkg/llm/gemini"
	"github.com/entrhq/tabpilot/pkg/llm/openai"
)

// Default returns a registry with all six providers registered.
func Default() *llm.Registry {
	return New(nil)
}

// New returns a registry whose adapters share httpClient. A nil client means
// each adapter uses its own default client.
func New(httpClient *http.Client) *llm.Registry {
	reg := llm.NewRegistry()

	var oaOpts []openai.Option
	var antOpts []anthropic.Option
	var gemOpts []gemini.Option
	if httpClient != nil {
		oaOpts = append(oaOpts, openai.WithHTTPClient(httpClient))
		antOpts = append(antOpts, anthropic.WithHTTPClient(httpClient))
		gemOpts = append(gemOpts, gemini.WithHTTPClient(httpClient))
	}

	for _, id := range []llm.ProviderID{llm.ProviderOpenAI, llm.ProviderOpenRouter, llm.ProviderPerplexity, llm.ProviderCustom} {
		reg.Register(id, openai.Factory(oaOpts...))
	}
	reg.Register(llm.ProviderClaude, anthropic.Factory(antOpts...))
	reg.Register(llm.ProviderGemini, gemini.Factory(gemOpts...))
	return reg
}
