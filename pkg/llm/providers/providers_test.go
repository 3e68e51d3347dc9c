package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/tabpilot/pkg/llm"
)

func TestDefaultRegistryBuildsEveryProvider(t *testing.T) {
	reg := Default()

	for _, id := range llm.Providers() {
		sel := llm.Selection{Provider: id, APIKey: "key"}
		if id == llm.ProviderCustom {
			sel.CustomBaseURL = "http://localhost:8080/v1"
		}
		adapter, err := reg.Build(sel)
		require.NoError(t, err, id)
		assert.Equal(t, id, adapter.Provider())
	}
}

func TestDefaultRegistryMissingKey(t *testing.T) {
	_, err := Default().Build(llm.Selection{Provider: llm.ProviderPerplexity})
	assert.Equal(t, llm.KindAuthConfig, llm.KindOf(err))
}
