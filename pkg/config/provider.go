package config

import (
	"os"
	"strings"

	"github.com/entrhq/tabpilot/pkg/llm"
)

// Overrides are command-line values that win over the settings file.
type Overrides struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// BuildSelection resolves the provider selection with the precedence
// flags > environment > config file > defaults.
//
// The selection is not validated here: a missing key surfaces as an
// AuthConfig error when the turn builds its adapter. getenv defaults to
// os.Getenv.
func BuildSelection(section *LLMSection, flags Overrides, getenv func(string) string) (llm.Selection, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if section == nil {
		section = NewLLMSection()
	}

	fileProvider := section.GetProvider()
	provider := fileProvider
	if strings.TrimSpace(flags.Provider) != "" {
		id, err := llm.ParseProviderID(flags.Provider)
		if err != nil {
			return llm.Selection{}, err
		}
		provider = id
	}
	if provider == "" {
		provider = llm.ProviderGemini
	}

	sel := llm.Selection{Provider: provider}

	sel.APIKey = flags.APIKey
	if sel.APIKey == "" {
		if info, ok := llm.Info(provider); ok && info.EnvKey != "" {
			sel.APIKey = getenv(info.EnvKey)
		}
	}
	if sel.APIKey == "" {
		sel.APIKey = section.GetAPIKey(provider)
	}

	customURL, customModel := section.GetCustom()
	if provider == llm.ProviderCustom {
		sel.CustomBaseURL = firstNonEmpty(flags.BaseURL, customURL)
		sel.CustomModel = firstNonEmpty(flags.Model, customModel)
		return sel, nil
	}

	sel.Model = flags.Model
	// A stored model only applies to the provider it was chosen for.
	if sel.Model == "" && provider == fileProvider {
		sel.Model = section.GetModelID()
	}
	return sel, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
