// Package config loads and saves user settings as named sections in a JSON
// or YAML file.
package config

// Config is the loaded settings file with its typed sections.
type Config struct {
	*Manager

	LLM     *LLMSection
	Agent   *AgentSection
	Browser *BrowserSection
	UI      *UISection
}

// Load opens the settings file at path (default ~/.tabpilot/config.json),
// registers every section and applies the stored values.
func Load(path string) (*Config, error) {
	store, err := NewFileStore(path)
	if err != nil {
		return nil, err
	}
	return New(store)
}

// New builds a Config over store and loads it.
func New(store Store) (*Config, error) {
	cfg := &Config{
		Manager: NewManager(store),
		LLM:     NewLLMSection(),
		Agent:   NewAgentSection(),
		Browser: NewBrowserSection(),
		UI:      NewUISection(),
	}

	for _, section := range []Section{cfg.LLM, cfg.Agent, cfg.Browser, cfg.UI} {
		if err := cfg.RegisterSection(section); err != nil {
			return nil, err
		}
	}

	if err := cfg.LoadAll(); err != nil {
		return nil, err
	}
	return cfg, nil
}
