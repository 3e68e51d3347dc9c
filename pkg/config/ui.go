package config

import (
	"fmt"
	"strings"
	"sync"
)

const (
	// SectionIDUI is the identifier for the UI settings section
	SectionIDUI = "ui"

	// Default values for UI settings
	defaultShowThoughts  = true
	defaultMarkdownStyle = "auto"
	defaultWordWrap      = 100
)

// markdownStyles are the glamour standard style names.
var markdownStyles = []string{"ascii", "auto", "dark", "dracula", "light", "notty", "pink", "tokyo-night"}

// UISection manages terminal chat settings.
type UISection struct {
	ShowThoughts  bool   `json:"show_thoughts"`
	MarkdownStyle string `json:"markdown_style"`
	WordWrap      int    `json:"word_wrap"`
	mu            sync.RWMutex
}

// NewUISection creates a new UI section with default settings.
func NewUISection() *UISection {
	return &UISection{
		ShowThoughts:  defaultShowThoughts,
		MarkdownStyle: defaultMarkdownStyle,
		WordWrap:      defaultWordWrap,
	}
}

// ID returns the section identifier.
func (s *UISection) ID() string {
	return SectionIDUI
}

// Title returns the section title.
func (s *UISection) Title() string {
	return "UI Settings"
}

// Description returns the section description.
func (s *UISection) Description() string {
	return "Configure how answers are rendered in the terminal and whether the agent's thoughts are shown."
}

// Data returns the current configuration data.
func (s *UISection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"show_thoughts":  s.ShowThoughts,
		"markdown_style": s.MarkdownStyle,
		"word_wrap":      s.WordWrap,
	}
}

// SetData updates the configuration from the provided data.
func (s *UISection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var err error
		switch key {
		case "show_thoughts":
			s.ShowThoughts, err = boolValue(key, value)
		case "markdown_style":
			s.MarkdownStyle, err = stringValue(key, value)
			s.MarkdownStyle = strings.ToLower(strings.TrimSpace(s.MarkdownStyle))
		case "word_wrap":
			s.WordWrap, err = intValue(key, value)
		default:
			// Ignore unknown keys for forward compatibility
			continue
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *UISection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !isMarkdownStyle(s.MarkdownStyle) {
		return fmt.Errorf("markdown_style must be one of %s, got %q", strings.Join(markdownStyles, ", "), s.MarkdownStyle)
	}
	if s.WordWrap < 20 || s.WordWrap > 400 {
		return fmt.Errorf("word_wrap must be between 20 and 400, got %d", s.WordWrap)
	}
	return nil
}

func isMarkdownStyle(name string) bool {
	for _, style := range markdownStyles {
		if style == name {
			return true
		}
	}
	return false
}

// Reset resets the section to default configuration.
func (s *UISection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ShowThoughts = defaultShowThoughts
	s.MarkdownStyle = defaultMarkdownStyle
	s.WordWrap = defaultWordWrap
}

// RenderSettings returns the markdown style and wrap width.
func (s *UISection) RenderSettings() (style string, wordWrap int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.MarkdownStyle, s.WordWrap
}

// ThoughtsVisible reports whether agent thoughts are shown.
func (s *UISection) ThoughtsVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ShowThoughts
}

// SetShowThoughts toggles thought display.
func (s *UISection) SetShowThoughts(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ShowThoughts = show
}
