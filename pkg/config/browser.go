package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"

	toolsbrowser "github.com/entrhq/tabpilot/pkg/tools/browser"
)

const (
	// SectionIDBrowser is the identifier for the browser section
	SectionIDBrowser = "browser"
)

// BrowserSection configures the automated browser and page actions.
type BrowserSection struct {
	Headless           bool
	SearchURL          string
	RestrictedPatterns []string
	NavPollAttempts    int
	NavPollInterval    time.Duration
	mu                 sync.RWMutex
}

// NewBrowserSection creates a new browser section with default settings.
func NewBrowserSection() *BrowserSection {
	s := &BrowserSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *BrowserSection) ID() string {
	return SectionIDBrowser
}

// Title returns the section title.
func (s *BrowserSection) Title() string {
	return "Browser Settings"
}

// Description returns the section description.
func (s *BrowserSection) Description() string {
	return "Configure the automated browser, the search engine used by the search action, and which pages are never read."
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"headless":            s.Headless,
		"search_url":          s.SearchURL,
		"restricted_patterns": append([]string(nil), s.RestrictedPatterns...),
		"nav_poll_attempts":   s.NavPollAttempts,
		"nav_poll_interval":   s.NavPollInterval.String(),
	}
}

// SetData updates the configuration from the provided data.
func (s *BrowserSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var err error
		switch key {
		case "headless":
			s.Headless, err = boolValue(key, value)
		case "search_url":
			s.SearchURL, err = stringValue(key, value)
		case "restricted_patterns":
			s.RestrictedPatterns, err = stringSliceValue(key, value)
		case "nav_poll_attempts":
			s.NavPollAttempts, err = intValue(key, value)
		case "nav_poll_interval":
			s.NavPollInterval, err = durationValue(key, value)
		default:
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the current configuration.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if strings.Count(s.SearchURL, "%s") != 1 {
		return fmt.Errorf("search_url must contain exactly one %%s placeholder, got %q", s.SearchURL)
	}
	for _, p := range s.RestrictedPatterns {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("invalid restricted pattern %q: %w", p, err)
		}
	}
	if s.NavPollAttempts < 1 {
		return fmt.Errorf("nav_poll_attempts must be at least 1, got %d", s.NavPollAttempts)
	}
	if s.NavPollInterval < 50*time.Millisecond || s.NavPollInterval > 10*time.Second {
		return fmt.Errorf("nav_poll_interval must be between 50ms and 10s, got %v", s.NavPollInterval)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Headless = true
	s.SearchURL = toolsbrowser.DefaultSearchURL
	s.RestrictedPatterns = append([]string(nil), toolsbrowser.DefaultRestrictedPatterns...)
	s.NavPollAttempts = toolsbrowser.DefaultNavPollAttempts
	s.NavPollInterval = toolsbrowser.DefaultPollInterval
}

// IsHeadless reports whether the browser runs without a window.
func (s *BrowserSection) IsHeadless() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Headless
}

// Patterns returns the restricted page patterns.
func (s *BrowserSection) Patterns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.RestrictedPatterns...)
}

// ExecutorOptions maps the section onto action executor options.
func (s *BrowserSection) ExecutorOptions() toolsbrowser.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return toolsbrowser.Options{
		SearchURL:       s.SearchURL,
		NavPollAttempts: s.NavPollAttempts,
		PollInterval:    s.NavPollInterval,
	}
}
