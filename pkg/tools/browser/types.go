package browser

import (
	"context"
	"time"

	"github.com/entrhq/tabpilot/pkg/types"
)

// Result markers
const (
	SuccessMarker = "✅ "
	FailureMarker = "❌ "
	WarningMarker = "⚠️ "
)

// Default executor settings
const (
	DefaultSearchURL          = "https://www.google.com/search?q=%s"
	DefaultNewTabURL          = "about:blank"
	DefaultNavPollAttempts    = 30
	DefaultSearchPollAttempts = 20
	DefaultPollInterval       = 500 * time.Millisecond
	DefaultSettleDelay        = 500 * time.Millisecond
	DefaultSettlePollAttempts = 10
	DefaultScrollDelta        = 500
	TabContentLimit           = 500
)

// Capture limits
const (
	MaxInteractiveElements = 100
	MaxVisibleText         = 2000
)

// Fixed context strings
const (
	RestrictedContent = "Content inaccessible (Restricted Page e.g., New Tab, Chrome Web Store)."
	CaptureFailed     = "Failed to capture context."
	UnknownTitle      = "Unknown Page"
	UnknownURL        = "Unknown URL"
	UntitledTab       = "Untitled"
)

// DefaultRestrictedPatterns matches pages where script injection is not allowed.
var DefaultRestrictedPatterns = []string{
	"chrome://*",
	"chrome-extension://*",
	"edge://*",
	"about:*",
	"https://chrome.google.com/webstore*",
	"https://chromewebstore.google.com*",
}

// ReminderScheduler schedules set_reminder actions.
type ReminderScheduler interface {
	Schedule(ctx context.Context, message string, after time.Duration) (*types.Reminder, error)
}

// Options tunes the executor. Zero fields take the defaults above.
type Options struct {
	// SearchURL is the search endpoint; "%s" is replaced by the encoded query
	SearchURL string

	NavPollAttempts    int
	SearchPollAttempts int
	PollInterval       time.Duration

	// SettleDelay is the pause after actions that may trigger navigation
	SettleDelay        time.Duration
	SettlePollAttempts int
}

func (o Options) withDefaults() Options {
	if o.SearchURL == "" {
		o.SearchURL = DefaultSearchURL
	}
	if o.NavPollAttempts <= 0 {
		o.NavPollAttempts = DefaultNavPollAttempts
	}
	if o.SearchPollAttempts <= 0 {
		o.SearchPollAttempts = DefaultSearchPollAttempts
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	} else if o.SettleDelay == 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.SettlePollAttempts <= 0 {
		o.SettlePollAttempts = DefaultSettlePollAttempts
	}
	return o
}
