// Package browser defines the browser primitives the agent drives and a
// Playwright-backed implementation of them.
package browser

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// TabStatus is the load state of a tab.
type TabStatus string

const (
	StatusLoading  TabStatus = "loading"
	StatusComplete TabStatus = "complete"
)

var (
	// ErrNoActiveTab is returned when no tab is focused.
	ErrNoActiveTab = errors.New("no active tab")

	// ErrTabNotFound is returned for an unknown tab id.
	ErrTabNotFound = errors.New("tab not found")
)

// Tab describes one open tab.
type Tab struct {
	ID       int
	WindowID int
	Title    string
	URL      string
	Status   TabStatus
	Active   bool
}

// Host is the set of browser operations the executor and context capture use.
//
// ExecuteScript runs script, a JavaScript function expression, in the page of
// tabID with arg as its single argument, and returns the JSON-compatible result.
type Host interface {
	ActiveTab(ctx context.Context) (*Tab, error)
	Tabs(ctx context.Context) ([]Tab, error)
	GetTab(ctx context.Context, tabID int) (*Tab, error)
	UpdateTab(ctx context.Context, tabID int, url string) error
	ActivateTab(ctx context.Context, tabID int) error
	CreateTab(ctx context.Context, url string) (*Tab, error)
	RemoveTab(ctx context.Context, tabID int) error
	CaptureVisibleTab(ctx context.Context) (string, error)
	ExecuteScript(ctx context.Context, tabID int, script string, arg any) (any, error)
	Notify(ctx context.Context, title, message string) error
	Chime(ctx context.Context) error
}

// HTMLSource is implemented by hosts that can return a tab's serialized DOM.
type HTMLSource interface {
	PageHTML(ctx context.Context, tabID int) (string, error)
}

// DecodeResult converts a script result into out by way of JSON.
func DecodeResult(v any, out any) error {
	if v == nil {
		return errors.New("script returned no result")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode script result: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("unexpected script result: %w", err)
	}
	return nil
}

// PNGDataURL wraps raw PNG bytes as a data URL.
func PNGDataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
