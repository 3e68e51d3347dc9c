// Package browsertest provides an in-memory browser.Host for tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/entrhq/tabpilot/pkg/browser"
)

// ScriptFunc answers ExecuteScript calls.
type ScriptFunc func(tab browser.Tab, script string, arg any) (any, error)

// ScriptCall records one ExecuteScript invocation.
type ScriptCall struct {
	TabID  int
	Script string
	Arg    any
}

// Notification records one Notify invocation.
type Notification struct {
	Title   string
	Message string
}

// FakeHost is a scriptable browser.Host. The zero value is not usable; use New.
type FakeHost struct {
	mu sync.Mutex

	tabs   []*browser.Tab
	nextID int
	active int

	// pendingLoads counts GetTab polls left before a tab reports complete.
	pendingLoads map[int]int

	// LoadPolls is how many GetTab calls a navigated tab stays loading.
	// Negative keeps it loading forever.
	LoadPolls int

	Script        ScriptFunc
	Screenshot    string
	ScreenshotErr error
	HTML          map[int]string
	NotifyErr     error

	Scripts       []ScriptCall
	Navigations   []string
	Notifications []Notification
	Chimes        int
}

// New returns a host with one active tab at url.
func New(url, title string) *FakeHost {
	h := &FakeHost{
		nextID:       1,
		pendingLoads: make(map[int]int),
		HTML:         make(map[int]string),
		Screenshot:   "data:image/png;base64,iVBORw0KGgo=",
	}
	if url != "" {
		tab := h.AddTab(url, title)
		h.active = tab.ID
	}
	return h
}

// AddTab opens a background tab without recording a navigation.
func (h *FakeHost) AddTab(url, title string) browser.Tab {
	h.mu.Lock()
	defer h.mu.Unlock()

	tab := &browser.Tab{
		ID:       h.nextID,
		WindowID: 1,
		Title:    title,
		URL:      url,
		Status:   browser.StatusComplete,
	}
	h.nextID++
	h.tabs = append(h.tabs, tab)
	if h.active == 0 {
		h.active = tab.ID
	}
	return *tab
}

// SetTitle changes the title of tabID.
func (h *FakeHost) SetTitle(tabID int, title string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if tab := h.find(tabID); tab != nil {
		tab.Title = title
	}
}

// ClearActive leaves the host with no focused tab.
func (h *FakeHost) ClearActive() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = 0
}

// ActiveID returns the focused tab id, 0 when none.
func (h *FakeHost) ActiveID() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// ScriptCalls returns a copy of the recorded script calls.
func (h *FakeHost) ScriptCalls() []ScriptCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ScriptCall(nil), h.Scripts...)
}

func (h *FakeHost) find(id int) *browser.Tab {
	for _, t := range h.tabs {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (h *FakeHost) snapshot(t *browser.Tab) browser.Tab {
	out := *t
	out.Active = t.ID == h.active
	return out
}

func (h *FakeHost) ActiveTab(ctx context.Context) (*browser.Tab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t := h.find(h.active)
	if t == nil {
		return nil, browser.ErrNoActiveTab
	}
	s := h.snapshot(t)
	return &s, nil
}

func (h *FakeHost) Tabs(ctx context.Context) ([]browser.Tab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]browser.Tab, 0, len(h.tabs))
	for _, t := range h.tabs {
		out = append(out, h.snapshot(t))
	}
	return out, nil
}

func (h *FakeHost) GetTab(ctx context.Context, tabID int) (*browser.Tab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t := h.find(tabID)
	if t == nil {
		return nil, fmt.Errorf("%w: %d", browser.ErrTabNotFound, tabID)
	}
	if left, ok := h.pendingLoads[tabID]; ok {
		switch {
		case left < 0:
		case left <= 1:
			delete(h.pendingLoads, tabID)
			t.Status = browser.StatusComplete
		default:
			h.pendingLoads[tabID] = left - 1
		}
	}
	s := h.snapshot(t)
	return &s, nil
}

func (h *FakeHost) UpdateTab(ctx context.Context, tabID int, url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	t := h.find(tabID)
	if t == nil {
		return fmt.Errorf("%w: %d", browser.ErrTabNotFound, tabID)
	}
	t.URL = url
	h.Navigations = append(h.Navigations, url)
	if h.LoadPolls != 0 {
		t.Status = browser.StatusLoading
		h.pendingLoads[tabID] = h.LoadPolls
	}
	return nil
}

func (h *FakeHost) ActivateTab(ctx context.Context, tabID int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.find(tabID) == nil {
		return fmt.Errorf("%w: %d", browser.ErrTabNotFound, tabID)
	}
	h.active = tabID
	return nil
}

func (h *FakeHost) CreateTab(ctx context.Context, url string) (*browser.Tab, error) {
	h.mu.Lock()
	tab := &browser.Tab{ID: h.nextID, WindowID: 1, URL: url, Status: browser.StatusComplete}
	h.nextID++
	h.tabs = append(h.tabs, tab)
	h.active = tab.ID
	s := h.snapshot(tab)
	h.mu.Unlock()
	return &s, nil
}

func (h *FakeHost) RemoveTab(ctx context.Context, tabID int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, t := range h.tabs {
		if t.ID != tabID {
			continue
		}
		h.tabs = append(h.tabs[:i], h.tabs[i+1:]...)
		if h.active == tabID {
			h.active = 0
			if len(h.tabs) > 0 {
				h.active = h.tabs[len(h.tabs)-1].ID
			}
		}
		return nil
	}
	return fmt.Errorf("%w: %d", browser.ErrTabNotFound, tabID)
}

func (h *FakeHost) CaptureVisibleTab(ctx context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ScreenshotErr != nil {
		return "", h.ScreenshotErr
	}
	if h.find(h.active) == nil {
		return "", browser.ErrNoActiveTab
	}
	return h.Screenshot, nil
}

func (h *FakeHost) ExecuteScript(ctx context.Context, tabID int, script string, arg any) (any, error) {
	h.mu.Lock()
	t := h.find(tabID)
	h.Scripts = append(h.Scripts, ScriptCall{TabID: tabID, Script: script, Arg: arg})
	fn := h.Script
	var tab browser.Tab
	if t != nil {
		tab = h.snapshot(t)
	}
	h.mu.Unlock()

	if t == nil {
		return nil, fmt.Errorf("%w: %d", browser.ErrTabNotFound, tabID)
	}
	if fn == nil {
		return nil, errors.New("no script handler")
	}
	return fn(tab, script, arg)
}

// PageHTML serves HTML[tabID].
func (h *FakeHost) PageHTML(ctx context.Context, tabID int) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	doc, ok := h.HTML[tabID]
	if !ok {
		return "", fmt.Errorf("%w: %d", browser.ErrTabNotFound, tabID)
	}
	return doc, nil
}

func (h *FakeHost) Notify(ctx context.Context, title, message string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.NotifyErr != nil {
		return h.NotifyErr
	}
	h.Notifications = append(h.Notifications, Notification{Title: title, Message: message})
	return nil
}

func (h *FakeHost) Chime(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Chimes++
	return nil
}

// NotificationsSnapshot returns a copy of the recorded notifications.
func (h *FakeHost) NotificationsSnapshot() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Notification(nil), h.Notifications...)
}

var (
	_ browser.Host       = (*FakeHost)(nil)
	_ browser.HTMLSource = (*FakeHost)(nil)
)
