package browser

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/tabpilot/pkg/logging"
)

// Default Playwright settings
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultTimeout        = 30000.0 // milliseconds
)

// Options configures a PlaywrightHost.
type Options struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	Width  int
	Height int

	// Timeout sets the default timeout for page operations (in milliseconds)
	Timeout float64

	// OnNotify receives desktop-style notifications. When nil they are logged.
	OnNotify func(title, message string)

	// Bell receives the audible chime. When nil the chime is dropped.
	Bell io.Writer
}

// PlaywrightHost implements Host on a single Chromium context. Pages of the
// context are exposed as tabs with stable integer ids.
type PlaywrightHost struct {
	mu      sync.Mutex
	opts    Options
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	pages   map[int]playwright.Page
	nextID  int
	active  int
}

var browserLog *logging.Logger

func init() {
	var err error
	browserLog, err = logging.NewLogger("browser")
	if err != nil {
		// Logger fell back to stderr due to initialization failure
		browserLog.Warnf("Failed to initialize browser logger, using stderr fallback: %v", err)
	}
}

// NewPlaywrightHost creates a host. Start must be called before use.
func NewPlaywrightHost(opts Options) *PlaywrightHost {
	if opts.Width == 0 {
		opts.Width = DefaultViewportWidth
	}
	if opts.Height == 0 {
		opts.Height = DefaultViewportHeight
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	return &PlaywrightHost{
		opts:   opts,
		pages:  make(map[int]playwright.Page),
		nextID: 1,
	}
}

// Start installs and launches Playwright and opens the first tab.
func (h *PlaywrightHost) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pw != nil {
		return nil
	}

	// Install and run Playwright with output discarded so the terminal UI stays clean
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	headless := h.opts.Headless
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &headless,
	})
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  h.opts.Width,
			Height: h.opts.Height,
		},
	})
	if err != nil {
		browser.Close()
		_ = pw.Stop()
		return fmt.Errorf("failed to create context: %w", err)
	}

	// Page events are dispatched on the driver goroutine that NewPage waits
	// on, so registration happens off that goroutine.
	bctx.OnPage(func(page playwright.Page) {
		go h.adopt(page)
	})

	h.pw, h.browser, h.context = pw, browser, bctx
	if _, err := h.newPageLocked("about:blank"); err != nil {
		h.shutdownLocked()
		return err
	}

	browserLog.Infof("browser started (headless=%v)", headless)
	return nil
}

// Close shuts down the browser and Playwright.
func (h *PlaywrightHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shutdownLocked()
}

func (h *PlaywrightHost) shutdownLocked() error {
	if h.pw == nil {
		return nil
	}
	for id, page := range h.pages {
		_ = page.Close() // Ignore errors, continue cleanup
		delete(h.pages, id)
	}
	if h.context != nil {
		_ = h.context.Close()
	}
	if h.browser != nil {
		_ = h.browser.Close()
	}
	err := h.pw.Stop()
	h.pw, h.browser, h.context = nil, nil, nil
	h.active = 0
	if err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

func (h *PlaywrightHost) newPageLocked(url string) (int, error) {
	if h.context == nil {
		return 0, fmt.Errorf("browser not started")
	}
	page, err := h.context.NewPage()
	if err != nil {
		return 0, fmt.Errorf("failed to create page: %w", err)
	}
	id := h.registerLocked(page)
	h.active = id

	if url != "" && url != "about:blank" {
		if err := gotoCommit(page, url); err != nil {
			return id, err
		}
	}
	return id, nil
}

// registerLocked assigns page a tab id, or returns the id it already has.
func (h *PlaywrightHost) registerLocked(page playwright.Page) int {
	if id, ok := h.idOfLocked(page); ok {
		return id
	}
	page.SetDefaultTimeout(h.opts.Timeout)
	id := h.nextID
	h.nextID++
	h.pages[id] = page
	page.OnClose(func(p playwright.Page) {
		go h.forget(p)
	})
	return id
}

// adopt registers a page the site opened itself (target=_blank, window.open)
// and focuses it.
func (h *PlaywrightHost) adopt(page playwright.Page) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.context == nil || page.IsClosed() {
		return
	}
	if _, ok := h.idOfLocked(page); ok {
		return
	}
	h.active = h.registerLocked(page)
	browserLog.Debugf("adopted tab %d (%s)", h.active, page.URL())
}

// forget drops a closed page and refocuses when it was the active tab.
func (h *PlaywrightHost) forget(page playwright.Page) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id, ok := h.idOfLocked(page)
	if !ok {
		return
	}
	delete(h.pages, id)
	if h.active == id {
		h.active = h.newestLocked()
	}
}

func (h *PlaywrightHost) idOfLocked(page playwright.Page) (int, bool) {
	for id, p := range h.pages {
		if p == page {
			return id, true
		}
	}
	return 0, false
}

// newestLocked returns the highest open tab id, or 0.
func (h *PlaywrightHost) newestLocked() int {
	newest := 0
	for id := range h.pages {
		if id > newest {
			newest = id
		}
	}
	return newest
}

// gotoCommit starts a navigation and returns once the response has committed;
// callers poll the tab status for load completion.
func gotoCommit(page playwright.Page, url string) error {
	state := playwright.WaitUntilState("commit")
	if _, err := page.Goto(url, playwright.PageGotoOptions{WaitUntil: &state}); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (h *PlaywrightHost) pageLocked(tabID int) (playwright.Page, error) {
	page, ok := h.pages[tabID]
	if !ok || page.IsClosed() {
		delete(h.pages, tabID)
		return nil, fmt.Errorf("%w: %d", ErrTabNotFound, tabID)
	}
	return page, nil
}

func (h *PlaywrightHost) tabLocked(id int, page playwright.Page) Tab {
	title, _ := page.Title()
	tab := Tab{
		ID:     id,
		Title:  title,
		URL:    page.URL(),
		Status: StatusLoading,
		Active: id == h.active,
	}
	if state, err := page.Evaluate("() => document.readyState"); err == nil {
		tab.Status = readyStatus(state)
	}
	return tab
}

func readyStatus(state any) TabStatus {
	if s, ok := state.(string); ok && s == "complete" {
		return StatusComplete
	}
	return StatusLoading
}

// ActiveTab returns the focused tab.
func (h *PlaywrightHost) ActiveTab(ctx context.Context) (*Tab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	page, err := h.pageLocked(h.active)
	if err != nil {
		return nil, ErrNoActiveTab
	}
	tab := h.tabLocked(h.active, page)
	return &tab, nil
}

// Tabs lists open tabs in creation order.
func (h *PlaywrightHost) Tabs(ctx context.Context) ([]Tab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]int, 0, len(h.pages))
	for id, page := range h.pages {
		if page.IsClosed() {
			delete(h.pages, id)
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	tabs := make([]Tab, 0, len(ids))
	for _, id := range ids {
		tabs = append(tabs, h.tabLocked(id, h.pages[id]))
	}
	return tabs, nil
}

// GetTab returns one tab.
func (h *PlaywrightHost) GetTab(ctx context.Context, tabID int) (*Tab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	page, err := h.pageLocked(tabID)
	if err != nil {
		return nil, err
	}
	tab := h.tabLocked(tabID, page)
	return &tab, nil
}

// UpdateTab navigates tabID to url.
func (h *PlaywrightHost) UpdateTab(ctx context.Context, tabID int, url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	page, err := h.pageLocked(tabID)
	if err != nil {
		return err
	}
	return gotoCommit(page, url)
}

// ActivateTab brings tabID to the front.
func (h *PlaywrightHost) ActivateTab(ctx context.Context, tabID int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	page, err := h.pageLocked(tabID)
	if err != nil {
		return err
	}
	if err := page.BringToFront(); err != nil {
		return fmt.Errorf("failed to activate tab: %w", err)
	}
	h.active = tabID
	return nil
}

// CreateTab opens a new focused tab.
func (h *PlaywrightHost) CreateTab(ctx context.Context, url string) (*Tab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id, err := h.newPageLocked(url)
	if err != nil && id == 0 {
		return nil, err
	}
	tab := h.tabLocked(id, h.pages[id])
	return &tab, err
}

// RemoveTab closes tabID. Closing the active tab focuses the newest remaining one.
func (h *PlaywrightHost) RemoveTab(ctx context.Context, tabID int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	page, err := h.pageLocked(tabID)
	if err != nil {
		return err
	}
	if err := page.Close(); err != nil {
		return fmt.Errorf("failed to close tab: %w", err)
	}
	delete(h.pages, tabID)

	if h.active == tabID {
		h.active = h.newestLocked()
	}
	return nil
}

// CaptureVisibleTab screenshots the active tab as a PNG data URL.
func (h *PlaywrightHost) CaptureVisibleTab(ctx context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	page, err := h.pageLocked(h.active)
	if err != nil {
		return "", ErrNoActiveTab
	}
	png, err := page.Screenshot()
	if err != nil {
		return "", fmt.Errorf("screenshot failed: %w", err)
	}
	return PNGDataURL(png), nil
}

// ExecuteScript evaluates script in tabID with arg.
func (h *PlaywrightHost) ExecuteScript(ctx context.Context, tabID int, script string, arg any) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	page, err := h.pageLocked(tabID)
	if err != nil {
		return nil, err
	}
	result, err := page.Evaluate(script, arg)
	if err != nil {
		return nil, fmt.Errorf("script execution failed: %w", err)
	}
	return result, nil
}

// PageHTML returns the serialized DOM of tabID.
func (h *PlaywrightHost) PageHTML(ctx context.Context, tabID int) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	page, err := h.pageLocked(tabID)
	if err != nil {
		return "", err
	}
	return page.Content()
}

// Notify delivers a notification through OnNotify or the log.
func (h *PlaywrightHost) Notify(ctx context.Context, title, message string) error {
	if h.opts.OnNotify != nil {
		h.opts.OnNotify(title, message)
		return nil
	}
	browserLog.Infof("notification: %s: %s", title, message)
	return nil
}

// Chime rings the terminal bell when one is configured.
func (h *PlaywrightHost) Chime(ctx context.Context) error {
	if h.opts.Bell == nil {
		return nil
	}
	_, err := io.WriteString(h.opts.Bell, "\a")
	return err
}
