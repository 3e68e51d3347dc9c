package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/entrhq/tabpilot/pkg/browser"
	"github.com/entrhq/tabpilot/pkg/logging"
	"github.com/entrhq/tabpilot/pkg/types"
)

// captureScript returns the page title, up to maxElements visible interactive
// elements with a selector and label each, and up to maxText characters of
// visible text.
const captureScript = `(limits) => {
  const visible = (el) => {
    const rect = el.getBoundingClientRect();
    if (rect.width === 0 || rect.height === 0) return false;
    const style = window.getComputedStyle(el);
    return style.display !== 'none' && style.visibility !== 'hidden' && parseFloat(style.opacity || '1') > 0;
  };
  const esc = (v) => (window.CSS && CSS.escape) ? CSS.escape(v) : v.replace(/[^a-zA-Z0-9_-]/g, '\\$&');
  const selectorFor = (el) => {
    const tag = el.tagName.toLowerCase();
    if (el.id) return '#' + esc(el.id);
    const name = el.getAttribute('name');
    if (name) return tag + '[name="' + name.replace(/"/g, '\\"') + '"]';
    const aria = el.getAttribute('aria-label');
    if (aria) return tag + '[aria-label="' + aria.replace(/"/g, '\\"') + '"]';
    const classes = Array.from(el.classList || []).filter(Boolean);
    if (classes.length) return tag + '.' + classes.map(esc).join('.');
    return tag;
  };
  const labelFor = (el) => {
    const text = el.getAttribute('aria-label') || el.getAttribute('placeholder') || el.getAttribute('title') ||
      el.innerText || el.value || el.getAttribute('alt') || '';
    return text.replace(/\s+/g, ' ').trim().slice(0, 80);
  };

  const elements = [];
  const nodes = document.querySelectorAll('a[href], button, input, textarea, select, [role="button"], [role="link"], [onclick], [contenteditable="true"]');
  for (const el of nodes) {
    if (elements.length >= limits.maxElements) break;
    if (el.type === 'hidden' || !visible(el)) continue;
    elements.push({
      tag: el.tagName.toLowerCase(),
      type: el.getAttribute('type') || '',
      selector: selectorFor(el),
      label: labelFor(el),
    });
  }

  const text = (document.body ? document.body.innerText : '').replace(/\n{3,}/g, '\n\n').slice(0, limits.maxText);
  return { title: document.title, elements: elements, text: text };
}`

// Element is one interactive element reported by the capture script.
type Element struct {
	Tag      string `json:"tag"`
	Type     string `json:"type"`
	Selector string `json:"selector"`
	Label    string `json:"label"`
}

type pageSnapshot struct {
	Title    string    `json:"title"`
	Elements []Element `json:"elements"`
	Text     string    `json:"text"`
}

// Capturer builds the per-iteration page context.
type Capturer struct {
	host       browser.Host
	restricted []glob.Glob
	logger     *logging.Logger
}

var captureLog *logging.Logger

func init() {
	var err error
	captureLog, err = logging.NewLogger("capture")
	if err != nil {
		// Logger fell back to stderr due to initialization failure
		captureLog.Warnf("Failed to initialize capture logger, using stderr fallback: %v", err)
	}
}

// NewCapturer compiles the restricted-page patterns; nil patterns use
// DefaultRestrictedPatterns.
func NewCapturer(host browser.Host, patterns []string) (*Capturer, error) {
	if patterns == nil {
		patterns = DefaultRestrictedPatterns
	}
	c := &Capturer{
		host:   host,
		logger: captureLog,
	}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid restricted pattern %q: %w", p, err)
		}
		c.restricted = append(c.restricted, g)
	}
	return c, nil
}

// IsRestricted reports whether url is a page scripts cannot run in.
func (c *Capturer) IsRestricted(url string) bool {
	for _, g := range c.restricted {
		if g.Match(url) {
			return true
		}
	}
	return false
}

// Capture snapshots the active tab. It returns nil when no tab is active;
// every other failure degrades into the returned content.
func (c *Capturer) Capture(ctx context.Context) *types.TurnContext {
	tab, err := c.host.ActiveTab(ctx)
	if err != nil || tab == nil {
		c.logger.Debugf("no active tab: %v", err)
		return nil
	}

	tc := &types.TurnContext{
		Title:    tab.Title,
		URL:      tab.URL,
		OpenTabs: c.openTabs(ctx),
	}

	switch {
	case c.IsRestricted(tab.URL):
		tc.Content = RestrictedContent
	default:
		snap, err := c.snapshot(ctx, tab.ID)
		if err != nil {
			c.logger.Warnf("context capture failed for %s: %v", tab.URL, err)
			tc.Content = CaptureFailed
			break
		}
		if tc.Title == "" {
			tc.Title = snap.Title
		}
		tc.Content = FormatSnapshot(snap.Elements, snap.Text)
	}

	if tc.Title == "" {
		tc.Title = UnknownTitle
	}
	if tc.URL == "" {
		tc.URL = UnknownURL
	}

	if shot, err := c.host.CaptureVisibleTab(ctx); err != nil {
		c.logger.Debugf("screenshot unavailable: %v", err)
	} else {
		tc.Screenshot = shot
	}
	return tc
}

func (c *Capturer) snapshot(ctx context.Context, tabID int) (*pageSnapshot, error) {
	raw, err := c.host.ExecuteScript(ctx, tabID, captureScript, map[string]any{
		"maxElements": MaxInteractiveElements,
		"maxText":     MaxVisibleText,
	})
	if err != nil {
		return nil, err
	}
	var snap pageSnapshot
	if err := browser.DecodeResult(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Capturer) openTabs(ctx context.Context) []types.TabInfo {
	tabs, err := c.host.Tabs(ctx)
	if err != nil {
		c.logger.Debugf("listing tabs failed: %v", err)
		return nil
	}
	out := make([]types.TabInfo, 0, len(tabs))
	for _, t := range tabs {
		title := t.Title
		if title == "" {
			title = UntitledTab
		}
		out = append(out, types.TabInfo{ID: t.ID, Title: title, URL: t.URL})
	}
	return out
}

// FormatSnapshot renders the element digest and visible text, enforcing the
// element and text caps.
func FormatSnapshot(elements []Element, text string) string {
	if len(elements) > MaxInteractiveElements {
		elements = elements[:MaxInteractiveElements]
	}
	text, _ = truncate(strings.TrimSpace(text), MaxVisibleText)

	var b strings.Builder
	if len(elements) > 0 {
		b.WriteString("Interactive Elements:\n")
		for _, el := range elements {
			b.WriteString("[")
			b.WriteString(el.Tag)
			if el.Type != "" {
				fmt.Fprintf(&b, " type=%q", el.Type)
			}
			fmt.Fprintf(&b, "] Selector: %s", el.Selector)
			if el.Label != "" {
				fmt.Fprintf(&b, " | Label: %q", el.Label)
			}
			b.WriteString("\n")
		}
	}
	if text != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Visible Text:\n")
		b.WriteString(text)
	}
	return strings.TrimRight(b.String(), "\n")
}
