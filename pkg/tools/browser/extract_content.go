package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/tabpilot/pkg/agent/decision"
	"github.com/entrhq/tabpilot/pkg/browser"
)

const innerTextScript = `() => document.body ? document.body.innerText : ""`

func (e *Executor) getTabContent(ctx context.Context, a decision.GetTabContent) string {
	var tabID int
	if a.TabID != nil {
		tabID = *a.TabID
	} else {
		tab, failure := e.activeTab(ctx)
		if tab == nil {
			return failure
		}
		tabID = tab.ID
	}

	text, err := e.readText(ctx, tabID)
	if err != nil {
		executorLog.Debugf("read tab %d: %v", tabID, err)
		return fmt.Sprintf("%s**Failed to read tab**: Tab ID %d not found or inaccessible.", FailureMarker, tabID)
	}

	snippet, truncated := truncate(strings.TrimSpace(text), TabContentLimit)
	if truncated {
		snippet += "..."
	}
	return fmt.Sprintf("%s**Read Content** of Tab %d:\n%s", SuccessMarker, tabID, snippet)
}

// readText returns the visible text of tabID, falling back to parsing the
// serialized DOM when the host can provide it.
func (e *Executor) readText(ctx context.Context, tabID int) (string, error) {
	result, err := e.host.ExecuteScript(ctx, tabID, innerTextScript, nil)
	if err == nil {
		if text, ok := result.(string); ok {
			return text, nil
		}
		err = fmt.Errorf("unexpected result type %T", result)
	}

	src, ok := e.host.(browser.HTMLSource)
	if !ok {
		return "", err
	}
	doc, htmlErr := src.PageHTML(ctx, tabID)
	if htmlErr != nil {
		return "", fmt.Errorf("%w (html fallback: %v)", err, htmlErr)
	}
	page, parseErr := browser.VisibleText(doc, 0)
	if parseErr != nil {
		return "", parseErr
	}
	return page.Text, nil
}

// truncate cuts s to limit runes.
func truncate(s string, limit int) (string, bool) {
	if limit <= 0 {
		return s, false
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i], true
		}
		n++
	}
	return s, false
}
