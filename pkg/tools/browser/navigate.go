package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/entrhq/tabpilot/pkg/agent/decision"
	"github.com/entrhq/tabpilot/pkg/browser"
)

func (e *Executor) navigate(ctx context.Context, a decision.Navigate) string {
	target := strings.TrimSpace(a.URL)
	if target == "" {
		return FailureMarker + "Error: No url provided for navigate."
	}

	tab, failure := e.activeTab(ctx)
	if tab == nil {
		return failure
	}

	if err := e.host.UpdateTab(ctx, tab.ID, target); err != nil {
		return fmt.Sprintf("%s**Navigation failed**: %v", FailureMarker, err)
	}

	link := fmt.Sprintf("[%s](%s)", target, target)
	if !e.waitForLoad(ctx, tab.ID, e.opts.NavPollAttempts) {
		return fmt.Sprintf("%s**Navigated** to %s, but the page is still loading.", WarningMarker, link)
	}
	return fmt.Sprintf("%s**Navigated** to %s", SuccessMarker, link)
}

func (e *Executor) search(ctx context.Context, a decision.Search) string {
	query := strings.TrimSpace(a.Query)
	if query == "" {
		return FailureMarker + "Error: No query provided for search."
	}

	tab, failure := e.activeTab(ctx)
	if tab == nil {
		return failure
	}

	target := SearchURL(e.opts.SearchURL, query)
	if err := e.host.UpdateTab(ctx, tab.ID, target); err != nil {
		return fmt.Sprintf("%s**Search failed**: %v", FailureMarker, err)
	}

	if !e.waitForLoad(ctx, tab.ID, e.opts.SearchPollAttempts) {
		return fmt.Sprintf("%s**Searched** for: \"%s\", but results are still loading.", WarningMarker, query)
	}
	return fmt.Sprintf("%s**Searched** for: \"%s\"", SuccessMarker, query)
}

// SearchURL builds a search URL from template, replacing "%s" with the
// component-encoded query or appending it when the template has no "%s".
func SearchURL(template, query string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
	if strings.Contains(template, "%s") {
		return strings.Replace(template, "%s", encoded, 1)
	}
	return template + encoded
}

// waitForLoad polls tabID until it reports complete, at most attempts times.
func (e *Executor) waitForLoad(ctx context.Context, tabID, attempts int) bool {
	for i := 0; i < attempts; i++ {
		if err := e.sleep(ctx, e.opts.PollInterval); err != nil {
			return false
		}
		tab, err := e.host.GetTab(ctx, tabID)
		if err != nil {
			// The tab went away, e.g. a navigation replaced it
			executorLog.Debugf("load poll for tab %d: %v", tabID, err)
			return false
		}
		if tab.Status == browser.StatusComplete {
			return true
		}
	}
	return false
}

// settle pauses after an action that may navigate, then waits briefly for the
// active tab to finish loading. Timeouts are ignored.
func (e *Executor) settle(ctx context.Context) {
	if err := e.sleep(ctx, e.opts.SettleDelay); err != nil {
		return
	}
	tab, err := e.host.ActiveTab(ctx)
	if err != nil || tab == nil || tab.Status == browser.StatusComplete {
		return
	}
	e.waitForLoad(ctx, tab.ID, e.opts.SettlePollAttempts)
}
