package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/tabpilot/pkg/agent/decision"
)

func (e *Executor) newTab(ctx context.Context, a decision.NewTab) string {
	target := strings.TrimSpace(a.URL)
	open := target
	if open == "" {
		open = DefaultNewTabURL
	}

	if _, err := e.host.CreateTab(ctx, open); err != nil {
		return fmt.Sprintf("%s**Failed to open tab**: %v", FailureMarker, err)
	}
	if target == "" {
		return SuccessMarker + "**Opened New Tab**"
	}
	return fmt.Sprintf("%s**Opened New Tab** to %s", SuccessMarker, target)
}

func (e *Executor) closeTab(ctx context.Context, a decision.CloseTab) string {
	if a.TabID == nil {
		return FailureMarker + "Error: No tabId provided for close_tab."
	}
	if err := e.host.RemoveTab(ctx, *a.TabID); err != nil {
		executorLog.Debugf("close tab %d: %v", *a.TabID, err)
		return fmt.Sprintf("%s**Failed to close tab**: Tab ID %d not found.", FailureMarker, *a.TabID)
	}
	return fmt.Sprintf("%s**Closed Tab** %d", SuccessMarker, *a.TabID)
}

func (e *Executor) switchTab(ctx context.Context, a decision.SwitchTab) string {
	if a.TabID == nil {
		return FailureMarker + "Error: No tabId provided for switch_tab."
	}

	tab, err := e.host.GetTab(ctx, *a.TabID)
	if err != nil {
		return fmt.Sprintf("%s**Failed to switch tab**: Tab ID %d not found.", FailureMarker, *a.TabID)
	}
	if err := e.host.ActivateTab(ctx, tab.ID); err != nil {
		return fmt.Sprintf("%s**Failed to switch tab**: %v", FailureMarker, err)
	}

	title := tab.Title
	if title == "" {
		title = UntitledTab
	}
	return fmt.Sprintf("%s**Switched Tab** to \"%s\"", SuccessMarker, title)
}
