package browser

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestHost launches a headless host, skipping when the browser driver
// cannot be installed in this environment.
func startTestHost(t *testing.T) *PlaywrightHost {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	host := NewPlaywrightHost(Options{Headless: true})
	if err := host.Start(context.Background()); err != nil {
		t.Skipf("playwright unavailable: %v", err)
	}
	t.Cleanup(func() { _ = host.Close() })
	return host
}

func loadHTML(t *testing.T, host *PlaywrightHost, tabID int, html string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, host.UpdateTab(ctx, tabID, "data:text/html;charset=utf-8,"+url.PathEscape(html)))
	require.Eventually(t, func() bool {
		tab, err := host.GetTab(ctx, tabID)
		return err == nil && tab.Status == StatusComplete
	}, 10*time.Second, 50*time.Millisecond)
}

func TestPlaywrightHost_SiteOpenedTabs(t *testing.T) {
	host := startTestHost(t)
	ctx := context.Background()

	first, err := host.ActiveTab(ctx)
	require.NoError(t, err)
	loadHTML(t, host, first.ID, `<html><head><title>Opener</title></head><body>hi</body></html>`)

	_, err = host.ExecuteScript(ctx, first.ID, `() => { window.open('about:blank'); }`, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		tabs, err := host.Tabs(ctx)
		return err == nil && len(tabs) == 2
	}, 10*time.Second, 50*time.Millisecond)

	active, err := host.ActiveTab(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, active.ID, "popup should take focus")

	popupID := active.ID
	_, err = host.GetTab(ctx, popupID)
	require.NoError(t, err)

	// Closing from the page side prunes the tab and refocuses the opener.
	_, _ = host.ExecuteScript(ctx, popupID, `() => { window.close(); }`, nil)
	require.Eventually(t, func() bool {
		tabs, err := host.Tabs(ctx)
		return err == nil && len(tabs) == 1
	}, 10*time.Second, 50*time.Millisecond)

	require.Eventually(t, func() bool {
		tab, err := host.ActiveTab(ctx)
		return err == nil && tab.ID == first.ID
	}, 10*time.Second, 50*time.Millisecond)
}

func TestPlaywrightHost_CreateTabCountedOnce(t *testing.T) {
	host := startTestHost(t)
	ctx := context.Background()

	tab, err := host.CreateTab(ctx, "")
	require.NoError(t, err)

	// Give the page event a chance to arrive before counting.
	time.Sleep(200 * time.Millisecond)

	tabs, err := host.Tabs(ctx)
	require.NoError(t, err)
	require.Len(t, tabs, 2)
	assert.Equal(t, tab.ID, tabs[1].ID)

	active, err := host.ActiveTab(ctx)
	require.NoError(t, err)
	assert.Equal(t, tab.ID, active.ID)

	require.NoError(t, host.RemoveTab(ctx, tab.ID))
	tabs, err = host.Tabs(ctx)
	require.NoError(t, err)
	assert.Len(t, tabs, 1)
}
