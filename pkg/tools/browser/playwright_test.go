package browser

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/tabpilot/pkg/browser"
)

// livePage launches a headless browser with html loaded in its active tab,
// skipping when the browser driver is unavailable.
func livePage(t *testing.T, html string) (*browser.PlaywrightHost, int) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	host := browser.NewPlaywrightHost(browser.Options{Headless: true})
	if err := host.Start(context.Background()); err != nil {
		t.Skipf("playwright unavailable: %v", err)
	}
	t.Cleanup(func() { _ = host.Close() })

	ctx := context.Background()
	tab, err := host.ActiveTab(ctx)
	require.NoError(t, err)
	require.NoError(t, host.UpdateTab(ctx, tab.ID, "data:text/html;charset=utf-8,"+url.PathEscape(html)))
	require.Eventually(t, func() bool {
		got, err := host.GetTab(ctx, tab.ID)
		return err == nil && got.Status == browser.StatusComplete
	}, 10*time.Second, 50*time.Millisecond)
	return host, tab.ID
}

func evalString(t *testing.T, host *browser.PlaywrightHost, tabID int, script string) string {
	t.Helper()
	v, err := host.ExecuteScript(context.Background(), tabID, script, nil)
	require.NoError(t, err)
	s, _ := v.(string)
	return s
}

const formFixture = `<html><head><title>Fixture</title></head><body>
<button id="hidden" style="display:none">Hidden</button>
<a class="btn" href="#" onclick="document.title='clicked'; return false;">Go</a>
<form id="f" onsubmit="document.body.dataset.submitted='yes'; return false;">
  <input id="q" name="q">
</form>
<script>
  window.seen = [];
  const q = document.getElementById('q');
  for (const type of ['input', 'change', 'keydown', 'keypress', 'keyup']) {
    q.addEventListener(type, () => window.seen.push(type));
  }
</script>
</body></html>`

func TestDOMScript_LivePage(t *testing.T) {
	host, tabID := livePage(t, formFixture)
	e := newTestExecutor(host, nil)
	ctx := context.Background()

	t.Run("hidden element", func(t *testing.T) {
		got := e.Execute(ctx, act(`{"action":"click","selector":"#hidden"}`))
		assert.Equal(t, FailureMarker+"Element not found or not visible (#hidden)", got)
	})

	t.Run("tag fallback", func(t *testing.T) {
		got := e.Execute(ctx, act(`{"action":"click","selector":"button.btn"}`))
		assert.Equal(t, SuccessMarker+"Clicked element (button.btn)", got)
		assert.Equal(t, "clicked", evalString(t, host, tabID, `() => document.title`))
	})

	t.Run("type fires input and change", func(t *testing.T) {
		got := e.Execute(ctx, act(`{"action":"type","selector":"#q","text":"hello"}`))
		assert.Equal(t, SuccessMarker+`Typed "hello" into (#q)`, got)
		assert.Equal(t, "hello", evalString(t, host, tabID, `() => document.getElementById('q').value`))
		assert.Equal(t, "input,change", evalString(t, host, tabID, `() => window.seen.join(',')`))
	})

	t.Run("type and submit", func(t *testing.T) {
		_, err := host.ExecuteScript(ctx, tabID, `() => { window.seen = []; }`, nil)
		require.NoError(t, err)

		got := e.Execute(ctx, act(`{"action":"type_and_submit","selector":"#q","text":"weather"}`))
		assert.Equal(t, SuccessMarker+`Typed "weather" into (#q) and submitted`, got)
		assert.Equal(t, "input,change,keydown,keypress,keyup", evalString(t, host, tabID, `() => window.seen.join(',')`))
		assert.Equal(t, "yes", evalString(t, host, tabID, `() => document.body.dataset.submitted || ''`))
	})
}

func TestCaptureScript_LivePage(t *testing.T) {
	host, _ := livePage(t, `<html><head><title>Selectors</title></head><body>
<input id="email" name="e" aria-label="Email">
<input name="q" aria-label="Search">
<button aria-label="Close" class="x">X</button>
<button class="primary big">Go</button>
<button>Plain</button>
<button id="gone" style="display:none">Gone</button>
<p>Body text here</p>
</body></html>`)

	c, err := NewCapturer(host, nil)
	require.NoError(t, err)

	tc := c.Capture(context.Background())
	require.NotNil(t, tc)
	assert.Equal(t, "Selectors", tc.Title)
	require.Len(t, tc.OpenTabs, 1)
	assert.NotEmpty(t, tc.Screenshot)

	// id beats name, name beats aria-label, aria-label beats class.
	assert.Contains(t, tc.Content, "Selector: #email")
	assert.Contains(t, tc.Content, `Selector: input[name="q"]`)
	assert.Contains(t, tc.Content, `Selector: button[aria-label="Close"]`)
	assert.Contains(t, tc.Content, "Selector: button.primary.big")
	assert.Contains(t, tc.Content, "Selector: button |")
	assert.NotContains(t, tc.Content, "#gone")
	assert.Contains(t, tc.Content, "Body text here")
}
