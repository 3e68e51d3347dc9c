// Package browser executes model-requested actions against a browser.Host and
// captures the page context each agent iteration is grounded on.
//
// # Executor
//
// Executor.Execute performs one decision.Action and always returns a
// model-readable result string. Results open with a marker:
//
//   - "✅ " the action succeeded
//   - "❌ " the action failed and the model should try something else
//   - "⚠️ " the action ran but could not be confirmed (page still loading,
//     script blocked)
//
// Tab operations call the host directly. Scroll, click, type, press_key and
// type_and_submit run a DOM script in the active tab, which is re-resolved on
// every call because navigation may have replaced the page.
//
// # Capturer
//
// Capturer.Capture builds a types.TurnContext from the active tab: title, URL,
// a digest of visible interactive elements with selectors, a prefix of the
// visible text, a screenshot, and the open tab list. Browser-internal pages
// matching the restricted patterns are described instead of scripted.
package browser
