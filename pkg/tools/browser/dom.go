package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/tabpilot/pkg/agent/decision"
	"github.com/entrhq/tabpilot/pkg/browser"
)

// domScript performs one DOM action described by its argument and returns
// {ok, message, reason}. Elements are located with a fallback search and must
// be visibly rendered before they are acted on.
const domScript = `(act) => {
  const visible = (el) => {
    if (!el || !el.getBoundingClientRect) return false;
    const rect = el.getBoundingClientRect();
    if (rect.width === 0 || rect.height === 0) return false;
    const style = window.getComputedStyle(el);
    return style.display !== 'none' && style.visibility !== 'hidden' && parseFloat(style.opacity || '1') > 0;
  };
  const query = (sel) => {
    try { return Array.from(document.querySelectorAll(sel)); } catch (e) { return []; }
  };
  const firstVisible = (sel) => query(sel).find(visible) || null;
  const find = (sel) => {
    const direct = firstVisible(sel);
    if (direct) return direct;
    const tag = (sel.match(/^[a-zA-Z]+/) || [''])[0].toLowerCase();
    if (tag) {
      const rest = sel.slice(tag.length);
      for (const alt of ['button', 'a', 'input', 'textarea', '[role="button"]', 'div', 'span']) {
        if (alt === tag) continue;
        const el = firstVisible(alt + rest);
        if (el) return el;
      }
    }
    const words = sel.replace(/[^a-zA-Z0-9]+/g, ' ').trim();
    if (words) {
      const label = words.replace(/"/g, '');
      const el = firstVisible('[aria-label="' + label + '" i]') || firstVisible('[aria-label*="' + label + '" i]');
      if (el) return el;
    }
    return null;
  };
  const setValue = (el, text) => {
    el.focus();
    const proto = el instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
    const desc = Object.getOwnPropertyDescriptor(proto, 'value');
    if (el.isContentEditable) {
      el.textContent = text;
    } else if (desc && desc.set) {
      desc.set.call(el, '');
      desc.set.call(el, text);
    } else {
      el.value = text;
    }
    el.dispatchEvent(new Event('input', { bubbles: true }));
    el.dispatchEvent(new Event('change', { bubbles: true }));
  };
  const keys = (el, key, code) => {
    for (const type of ['keydown', 'keypress', 'keyup']) {
      el.dispatchEvent(new KeyboardEvent(type, { key: key, code: key, keyCode: code, which: code, bubbles: true, cancelable: true }));
    }
  };
  const submit = (el) => {
    keys(el, 'Enter', 13);
    const form = el.form || (el.closest && el.closest('form'));
    if (form) {
      const ev = new Event('submit', { bubbles: true, cancelable: true });
      if (form.dispatchEvent(ev)) {
        if (form.requestSubmit) form.requestSubmit(); else form.submit();
      }
    }
  };

  switch (act.action) {
    case 'scroll': {
      if (act.direction === 'top') window.scrollTo(0, 0);
      else if (act.direction === 'bottom') window.scrollTo(0, document.body.scrollHeight);
      else if (act.direction === 'up') window.scrollBy(0, -act.delta);
      else window.scrollBy(0, act.delta);
      return { ok: true, message: 'Scrolled ' + act.direction };
    }
    case 'click': {
      const el = find(act.selector);
      if (!el) return { ok: false, reason: 'Element not found or not visible (' + act.selector + ')' };
      el.scrollIntoView({ block: 'center' });
      for (const type of ['mousedown', 'mouseup']) {
        el.dispatchEvent(new MouseEvent(type, { bubbles: true, cancelable: true, view: window }));
      }
      el.click();
      return { ok: true, message: 'Clicked element (' + act.selector + ')' };
    }
    case 'type': {
      const el = find(act.selector);
      if (!el) return { ok: false, reason: 'Input field not found or not visible (' + act.selector + ')' };
      setValue(el, act.text);
      return { ok: true, message: 'Typed "' + act.text + '" into (' + act.selector + ')' };
    }
    case 'press_key': {
      const el = act.selector ? find(act.selector) : (document.activeElement || document.body);
      if (!el) return { ok: false, reason: 'Element not found or not visible (' + act.selector + ')' };
      if (act.keyName === 'Enter' && el.form) { submit(el); }
      else keys(el, act.keyName, act.keyCode);
      return { ok: true, message: 'Pressed key "' + act.key + '"' + (act.selector ? ' on (' + act.selector + ')' : '') };
    }
    case 'type_and_submit': {
      const el = find(act.selector);
      if (!el) return { ok: false, reason: 'Input field not found or not visible (' + act.selector + ')' };
      setValue(el, act.text);
      submit(el);
      return { ok: true, message: 'Typed "' + act.text + '" into (' + act.selector + ') and submitted' };
    }
  }
  return { ok: false, reason: 'Unsupported DOM action: ' + act.action };
}`

// domResult is the value domScript returns.
type domResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// key describes a keyboard key for dispatch.
type key struct {
	Name string
	Code int
}

var keyTable = map[string]key{
	"enter":      {"Enter", 13},
	"return":     {"Enter", 13},
	"tab":        {"Tab", 9},
	"escape":     {"Escape", 27},
	"esc":        {"Escape", 27},
	"backspace":  {"Backspace", 8},
	"space":      {" ", 32},
	"arrowleft":  {"ArrowLeft", 37},
	"arrowup":    {"ArrowUp", 38},
	"arrowright": {"ArrowRight", 39},
	"arrowdown":  {"ArrowDown", 40},
	"left":       {"ArrowLeft", 37},
	"up":         {"ArrowUp", 38},
	"right":      {"ArrowRight", 39},
	"down":       {"ArrowDown", 40},
	"delete":     {"Delete", 46},
}

// lookupKey maps a key name to its DOM key and legacy keyCode. Unknown keys
// keep their name and get keyCode 0.
func lookupKey(name string) key {
	if k, ok := keyTable[strings.ToLower(strings.TrimSpace(name))]; ok {
		return k
	}
	return key{Name: name, Code: 0}
}

func (e *Executor) scroll(ctx context.Context, a decision.Scroll) string {
	direction := a.Direction
	switch direction {
	case "up", "down", "top", "bottom":
	default:
		direction = "down"
	}
	return e.runDOM(ctx, map[string]any{
		"action":    "scroll",
		"direction": direction,
		"delta":     DefaultScrollDelta,
	}, false)
}

func (e *Executor) click(ctx context.Context, a decision.Click) string {
	if strings.TrimSpace(a.Selector) == "" {
		return FailureMarker + "Error: No selector provided for click."
	}
	return e.runDOM(ctx, map[string]any{
		"action":   "click",
		"selector": a.Selector,
	}, true)
}

func (e *Executor) typeText(ctx context.Context, a decision.Type) string {
	if strings.TrimSpace(a.Selector) == "" {
		return FailureMarker + "Error: No selector provided for type."
	}
	return e.runDOM(ctx, map[string]any{
		"action":   "type",
		"selector": a.Selector,
		"text":     a.Text,
	}, false)
}

func (e *Executor) pressKey(ctx context.Context, a decision.PressKey) string {
	if strings.TrimSpace(a.Key) == "" {
		return FailureMarker + "Error: No key provided for press_key."
	}
	k := lookupKey(a.Key)
	return e.runDOM(ctx, map[string]any{
		"action":   "press_key",
		"selector": a.Selector,
		"key":      a.Key,
		"keyName":  k.Name,
		"keyCode":  k.Code,
	}, true)
}

func (e *Executor) typeAndSubmit(ctx context.Context, a decision.TypeAndSubmit) string {
	if strings.TrimSpace(a.Selector) == "" {
		return FailureMarker + "Error: No selector provided for type_and_submit."
	}
	return e.runDOM(ctx, map[string]any{
		"action":   "type_and_submit",
		"selector": a.Selector,
		"text":     a.Text,
	}, true)
}

// runDOM executes domScript with arg in the active tab. When mayNavigate is
// set and the action succeeded, it waits for the page to settle.
func (e *Executor) runDOM(ctx context.Context, arg map[string]any, mayNavigate bool) string {
	tab, failure := e.activeTab(ctx)
	if tab == nil {
		return failure
	}

	raw, err := e.host.ExecuteScript(ctx, tab.ID, domScript, arg)
	if err != nil {
		executorLog.Warnf("%s script failed on tab %d: %v", arg["action"], tab.ID, err)
		return fmt.Sprintf("%s**Action Failed:** %v", WarningMarker, err)
	}

	var res domResult
	if err := browser.DecodeResult(raw, &res); err != nil {
		return fmt.Sprintf("%s**Action Failed:** %v", WarningMarker, err)
	}
	if !res.OK {
		reason := res.Reason
		if reason == "" {
			reason = "Action could not be completed"
		}
		return FailureMarker + reason
	}

	if mayNavigate {
		e.settle(ctx)
	}

	message := res.Message
	if message == "" {
		message = "Action executed"
	}
	return SuccessMarker + message
}
