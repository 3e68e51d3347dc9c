package decision

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/entrhq/tabpilot/pkg/types"
)

// Kind names an action the model can request.
type Kind string

const (
	KindNavigate      Kind = "navigate"
	KindSearch        Kind = "search"
	KindNewTab        Kind = "new_tab"
	KindCloseTab      Kind = "close_tab"
	KindSwitchTab     Kind = "switch_tab"
	KindGetTabContent Kind = "get_tab_content"
	KindSetReminder   Kind = "set_reminder"
	KindScroll        Kind = "scroll"
	KindClick         Kind = "click"
	KindType          Kind = "type"
	KindPressKey      Kind = "press_key"
	KindTypeAndSubmit Kind = "type_and_submit"
	KindAskSelection  Kind = "ask_selection"
	KindUnknown       Kind = "unknown"
)

// Action is a decoded action descriptor. The concrete types below form a
// closed set; anything unrecognized decodes to Unknown.
type Action interface {
	// Kind returns the action kind.
	Kind() Kind

	// Descriptor returns the JSON object the action was decoded from.
	Descriptor() map[string]any
}

type base struct {
	desc map[string]any
}

func (b base) Descriptor() map[string]any { return b.desc }

// Navigate loads URL in the active tab.
type Navigate struct {
	base
	URL string
}

// Search runs a web search for Query in the active tab.
type Search struct {
	base
	Query string
}

// NewTab opens a tab, optionally at URL.
type NewTab struct {
	base
	URL string
}

// CloseTab closes the tab with TabID. TabID is nil when the model omitted it.
type CloseTab struct {
	base
	TabID *int
}

// SwitchTab activates the tab with TabID.
type SwitchTab struct {
	base
	TabID *int
}

// GetTabContent reads the visible text of TabID, or the active tab when nil.
type GetTabContent struct {
	base
	TabID *int
}

// SetReminder schedules Message after Seconds.
type SetReminder struct {
	base
	Message string
	Seconds float64
}

// Scroll scrolls the page up, down, to the top or to the bottom.
type Scroll struct {
	base
	Direction string
}

// Click clicks the element matching Selector.
type Click struct {
	base
	Selector string
}

// Type sets Text into the input matching Selector.
type Type struct {
	base
	Selector string
	Text     string
}

// PressKey dispatches Key on Selector, or on the focused element when empty.
type PressKey struct {
	base
	Key      string
	Selector string
}

// TypeAndSubmit types Text into Selector and submits.
type TypeAndSubmit struct {
	base
	Selector string
	Text     string
}

// AskSelection asks the user to pick one of Options.
type AskSelection struct {
	base
	Question string
	Options  []types.Option
}

// Unknown is any action name outside the known set.
type Unknown struct {
	base
	Name string
}

func (Navigate) Kind() Kind      { return KindNavigate }
func (Search) Kind() Kind        { return KindSearch }
func (NewTab) Kind() Kind        { return KindNewTab }
func (CloseTab) Kind() Kind      { return KindCloseTab }
func (SwitchTab) Kind() Kind     { return KindSwitchTab }
func (GetTabContent) Kind() Kind { return KindGetTabContent }
func (SetReminder) Kind() Kind   { return KindSetReminder }
func (Scroll) Kind() Kind        { return KindScroll }
func (Click) Kind() Kind         { return KindClick }
func (Type) Kind() Kind          { return KindType }
func (PressKey) Kind() Kind      { return KindPressKey }
func (TypeAndSubmit) Kind() Kind { return KindTypeAndSubmit }
func (AskSelection) Kind() Kind  { return KindAskSelection }
func (Unknown) Kind() Kind       { return KindUnknown }

// Name returns the action name as the model wrote it.
func Name(a Action) string {
	if u, ok := a.(Unknown); ok {
		return u.Name
	}
	return string(a.Kind())
}

// JSON renders the action descriptor for the model-visible history.
func JSON(a Action) string {
	b, err := json.Marshal(a.Descriptor())
	if err != nil {
		return fmt.Sprintf("{%q:%q}", "action", Name(a))
	}
	return string(b)
}

// Decode converts a descriptor object into an Action. Missing or mistyped
// fields are left zero; the executor reports them.
func Decode(desc map[string]any) Action {
	b := base{desc: desc}
	name := strings.ToLower(strings.TrimSpace(str(desc, "action", "type")))

	switch Kind(name) {
	case KindNavigate:
		return Navigate{base: b, URL: str(desc, "url")}
	case KindSearch:
		return Search{base: b, Query: str(desc, "query", "q")}
	case KindNewTab:
		return NewTab{base: b, URL: str(desc, "url")}
	case KindCloseTab:
		return CloseTab{base: b, TabID: intPtr(desc, "tabId", "tab_id")}
	case KindSwitchTab:
		return SwitchTab{base: b, TabID: intPtr(desc, "tabId", "tab_id")}
	case KindGetTabContent:
		return GetTabContent{base: b, TabID: intPtr(desc, "tabId", "tab_id")}
	case KindSetReminder:
		seconds, _ := number(desc, "seconds")
		return SetReminder{base: b, Message: str(desc, "message", "text"), Seconds: seconds}
	case KindScroll:
		return Scroll{base: b, Direction: strings.ToLower(str(desc, "direction"))}
	case KindClick:
		return Click{base: b, Selector: str(desc, "selector")}
	case KindType:
		return Type{base: b, Selector: str(desc, "selector"), Text: str(desc, "text", "value")}
	case KindPressKey:
		return PressKey{base: b, Key: str(desc, "key"), Selector: str(desc, "selector")}
	case KindTypeAndSubmit:
		return TypeAndSubmit{base: b, Selector: str(desc, "selector"), Text: str(desc, "text", "value")}
	case KindAskSelection:
		return AskSelection{base: b, Question: str(desc, "question", "text"), Options: options(desc["options"])}
	}

	if name == "" {
		if v, ok := desc["action"]; ok {
			name = fmt.Sprint(v)
		}
	}
	return Unknown{base: b, Name: name}
}

// str returns the first string-ish value among keys. Numbers are formatted.
func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// number returns the first numeric value among keys, accepting numeric strings.
func number(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v, true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func intPtr(m map[string]any, keys ...string) *int {
	f, ok := number(m, keys...)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return nil
	}
	n := int(f)
	return &n
}

// options accepts [{"label":..,"value":..}] or a list of strings.
func options(v any) []types.Option {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]types.Option, 0, len(list))
	for _, item := range list {
		switch o := item.(type) {
		case string:
			out = append(out, types.Option{Label: o, Value: o})
		case map[string]any:
			label := str(o, "label", "text", "name")
			value := str(o, "value", "id")
			if value == "" {
				value = label
			}
			if label == "" {
				label = value
			}
			if label != "" {
				out = append(out, types.Option{Label: label, Value: value})
			}
		}
	}
	return out
}
