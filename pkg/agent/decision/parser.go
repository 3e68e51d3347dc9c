// Package decision turns a raw model reply into a Decision: the model's
// thought, an optional browser action, and the text to show the user.
package decision

import (
	"encoding/json"
	"strings"
)

// Decision is the parsed form of one model reply.
type Decision struct {
	// Action is nil when the reply requested no action.
	Action Action

	Thought string

	// Response is the text to show the user: the explicit response field,
	// else the thought, else the raw reply.
	Response string

	// Raw is the reply as received.
	Raw string

	// ExplicitResponse is set when the reply carried a non-empty response field.
	ExplicitResponse bool
}

// HasAction reports whether the model asked for an action.
func (d Decision) HasAction() bool {
	return d.Action != nil
}

// ExplainsAction reports whether the reply paired its action with a final
// explanation: an explicit response that differs from the thought and is not
// itself an action payload.
func (d Decision) ExplainsAction() bool {
	if d.Action == nil || !d.ExplicitResponse {
		return false
	}
	resp := strings.TrimSpace(d.Response)
	if resp == "" || resp == strings.TrimSpace(d.Thought) {
		return false
	}
	if obj, ok := extractObject(resp); ok && truthy(obj["action"]) {
		return false
	}
	return true
}

// Parse extracts a Decision from raw. It never panics: text without a JSON
// object, or with one that fails to decode, becomes the response as-is.
func Parse(raw string) Decision {
	d := Decision{Raw: raw, Response: raw}

	obj, ok := extractObject(raw)
	if !ok {
		return d
	}

	if t, ok := obj["thought"].(string); ok {
		d.Thought = t
	}

	if act := obj["action"]; truthy(act) {
		if nested, ok := act.(map[string]any); ok {
			d.Action = Decode(nested)
		} else {
			d.Action = Decode(obj)
		}
	}

	switch {
	case truthy(obj["response"]):
		d.Response = stringify(obj["response"])
		d.ExplicitResponse = true
	case d.Thought != "":
		d.Response = d.Thought
	}
	return d
}

// extractObject decodes the text between the first '{' and the last '}'.
func extractObject(raw string) (map[string]any, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return nil, false
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &obj); err != nil {
		return nil, false
	}
	return obj, obj != nil
}

// truthy follows JSON-in-JavaScript truthiness: null, false, 0 and "" are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
