package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNestedAction(t *testing.T) {
	raw := `{ "thought": "Searching.", "action": { "action": "search", "query": "weather today" } }`

	d := Parse(raw)
	require.True(t, d.HasAction())
	search, ok := d.Action.(Search)
	require.True(t, ok, "got %T", d.Action)
	assert.Equal(t, "weather today", search.Query)
	assert.Equal(t, "Searching.", d.Thought)
	assert.Equal(t, "Searching.", d.Response)
	assert.False(t, d.ExplicitResponse)
	assert.False(t, d.ExplainsAction())
}

func TestParseFlatAction(t *testing.T) {
	d := Parse(`{"thought":"go","action":"navigate","url":"https://example.com"}`)

	nav, ok := d.Action.(Navigate)
	require.True(t, ok, "got %T", d.Action)
	assert.Equal(t, "https://example.com", nav.URL)
	assert.Equal(t, "navigate", nav.Descriptor()["action"])
	assert.Equal(t, "go", nav.Descriptor()["thought"])
}

func TestParseResponseFallbacks(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "explicit response", raw: `{"thought":"t","response":"Hello!"}`, want: "Hello!"},
		{name: "thought only", raw: `{"thought":"just thinking"}`, want: "just thinking"},
		{name: "neither", raw: `{"other":1}`, want: `{"other":1}`},
		{name: "prose", raw: "Sure, here you go.", want: "Sure, here you go."},
		{name: "invalid json", raw: "{not json}", want: "{not json}"},
		{name: "empty", raw: "", want: ""},
		{name: "reversed braces", raw: "} oops {", want: "} oops {"},
		{name: "null object", raw: "null", want: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Parse(tt.raw)
			assert.Nil(t, d.Action)
			assert.Equal(t, tt.want, d.Response)
		})
	}
}

func TestParseJSONWrappedInProse(t *testing.T) {
	raw := "Here is my plan:\n```json\n{\"thought\":\"click it\",\"action\":{\"action\":\"click\",\"selector\":\"#go\"}}\n```\nLet me know!"

	d := Parse(raw)
	click, ok := d.Action.(Click)
	require.True(t, ok, "got %T", d.Action)
	assert.Equal(t, "#go", click.Selector)
}

func TestParseFalsyActionIgnored(t *testing.T) {
	for _, raw := range []string{
		`{"thought":"t","action":null,"response":"done"}`,
		`{"thought":"t","action":"","response":"done"}`,
		`{"thought":"t","action":false,"response":"done"}`,
		`{"thought":"t","action":0,"response":"done"}`,
	} {
		d := Parse(raw)
		assert.Nil(t, d.Action, raw)
		assert.Equal(t, "done", d.Response, raw)
	}
}

func TestParseUnknownAction(t *testing.T) {
	d := Parse(`{"action":{"action":"teleport","where":"mars"}}`)
	u, ok := d.Action.(Unknown)
	require.True(t, ok)
	assert.Equal(t, "teleport", u.Name)
	assert.Equal(t, "teleport", Name(d.Action))

	d = Parse(`{"action":true}`)
	u, ok = d.Action.(Unknown)
	require.True(t, ok)
	assert.Equal(t, "true", u.Name)
}

func TestParseIsIdempotent(t *testing.T) {
	for _, raw := range []string{
		`{"thought":"a","action":{"action":"type","selector":"input[name='q']","text":"hi"},"response":"typing"}`,
		`{"thought":"b","response":"c"}`,
		`plain words`,
	} {
		assert.Equal(t, Parse(raw), Parse(raw), raw)
	}
}

func TestParseNeverPanics(t *testing.T) {
	inputs := []string{
		"", "{", "}", "{}", "{{}}", `{"action":[]}`, `{"action":{}}`, `{"action":{"action":5}}`,
		`{"action":"close_tab","tabId":"abc"}`, `{"action":"close_tab","tabId":1e300}`,
		`{"response":{"nested":true}}`, "\x00\xff{", `{"thought":123}`,
		`{"action":{"action":"ask_selection","options":[1,null,"x",{"label":"L"}]}}`,
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Parse(in) }, in)
	}
}

func TestExplainsAction(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{
			name: "explanation with action",
			raw:  `{"thought":"open it","action":{"action":"new_tab","url":"https://x.example"},"response":"I opened the page for you."}`,
			want: true,
		},
		{
			name: "response equals thought",
			raw:  `{"thought":"same","action":{"action":"scroll","direction":"down"},"response":"same"}`,
			want: false,
		},
		{
			name: "response is an action payload",
			raw:  `{"thought":"t","action":{"action":"scroll","direction":"down"},"response":"{\"action\":\"scroll\"}"}`,
			want: false,
		},
		{
			name: "no response",
			raw:  `{"thought":"t","action":{"action":"scroll","direction":"down"}}`,
			want: false,
		},
		{
			name: "response without action",
			raw:  `{"thought":"t","response":"hello"}`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw).ExplainsAction())
		})
	}
}
