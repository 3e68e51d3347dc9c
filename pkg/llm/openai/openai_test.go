package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/tabpilot/pkg/llm"
	"github.com/entrhq/tabpilot/pkg/types"
)

type capturedRequest struct {
	header http.Header
	body   map[string]any
	path   string
}

// newServer returns a server that records each request and replies with status and body.
func newServer(t *testing.T, status int, reply string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		captured = append(captured, capturedRequest{header: r.Header.Clone(), body: body, path: r.URL.Path})
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
	})
	return string(b)
}

func messages(t *testing.T, c capturedRequest) []map[string]any {
	t.Helper()
	raw, ok := c.body["messages"].([]any)
	require.True(t, ok, "messages missing from body: %v", c.body)
	out := make([]map[string]any, 0, len(raw))
	for _, m := range raw {
		out = append(out, m.(map[string]any))
	}
	return out
}

func sampleRequest() *llm.Request {
	return &llm.Request{
		System:  "SYSTEM",
		Message: "find the docs",
		Memory:  []types.MemoryItem{{Key: "lang", Value: "go"}},
		History: []llm.HistoryEntry{
			{Role: types.RoleUser, Content: "hi"},
			{Role: types.RoleAssistant, Content: "hello"},
		},
		Context: &types.TurnContext{
			Title:      "Example",
			URL:        "https://example.com",
			Content:    "page text",
			Screenshot: "data:image/png;base64,U0NSRUVO",
		},
		Attachments: []types.Attachment{
			{Type: types.AttachmentImage, Name: "cat.png", Content: "Q0FU", MimeType: "image/png"},
		},
	}
}

func TestOpenAIBuildsMultimodalTurn(t *testing.T) {
	srv, captured := newServer(t, http.StatusOK, completion(`{"response":"ok"}`))

	a, err := New(llm.Selection{Provider: llm.ProviderOpenAI, APIKey: "sk-test", Model: "gpt-4o-mini"}, WithBaseURL(srv.URL))
	require.NoError(t, err)

	reply, err := a.Send(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"response":"ok"}`, reply)

	require.Len(t, *captured, 1)
	c := (*captured)[0]
	assert.Equal(t, "/chat/completions", c.path)
	assert.Equal(t, "Bearer sk-test", c.header.Get("Authorization"))
	assert.Equal(t, "gpt-4o-mini", c.body["model"])
	assert.Equal(t, map[string]any{"type": "json_object"}, c.body["response_format"])

	msgs := messages(t, c)
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0]["role"])
	assert.Contains(t, msgs[0]["content"], "[User Memory]")
	assert.Equal(t, "assistant", msgs[2]["role"])

	parts := msgs[3]["content"].([]any)
	require.Len(t, parts, 4)
	assert.Equal(t, "find the docs", parts[0].(map[string]any)["text"])
	assert.Contains(t, parts[1].(map[string]any)["text"], "[Current Page Context]")
	assert.Equal(t, "data:image/png;base64,U0NSRUVO", parts[2].(map[string]any)["image_url"].(map[string]any)["url"])
	assert.Equal(t, "data:image/png;base64,Q0FU", parts[3].(map[string]any)["image_url"].(map[string]any)["url"])
}

func TestOpenRouterInlinesContextAndSetsHeaders(t *testing.T) {
	srv, captured := newServer(t, http.StatusOK, completion(`{"thought":"t"}`))

	a, err := New(llm.Selection{Provider: llm.ProviderOpenRouter, APIKey: "or-key"}, WithBaseURL(srv.URL))
	require.NoError(t, err)

	req := sampleRequest()
	req.Attachments = nil
	_, err = a.Send(context.Background(), req)
	require.NoError(t, err)

	c := (*captured)[0]
	assert.Equal(t, "openai/gpt-4o", c.body["model"])
	assert.NotEmpty(t, c.header.Get("HTTP-Referer"))
	assert.Equal(t, "tabpilot", c.header.Get("X-Title"))
	assert.Nil(t, c.body["response_format"])

	msgs := messages(t, c)
	last := msgs[len(msgs)-1]["content"].(string)
	assert.Contains(t, last, "find the docs\n\n[Current Page Context]")
}

func TestPerplexityTextOnlyAlternation(t *testing.T) {
	srv, captured := newServer(t, http.StatusOK, completion("<think>weighing {options}</think>{\"response\":\"sunny\"}"))

	a, err := New(llm.Selection{Provider: llm.ProviderPerplexity, APIKey: "pplx"}, WithBaseURL(srv.URL))
	require.NoError(t, err)

	req := sampleRequest()
	req.History = []llm.HistoryEntry{
		{Role: types.RoleAssistant, Content: "welcome"},
		{Role: types.RoleUser, Content: "q1"},
		{Role: types.RoleAssistant, Content: "a1"},
		{Role: types.RoleAssistant, Content: "a2"},
		{Role: types.RoleUser, Content: "q2"},
	}

	reply, err := a.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, `{"response":"sunny"}`, reply)

	msgs := messages(t, (*captured)[0])
	roles := make([]string, 0, len(msgs))
	for _, m := range msgs {
		roles = append(roles, m["role"].(string))
	}
	assert.Equal(t, []string{"system", "user", "assistant", "user"}, roles)
	assert.Equal(t, "a1\n\na2", msgs[2]["content"])

	last := msgs[3]["content"].(string)
	assert.Contains(t, last, "q2\n\nfind the docs")
	assert.Contains(t, last, "[Image attachment omitted: cat.png]")
	assert.NotContains(t, last, "Q0FU")
}

func TestPerplexityEmptyReplyIsProtocolError(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, completion(""))

	a, err := New(llm.Selection{Provider: llm.ProviderPerplexity, APIKey: "pplx"}, WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = a.Send(context.Background(), &llm.Request{Message: "hi"})
	assert.Equal(t, llm.KindProviderProtocol, llm.KindOf(err))
}

func TestCustomUsesConfiguredEndpointAndModel(t *testing.T) {
	srv, captured := newServer(t, http.StatusOK, `{"choices":[]}`)

	a, err := New(llm.Selection{
		Provider:      llm.ProviderCustom,
		APIKey:        "local",
		Model:         "ignored",
		CustomBaseURL: srv.URL + "/v1/",
		CustomModel:   "llama3",
	})
	require.NoError(t, err)

	reply, err := a.Send(context.Background(), &llm.Request{Message: "hi", Model: "also-ignored"})
	require.NoError(t, err)
	assert.Equal(t, "{}", reply)

	c := (*captured)[0]
	assert.Equal(t, "/v1/chat/completions", c.path)
	assert.Equal(t, "llama3", c.body["model"])
}

func TestStatusErrorsAreClassified(t *testing.T) {
	tests := []struct {
		want   llm.ErrorKind
		status int
	}{
		{status: http.StatusTooManyRequests, want: llm.KindRateLimited},
		{status: http.StatusUnauthorized, want: llm.KindAuthConfig},
		{status: http.StatusInternalServerError, want: llm.KindProviderProtocol},
	}

	for _, tt := range tests {
		srv, _ := newServer(t, tt.status, `{"error":{"message":"nope"}}`)
		a, err := New(llm.Selection{Provider: llm.ProviderOpenAI, APIKey: "sk"}, WithBaseURL(srv.URL))
		require.NoError(t, err)

		_, err = a.Send(context.Background(), &llm.Request{Message: "hi"})
		assert.Equal(t, tt.want, llm.KindOf(err), "status %d", tt.status)
	}
}

func TestMalformedBodyIsProtocolError(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `not json`)
	a, err := New(llm.Selection{Provider: llm.ProviderOpenAI, APIKey: "sk"}, WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = a.Send(context.Background(), &llm.Request{Message: "hi"})
	assert.Equal(t, llm.KindProviderProtocol, llm.KindOf(err))
}

func TestNewRejectsMissingKeyAndForeignProvider(t *testing.T) {
	_, err := New(llm.Selection{Provider: llm.ProviderOpenAI})
	assert.Equal(t, llm.KindAuthConfig, llm.KindOf(err))

	_, err = New(llm.Selection{Provider: llm.ProviderGemini, APIKey: "k"})
	assert.Equal(t, llm.KindAuthConfig, llm.KindOf(err))
}
