package agent

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/tabpilot/pkg/config"
	"github.com/entrhq/tabpilot/pkg/llm"
	"github.com/entrhq/tabpilot/pkg/session"
	"github.com/entrhq/tabpilot/pkg/types"
)

func geminiKeyEnv(key string) func(string) string {
	info, _ := llm.Info(llm.ProviderGemini)
	return func(name string) string {
		if name == info.EnvKey {
			return key
		}
		return ""
	}
}

func newTestConversation(t *testing.T, adapter llm.Adapter, getenv func(string) string) (*Conversation, *session.Manager, *config.Config) {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	sessions := session.NewManager(session.NewMemoryKV())
	require.NoError(t, sessions.Load())

	ag := newTestAgent(adapter, &recordingRunner{})
	return NewConversation(ag, sessions, cfg, WithGetenv(getenv)), sessions, cfg
}

func TestConversationSendPersistsTurn(t *testing.T) {
	adapter := &scriptedAdapter{replies: []func(*llm.Request) (string, error){
		reply(`{"thought":"simple","response":"Hello there"}`),
	}}
	conv, sessions, _ := newTestConversation(t, adapter, geminiKeyEnv("env-key"))
	require.NoError(t, sessions.AddMemory("name", "Sam"))

	msg, err := conv.Send(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello there", msg.Content)

	current := sessions.Current()
	require.NotNil(t, current)
	require.Len(t, current.Messages, 2)
	assert.Equal(t, types.RoleUser, current.Messages[0].Role)
	assert.Equal(t, "hi", current.Messages[0].Content)
	assert.Equal(t, "Hello there", current.Messages[1].Content)
	assert.Equal(t, "hi...", current.Title)

	calls := adapter.calls()
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].History)
	assert.Equal(t, []types.MemoryItem{{Key: "name", Value: "Sam"}}, calls[0].Memory)

	history, err := sessions.History()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "https://example.com", history[0].URL)
	assert.Equal(t, "hi", history[0].UserMessage)
	assert.Equal(t, "Hello there", history[0].AIResponse)
}

func TestConversationHistoryWindow(t *testing.T) {
	adapter := &scriptedAdapter{replies: []func(*llm.Request) (string, error){
		reply(`{"response":"ok"}`),
	}}
	conv, sessions, cfg := newTestConversation(t, adapter, geminiKeyEnv("env-key"))
	for i := 0; i < 12; i++ {
		_, err := sessions.AppendMessage(*types.NewUserMessage("old"))
		require.NoError(t, err)
	}

	_, err := conv.Send(context.Background(), "new", nil)
	require.NoError(t, err)

	_, window := cfg.Agent.Limits()
	calls := adapter.calls()
	require.Len(t, calls, 1)
	assert.Len(t, calls[0].History, window)
	assert.Equal(t, "new", calls[0].Message)
}

func TestConversationMissingKey(t *testing.T) {
	adapter := &scriptedAdapter{}
	conv, sessions, _ := newTestConversation(t, adapter, geminiKeyEnv(""))

	msg, err := conv.Send(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "Error: API key is missing, please set it in settings", msg.Content)
	assert.Empty(t, adapter.calls())
	assert.Len(t, sessions.Current().Messages, 2)
}

func TestConversationUsesConfiguredKey(t *testing.T) {
	adapter := &scriptedAdapter{replies: []func(*llm.Request) (string, error){
		reply(`{"response":"ok"}`),
	}}
	conv, _, cfg := newTestConversation(t, adapter, geminiKeyEnv(""))
	cfg.LLM.SetAPIKey(llm.ProviderGemini, "file-key")

	sel, err := conv.Selection()
	require.NoError(t, err)
	assert.Equal(t, "file-key", sel.APIKey)

	msg, err := conv.Send(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.Content)
}

func TestConversationBlankInput(t *testing.T) {
	adapter := &scriptedAdapter{}
	conv, sessions, _ := newTestConversation(t, adapter, geminiKeyEnv("k"))

	msg, err := conv.Send(context.Background(), "  ", nil)
	require.NoError(t, err)
	assert.Nil(t, msg)
	assert.Nil(t, sessions.Current())

	// Attachments alone do not start a turn.
	att := []types.Attachment{{Name: "notes.txt", Type: types.AttachmentText, Content: "hello"}}
	msg, err = conv.Send(context.Background(), "\n", att)
	require.NoError(t, err)
	assert.Nil(t, msg)
	assert.Nil(t, sessions.Current())
	assert.Empty(t, adapter.calls())
}

func TestConversationSelectOption(t *testing.T) {
	adapter := &scriptedAdapter{replies: []func(*llm.Request) (string, error){
		reply(`{"response":"opening B"}`),
	}}
	conv, _, _ := newTestConversation(t, adapter, geminiKeyEnv("k"))

	_, err := conv.SelectOption(context.Background(), types.Option{Label: "Second", Value: "b"})
	require.NoError(t, err)

	calls := adapter.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Selected option: Second (ID: b)", calls[0].Message)
}

func TestConversationCancelAndBusy(t *testing.T) {
	started := make(chan struct{})
	adapter := llm.AdapterFunc{ID: llm.ProviderGemini, Fn: func(ctx context.Context, req *llm.Request) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}}
	conv, _, _ := newTestConversation(t, adapter, geminiKeyEnv("k"))

	done := make(chan *types.Message, 1)
	go func() {
		msg, _ := conv.Send(context.Background(), "slow", nil)
		done <- msg
	}()

	<-started
	assert.True(t, conv.Busy())
	_, err := conv.Send(context.Background(), "another", nil)
	assert.ErrorIs(t, err, ErrBusy)

	conv.Cancel()
	msg := <-done
	require.NotNil(t, msg)
	assert.Equal(t, "Error: context canceled", msg.Content)
	assert.False(t, conv.Busy())
}
