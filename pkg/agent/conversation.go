package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/entrhq/tabpilot/pkg/config"
	"github.com/entrhq/tabpilot/pkg/llm"
	"github.com/entrhq/tabpilot/pkg/session"
	"github.com/entrhq/tabpilot/pkg/types"
)

// ErrBusy is returned when a message is sent while a turn is running.
var ErrBusy = errors.New("a request is already in progress")

// Conversation runs turns against the current chat session. It reads the
// provider selection and history window from the settings on every turn,
// so changes made between turns apply to the next one.
type Conversation struct {
	agent    *Agent
	sessions *session.Manager
	cfg      *config.Config

	overrides config.Overrides
	getenv    func(string) string

	busyMu sync.Mutex
	busy   bool

	// Cancellation support
	cancelMu   sync.Mutex
	cancelTurn context.CancelFunc
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithOverrides sets command-line values that win over the settings file.
func WithOverrides(o config.Overrides) ConversationOption {
	return func(c *Conversation) {
		c.overrides = o
	}
}

// WithGetenv replaces os.Getenv for API key lookup.
func WithGetenv(getenv func(string) string) ConversationOption {
	return func(c *Conversation) {
		c.getenv = getenv
	}
}

// NewConversation binds ag to the session store and settings.
func NewConversation(ag *Agent, sessions *session.Manager, cfg *config.Config, opts ...ConversationOption) *Conversation {
	c := &Conversation{
		agent:    ag,
		sessions: sessions,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Overrides returns the command-line overrides in effect.
func (c *Conversation) Overrides() config.Overrides {
	return c.overrides
}

// SetOverrides replaces the command-line overrides, e.g. after the user
// switches provider at runtime.
func (c *Conversation) SetOverrides(o config.Overrides) {
	c.overrides = o
}

// Selection resolves the provider selection for the next turn.
func (c *Conversation) Selection() (llm.Selection, error) {
	return config.BuildSelection(c.cfg.LLM, c.overrides, c.getenv)
}

// Busy reports whether a turn is running.
func (c *Conversation) Busy() bool {
	c.busyMu.Lock()
	defer c.busyMu.Unlock()
	return c.busy
}

// Send appends the user's message to the current session, runs one turn and
// appends the reply. Blank text is ignored and returns (nil, nil), even when
// attachments are present. Turn failures are reported in the returned message; the error
// is reserved for storage failures and ErrBusy.
func (c *Conversation) Send(ctx context.Context, text string, attachments []types.Attachment) (*types.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	c.busyMu.Lock()
	if c.busy {
		c.busyMu.Unlock()
		return nil, ErrBusy
	}
	c.busy = true
	c.busyMu.Unlock()
	defer func() {
		c.busyMu.Lock()
		c.busy = false
		c.busyMu.Unlock()
	}()

	// History is taken before the new message; the request carries it
	// separately.
	_, window := c.cfg.Agent.Limits()
	history := llm.HistoryFromMessages(c.sessions.Tail(window))

	if _, err := c.sessions.AppendMessage(*types.NewUserMessage(text, attachments...)); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.cancelMu.Lock()
	c.cancelTurn = cancel
	c.cancelMu.Unlock()

	defer func() {
		c.cancelMu.Lock()
		c.cancelTurn = nil
		c.cancelMu.Unlock()
	}()

	var (
		reply *types.Message
		page  *types.TurnContext
	)
	sel, err := c.Selection()
	if err != nil {
		reply = types.NewErrorMessage(err)
	} else {
		reply, page = c.agent.runTurn(turnCtx, Turn{
			Text:        text,
			Attachments: attachments,
			History:     history,
			Selection:   sel,
			Memory:      c.sessions.Memory(),
		})
	}

	if _, err := c.sessions.AppendMessage(*reply); err != nil {
		return reply, fmt.Errorf("failed to save reply: %w", err)
	}
	if err := c.sessions.RecordInteraction(page, text, reply.Content); err != nil {
		agentDebugLog.Warnf("failed to record interaction: %v", err)
	}
	return reply, nil
}

// SelectOption answers an ask_selection question with opt.
func (c *Conversation) SelectOption(ctx context.Context, opt types.Option) (*types.Message, error) {
	return c.Send(ctx, types.OptionSelectionText(opt), nil)
}

// Cancel stops the running turn, if any. The turn ends with an error message.
func (c *Conversation) Cancel() {
	c.cancelMu.Lock()
	defer c.cancelMu.Unlock()
	if c.cancelTurn != nil {
		c.cancelTurn()
		c.cancelTurn = nil
	}
}
