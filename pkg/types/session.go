package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultSessionTitle is the title of a session until its first message arrives.
	DefaultSessionTitle = "New Chat"

	// LegacySessionTitle is the title given to history migrated from the flat message list.
	LegacySessionTitle = "Previous Chat"

	titleLength = 30
)

// ChatSession is an ordered conversation with a title.
type ChatSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	Timestamp int64     `json:"timestamp"`
}

// NewChatSession creates an empty session with the default title.
func NewChatSession() *ChatSession {
	return &ChatSession{
		ID:        uuid.New().String(),
		Title:     DefaultSessionTitle,
		Messages:  []Message{},
		Timestamp: time.Now().UnixMilli(),
	}
}

// Append adds a message and derives the title from the first message while
// the session still carries the default title.
func (s *ChatSession) Append(msg Message) {
	s.Messages = append(s.Messages, msg)
	if s.Title == DefaultSessionTitle && len(s.Messages) > 0 {
		s.Title = DeriveTitle(s.Messages[0].Content)
	}
}

// Tail returns the last n messages of the session.
func (s *ChatSession) Tail(n int) []Message {
	if n <= 0 || len(s.Messages) == 0 {
		return nil
	}
	if len(s.Messages) <= n {
		return append([]Message(nil), s.Messages...)
	}
	return append([]Message(nil), s.Messages[len(s.Messages)-n:]...)
}

// DeriveTitle builds a session title from the opening message.
func DeriveTitle(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) > titleLength {
		runes = runes[:titleLength]
	}
	return string(runes) + "..."
}
