package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageRole identifies who authored a chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"      // RoleUser marks messages typed by the user.
	RoleAssistant MessageRole = "assistant" // RoleAssistant marks messages produced by the agent.
)

// Option is a selectable choice attached to an assistant message.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Message is a single entry in a chat session.
// Messages are immutable once appended to a session.
type Message struct {
	ID          string       `json:"id"`
	Role        MessageRole  `json:"role"`
	Content     string       `json:"content"`
	Timestamp   int64        `json:"timestamp"`
	Image       string       `json:"image,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Options     []Option     `json:"options,omitempty"`
	Thought     string       `json:"thought,omitempty"`
}

// NewUserMessage creates a user message stamped with the current time.
func NewUserMessage(content string, attachments ...Attachment) *Message {
	return &Message{
		ID:          uuid.New().String(),
		Role:        RoleUser,
		Content:     content,
		Timestamp:   time.Now().UnixMilli(),
		Attachments: attachments,
	}
}

// NewAssistantMessage creates an assistant message carrying the final answer
// and the last thought the agent reported.
func NewAssistantMessage(content, thought string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Role:      RoleAssistant,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
		Thought:   thought,
	}
}

// NewErrorMessage creates the single assistant message used to report a failed turn.
func NewErrorMessage(err error) *Message {
	return NewAssistantMessage(fmt.Sprintf("Error: %v", err), "")
}

// OptionSelectionText renders the user reply sent when an option is picked.
func OptionSelectionText(opt Option) string {
	return fmt.Sprintf("Selected option: %s (ID: %s)", opt.Label, opt.Value)
}

// AttachmentType classifies an attachment payload.
type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentText  AttachmentType = "text"
	AttachmentFile  AttachmentType = "file"
)

// Attachment is user-supplied content sent alongside the next message only.
// Content holds base64 (optionally as a data URL) for binary payloads and raw
// text for text attachments.
type Attachment struct {
	Type     AttachmentType `json:"type"`
	Content  string         `json:"content"`
	Name     string         `json:"name"`
	MimeType string         `json:"mimeType"`
}

// IsImage reports whether the attachment carries image data.
func (a Attachment) IsImage() bool {
	return a.Type == AttachmentImage
}

// DataURL returns the attachment content as a data URL.
// Content that is already a data URL is returned unchanged.
func (a Attachment) DataURL() string {
	if len(a.Content) > 5 && a.Content[:5] == "data:" {
		return a.Content
	}
	mime := a.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	return "data:" + mime + ";base64," + a.Content
}

// MemoryItem is a user-declared fact injected into every provider call.
type MemoryItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
