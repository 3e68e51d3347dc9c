package types

import (
	"errors"
	"strings"
	"testing"
)

func TestChatSessionAutoTitle(t *testing.T) {
	s := NewChatSession()
	if s.Title != DefaultSessionTitle {
		t.Fatalf("Title = %q, want %q", s.Title, DefaultSessionTitle)
	}

	s.Append(*NewUserMessage("search for the cheapest flight from Lisbon to Berlin"))
	if s.Title != "search for the cheapest flight..." {
		t.Errorf("Title = %q", s.Title)
	}

	s.Append(*NewUserMessage("something else entirely"))
	if !strings.HasPrefix(s.Title, "search for") {
		t.Errorf("Title changed after first message: %q", s.Title)
	}
}

func TestChatSessionRenamedTitleKept(t *testing.T) {
	s := NewChatSession()
	s.Title = "Travel"
	s.Append(*NewUserMessage("hello"))
	if s.Title != "Travel" {
		t.Errorf("Title = %q, want Travel", s.Title)
	}
}

func TestDeriveTitleShortAndMultibyte(t *testing.T) {
	if got := DeriveTitle("  hi  "); got != "hi..." {
		t.Errorf("DeriveTitle = %q", got)
	}
	long := strings.Repeat("é", 40)
	if got := DeriveTitle(long); got != strings.Repeat("é", 30)+"..." {
		t.Errorf("DeriveTitle cut mid-rune: %q", got)
	}
}

func TestChatSessionTail(t *testing.T) {
	s := NewChatSession()
	for i := 0; i < 15; i++ {
		s.Append(*NewUserMessage(string(rune('a' + i))))
	}

	tail := s.Tail(10)
	if len(tail) != 10 {
		t.Fatalf("len(Tail) = %d, want 10", len(tail))
	}
	if tail[0].Content != "f" || tail[9].Content != "o" {
		t.Errorf("Tail = %q..%q", tail[0].Content, tail[9].Content)
	}

	tail[0].Content = "mutated"
	if s.Messages[5].Content != "f" {
		t.Error("Tail must not alias session storage")
	}

	if s.Tail(0) != nil {
		t.Error("Tail(0) should be nil")
	}
}

func TestErrorMessageAndOptions(t *testing.T) {
	msg := NewErrorMessage(errors.New("no key"))
	if msg.Role != RoleAssistant || msg.Content != "Error: no key" {
		t.Errorf("NewErrorMessage = %+v", msg)
	}

	text := OptionSelectionText(Option{Label: "Blue", Value: "b"})
	if text != "Selected option: Blue (ID: b)" {
		t.Errorf("OptionSelectionText = %q", text)
	}
}

func TestAttachmentDataURL(t *testing.T) {
	a := Attachment{Type: AttachmentImage, Content: "QUJD", MimeType: "image/png"}
	if got := a.DataURL(); got != "data:image/png;base64,QUJD" {
		t.Errorf("DataURL = %q", got)
	}
	a.Content = "data:image/jpeg;base64,QUJD"
	if got := a.DataURL(); got != a.Content {
		t.Errorf("DataURL rewrote an existing data URL: %q", got)
	}
	if !a.IsImage() {
		t.Error("IsImage = false")
	}
}
