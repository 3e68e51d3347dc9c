package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/entrhq/tabpilot/pkg/types"
)

// markdown renders an assistant reply with glamour, falling back to plain
// wrapped text when no renderer can be built.
func (m *model) markdown(text string) string {
	style, wrap := "auto", 100
	if m.cfg != nil {
		style, wrap = m.cfg.UI.RenderSettings()
	}
	if m.width > 0 && m.width-6 < wrap {
		wrap = m.width - 6
	}

	if m.renderer == nil || m.rendererWidth != wrap {
		opts := []glamour.TermRendererOption{glamour.WithWordWrap(wrap)}
		if style == "auto" {
			opts = append(opts, glamour.WithAutoStyle())
		} else {
			opts = append(opts, glamour.WithStandardStyle(style))
		}
		r, err := glamour.NewTermRenderer(opts...)
		if err != nil {
			debugLog.Warnf("markdown renderer unavailable: %v", err)
			return wordWrap(text, wrap)
		}
		m.renderer = r
		m.rendererWidth = wrap
	}

	out, err := m.renderer.Render(text)
	if err != nil {
		return wordWrap(text, wrap)
	}
	return strings.Trim(out, "\n")
}

// showThoughts reports whether thoughts are displayed.
func (m *model) showThoughts() bool {
	return m.cfg == nil || m.cfg.UI.ThoughtsVisible()
}

// appendMessage renders one stored chat message into the content buffer.
func (m *model) appendMessage(msg types.Message) {
	switch msg.Role {
	case types.RoleUser:
		text := msg.Content
		for _, a := range msg.Attachments {
			text += "\n📎 " + a.Name
		}
		m.content.WriteString(strings.TrimRight(formatEntry("You: ", text, userStyle, m.width, true), "\n"))
		m.content.WriteString("\n\n")

	case types.RoleAssistant:
		if strings.HasPrefix(msg.Content, "Error: ") {
			m.content.WriteString(errorStyle.Render("  ❌ " + msg.Content))
			m.content.WriteString("\n\n")
			return
		}
		m.content.WriteString(assistantStyle.Render("TabPilot:"))
		m.content.WriteString("\n")
		m.content.WriteString(m.markdown(msg.Content))
		m.content.WriteString("\n")
		for i, opt := range msg.Options {
			m.content.WriteString(optionStyle.Render(formatOption(i, opt)))
			m.content.WriteString("\n")
		}
		m.content.WriteString("\n")
	}
}

// renderSession redraws the whole chat from the current session.
func (m *model) renderSession() {
	m.content.Reset()
	m.options = nil
	m.optionIndex = 0
	m.lastReply = ""

	if m.sessions == nil {
		m.refreshViewport()
		return
	}
	if current := m.sessions.Current(); current != nil {
		for _, msg := range current.Messages {
			m.appendMessage(msg)
			if msg.Role == types.RoleAssistant {
				m.lastReply = msg.Content
			}
		}
		// Options stay answerable only while they are the last thing said.
		if n := len(current.Messages); n > 0 && len(current.Messages[n-1].Options) > 0 {
			m.options = current.Messages[n-1].Options
		}
	}
	m.refreshViewport()
}

// refreshViewport pushes the content buffer to the viewport.
func (m *model) refreshViewport() {
	m.viewport.SetContent(m.content.String())
	m.viewport.GotoBottom()
}
