package overlay

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/tabpilot/pkg/executor/tui/types"
)

const defaultTextFooter = "↑/↓ scroll • Enter or Esc to close"

// TextOverlay shows read-only text in a scrollable modal: help, the session
// list, memory, reminders and interaction history.
type TextOverlay struct {
	viewport viewport.Model
	title    string
	footer   string
	width    int
	height   int
	focused  bool
}

// NewTextOverlay creates a text overlay sized to the terminal.
func NewTextOverlay(title, content, footer string, width, height int) *TextOverlay {
	w := clamp(width-8, 40, 100)
	h := clamp(height-6, 10, 40)
	if footer == "" {
		footer = defaultTextFooter
	}

	vp := viewport.New(w-6, h-6)
	vp.Style = lipgloss.NewStyle()
	vp.SetContent(content)

	return &TextOverlay{
		viewport: vp,
		title:    title,
		footer:   footer,
		width:    w,
		height:   h,
		focused:  true,
	}
}

// Update scrolls on arrow and page keys. Enter, Esc and Ctrl+C close the
// overlay by returning nil.
func (t *TextOverlay) Update(msg tea.Msg, state types.StateProvider, actions types.ActionHandler) (types.Overlay, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case keyEsc, keyCtrlC, keyEnter:
			return nil, nil
		}
		switch msg.Type {
		case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown, tea.KeyHome, tea.KeyEnd:
			var cmd tea.Cmd
			t.viewport, cmd = t.viewport.Update(msg)
			return t, cmd
		}
	case tea.MouseMsg:
		var cmd tea.Cmd
		t.viewport, cmd = t.viewport.Update(msg)
		return t, cmd
	case tea.WindowSizeMsg:
		t.SetDimensions(clamp(msg.Width-8, 40, 100), clamp(msg.Height-6, 10, 40))
	}
	return t, nil
}

// Title returns the overlay title.
func (t *TextOverlay) Title() string {
	return t.title
}

// View renders the title, the scrolled text and the footer.
func (t *TextOverlay) View() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		types.OverlayTitleStyle.Render(t.title),
		t.viewport.View(),
		types.OverlayHelpStyle.Render(t.footer),
	)
	return types.CreateOverlayContainerStyle(t.viewport.Width).Render(content)
}

func (t *TextOverlay) Width() int  { return t.width }
func (t *TextOverlay) Height() int { return t.height }

// SetDimensions resizes the overlay and its viewport.
func (t *TextOverlay) SetDimensions(width, height int) {
	t.width, t.height = width, height
	t.viewport.Width = width - 6
	t.viewport.Height = height - 6
}

func (t *TextOverlay) Focused() bool     { return t.focused }
func (t *TextOverlay) SetFocused(f bool) { t.focused = f }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
