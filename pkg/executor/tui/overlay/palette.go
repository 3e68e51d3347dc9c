package overlay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/entrhq/tabpilot/pkg/executor/tui/types"
)

// paletteRows is the number of commands visible at once.
const paletteRows = 6

// CommandItem represents a command in the palette
type CommandItem struct {
	Name        string
	Description string
	// Usage lists the arguments, e.g. "<n>" or "add <key>=<value>"
	Usage string
}

// CommandPalette suggests slash commands while the user types after "/".
type CommandPalette struct {
	commands []CommandItem
	filtered []CommandItem
	selected int
	filter   string
	active   bool
}

// NewCommandPalette creates a new command palette
func NewCommandPalette(commands []CommandItem) *CommandPalette {
	return &CommandPalette{
		commands: commands,
		filtered: commands,
	}
}

// Activate shows the command palette with no filter.
func (cp *CommandPalette) Activate() {
	cp.active = true
	cp.filter = ""
	cp.selected = 0
	cp.refilter()
}

// Deactivate hides the command palette
func (cp *CommandPalette) Deactivate() {
	cp.active = false
	cp.filter = ""
	cp.selected = 0
}

// UpdateFilter narrows the list. The selection resets only when the filter
// changes.
func (cp *CommandPalette) UpdateFilter(filter string) {
	f := strings.ToLower(strings.TrimSpace(filter))
	if f == cp.filter {
		return
	}
	cp.filter = f
	cp.selected = 0
	cp.refilter()
}

// refilter ranks fuzzy name matches by score, then commands whose
// description contains the filter, in registration order.
func (cp *CommandPalette) refilter() {
	if cp.filter == "" {
		cp.filtered = cp.commands
		return
	}

	names := make([]string, len(cp.commands))
	for i, c := range cp.commands {
		names[i] = c.Name
	}

	// The first word is the command; arguments typed after it don't filter.
	pattern, _, _ := strings.Cut(cp.filter, " ")
	matched := make(map[int]bool)
	out := make([]CommandItem, 0, len(cp.commands))
	for _, m := range fuzzy.Find(pattern, names) {
		matched[m.Index] = true
		out = append(out, cp.commands[m.Index])
	}
	for i, c := range cp.commands {
		if !matched[i] && strings.Contains(strings.ToLower(c.Description), cp.filter) {
			out = append(out, c)
		}
	}
	cp.filtered = out
}

// SelectNext moves selection down, wrapping at the end.
func (cp *CommandPalette) SelectNext() {
	if n := len(cp.filtered); n > 0 {
		cp.selected = (cp.selected + 1) % n
	}
}

// SelectPrev moves selection up, wrapping at the top.
func (cp *CommandPalette) SelectPrev() {
	if n := len(cp.filtered); n > 0 {
		cp.selected = (cp.selected - 1 + n) % n
	}
}

// GetSelected returns the highlighted command, or nil when nothing matches.
func (cp *CommandPalette) GetSelected() *CommandItem {
	if cp.selected < 0 || cp.selected >= len(cp.filtered) {
		return nil
	}
	return &cp.filtered[cp.selected]
}

// Filtered returns the commands matching the current filter.
func (cp *CommandPalette) Filtered() []CommandItem {
	return cp.filtered
}

// IsActive returns whether the palette is active
func (cp *CommandPalette) IsActive() bool {
	return cp.active
}

// window returns the visible slice bounds, keeping the selection in view.
func (cp *CommandPalette) window() (start, end int) {
	end = len(cp.filtered)
	if end <= paletteRows {
		return 0, end
	}
	start = cp.selected - paletteRows + 1
	if start < 0 {
		start = 0
	}
	return start, start + paletteRows
}

// Render draws the palette box, or "" when it is hidden or empty.
func (cp *CommandPalette) Render(width int) string {
	if !cp.active || len(cp.filtered) == 0 {
		return ""
	}

	boxWidth := clamp(width*80/100, 40, 80)

	nameStyle := lipgloss.NewStyle().Foreground(types.SalmonPink)
	descStyle := lipgloss.NewStyle().Foreground(types.MutedGray)
	hintStyle := descStyle.Italic(true).PaddingLeft(1)
	rowStyle := lipgloss.NewStyle().Background(types.PaletteBg).Width(boxWidth - 2).PaddingLeft(1)

	var sb strings.Builder
	sb.WriteString(lipgloss.NewStyle().Foreground(types.SalmonPink).Bold(true).PaddingLeft(1).Render("Commands"))
	sb.WriteString("\n")

	start, end := cp.window()
	if start > 0 {
		sb.WriteString(hintStyle.Render("↑ more"))
		sb.WriteString("\n")
	}
	for i := start; i < end; i++ {
		if i == cp.selected {
			sb.WriteString(rowStyle.Render("> " + renderItem(cp.filtered[i], nameStyle.Bold(true), descStyle)))
		} else {
			sb.WriteString("  " + renderItem(cp.filtered[i], nameStyle, descStyle))
		}
		sb.WriteString("\n")
	}
	if end < len(cp.filtered) {
		sb.WriteString(hintStyle.Render("↓ more, keep typing to filter"))
		sb.WriteString("\n")
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(types.SalmonPink).
		Width(boxWidth).
		Padding(0, 1).
		Render(sb.String())
}

func renderItem(cmd CommandItem, nameStyle, descStyle lipgloss.Style) string {
	name := "/" + cmd.Name
	if cmd.Usage != "" {
		name += " " + cmd.Usage
	}
	return nameStyle.Render(name) + "  " + descStyle.Render(cmd.Description)
}
