package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/tabpilot/pkg/executor/tui/overlay"
	tuitypes "github.com/entrhq/tabpilot/pkg/executor/tui/types"
	"github.com/entrhq/tabpilot/pkg/llm"
	"github.com/entrhq/tabpilot/pkg/types"
)

// CommandHandler processes a slash command and returns either:
// - tea.Cmd for deferred work
// - nil for commands that completed synchronously
// The model is passed as a pointer and can be modified directly.
type CommandHandler func(m *model, args []string) interface{}

// SlashCommand represents a registered command
type SlashCommand struct {
	Name        string         // Command name (without /)
	Usage       string         // Argument synopsis for the palette
	Description string         // Short description for palette
	Handler     CommandHandler // Handler function
	MinArgs     int            // Minimum number of arguments
	MaxArgs     int            // Maximum number of arguments (-1 for unlimited)
	IdleOnly    bool           // Rejected while a turn is running
}

// commandRegistry holds all registered slash commands
var commandRegistry map[string]*SlashCommand

// init initializes the command registry with built-in commands
func init() {
	commandRegistry = make(map[string]*SlashCommand)

	registerCommand(&SlashCommand{Name: "help", Description: "Show commands and keyboard shortcuts", Handler: handleHelpCommand})
	registerCommand(&SlashCommand{Name: "stop", Description: "Stop the current request", Handler: handleStopCommand})
	registerCommand(&SlashCommand{Name: "new", Description: "Start a new chat", Handler: handleNewCommand, IdleOnly: true})
	registerCommand(&SlashCommand{Name: "sessions", Description: "List saved chats", Handler: handleSessionsCommand})
	registerCommand(&SlashCommand{Name: "switch", Usage: "<n>", Description: "Open a saved chat", Handler: handleSwitchCommand, MinArgs: 1, MaxArgs: 1, IdleOnly: true})
	registerCommand(&SlashCommand{Name: "rename", Usage: "<title>", Description: "Rename the current chat", Handler: handleRenameCommand, MinArgs: 1, MaxArgs: -1})
	registerCommand(&SlashCommand{Name: "delete", Usage: "[n]", Description: "Delete the current or n-th chat", Handler: handleDeleteCommand, MaxArgs: 1, IdleOnly: true})
	registerCommand(&SlashCommand{Name: "memory", Usage: "[add <key>=<value> | rm <n>]", Description: "Show or edit saved memory", Handler: handleMemoryCommand, MaxArgs: -1})
	registerCommand(&SlashCommand{Name: "reminders", Usage: "[rm|dismiss <n> | snooze <n> <minutes>]", Description: "Show or manage reminders", Handler: handleRemindersCommand, MaxArgs: 3})
	registerCommand(&SlashCommand{Name: "history", Description: "Show recent interactions", Handler: handleHistoryCommand})
	registerCommand(&SlashCommand{Name: "provider", Usage: "[id] [model]", Description: "Show or switch the AI provider", Handler: handleProviderCommand, MaxArgs: 2, IdleOnly: true})
	registerCommand(&SlashCommand{Name: "key", Usage: "[provider] <api-key>", Description: "Save an API key", Handler: handleKeyCommand, MinArgs: 1, MaxArgs: 2})
	registerCommand(&SlashCommand{Name: "attach", Usage: "<path>", Description: "Attach a file to the next message", Handler: handleAttachCommand, MinArgs: 1, MaxArgs: -1})
	registerCommand(&SlashCommand{Name: "detach", Description: "Drop pending attachments", Handler: handleDetachCommand})
	registerCommand(&SlashCommand{Name: "copy", Description: "Copy the last answer to the clipboard", Handler: handleCopyCommand})
	registerCommand(&SlashCommand{Name: "thoughts", Description: "Toggle showing the agent's thoughts", Handler: handleThoughtsCommand})
	registerCommand(&SlashCommand{Name: "quit", Description: "Exit TabPilot", Handler: handleQuitCommand})
}

// registerCommand adds a command to the registry
func registerCommand(cmd *SlashCommand) {
	commandRegistry[cmd.Name] = cmd
}

// getCommand retrieves a command from the registry
func getCommand(name string) (*SlashCommand, bool) {
	cmd, exists := commandRegistry[name]
	return cmd, exists
}

// getAllCommands returns all registered commands sorted by name
func getAllCommands() []*SlashCommand {
	commands := make([]*SlashCommand, 0, len(commandRegistry))
	for _, cmd := range commandRegistry {
		commands = append(commands, cmd)
	}
	sort.Slice(commands, func(i, j int) bool { return commands[i].Name < commands[j].Name })
	return commands
}

// paletteItems lists the commands for the command palette.
func paletteItems() []overlay.CommandItem {
	commands := getAllCommands()
	items := make([]overlay.CommandItem, 0, len(commands))
	for _, cmd := range commands {
		items = append(items, overlay.CommandItem{Name: cmd.Name, Description: cmd.Description, Usage: cmd.Usage})
	}
	return items
}

// parseSlashCommand parses a slash command input into command name and arguments
// Returns: commandName, args, isCommand
func parseSlashCommand(input string) (string, []string, bool) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") {
		return "", nil, false
	}

	parts := strings.Fields(trimmed[1:])
	if len(parts) == 0 {
		return "", nil, false
	}

	return strings.ToLower(parts[0]), parts[1:], true
}

// executeSlashCommand executes a slash command
func executeSlashCommand(m *model, commandName string, args []string) (*model, tea.Cmd) {
	cmd, exists := getCommand(commandName)
	if !exists {
		m.ShowToast("Unknown command", fmt.Sprintf("Command '/%s' not found. Type /help for available commands.", commandName), "❌", true)
		return m, nil
	}

	if len(args) < cmd.MinArgs {
		m.ShowToast("Invalid arguments", fmt.Sprintf("Usage: /%s %s", cmd.Name, cmd.Usage), "❌", true)
		return m, nil
	}
	if cmd.MaxArgs != -1 && len(args) > cmd.MaxArgs {
		m.ShowToast("Invalid arguments", fmt.Sprintf("Usage: /%s %s", cmd.Name, cmd.Usage), "❌", true)
		return m, nil
	}
	if cmd.IdleOnly && m.agentBusy {
		m.ShowToast("Busy", fmt.Sprintf("'/%s' is unavailable while a request is running", cmd.Name), "⏳", true)
		return m, nil
	}

	switch v := cmd.Handler(m, args).(type) {
	case tea.Cmd:
		return m, v
	case func() tea.Msg:
		return m, tea.Cmd(v)
	case nil:
		return m, nil
	default:
		m.ShowToast("Command Error", fmt.Sprintf("Command '/%s' returned unexpected type", commandName), "❌", true)
		return m, nil
	}
}

// showText opens a read-only overlay.
func (m *model) showText(mode tuitypes.OverlayMode, title, content string) {
	m.overlay.activate(mode, overlay.NewTextOverlay(title, content, "", m.width, m.height))
}

// parseIndex parses a 1-based index argument against a list of length n.
func parseIndex(arg string, n int) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil || i < 1 || i > n {
		return 0, fmt.Errorf("expected a number between 1 and %d, got %q", n, arg)
	}
	return i - 1, nil
}

func handleHelpCommand(m *model, args []string) interface{} {
	var help strings.Builder
	help.WriteString("Commands:\n\n")
	for _, cmd := range getAllCommands() {
		name := "/" + cmd.Name
		if cmd.Usage != "" {
			name += " " + cmd.Usage
		}
		help.WriteString(fmt.Sprintf("  %s\n    %s\n\n", name, cmd.Description))
	}

	help.WriteString("Keyboard Shortcuts:\n\n")
	help.WriteString("  Enter        Send message or pick the highlighted option\n")
	help.WriteString("  Alt+Enter    New line\n")
	help.WriteString("  ↑/↓          Move between options\n")
	help.WriteString("  Esc          Stop the current request\n")
	help.WriteString("  PgUp/PgDn    Scroll the chat\n")
	help.WriteString("  Ctrl+K       Toggle the command palette\n")
	help.WriteString("  Ctrl+C       Exit\n")

	m.showText(tuitypes.OverlayModeHelp, "Help", help.String())
	return nil
}

func handleStopCommand(m *model, args []string) interface{} {
	if !m.agentBusy {
		m.ShowToast("Nothing to stop", "No request is running", "ℹ️", false)
		return nil
	}
	m.conv.Cancel()
	m.ShowToast("Stopping", "Cancelling the current request", "⏹️", false)
	return nil
}

func handleNewCommand(m *model, args []string) interface{} {
	if _, err := m.sessions.NewSession(); err != nil {
		m.ShowToast("Could not start a chat", err.Error(), "❌", true)
		return nil
	}
	m.renderSession()
	m.ShowToast("New chat", "Started a new chat", "✨", false)
	return nil
}

func handleSessionsCommand(m *model, args []string) interface{} {
	list := m.sessions.Sessions()
	if len(list) == 0 {
		m.ShowToast("No chats", "Send a message to start one", "ℹ️", false)
		return nil
	}

	current := m.sessions.CurrentID()
	var b strings.Builder
	for i, s := range list {
		marker := "  "
		if s.ID == current {
			marker = "▶ "
		}
		when := time.UnixMilli(s.Timestamp).Format("2006-01-02 15:04")
		b.WriteString(fmt.Sprintf("%s%d. %s  (%d messages, %s)\n", marker, i+1, s.Title, len(s.Messages), when))
	}
	b.WriteString("\nUse /switch <n> to open a chat, /delete <n> to remove one.")
	m.showText(tuitypes.OverlayModeSessions, "Chats", b.String())
	return nil
}

func handleSwitchCommand(m *model, args []string) interface{} {
	list := m.sessions.Sessions()
	i, err := parseIndex(args[0], len(list))
	if err != nil {
		m.ShowToast("Invalid chat", err.Error(), "❌", true)
		return nil
	}
	if err := m.sessions.SelectSession(list[i].ID); err != nil {
		m.ShowToast("Could not switch chat", err.Error(), "❌", true)
		return nil
	}
	m.renderSession()
	return nil
}

func handleRenameCommand(m *model, args []string) interface{} {
	current, err := m.sessions.EnsureCurrent()
	if err != nil {
		m.ShowToast("Could not rename chat", err.Error(), "❌", true)
		return nil
	}
	title := strings.Join(args, " ")
	if err := m.sessions.RenameSession(current.ID, title); err != nil {
		m.ShowToast("Could not rename chat", err.Error(), "❌", true)
		return nil
	}
	m.ShowToast("Renamed", title, "✏️", false)
	return nil
}

func handleDeleteCommand(m *model, args []string) interface{} {
	id := m.sessions.CurrentID()
	if len(args) == 1 {
		list := m.sessions.Sessions()
		i, err := parseIndex(args[0], len(list))
		if err != nil {
			m.ShowToast("Invalid chat", err.Error(), "❌", true)
			return nil
		}
		id = list[i].ID
	}
	if id == "" {
		m.ShowToast("Nothing to delete", "There is no current chat", "ℹ️", false)
		return nil
	}
	if err := m.sessions.DeleteSession(id); err != nil {
		m.ShowToast("Could not delete chat", err.Error(), "❌", true)
		return nil
	}
	m.renderSession()
	m.ShowToast("Deleted", "Chat removed", "🗑️", false)
	return nil
}

func handleMemoryCommand(m *model, args []string) interface{} {
	if len(args) == 0 {
		items := m.sessions.Memory()
		if len(items) == 0 {
			m.ShowToast("Memory is empty", "Add facts with /memory add <key>=<value>", "ℹ️", false)
			return nil
		}
		var b strings.Builder
		for i, item := range items {
			b.WriteString(fmt.Sprintf("%d. %s: %s\n", i+1, item.Key, item.Value))
		}
		b.WriteString("\nUse /memory rm <n> to forget an item.")
		m.showText(tuitypes.OverlayModeMemory, "Memory", b.String())
		return nil
	}

	switch strings.ToLower(args[0]) {
	case "add":
		key, value, ok := strings.Cut(strings.Join(args[1:], " "), "=")
		if !ok {
			m.ShowToast("Invalid memory", "Usage: /memory add <key>=<value>", "❌", true)
			return nil
		}
		if err := m.sessions.AddMemory(key, value); err != nil {
			m.ShowToast("Invalid memory", err.Error(), "❌", true)
			return nil
		}
		m.ShowToast("Remembered", strings.TrimSpace(key), "🧠", false)
	case "rm", "remove", "delete":
		if len(args) != 2 {
			m.ShowToast("Invalid arguments", "Usage: /memory rm <n>", "❌", true)
			return nil
		}
		i, err := parseIndex(args[1], len(m.sessions.Memory()))
		if err == nil {
			err = m.sessions.RemoveMemory(i)
		}
		if err != nil {
			m.ShowToast("Could not forget", err.Error(), "❌", true)
			return nil
		}
		m.ShowToast("Forgotten", fmt.Sprintf("Removed item %s", args[1]), "🧠", false)
	default:
		m.ShowToast("Invalid arguments", "Usage: /memory [add <key>=<value> | rm <n>]", "❌", true)
	}
	return nil
}

func handleRemindersCommand(m *model, args []string) interface{} {
	var (
		list []types.Reminder
		err  error
	)
	if m.reminders != nil {
		list, err = m.reminders.List(m.ctx)
	} else {
		list, err = m.sessions.Reminders()
	}
	if err != nil {
		m.ShowToast("Could not load reminders", err.Error(), "❌", true)
		return nil
	}

	if len(args) == 0 {
		if len(list) == 0 {
			m.ShowToast("No reminders", "Ask the agent to remind you of something", "ℹ️", false)
			return nil
		}
		var b strings.Builder
		for i, r := range list {
			b.WriteString(fmt.Sprintf("%d. [%s] %s at %s\n", i+1, r.Status, r.Message, r.TriggerAt.Local().Format("Jan 2 15:04")))
		}
		m.showText(tuitypes.OverlayModeReminders, "Reminders", b.String())
		return nil
	}

	if m.reminders == nil {
		m.ShowToast("Reminders unavailable", "No reminder scheduler is running", "❌", true)
		return nil
	}
	if len(args) < 2 {
		m.ShowToast("Invalid arguments", "Usage: /reminders [rm|dismiss <n> | snooze <n> <minutes>]", "❌", true)
		return nil
	}
	i, err := parseIndex(args[1], len(list))
	if err != nil {
		m.ShowToast("Invalid reminder", err.Error(), "❌", true)
		return nil
	}
	id := list[i].ID

	switch strings.ToLower(args[0]) {
	case "rm", "delete":
		err = m.reminders.Delete(m.ctx, id)
	case "dismiss":
		err = m.reminders.Dismiss(m.ctx, id)
	case "snooze":
		minutes := 5
		if len(args) == 3 {
			if minutes, err = strconv.Atoi(args[2]); err != nil || minutes <= 0 {
				m.ShowToast("Invalid snooze", "Minutes must be a positive number", "❌", true)
				return nil
			}
		}
		_, err = m.reminders.Snooze(m.ctx, id, time.Duration(minutes)*time.Minute)
	default:
		m.ShowToast("Invalid arguments", "Usage: /reminders [rm|dismiss <n> | snooze <n> <minutes>]", "❌", true)
		return nil
	}
	if err != nil {
		m.ShowToast("Reminder update failed", err.Error(), "❌", true)
		return nil
	}
	m.ShowToast("Reminder updated", list[i].Message, "⏰", false)
	return nil
}

func handleHistoryCommand(m *model, args []string) interface{} {
	history, err := m.sessions.History()
	if err != nil {
		m.ShowToast("Could not load history", err.Error(), "❌", true)
		return nil
	}
	if len(history) == 0 {
		m.ShowToast("No history", "Nothing recorded yet", "ℹ️", false)
		return nil
	}

	var b strings.Builder
	for i := len(history) - 1; i >= 0; i-- {
		h := history[i]
		b.WriteString(fmt.Sprintf("%s  %s\n", time.UnixMilli(h.Timestamp).Format("Jan 2 15:04"), h.Title))
		if h.URL != "" {
			b.WriteString("  " + h.URL + "\n")
		}
		b.WriteString("  > " + h.UserMessage + "\n\n")
	}
	m.showText(tuitypes.OverlayModeHistory, "History", b.String())
	return nil
}

func handleProviderCommand(m *model, args []string) interface{} {
	if len(args) == 0 {
		var b strings.Builder
		sel, err := m.conv.Selection()
		if err == nil {
			b.WriteString(fmt.Sprintf("Current: %s · %s\n\n", sel.Provider, sel.ModelID()))
		}
		for _, id := range llm.Providers() {
			info, _ := llm.Info(id)
			b.WriteString(fmt.Sprintf("%s (%s)\n", id, info.DisplayName))
			for _, mdl := range info.Models {
				b.WriteString(fmt.Sprintf("    %s\n", mdl.ID))
			}
		}
		b.WriteString("\nUse /provider <id> [model] to switch.")
		m.showText(tuitypes.OverlayModeHelp, "Providers", b.String())
		return nil
	}

	id, err := llm.ParseProviderID(args[0])
	if err != nil {
		m.ShowToast("Unknown provider", err.Error(), "❌", true)
		return nil
	}

	m.cfg.LLM.SetProvider(id)
	if len(args) == 2 {
		if id == llm.ProviderCustom {
			baseURL, _ := m.cfg.LLM.GetCustom()
			m.cfg.LLM.SetCustom(baseURL, args[1])
		} else {
			m.cfg.LLM.SetModelID(args[1])
		}
	}
	if err := m.cfg.SaveAll(); err != nil {
		m.ShowToast("Could not save settings", err.Error(), "❌", true)
		return nil
	}

	// The saved choice now wins over any command-line override.
	overrides := m.conv.Overrides()
	overrides.Provider, overrides.Model = "", ""
	m.conv.SetOverrides(overrides)

	sel, err := m.conv.Selection()
	if err != nil {
		m.ShowToast("Provider switched", err.Error(), "⚠️", true)
		return nil
	}
	m.ShowToast("Provider switched", fmt.Sprintf("%s · %s", sel.Provider, sel.ModelID()), "🔀", false)
	return nil
}

func handleKeyCommand(m *model, args []string) interface{} {
	sel, err := m.conv.Selection()
	if err != nil {
		m.ShowToast("Could not save key", err.Error(), "❌", true)
		return nil
	}
	id, key := sel.Provider, args[0]
	if len(args) == 2 {
		if id, err = llm.ParseProviderID(args[0]); err != nil {
			m.ShowToast("Unknown provider", err.Error(), "❌", true)
			return nil
		}
		key = args[1]
	}

	m.cfg.LLM.SetAPIKey(id, key)
	if err := m.cfg.SaveAll(); err != nil {
		m.ShowToast("Could not save key", err.Error(), "❌", true)
		return nil
	}
	m.ShowToast("API key saved", fmt.Sprintf("Key stored for %s", id), "🔑", false)
	return nil
}

func handleAttachCommand(m *model, args []string) interface{} {
	path := strings.Join(args, " ")
	att, err := loadAttachment(path)
	if err != nil {
		m.ShowToast("Could not attach file", err.Error(), "❌", true)
		return nil
	}
	m.pendingAttachments = append(m.pendingAttachments, att)
	m.ShowToast("Attached", fmt.Sprintf("%s will be sent with your next message", att.Name), "📎", false)
	return nil
}

func handleDetachCommand(m *model, args []string) interface{} {
	n := len(m.pendingAttachments)
	m.pendingAttachments = nil
	m.ShowToast("Attachments cleared", fmt.Sprintf("Dropped %d attachment(s)", n), "📎", false)
	return nil
}

func handleCopyCommand(m *model, args []string) interface{} {
	if m.lastReply == "" {
		m.ShowToast("Nothing to copy", "No answer yet", "ℹ️", false)
		return nil
	}
	if err := clipboard.WriteAll(m.lastReply); err != nil {
		m.ShowToast("Copy failed", err.Error(), "❌", true)
		return nil
	}
	m.ShowToast("Copied", "Last answer copied to the clipboard", "📋", false)
	return nil
}

func handleThoughtsCommand(m *model, args []string) interface{} {
	show := !m.showThoughts()
	m.cfg.UI.SetShowThoughts(show)
	if err := m.cfg.SaveAll(); err != nil {
		m.ShowToast("Could not save settings", err.Error(), "❌", true)
		return nil
	}
	state := "hidden"
	if show {
		state = "shown"
	}
	m.ShowToast("Thoughts "+state, "", "💭", false)
	return nil
}

func handleQuitCommand(m *model, args []string) interface{} {
	return tea.Quit
}
