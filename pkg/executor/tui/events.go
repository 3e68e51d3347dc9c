package tui

import (
	"fmt"
	"sort"
	"strings"

	pkgtypes "github.com/entrhq/tabpilot/pkg/types"
)

// maxResultPreview caps how much of an action result is echoed in the chat.
const maxResultPreview = 300

// handleAgentEvent processes events from the agent event stream.
// The final answer arrives separately as a turnCompleteMsg.
func (m *model) handleAgentEvent(event *pkgtypes.AgentEvent) {
	switch event.Type {
	case pkgtypes.EventTypeThought:
		m.handleThought(event)

	case pkgtypes.EventTypeActionStart:
		m.handleActionStart(event)

	case pkgtypes.EventTypeActionResult:
		m.handleActionResult(event)

	case pkgtypes.EventTypeAPICallStart:
		m.handleAPICallStart(event)

	case pkgtypes.EventTypeRetry:
		m.handleRetry(event)

	case pkgtypes.EventTypeTokenUsage:
		m.handleTokenUsage(event)

	case pkgtypes.EventTypeUpdateBusy:
		m.agentBusy = event.IsBusy
		m.recalculateLayout()

	case pkgtypes.EventTypeError:
		debugLog.Errorf("agent error: %v", event.Error)

	default:
		return
	}

	m.refreshViewport()
}

func (m *model) handleThought(event *pkgtypes.AgentEvent) {
	if event.Content == "" || !m.showThoughts() {
		return
	}
	m.content.WriteString(formatEntry("💭 ", event.Content, thinkingStyle, m.width, false))
	m.content.WriteString("\n")
}

func (m *model) handleActionStart(event *pkgtypes.AgentEvent) {
	descriptor, _ := event.Metadata["descriptor"].(map[string]interface{})
	line := event.ActionName
	if args := describeArgs(descriptor); args != "" {
		line += " " + args
	}
	m.content.WriteString(formatEntry("🌐 ", line, actionStyle, m.width, false))
	m.content.WriteString("\n")
	m.currentLoadingMessage = fmt.Sprintf("Running %s...", event.ActionName)
}

func (m *model) handleActionResult(event *pkgtypes.AgentEvent) {
	result := preview(strings.TrimSpace(event.Content), maxResultPreview)
	m.content.WriteString(formatEntry("   ↳ ", result, actionResultStyle, m.width, false))
	m.content.WriteString("\n")
}

func (m *model) handleAPICallStart(event *pkgtypes.AgentEvent) {
	provider, _ := event.Metadata["provider"].(string)
	if event.Iteration == 0 || provider == "" {
		m.currentLoadingMessage = getRandomLoadingMessage()
		return
	}
	m.currentLoadingMessage = fmt.Sprintf("Asking %s for step %d...", provider, event.Iteration+1)
}

func (m *model) handleRetry(event *pkgtypes.AgentEvent) {
	attempt, _ := event.Metadata["attempt"].(int)
	m.currentLoadingMessage = fmt.Sprintf("Rate limited, retrying (%d)...", attempt)
	m.ShowToast("Rate limited", fmt.Sprintf("%v", event.Error), "⏳", false)
}

func (m *model) handleTokenUsage(event *pkgtypes.AgentEvent) {
	if event.TokenUsage == nil {
		return
	}
	m.totalPromptTokens += event.TokenUsage.PromptTokens
	m.totalCompletionTokens += event.TokenUsage.CompletionTokens
	m.currentContextTokens = event.TokenUsage.PromptTokens
}

// describeArgs renders an action descriptor without its "action" key, in
// key order, e.g. `query="weather today"`.
func describeArgs(descriptor map[string]interface{}) string {
	keys := make([]string, 0, len(descriptor))
	for k := range descriptor {
		if k != "action" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := descriptor[k].(type) {
		case string:
			parts = append(parts, fmt.Sprintf("%s=%q", k, v))
		case []interface{}:
			parts = append(parts, fmt.Sprintf("%s=[%d]", k, len(v)))
		default:
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	return strings.Join(parts, " ")
}
