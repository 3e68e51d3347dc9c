package decision

// ActionInfo documents one action kind for the system prompt.
type ActionInfo struct {
	Kind        Kind
	Example     string
	Description string
}

// Catalogue lists the actions the executor understands, in prompt order.
func Catalogue() []ActionInfo {
	return []ActionInfo{
		{KindSearch, `{ "action": "search", "query": "..." }`, "Direct web search (most reliable for search engines)"},
		{KindNavigate, `{ "action": "navigate", "url": "..." }`, "Go to URL"},
		{KindClick, `{ "action": "click", "selector": "..." }`, "Click element"},
		{KindType, `{ "action": "type", "selector": "...", "text": "..." }`, "Type in input"},
		{KindPressKey, `{ "action": "press_key", "key": "enter|tab|escape", "selector": "..." }`, "Press keyboard key (selector optional)"},
		{KindTypeAndSubmit, `{ "action": "type_and_submit", "selector": "...", "text": "..." }`, "Type and press Enter"},
		{KindSetReminder, `{ "action": "set_reminder", "seconds": N, "message": "..." }`, "Set a timer"},
		{KindScroll, `{ "action": "scroll", "direction": "up|down|top|bottom" }`, "Scroll the page"},
		{KindNewTab, `{ "action": "new_tab", "url": "..." }`, "Open a new tab"},
		{KindSwitchTab, `{ "action": "switch_tab", "tabId": N }`, "Activate an open tab"},
		{KindCloseTab, `{ "action": "close_tab", "tabId": N }`, "Close an open tab"},
		{KindGetTabContent, `{ "action": "get_tab_content", "tabId": N }`, "Read the text of another open tab"},
		{KindAskSelection, `{ "action": "ask_selection", "question": "...", "options": [{ "label": "...", "value": "..." }] }`, "Ask the user to choose"},
	}
}
