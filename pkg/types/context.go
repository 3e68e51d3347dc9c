package types

// TabInfo describes one open browser tab.
type TabInfo struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// TurnContext is the page snapshot sent to the model on every loop iteration.
// It is rebuilt for each iteration and never persisted.
type TurnContext struct {
	Title      string
	URL        string
	Content    string
	Screenshot string // data URL, empty when capture failed
	OpenTabs   []TabInfo
}
