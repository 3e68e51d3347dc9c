package anthropic

// messagesRequest is the body of POST /v1/messages.
type messagesRequest struct {
	Model     string    `json:"model"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

// message is one conversation turn.
type message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string or []content
}

// content is a text or image block.
type content struct {
	Source *imageSource `json:"source,omitempty"`
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// messagesResponse is the subset of the response this adapter reads.
type messagesResponse struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Role       string    `json:"role"`
	Model      string    `json:"model"`
	StopReason string    `json:"stop_reason"`
	Content    []content `json:"content"`
}

// errorResponse is the error envelope returned with non-2xx statuses.
type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
