// Package llm defines the normalized request every model vendor receives and
// the adapter contract each vendor package implements.
//
// Example usage:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//	    "os"
//
//	    "github.com/entrhq/tabpilot/pkg/llm"
//	    "github.com/entrhq/tabpilot/pkg/llm/providers"
//	)
//
//	func main() {
//	    adapter, err := providers.Default().Build(llm.Selection{
//	        Provider: llm.ProviderOpenAI,
//	        APIKey:   os.Getenv("OPENAI_API_KEY"),
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    reply, err := adapter.Send(context.Background(), &llm.Request{
//	        System:  "Reply in JSON.",
//	        Message: "Hello!",
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(reply)
//	}
package llm

import (
	"context"

	"github.com/entrhq/tabpilot/pkg/types"
)

// Adapter translates a normalized Request into one vendor's wire format and
// returns the raw text of the model's reply.
//
// Adapters do not retry. Errors should be *Error values so the caller can
// classify them; RetryPolicy decides what is retried.
type Adapter interface {
	// Provider returns the provider id this adapter serves.
	Provider() ProviderID

	// Send performs one request/response exchange with the vendor.
	Send(ctx context.Context, req *Request) (string, error)
}

// AdapterFunc lets a plain function act as an Adapter. Mostly useful in tests.
type AdapterFunc struct {
	ID ProviderID
	Fn func(ctx context.Context, req *Request) (string, error)
}

// Provider implements Adapter.
func (f AdapterFunc) Provider() ProviderID { return f.ID }

// Send implements Adapter.
func (f AdapterFunc) Send(ctx context.Context, req *Request) (string, error) {
	return f.Fn(ctx, req)
}

// HistoryEntry is one prior turn as the model sees it.
type HistoryEntry struct {
	Role    types.MessageRole
	Content string
}

// Request is the vendor-neutral shape of one provider call.
type Request struct {
	// Context is the page snapshot for this iteration, nil when there is no active tab.
	Context *types.TurnContext

	// System is the base system prompt. Adapters append the memory block.
	System string

	// Message is the new user turn: the user's text on the first iteration,
	// the continuation prompt afterwards.
	Message string

	// Model overrides the adapter's default model when non-empty.
	Model string

	History     []HistoryEntry
	Memory      []types.MemoryItem
	Attachments []types.Attachment
}

// SystemPrompt returns the system prompt with the memory block appended.
func (r *Request) SystemPrompt() string {
	return r.System + MemoryBlock(r.Memory)
}

// HistoryFromMessages maps persisted messages to history entries.
func HistoryFromMessages(msgs []types.Message) []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, HistoryEntry{Role: m.Role, Content: m.Content})
	}
	return entries
}
