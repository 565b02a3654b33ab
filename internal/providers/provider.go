package providers

import "context"

// Message is one turn of conversation context sent to the model.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest is a single completion request. Model selection belongs to the
// client, not the request: every client is bound to one fixed model.
type ChatRequest struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// ChatResponse is a complete, non-streamed reply.
type ChatResponse struct {
	Text string
}

// StreamDelta is one increment of a streamed reply. Exactly one terminal
// delta is delivered: either Done=true or Err set, after which the channel
// is closed.
type StreamDelta struct {
	Content string
	Done    bool
	Err     error
}

// Provider is a hosted LLM reachable over HTTP.
type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamDelta, error)
	Model() string
}
