package llm

import "context"

// Message is one entry of a chat-completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes a single text-completion call.
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Completer is the contract this service imposes on a language-model
// provider: ordered messages in, completion text out. Providers convert
// transport failures and malformed bodies into errors rather than panicking
// or returning partial garbage.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
