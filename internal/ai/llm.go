package ai

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer runs one chat completion and returns the first choice's text.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
