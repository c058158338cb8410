package generator

import "context"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one prior conversation turn, role-tagged the way chat
// completion APIs expect.
type Message struct {
	Role    string
	Content string
}

// Request is a structured completion prompt: a system instruction, the
// prior dialogue history in order, and the new user turn.
type Request struct {
	System  string
	History []Message
	User    string
}

// Generator produces a completion for a structured prompt. Providers
// pin temperature to 0 so answers stay grounded in the supplied context
// rather than varying between calls.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Error is returned when a provider fails to produce a completion.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return "completion failure: " + e.Message
}
