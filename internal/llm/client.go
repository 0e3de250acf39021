package llm

import "context"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single history item in the wire role/content shape both
// back-ends understand.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Client produces one assistant reply per call. Implementations block until
// the back-end answers; cancellation comes from ctx. All failures are
// normalized to *ClientError.
type Client interface {
	// Infer sends the pending prompt plus the prior history snapshot and
	// returns the assistant text. Back-ends that cannot carry history are
	// free to ignore it.
	Infer(ctx context.Context, prompt string, history []Message) (string, error)

	// Name identifies the back-end for status lines and logs.
	Name() string

	// Model returns the model identifier requests are sent with.
	Model() string
}
