package chat

import (
	"time"

	"github.com/samsaffron/term-chat/internal/llm"
)

// Turn is a single entry in the transcript
type Turn struct {
	Role      llm.Role      `json:"role"`
	Text      string        `json:"text"`
	Duration  time.Duration `json:"duration,omitempty"` // assistant turns only
	CreatedAt time.Time     `json:"created_at"`
}

// Conversation is the append-only transcript backing one chat session.
// It is only ever touched from the update loop; the worker goroutine sees
// copies taken by SnapshotForRequest.
type Conversation struct {
	turns []Turn
}

// NewConversation creates an empty conversation
func NewConversation() *Conversation {
	return &Conversation{}
}

// AddUser appends a user turn
func (c *Conversation) AddUser(text string) {
	c.turns = append(c.turns, Turn{
		Role:      llm.RoleUser,
		Text:      text,
		CreatedAt: time.Now(),
	})
}

// AddAssistant appends an assistant turn
func (c *Conversation) AddAssistant(text string, dur time.Duration) {
	c.turns = append(c.turns, Turn{
		Role:      llm.RoleAssistant,
		Text:      text,
		Duration:  dur,
		CreatedAt: time.Now(),
	})
}

// Len returns the number of turns
func (c *Conversation) Len() int {
	return len(c.turns)
}

// Turns returns a copy of the transcript
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// SnapshotForRequest returns the turns accumulated so far in wire shape.
// Call it before appending the pending user turn so the prompt cannot
// show up twice in one request.
func (c *Conversation) SnapshotForRequest() []llm.Message {
	msgs := make([]llm.Message, 0, len(c.turns))
	for _, t := range c.turns {
		msgs = append(msgs, llm.Message{Role: t.Role, Content: t.Text})
	}
	return msgs
}

// Clear drops every turn
func (c *Conversation) Clear() {
	c.turns = nil
}

// LastAssistant returns the most recent assistant turn, if any
func (c *Conversation) LastAssistant() (Turn, bool) {
	for i := len(c.turns) - 1; i >= 0; i-- {
		if c.turns[i].Role == llm.RoleAssistant {
			return c.turns[i], true
		}
	}
	return Turn{}, false
}
