package chat

import (
	"testing"
	"time"

	"github.com/samsaffron/term-chat/internal/llm"
)

func TestSnapshotForRequest_ExcludesPendingTurn(t *testing.T) {
	c := NewConversation()
	c.AddUser("first question")
	c.AddAssistant("first answer", time.Second)

	// Submit order: snapshot first, then record the pending user turn
	history := c.SnapshotForRequest()
	c.AddUser("second question")

	if len(history) != 2 {
		t.Fatalf("snapshot has %d messages, want 2", len(history))
	}
	for _, msg := range history {
		if msg.Content == "second question" {
			t.Fatal("pending prompt leaked into the request history")
		}
	}
	if history[0].Role != llm.RoleUser || history[0].Content != "first question" {
		t.Fatalf("history[0] = %+v, want the first user turn", history[0])
	}
	if history[1].Role != llm.RoleAssistant || history[1].Content != "first answer" {
		t.Fatalf("history[1] = %+v, want the first assistant turn", history[1])
	}
	if c.Len() != 3 {
		t.Fatalf("conversation has %d turns, want 3", c.Len())
	}
}

func TestSnapshotForRequest_EmptyConversation(t *testing.T) {
	c := NewConversation()
	history := c.SnapshotForRequest()
	if len(history) != 0 {
		t.Fatalf("empty conversation produced %d history messages", len(history))
	}
}

func TestConversationClear(t *testing.T) {
	c := NewConversation()
	c.AddUser("q")
	c.AddAssistant("a", 0)

	c.Clear()

	if c.Len() != 0 {
		t.Fatalf("conversation has %d turns after clear, want 0", c.Len())
	}
	if _, ok := c.LastAssistant(); ok {
		t.Fatal("cleared conversation should have no assistant turn")
	}
}

func TestLastAssistant(t *testing.T) {
	c := NewConversation()
	if _, ok := c.LastAssistant(); ok {
		t.Fatal("empty conversation should have no assistant turn")
	}

	c.AddUser("one")
	c.AddAssistant("answer one", time.Second)
	c.AddUser("two")
	c.AddAssistant("answer two", time.Second)
	c.AddUser("three")

	turn, ok := c.LastAssistant()
	if !ok {
		t.Fatal("expected an assistant turn")
	}
	if turn.Text != "answer two" {
		t.Fatalf("LastAssistant = %q, want %q", turn.Text, "answer two")
	}
}

func TestTurnsReturnsCopy(t *testing.T) {
	c := NewConversation()
	c.AddUser("original")

	turns := c.Turns()
	turns[0].Text = "mutated"

	if got := c.Turns()[0].Text; got != "original" {
		t.Fatalf("transcript was mutated through the copy: %q", got)
	}
}
