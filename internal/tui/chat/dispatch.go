package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samsaffron/term-chat/internal/llm"
)

// Dispatcher admits one background request at a time. Every dispatch gets a
// sequence number; a completion is only delivered while its number is still
// the current one, so replies from before a /clear land nowhere.
type Dispatcher struct {
	seq     uint64
	pending bool
}

// NewDispatcher creates an idle dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Busy reports whether a request is in flight
func (d *Dispatcher) Busy() bool {
	return d.pending
}

// Seq returns the sequence number of the most recent dispatch
func (d *Dispatcher) Seq() uint64 {
	return d.seq
}

// Dispatch starts a background inference and returns the command that will
// deliver its completion. Returns nil while another request is in flight.
func (d *Dispatcher) Dispatch(ctx context.Context, client llm.Client, prompt string, history []llm.Message) tea.Cmd {
	if d.pending {
		return nil
	}
	d.seq++
	d.pending = true
	seq := d.seq

	return func() tea.Msg {
		start := time.Now()
		text, err := client.Infer(ctx, prompt, history)
		if err != nil {
			return inferenceErrMsg{seq: seq, err: err}
		}
		return inferenceDoneMsg{seq: seq, text: text, dur: time.Since(start)}
	}
}

// Resolve marks the completion with the given sequence number as delivered.
// It returns false for stale or duplicate completions; callers must drop
// those without touching the conversation.
func (d *Dispatcher) Resolve(seq uint64) bool {
	if !d.pending || seq != d.seq {
		return false
	}
	d.pending = false
	return true
}

// Abandon forgets the in-flight request without waiting for it. The
// abandoned completion will fail Resolve when it eventually arrives.
func (d *Dispatcher) Abandon() {
	d.pending = false
}
