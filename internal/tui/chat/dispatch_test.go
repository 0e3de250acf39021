package chat

import (
	"context"
	"errors"
	"testing"
)

func TestDispatchRefusedWhileBusy(t *testing.T) {
	d := NewDispatcher()
	client := &fakeClient{reply: "ok"}

	cmd := d.Dispatch(context.Background(), client, "hi", nil)
	if cmd == nil {
		t.Fatal("first dispatch should return a command")
	}
	if !d.Busy() {
		t.Fatal("dispatcher should be busy after dispatch")
	}

	if second := d.Dispatch(context.Background(), client, "again", nil); second != nil {
		t.Fatal("second dispatch must be refused while a request is in flight")
	}
}

func TestDispatchDeliversCompletion(t *testing.T) {
	d := NewDispatcher()
	client := &fakeClient{reply: "the answer"}

	cmd := d.Dispatch(context.Background(), client, "question", nil)
	msg := cmd()

	done, ok := msg.(inferenceDoneMsg)
	if !ok {
		t.Fatalf("completion is %T, want inferenceDoneMsg", msg)
	}
	if done.text != "the answer" {
		t.Fatalf("completion text = %q, want %q", done.text, "the answer")
	}
	if done.seq != d.Seq() {
		t.Fatalf("completion seq = %d, want %d", done.seq, d.Seq())
	}

	if !d.Resolve(done.seq) {
		t.Fatal("fresh completion should resolve")
	}
	if d.Busy() {
		t.Fatal("dispatcher should be idle after resolve")
	}
	if d.Resolve(done.seq) {
		t.Fatal("a completion must resolve at most once")
	}
}

func TestDispatchDeliversError(t *testing.T) {
	d := NewDispatcher()
	client := &fakeClient{err: errors.New("boom")}

	cmd := d.Dispatch(context.Background(), client, "question", nil)
	msg := cmd()

	errMsg, ok := msg.(inferenceErrMsg)
	if !ok {
		t.Fatalf("completion is %T, want inferenceErrMsg", msg)
	}
	if errMsg.err == nil || errMsg.err.Error() != "boom" {
		t.Fatalf("completion err = %v, want boom", errMsg.err)
	}
	if !d.Resolve(errMsg.seq) {
		t.Fatal("error completion should resolve")
	}
}

func TestAbandonedCompletionIsStale(t *testing.T) {
	d := NewDispatcher()
	client := &fakeClient{reply: "late"}

	cmd := d.Dispatch(context.Background(), client, "question", nil)
	oldSeq := d.Seq()

	d.Abandon()
	if d.Busy() {
		t.Fatal("dispatcher should be idle after abandon")
	}
	if d.Resolve(oldSeq) {
		t.Fatal("abandoned completion must not resolve")
	}

	// A new dispatch gets a fresh sequence number
	cmd2 := d.Dispatch(context.Background(), client, "fresh", nil)
	if cmd2 == nil {
		t.Fatal("dispatcher should accept a new request after abandon")
	}
	if d.Seq() == oldSeq {
		t.Fatal("new dispatch should advance the sequence number")
	}

	// The late reply from before the abandon is dropped, the fresh one lands
	if d.Resolve(oldSeq) {
		t.Fatal("stale completion resolved after a new dispatch")
	}
	msg := cmd2()
	done := msg.(inferenceDoneMsg)
	if !d.Resolve(done.seq) {
		t.Fatal("fresh completion should resolve")
	}
	_ = cmd
}
