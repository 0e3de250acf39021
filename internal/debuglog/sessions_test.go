package debuglog

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

// writeSession logs one request/response exchange under the given ID.
func writeSession(t *testing.T, dir, id string, errs int) {
	t.Helper()
	logger, err := New(dir, id)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.LogRequest("ollama", "gemma3:4b", 10, 0)
	logger.LogResponse("ollama", "gemma3:4b", 20, 800*time.Millisecond)
	for i := 0; i < errs; i++ {
		logger.LogError("ollama", "network", errors.New("connection refused"))
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestListSessionsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	writeSession(t, dir, "older", 0)
	time.Sleep(10 * time.Millisecond)
	writeSession(t, dir, "newer", 1)

	sessions, err := ListSessions(dir)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].ID != "newer" || sessions[1].ID != "older" {
		t.Fatalf("order=%s,%s, want newer,older", sessions[0].ID, sessions[1].ID)
	}

	s := sessions[0]
	if s.Backend != "ollama" || s.Model != "gemma3:4b" {
		t.Fatalf("summary backend/model=%s/%s", s.Backend, s.Model)
	}
	if s.Requests != 1 {
		t.Fatalf("requests=%d, want 1", s.Requests)
	}
	if s.Errors != 1 {
		t.Fatalf("errors=%d, want 1", s.Errors)
	}
	if s.StartTime.IsZero() || s.EndTime.Before(s.StartTime) {
		t.Fatalf("bad time range: %v..%v", s.StartTime, s.EndTime)
	}
}

func TestListSessionsMissingDir(t *testing.T) {
	sessions, err := ListSessions(t.TempDir() + "/nope")
	if err != nil {
		t.Fatalf("missing dir should not error, got %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("got %d sessions, want 0", len(sessions))
	}
}

func TestLatestSessionEmpty(t *testing.T) {
	_, err := LatestSession(t.TempDir())
	if !errors.Is(err, ErrNoSessions) {
		t.Fatalf("err=%v, want ErrNoSessions", err)
	}
}

func TestResolveSession(t *testing.T) {
	dir := t.TempDir()
	writeSession(t, dir, "first", 0)
	time.Sleep(10 * time.Millisecond)
	writeSession(t, dir, "second", 0)

	byIndex, err := ResolveSession(dir, "1")
	if err != nil {
		t.Fatalf("ResolveSession(1): %v", err)
	}
	if byIndex.ID != "second" {
		t.Fatalf("index 1 resolved to %q, want the newest session", byIndex.ID)
	}

	byID, err := ResolveSession(dir, "first")
	if err != nil {
		t.Fatalf("ResolveSession(first): %v", err)
	}
	if byID.ID != "first" {
		t.Fatalf("resolved %q, want first", byID.ID)
	}

	if _, err := ResolveSession(dir, "9"); err == nil {
		t.Fatal("out-of-range index should fail")
	}
	if _, err := ResolveSession(dir, "missing"); err == nil {
		t.Fatal("unknown ID should fail")
	}
}

func TestReadEntriesSkipsTornLine(t *testing.T) {
	dir := t.TempDir()
	writeSession(t, dir, "torn", 0)

	sessions, err := ListSessions(dir)
	if err != nil || len(sessions) != 1 {
		t.Fatalf("setup: %v, %d sessions", err, len(sessions))
	}
	path := sessions[0].FilePath

	// Simulate a crash mid-write: a trailing half line
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	f.WriteString(`{"ts":"2026-08-25T10:00:00Z","type":"respo`)
	f.Close()

	entries, err := ReadEntries(path)
	if err != nil {
		t.Fatalf("ReadEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Type != "request" || entries[1].Type != "response" {
		t.Fatalf("entry types=%s,%s", entries[0].Type, entries[1].Type)
	}
	if entries[1].DurationMs != 800 {
		t.Fatalf("duration_ms=%d, want 800", entries[1].DurationMs)
	}
}

func TestTailFormatsEntries(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(dir, "tailed")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.LogRequest("anthropic", "claude-sonnet-4-5", 12, 2)
	logger.LogResponse("anthropic", "claude-sonnet-4-5", 340, 2*time.Second)
	logger.LogError("anthropic", "api", errors.New("status 529"))
	logger.LogWarning("model check skipped")
	logger.Close()

	var buf bytes.Buffer
	if err := TailLatest(context.Background(), dir, &buf, TailOptions{}); err != nil {
		t.Fatalf("TailLatest: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"request   anthropic/claude-sonnet-4-5 prompt=12ch history=2",
		"response  anthropic/claude-sonnet-4-5 340ch in 2000ms",
		"error     anthropic [api] status 529",
		"warning   model check skipped",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("tail output missing %q:\n%s", want, out)
		}
	}
}

func TestDirSize(t *testing.T) {
	dir := t.TempDir()
	if size, err := DirSize(dir); err != nil || size != 0 {
		t.Fatalf("empty dir size=%d err=%v", size, err)
	}
	writeSession(t, dir, "sized", 0)
	size, err := DirSize(dir)
	if err != nil {
		t.Fatalf("DirSize: %v", err)
	}
	if size <= 0 {
		t.Fatalf("size=%d, want > 0", size)
	}
}
