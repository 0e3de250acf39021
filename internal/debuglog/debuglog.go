// Package debuglog writes an opt-in JSONL wire log: one line per request,
// response, error, or advisory warning. Message bodies are summarized by
// size, never copied, so the log can be shared without scrubbing.
package debuglog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type Logger struct {
	mu        sync.Mutex
	file      *os.File
	w         *bufio.Writer
	sessionID string
	closed    bool
}

// New creates a logger writing to <dir>/<sessionID>.jsonl, creating dir as
// needed.
func New(dir, sessionID string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(dir, sessionID+".jsonl")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &Logger{
		file:      file,
		w:         bufio.NewWriter(file),
		sessionID: sessionID,
	}, nil
}

// Default creates a logger under the user cache dir with a timestamped
// session ID.
func Default() (*Logger, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return New(dir, time.Now().Format("20060102-150405"))
}

// Path returns the log file location, empty for a nil logger.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.file.Name()
}

// LogRequest records an outgoing inference request. Sizes only, no content.
func (l *Logger) LogRequest(backend, model string, promptChars, historyTurns int) {
	l.write(map[string]any{
		"type":          "request",
		"backend":       backend,
		"model":         model,
		"prompt_chars":  promptChars,
		"history_turns": historyTurns,
	})
}

// LogResponse records a completed request.
func (l *Logger) LogResponse(backend, model string, chars int, dur time.Duration) {
	l.write(map[string]any{
		"type":        "response",
		"backend":     backend,
		"model":       model,
		"chars":       chars,
		"duration_ms": dur.Milliseconds(),
	})
}

// LogError records a failed request. kind is the normalized error category.
func (l *Logger) LogError(backend, kind string, err error) {
	l.write(map[string]any{
		"type":    "error",
		"backend": backend,
		"kind":    kind,
		"error":   err.Error(),
	})
}

// LogWarning records an advisory condition, e.g. a model mismatch.
func (l *Logger) LogWarning(msg string) {
	l.write(map[string]any{
		"type":    "warning",
		"message": msg,
	})
}

func (l *Logger) write(entry map[string]any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	entry["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["session_id"] = l.sessionID

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	l.w.Write(data)
	l.w.WriteByte('\n')
	l.w.Flush()
}

// Close flushes and closes the log file. Safe on a nil logger and safe to
// call more than once.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if err := l.w.Flush(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}
