package debuglog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrNoSessions is returned when the log directory holds no session files.
var ErrNoSessions = errors.New("no debug log sessions found")

// Entry is one parsed wire-log line.
type Entry struct {
	Timestamp    time.Time `json:"-"`
	RawTimestamp string    `json:"ts"`
	SessionID    string    `json:"session_id"`
	Type         string    `json:"type"` // request, response, error, warning
	Backend      string    `json:"backend,omitempty"`
	Model        string    `json:"model,omitempty"`
	PromptChars  int       `json:"prompt_chars,omitempty"`
	HistoryTurns int       `json:"history_turns,omitempty"`
	Chars        int       `json:"chars,omitempty"`
	DurationMs   int64     `json:"duration_ms,omitempty"`
	Kind         string    `json:"kind,omitempty"`
	Error        string    `json:"error,omitempty"`
	Message      string    `json:"message,omitempty"`
}

// SessionSummary describes one session file without holding its entries.
type SessionSummary struct {
	ID        string
	FilePath  string
	StartTime time.Time
	EndTime   time.Time
	Backend   string
	Model     string
	Requests  int
	Errors    int
	Warnings  int
	Size      int64
}

// Dir returns the directory session files are written to.
func Dir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get cache dir: %w", err)
	}
	return filepath.Join(cacheDir, "term-chat", "logs"), nil
}

// ReadEntries parses every line of a session file. Lines that fail to parse
// are skipped; a half-written trailing line must not hide the rest.
func ReadEntries(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entry.Timestamp, _ = time.Parse(time.RFC3339Nano, entry.RawTimestamp)
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

// Summarize reads one session file and condenses it.
func Summarize(path string) (*SessionSummary, error) {
	entries, err := ReadEntries(path)
	if err != nil {
		return nil, err
	}

	summary := &SessionSummary{
		ID:       strings.TrimSuffix(filepath.Base(path), ".jsonl"),
		FilePath: path,
	}
	if info, err := os.Stat(path); err == nil {
		summary.Size = info.Size()
	}

	for _, e := range entries {
		if summary.StartTime.IsZero() && !e.Timestamp.IsZero() {
			summary.StartTime = e.Timestamp
		}
		if !e.Timestamp.IsZero() {
			summary.EndTime = e.Timestamp
		}
		switch e.Type {
		case "request":
			summary.Requests++
			summary.Backend = e.Backend
			summary.Model = e.Model
		case "error":
			summary.Errors++
		case "warning":
			summary.Warnings++
		}
	}
	return summary, nil
}

// ListSessions summarizes every session file in dir, newest first. A
// missing directory is an empty list, not an error.
func ListSessions(dir string) ([]SessionSummary, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sessions []SessionSummary
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".jsonl" {
			continue
		}
		summary, err := Summarize(filepath.Join(dir, de.Name()))
		if err != nil {
			continue
		}
		sessions = append(sessions, *summary)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})
	return sessions, nil
}

// LatestSession returns the most recent session in dir.
func LatestSession(dir string) (*SessionSummary, error) {
	sessions, err := ListSessions(dir)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, ErrNoSessions
	}
	return &sessions[0], nil
}

// ResolveSession finds a session by identifier: a 1-based recency index
// ("1" is the newest) or a session ID.
func ResolveSession(dir, identifier string) (*SessionSummary, error) {
	sessions, err := ListSessions(dir)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, ErrNoSessions
	}

	if n, err := strconv.Atoi(identifier); err == nil {
		if n < 1 || n > len(sessions) {
			return nil, fmt.Errorf("session %d out of range (have %d)", n, len(sessions))
		}
		return &sessions[n-1], nil
	}

	for i := range sessions {
		if sessions[i].ID == identifier {
			return &sessions[i], nil
		}
	}
	return nil, fmt.Errorf("session %q not found", identifier)
}

// DirSize totals the size of all session files in dir.
func DirSize(dir string) (int64, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	var total int64
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".jsonl" {
			continue
		}
		if info, err := de.Info(); err == nil {
			total += info.Size()
		}
	}
	return total, nil
}
