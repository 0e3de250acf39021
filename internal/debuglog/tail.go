package debuglog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// TailOptions controls tail behavior.
type TailOptions struct {
	Follow bool // keep watching for new entries
}

// Tail prints the entries of a session file, optionally following for new
// ones until ctx is cancelled. The writer is flushed line by line so the
// output can be watched from another terminal.
func Tail(ctx context.Context, filePath string, w io.Writer, opts TailOptions) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := bufio.NewReader(file)

	for {
		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		FormatEntryLine(w, line)
	}

	if !opts.Follow {
		return nil
	}

	// The log is append-only, so polling the same reader picks up new
	// lines without re-reading the file.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for {
				line, err := reader.ReadBytes('\n')
				if err == io.EOF {
					break
				}
				if err != nil {
					return err
				}
				FormatEntryLine(w, line)
			}
		}
	}
}

// TailLatest tails the most recent session file in dir.
func TailLatest(ctx context.Context, dir string, w io.Writer, opts TailOptions) error {
	summary, err := LatestSession(dir)
	if err != nil {
		return err
	}
	return Tail(ctx, summary.FilePath, w, opts)
}

// FormatEntryLine renders one raw JSONL line as a human-readable log line.
// Unparseable lines pass through untouched.
func FormatEntryLine(w io.Writer, line []byte) {
	var entry Entry
	if err := json.Unmarshal(line, &entry); err != nil {
		w.Write(line)
		return
	}
	entry.Timestamp, _ = time.Parse(time.RFC3339Nano, entry.RawTimestamp)

	ts := entry.Timestamp.Local().Format("15:04:05")
	switch entry.Type {
	case "request":
		fmt.Fprintf(w, "%s  request   %s/%s prompt=%dch history=%d\n",
			ts, entry.Backend, entry.Model, entry.PromptChars, entry.HistoryTurns)
	case "response":
		fmt.Fprintf(w, "%s  response  %s/%s %dch in %dms\n",
			ts, entry.Backend, entry.Model, entry.Chars, entry.DurationMs)
	case "error":
		fmt.Fprintf(w, "%s  error     %s [%s] %s\n",
			ts, entry.Backend, entry.Kind, entry.Error)
	case "warning":
		fmt.Fprintf(w, "%s  warning   %s\n", ts, entry.Message)
	default:
		fmt.Fprintf(w, "%s  %s\n", ts, entry.Type)
	}
}
