package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/samsaffron/term-chat/internal/config"
	"github.com/samsaffron/term-chat/internal/debuglog"
	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Manage wire debug logs",
	Long: `View and manage the request/response wire logs.

Wire logs record one line per request, response, error, or warning.
They carry sizes and durations only, never message content. Enable them
with 'term-chat logs enable' or the --debug flag.

Examples:
  term-chat logs                  # list recent sessions
  term-chat logs show 1           # view the most recent session
  term-chat logs tail             # live tail of the current session
  term-chat logs clean --days 3   # drop logs older than 3 days`,
	RunE: logsList,
}

var (
	logsDays   int
	logsRaw    bool
	logsFollow bool
	logsAll    bool
	logsDryRun bool
)

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().IntVar(&logsDays, "days", 7, "Show sessions from the last N days")

	logsCmd.AddCommand(logsListCmd)
	logsCmd.AddCommand(logsShowCmd)
	logsCmd.AddCommand(logsTailCmd)
	logsCmd.AddCommand(logsPathCmd)
	logsCmd.AddCommand(logsCleanCmd)
	logsCmd.AddCommand(logsEnableCmd)
	logsCmd.AddCommand(logsDisableCmd)

	logsListCmd.Flags().IntVar(&logsDays, "days", 7, "Show sessions from the last N days")
	logsShowCmd.Flags().BoolVar(&logsRaw, "raw", false, "Output raw JSONL")
	logsTailCmd.Flags().BoolVarP(&logsFollow, "follow", "f", true, "Follow for new entries")
	logsCleanCmd.Flags().IntVar(&logsDays, "days", 7, "Remove logs older than N days")
	logsCleanCmd.Flags().BoolVar(&logsAll, "all", false, "Remove all logs")
	logsCleanCmd.Flags().BoolVar(&logsDryRun, "dry-run", false, "Show what would be deleted")
}

var logsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions",
	RunE:  logsList,
}

var logsShowCmd = &cobra.Command{
	Use:   "show [session]",
	Short: "View a session",
	Long: `View a session's entries.

The session can be a recency number (1 = most recent) or a session ID.
Without an argument, shows the most recent session.

Examples:
  term-chat logs show
  term-chat logs show 2
  term-chat logs show 20260825-143522 --raw`,
	Args: cobra.MaximumNArgs(1),
	RunE: logsShow,
}

var logsTailCmd = &cobra.Command{
	Use:   "tail [session]",
	Short: "Live tail of a session",
	Long: `Watch a session as entries arrive, for following a chat running in
another terminal. Press Ctrl+C to stop.

Examples:
  term-chat logs tail
  term-chat logs tail --follow=false   # print current content and exit`,
	Args: cobra.MaximumNArgs(1),
	RunE: logsTail,
}

var logsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the log directory",
	Long: `Print the wire log directory path.

Useful for scripting:
  ls $(term-chat logs path)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := debuglog.Dir()
		if err != nil {
			return err
		}
		fmt.Println(dir)
		return nil
	},
}

var logsCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old logs",
	RunE:  logsClean,
}

var logsEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable wire logging",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setDebugEnabled(true); err != nil {
			return err
		}
		dir, _ := debuglog.Dir()
		fmt.Printf("Wire logging enabled. Logs will be written to %s\n", dir)
		return nil
	},
}

var logsDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable wire logging",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setDebugEnabled(false); err != nil {
			return err
		}
		fmt.Println("Wire logging disabled.")
		return nil
	},
}

func logsList(cmd *cobra.Command, args []string) error {
	dir, err := debuglog.Dir()
	if err != nil {
		return err
	}

	sessions, err := debuglog.ListSessions(dir)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if logsDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -logsDays)
		var kept []debuglog.SessionSummary
		for _, s := range sessions {
			if s.StartTime.After(cutoff) {
				kept = append(kept, s)
			}
		}
		sessions = kept
	}

	if len(sessions) == 0 {
		fmt.Printf("No sessions in the last %d days. Enable logging with 'term-chat logs enable'.\n", logsDays)
		return nil
	}

	size, _ := debuglog.DirSize(dir)
	fmt.Printf("Sessions from the last %d days (%s total on disk):\n\n", logsDays, formatBytes(size))
	for i, s := range sessions {
		line := fmt.Sprintf("%2d. %s  %s", i+1, s.StartTime.Local().Format("2006-01-02 15:04:05"), s.ID)
		if s.Backend != "" {
			line += fmt.Sprintf("  %s/%s", s.Backend, s.Model)
		}
		line += fmt.Sprintf("  %d requests", s.Requests)
		if s.Errors > 0 {
			line += fmt.Sprintf("  %d errors", s.Errors)
		}
		if s.Warnings > 0 {
			line += fmt.Sprintf("  %d warnings", s.Warnings)
		}
		fmt.Println(line)
	}
	return nil
}

func logsShow(cmd *cobra.Command, args []string) error {
	summary, err := findSession(args)
	if err != nil {
		return err
	}

	if logsRaw {
		f, err := os.Open(summary.FilePath)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(os.Stdout, f)
		return err
	}

	fmt.Printf("Session %s (%d requests, %d errors)\n\n", summary.ID, summary.Requests, summary.Errors)
	return debuglog.Tail(context.Background(), summary.FilePath, os.Stdout, debuglog.TailOptions{})
}

func logsTail(cmd *cobra.Command, args []string) error {
	summary, err := findSession(args)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Watching: %s\n\n", filepath.Base(summary.FilePath))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	err = debuglog.Tail(ctx, summary.FilePath, os.Stdout, debuglog.TailOptions{Follow: logsFollow})
	if err == context.Canceled {
		return nil
	}
	return err
}

func logsClean(cmd *cobra.Command, args []string) error {
	dir, err := debuglog.Dir()
	if err != nil {
		return err
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No logs found.")
			return nil
		}
		return err
	}

	cutoff := time.Now().AddDate(0, 0, -logsDays)
	var toDelete []string
	var totalSize int64
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".jsonl" {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		if logsAll || info.ModTime().Before(cutoff) {
			toDelete = append(toDelete, de.Name())
			totalSize += info.Size()
		}
	}

	if len(toDelete) == 0 {
		fmt.Println("No logs to clean up.")
		return nil
	}

	if logsDryRun {
		fmt.Printf("Would delete %d files (%s):\n", len(toDelete), formatBytes(totalSize))
		for _, name := range toDelete {
			fmt.Printf("  %s\n", name)
		}
		return nil
	}

	var deleted int
	for _, name := range toDelete {
		if err := os.Remove(filepath.Join(dir, name)); err == nil {
			deleted++
		}
	}
	fmt.Printf("Removed %d log files (%s)\n", deleted, formatBytes(totalSize))
	return nil
}

// findSession resolves the optional [session] argument, defaulting to the
// most recent session.
func findSession(args []string) (*debuglog.SessionSummary, error) {
	dir, err := debuglog.Dir()
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		return debuglog.ResolveSession(dir, args[0])
	}
	return debuglog.LatestSession(dir)
}

// setDebugEnabled flips the debug key in the config file.
func setDebugEnabled(enabled bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.Debug = enabled
	return config.Save(cfg)
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
