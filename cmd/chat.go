package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samsaffron/term-chat/internal/config"
	"github.com/samsaffron/term-chat/internal/tui/chat"
	"github.com/spf13/cobra"
)

var (
	chatModel     string
	chatMaxTokens int
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the hosted Anthropic backend",
	Long: `Start an interactive chat session against the Anthropic API.

Examples:
  term-chat chat
  term-chat chat -m claude-haiku-4-5
  term-chat chat --max-tokens 4000

Keyboard shortcuts:
  Enter        - Send message
  Ctrl+J       - Insert newline
  Ctrl+C       - Quit
  Ctrl+K       - Clear conversation

Slash commands:
  /help        - Show help
  /clear       - Clear conversation
  /last        - Reprint the last reply with highlighted code
  /quit        - Exit chat`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "Override the configured model")
	chatCmd.Flags().IntVar(&chatMaxTokens, "max-tokens", 0, "Override the configured response token limit")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigWithSetup()
	if err != nil {
		return err
	}
	cfg.ApplyOverrides(config.BackendAnthropic, chatModel)
	if chatMaxTokens > 0 {
		cfg.Anthropic.MaxTokens = chatMaxTokens
	}

	client, err := buildAnthropicClient(cfg)
	if err != nil {
		return err
	}

	logger := newDebugLogger(cfg)
	defer logger.Close()

	model := chat.New(cfg, client, logger)

	// Inline mode - no alt screen, the transcript scrolls with the terminal
	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run chat: %w", err)
	}

	return nil
}
