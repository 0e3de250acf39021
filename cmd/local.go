package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samsaffron/term-chat/internal/config"
	"github.com/samsaffron/term-chat/internal/tui/chat"
	"github.com/spf13/cobra"
)

var (
	localModel string
	localURL   string
)

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Chat with a local Ollama model",
	Long: `Start an interactive chat session against a local Ollama daemon.

The configured model is checked on startup; a missing model only warns,
it never blocks the session.

Examples:
  term-chat local
  term-chat local -m llama3
  term-chat local --url http://192.168.1.20:11434

Model switching:
  /model       - Pick from installed models (also Ctrl+L)
  /models      - List installed models`,
	RunE: runLocal,
}

func init() {
	localCmd.Flags().StringVarP(&localModel, "model", "m", "", "Override the configured model")
	localCmd.Flags().StringVar(&localURL, "url", "", "Override the Ollama base URL")
	if err := localCmd.RegisterFlagCompletionFunc("model", ModelFlagCompletion); err != nil {
		panic(fmt.Sprintf("failed to register model completion: %v", err))
	}
	rootCmd.AddCommand(localCmd)
}

func runLocal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigWithSetup()
	if err != nil {
		return err
	}
	cfg.ApplyOverrides(config.BackendOllama, localModel)
	if localURL != "" {
		cfg.Ollama.BaseURL = localURL
	}

	client := buildOllamaClient(cfg)

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
