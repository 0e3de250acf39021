package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/samsaffron/term-chat/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	modelsURL  string
	modelsJSON bool
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models installed in the local Ollama daemon",
	Long: `List the models the local Ollama daemon has installed.

Useful for finding model names to configure or to pass to 'local -m'.

Examples:
  term-chat models
  term-chat models --json
  term-chat models --url http://192.168.1.20:11434`,
	RunE: runModelsList,
}

func init() {
	modelsCmd.Flags().StringVar(&modelsURL, "url", "", "Override the Ollama base URL")
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(modelsCmd)
}

func runModelsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if modelsURL != "" {
		cfg.Ollama.BaseURL = modelsURL
	}

	client := buildOllamaClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	models, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	if len(models) == 0 {
		fmt.Println("No models installed. Pull one with 'ollama pull <model>'.")
		return nil
	}

	if modelsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(models)
	}

	// Pretty print, marking the configured model
	styles := ui.NewStyles(os.Stdout)
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))

	fmt.Printf("Models installed at %s:\n\n", cfg.Ollama.BaseURL)
	for _, name := range models {
		if isTTY {
			fmt.Println(styles.FormatActive(name == cfg.Ollama.Model, name))
		} else {
			fmt.Printf("  %s\n", name)
		}
	}

	fmt.Printf("\nChat with one:\n  term-chat local -m <model>\n")

	return nil
}
