package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/samsaffron/term-chat/internal/config"
	"github.com/samsaffron/term-chat/internal/llm"
	"github.com/spf13/cobra"
)

// ModelFlagCompletion completes --model against the models the local daemon
// has installed. Shell completion must never hang, so the lookup gets a
// short timeout and any failure completes to nothing.
func ModelFlagCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := config.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	baseURL := cfg.Ollama.BaseURL
	if localURL != "" {
		baseURL = localURL
	}

	client := llm.NewOllamaClient(llm.OllamaConfig{
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	names, err := client.ListModels(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var completions []string
	for _, name := range names {
		if strings.HasPrefix(name, toComplete) {
			completions = append(completions, name)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}
