package cmd

import (
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/samsaffron/term-chat/internal/config"
	"github.com/samsaffron/term-chat/internal/debuglog"
	"github.com/samsaffron/term-chat/internal/llm"
	"github.com/samsaffron/term-chat/internal/ui"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func loadConfigWithSetup() (*config.Config, error) {
	if config.NeedsSetup() {
		cfg, err := ui.RunSetupWizard()
		if err != nil {
			return nil, fmt.Errorf("setup cancelled: %w", err)
		}
		return cfg, nil
	}

	return loadConfig()
}

// newDebugLogger opens the wire debug log when enabled by flag or config.
// A nil logger is valid; every call on it is a no-op.
func newDebugLogger(cfg *config.Config) *debuglog.Logger {
	if !debugLog && !cfg.Debug {
		return nil
	}
	logger, err := debuglog.Default()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: debug log disabled: %v\n", err)
		return nil
	}
	fmt.Fprintf(os.Stderr, "debug log: %s\n", logger.Path())
	return logger
}

func buildAnthropicClient(cfg *config.Config) (*llm.AnthropicClient, error) {
	apiKey, err := config.ResolveSecret(cfg.Anthropic.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve anthropic api_key: %w", err)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key not configured; set ANTHROPIC_API_KEY or run 'term-chat setup'")
	}
	return llm.NewAnthropicClient(
		cfg.Anthropic.Model,
		int64(cfg.Anthropic.MaxTokens),
		option.WithAPIKey(apiKey),
	), nil
}

func buildOllamaClient(cfg *config.Config) *llm.OllamaClient {
	return llm.NewOllamaClient(llm.OllamaConfig{
		BaseURL:    cfg.Ollama.BaseURL,
		Model:      cfg.Ollama.Model,
		NumPredict: cfg.Ollama.NumPredict,
	})
}
