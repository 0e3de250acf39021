package ui

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/samsaffron/term-chat/internal/config"
	"github.com/samsaffron/term-chat/internal/llm"
)

// backendOption represents a backend choice in the setup wizard
type backendOption struct {
	name      string
	value     string
	available bool
	hint      string // Shows how to enable if not available
}

// detectAvailableBackends checks which backends are ready to use
func detectAvailableBackends() []backendOption {
	return []backendOption{
		{
			name:      "Anthropic - hosted Claude models",
			value:     config.BackendAnthropic,
			available: os.Getenv("ANTHROPIC_API_KEY") != "",
			hint:      "set ANTHROPIC_API_KEY",
		},
		{
			name:      "Ollama - local models",
			value:     config.BackendOllama,
			available: true, // The daemon can be started after setup
			hint:      "",
		},
	}
}

// isOllamaRunning probes the local daemon so the wizard can label the option
func isOllamaRunning(baseURL string) bool {
	client := llm.NewOllamaClient(llm.OllamaConfig{BaseURL: baseURL, Timeout: 2 * time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := client.ListModels(ctx)
	return err == nil
}

// getTTY opens the controlling terminal so the wizard works under redirection
func getTTY() (*os.File, error) {
	return os.OpenFile("/dev/tty", os.O_RDWR, 0)
}

// RunSetupWizard runs the first-time setup wizard and returns the config
func RunSetupWizard() (*config.Config, error) {
	// Use /dev/tty for output to bypass redirections
	tty, ttyErr := getTTY()
	if ttyErr == nil {
		defer tty.Close()
		fmt.Fprint(tty, "Welcome to term-chat! Let's get you set up.\n\n")
	} else {
		fmt.Fprint(os.Stderr, "Welcome to term-chat! Let's get you set up.\n\n")
	}

	backends := detectAvailableBackends()
	ollamaUp := isOllamaRunning(llm.DefaultOllamaURL)

	// Build backend options - available first, then unavailable
	var options []huh.Option[string]
	var availableOptions []huh.Option[string]
	var unavailableOptions []huh.Option[string]

	for _, b := range backends {
		label := b.name
		switch {
		case b.value == config.BackendOllama && ollamaUp:
			label = b.name + " ✓"
			availableOptions = append(availableOptions, huh.NewOption(label, b.value))
		case b.value == config.BackendOllama:
			label = b.name + " (daemon not running)"
			availableOptions = append(availableOptions, huh.NewOption(label, b.value))
		case b.available:
			label = b.name + " ✓"
			availableOptions = append(availableOptions, huh.NewOption(label, b.value))
		default:
			label = b.name + " (not set)"
			unavailableOptions = append(unavailableOptions, huh.NewOption(label, b.value))
		}
	}
	options = append(options, availableOptions...)
	options = append(options, unavailableOptions...)

	// Step 1: backend selection
	var backend string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which backend do you want to use?").
				Description("Backends marked ✓ are ready to use").
				Options(options...).
				Value(&backend),
		),
	)

	if ttyErr == nil {
		tty2, _ := getTTY()
		defer tty2.Close()
		form = form.WithInput(tty2).WithOutput(tty2)
	}

	if err := form.Run(); err != nil {
		return nil, err
	}

	// Validate the selection
	var selected *backendOption
	for i := range backends {
		if backends[i].value == backend {
			selected = &backends[i]
			break
		}
	}
	if selected != nil && !selected.available {
		return nil, fmt.Errorf("backend %s is not configured\n\n%s", selected.name, selected.hint)
	}

	if ttyErr == nil {
		tty3, _ := getTTY()
		fmt.Fprintf(tty3, "\nBackend: %s ✓\n\n", selected.name)
		tty3.Close()
	}

	// Step 2: model and connection details
	cfg := &config.Config{
		Backend: backend,
		Anthropic: config.AnthropicConfig{
			Model:     config.DefaultAnthropicModel,
			MaxTokens: config.DefaultMaxTokens,
		},
		Ollama: config.OllamaConfig{
			BaseURL:    llm.DefaultOllamaURL,
			Model:      config.DefaultOllamaModel,
			NumPredict: config.DefaultNumPredict,
		},
	}

	var fields []huh.Field
	switch backend {
	case config.BackendAnthropic:
		fields = append(fields, huh.NewInput().
			Title("Model").
			Description("Anthropic model name").
			Value(&cfg.Anthropic.Model))
	case config.BackendOllama:
		fields = append(fields, huh.NewInput().
			Title("Model").
			Description("Ollama model tag (pull it with 'ollama pull <model>')").
			Value(&cfg.Ollama.Model))
		fields = append(fields, huh.NewInput().
			Title("Ollama URL").
			Description("Base URL of the Ollama daemon").
			Value(&cfg.Ollama.BaseURL))
	}

	detailForm := huh.NewForm(huh.NewGroup(fields...))
	if ttyErr == nil {
		tty4, _ := getTTY()
		defer tty4.Close()
		detailForm = detailForm.WithInput(tty4).WithOutput(tty4)
	}

	if err := detailForm.Run(); err != nil {
		return nil, err
	}

	if err := config.Save(cfg); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}

	path, _ := config.GetConfigPath()
	if tty, err := getTTY(); err == nil {
		fmt.Fprintf(tty, "Config saved to %s\n\n", path)
		tty.Close()
	} else {
		fmt.Fprintf(os.Stderr, "Config saved to %s\n\n", path)
	}

	// Reload to pick up env vars
	return config.Load()
}
