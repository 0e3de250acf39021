package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	BackendAnthropic = "anthropic"
	BackendOllama    = "ollama"
)

// Defaults applied when the config file does not set a value.
const (
	DefaultAnthropicModel = "claude-sonnet-4-5"
	DefaultMaxTokens      = 2000
	DefaultOllamaModel    = "gemma3:4b"
	DefaultNumPredict     = 1024
)

type Config struct {
	Backend   string          `mapstructure:"backend" yaml:"backend"`
	Debug     bool            `mapstructure:"debug" yaml:"debug,omitempty"`
	Anthropic AnthropicConfig `mapstructure:"anthropic" yaml:"anthropic"`
	Ollama    OllamaConfig    `mapstructure:"ollama" yaml:"ollama"`
}

// APIKey is read from the file or the environment but never written back;
// Save always leaves it out.
type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key" yaml:"-"`
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

type OllamaConfig struct {
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	Model      string `mapstructure:"model" yaml:"model"`
	NumPredict int    `mapstructure:"num_predict" yaml:"num_predict"`
}

func Load() (*Config, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}

	configPath := filepath.Join(configDir, "term-chat")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath(".")

	// Set defaults
	viper.SetDefault("backend", BackendAnthropic)
	viper.SetDefault("anthropic.model", DefaultAnthropicModel)
	viper.SetDefault("anthropic.max_tokens", DefaultMaxTokens)
	viper.SetDefault("ollama.model", DefaultOllamaModel)
	viper.SetDefault("ollama.num_predict", DefaultNumPredict)

	// Read config file (optional - won't error if missing)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The key stays raw here; op:// and $(...) values resolve through
	// ResolveSecret when a client is built.
	if cfg.Anthropic.APIKey == "" {
		cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	cfg.Ollama.BaseURL = expandEnv(cfg.Ollama.BaseURL)
	if cfg.Ollama.BaseURL == "" {
		cfg.Ollama.BaseURL = os.Getenv("OLLAMA_HOST")
	}
	cfg.Ollama.BaseURL = normalizeBaseURL(cfg.Ollama.BaseURL)

	if !cfg.Debug {
		cfg.Debug = boolEnv("TERM_CHAT_DEBUG", false)
	}

	return &cfg, nil
}

// boolEnv parses a boolean-like environment variable with a fallback
// default. Empty or unrecognized values return the default.
func boolEnv(name string, defaultValue bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	switch value {
	case "1", "true", "yes", "on", "y":
		return true
	case "0", "false", "no", "off", "n":
		return false
	default:
		return defaultValue
	}
}

// ApplyOverrides applies command-line overrides on top of the loaded
// config. Empty values leave the config untouched; the model override goes
// to whichever backend is active.
func (c *Config) ApplyOverrides(backend, model string) {
	if backend != "" {
		c.Backend = backend
	}
	if model == "" {
		return
	}
	switch c.Backend {
	case BackendOllama:
		c.Ollama.Model = model
	default:
		c.Anthropic.Model = model
	}
}

// expandEnv expands ${VAR} or $VAR in a string
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}

// normalizeBaseURL defaults the scheme; OLLAMA_HOST is commonly host:port
// without one.
func normalizeBaseURL(u string) string {
	if u == "" {
		return "http://localhost:11434"
	}
	if !strings.Contains(u, "://") {
		return "http://" + u
	}
	return u
}

// GetConfigPath returns the path where the config file should be located
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "term-chat", "config.yaml"), nil
}

// Exists returns true if a config file exists
func Exists() bool {
	path, err := GetConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// NeedsSetup returns true if config file doesn't exist
func NeedsSetup() bool {
	return !Exists()
}

// Save writes the config to disk. The API key is deliberately not
// persisted; it stays in the environment.
func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
