// Package config loads the recall CLI configuration from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Provider names accepted in the config file.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config holds all user-tunable settings. API keys never live here; they
// come from the environment (OPENAI_API_KEY), optionally via a .env file.
type Config struct {
	// Provider selects the embedding backend: "openai" or "ollama".
	Provider string `toml:"provider"`

	// Model is the embedding model. Empty uses the provider's default.
	Model string `toml:"model"`

	// BaseURL overrides the provider's API base URL.
	BaseURL string `toml:"base_url"`

	// ChatModel is the model used by the answer command.
	ChatModel string `toml:"chat_model"`

	// Database is the SQLite database file path.
	Database string `toml:"database"`

	// BatchSize is how many texts go into one embedding request.
	BatchSize int `toml:"batch_size"`

	// Concurrency caps simultaneously in-flight embedding batches.
	Concurrency int `toml:"concurrency"`

	// RequestsPerSecond limits the sustained embedding request rate.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider:          ProviderOpenAI,
		BatchSize:         512,
		Concurrency:       4,
		RequestsPerSecond: 2.0,
	}
}

// DefaultPath returns ~/.recall/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".recall", "config.toml"), nil
}

// Load reads the config file at path, falling back to DefaultPath when
// path is empty. A missing file is not an error: defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func (c Config) Save(path string) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
