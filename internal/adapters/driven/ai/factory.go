// Package ai provides factory functions for creating provider adapters
// from configuration.
package ai

import (
	"fmt"
	"os"

	ollamaembed "github.com/fernwood-labs/recall-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/fernwood-labs/recall-cli/internal/adapters/driven/embedding/openai"
	openaichat "github.com/fernwood-labs/recall-cli/internal/adapters/driven/llm/openai"
	"github.com/fernwood-labs/recall-cli/internal/config"
	"github.com/fernwood-labs/recall-cli/internal/core/domain"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driven"
)

// apiKeyEnv is where the OpenAI key is read from.
const apiKeyEnv = "OPENAI_API_KEY"

// NewEmbeddingService builds the configured embedding provider.
func NewEmbeddingService(cfg config.Config) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(apiKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("%w: %s is not set", domain.ErrProviderUnavailable, apiKeyEnv)
		}
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  apiKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})

	case config.ProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil

	default:
		return nil, fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, cfg.Provider)
	}
}

// NewChatService builds the chat provider used by the answer command.
// Answering always goes through OpenAI-compatible chat completions.
func NewChatService(cfg config.Config) (driven.ChatService, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s is not set", domain.ErrProviderUnavailable, apiKeyEnv)
	}

	// The base URL override only applies when the embedding provider is
	// also OpenAI-compatible; an Ollama base URL has no chat endpoint.
	baseURL := ""
	if cfg.Provider == config.ProviderOpenAI {
		baseURL = cfg.BaseURL
	}

	return openaichat.NewChatService(openaichat.Config{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   cfg.ChatModel,
	})
}
