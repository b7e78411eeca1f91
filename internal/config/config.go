package config

import (
	"log/slog"

	"github.com/caarlos0/env/v10"

	"code-assistant/internal/llm"
)

// Config holds runtime configuration read once at startup.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Input limits
	MaxInputSize int `env:"MAX_INPUT_SIZE" envDefault:"65536"` // bytes of user text

	// Backend
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"ollama"` // "ollama" (local inference) or "openai" (hosted chat)

	// Local inference
	OllamaURL   string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaModel string `env:"OLLAMA_MODEL" envDefault:"codellama"`

	// Hosted chat
	OpenAIKey   string `env:"OPENAI_API_KEY"`
	OpenAIBase  string `env:"OPENAI_API_BASE" envDefault:"https://api.openai.com/v1"`
	OpenAIModel string `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}

// Ollama returns the local-inference backend configuration.
func (c Config) Ollama() llm.OllamaConfig {
	return llm.OllamaConfig{
		EndpointURL: c.OllamaURL,
		Model:       c.OllamaModel,
	}
}

// OpenAI returns the hosted-chat backend configuration.
func (c Config) OpenAI() llm.OpenAIConfig {
	return llm.OpenAIConfig{
		BaseURL:      c.OpenAIBase,
		APIKey:       c.OpenAIKey,
		Model:        c.OpenAIModel,
		Temperature:  llm.DefaultTemperature,
		SystemPrompt: llm.DefaultSystemPrompt,
	}
}
