package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/joho/godotenv"

	"code-assistant/internal/assistant"
	"code-assistant/internal/config"
	"code-assistant/internal/llm"
	"code-assistant/internal/logger"
	"code-assistant/internal/prompt"
)

// Deps bundles the runtime dependencies of the service.
type Deps struct {
	Config    config.Config
	Log       *slog.Logger
	Assistant *assistant.Client
	// Configured is false when the selected backend is missing a required secret.
	Configured bool
}

// Build loads env, config, and shared components.
func Build() (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	return BuildWith(cfg, log, nil)
}

// BuildWith wires components from an already loaded config. A nil httpClient
// leaves the backend on its default transport.
func BuildWith(cfg config.Config, log *slog.Logger, httpClient *http.Client) (Deps, error) {
	backend, templates, configured, err := buildBackend(cfg, log, httpClient)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize LLM backend: %w", err)
	}
	return Deps{
		Config:     cfg,
		Log:        log,
		Assistant:  assistant.New(log, backend, templates),
		Configured: configured,
	}, nil
}

func buildBackend(cfg config.Config, log *slog.Logger, httpClient *http.Client) (llm.Backend, prompt.Templates, bool, error) {
	switch cfg.LLMProvider {
	case "ollama":
		if cfg.OllamaURL == "" {
			return nil, nil, false, fmt.Errorf("OLLAMA_URL is required when LLM_PROVIDER=ollama")
		}
		backend := llm.NewOllamaBackend(cfg.Ollama(), httpClient)
		log.Info("using Ollama backend", "url", cfg.OllamaURL, "model", backend.Model())
		return backend, prompt.Local, true, nil
	case "openai":
		backend := llm.NewOpenAIBackend(cfg.OpenAI(), httpClient)
		if !backend.Configured() {
			log.Warn("OpenAI API key not configured; set OPENAI_API_KEY", "base", cfg.OpenAIBase)
		}
		log.Info("using OpenAI backend", "base", cfg.OpenAIBase, "model", backend.Model())
		return backend, prompt.Chat, backend.Configured(), nil
	default:
		return nil, nil, false, fmt.Errorf("invalid LLM_PROVIDER: %s (valid options: ollama, openai)", cfg.LLMProvider)
	}
}
