package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "codellama"

	mimeJSON = "application/json"

	// maxErrorBody caps how much of a failed response ends up in a message.
	maxErrorBody = 512
)

// OllamaConfig is the connection configuration for a local inference server.
type OllamaConfig struct {
	EndpointURL string
	Model       string
}

// OllamaBackend calls the /api/generate endpoint of an Ollama server.
type OllamaBackend struct {
	cfg        OllamaConfig
	httpClient *http.Client
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response *string `json:"response"`
}

// NewOllamaBackend creates a backend for cfg. A nil httpClient uses a client
// without a timeout; callers wanting bounded latency pass their own.
func NewOllamaBackend(cfg OllamaConfig, httpClient *http.Client) *OllamaBackend {
	if cfg.EndpointURL == "" {
		cfg.EndpointURL = DefaultOllamaURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OllamaBackend{cfg: cfg, httpClient: httpClient}
}

func (b *OllamaBackend) Name() string  { return "ollama" }
func (b *OllamaBackend) Model() string { return b.cfg.Model }

// Submit performs a single non-streaming generate call.
func (b *OllamaBackend) Submit(ctx context.Context, instruction string) (string, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  b.cfg.Model,
		Prompt: instruction,
		Stream: false,
	})
	if err != nil {
		return "", &Error{Kind: ConfigError, Message: fmt.Sprintf("encode request: %v", err), Err: err}
	}

	url := strings.TrimRight(b.cfg.EndpointURL, "/") + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: ConfigError, Message: fmt.Sprintf("invalid endpoint %q: %v", b.cfg.EndpointURL, err), Err: err}
	}
	req.Header.Set("Content-Type", mimeJSON)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", networkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", networkError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusError(resp.StatusCode, snippet(raw))
	}

	var out ollamaGenerateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", malformedError("decode generate response: %w", err)
	}
	if out.Response == nil {
		return "", malformedError("generate response has no %q field", "response")
	}
	return *out.Response, nil
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}

var _ Backend = (*OllamaBackend)(nil)
