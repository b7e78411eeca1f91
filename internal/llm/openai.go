package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	DefaultOpenAIBase   = "https://api.openai.com/v1"
	DefaultOpenAIModel  = "gpt-3.5-turbo"
	DefaultTemperature  = 0.7
	DefaultSystemPrompt = "You are a helpful programming assistant."
)

// OpenAIConfig is the connection configuration for a hosted chat-completions API.
type OpenAIConfig struct {
	BaseURL      string
	APIKey       string
	Model        string
	Temperature  float64
	SystemPrompt string
}

// OpenAIBackend calls the Chat Completions API of OpenAI or any compatible server.
type OpenAIBackend struct {
	cfg    OpenAIConfig
	client *openai.Client
}

// NewOpenAIBackend builds a backend for cfg. An empty APIKey is accepted; every
// Submit then fails with ConfigError before any request is made.
func NewOpenAIBackend(cfg OpenAIConfig, httpClient *http.Client) *OpenAIBackend {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBase
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}

	// One call per Submit: the SDK's own retries stay off.
	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	cli := openai.NewClient(opts...)
	return &OpenAIBackend{
		cfg:    cfg,
		client: &cli,
	}
}

func (b *OpenAIBackend) Name() string  { return "openai" }
func (b *OpenAIBackend) Model() string { return b.cfg.Model }

// Configured reports whether an API key is present.
func (b *OpenAIBackend) Configured() bool {
	return b.cfg.APIKey != ""
}

// Submit sends the instruction as the user message after the system preamble.
func (b *OpenAIBackend) Submit(ctx context.Context, instruction string) (string, error) {
	if !b.Configured() {
		return "", &Error{Kind: ConfigError, Message: ErrAPIKeyMissing.Error(), Err: ErrAPIKeyMissing}
	}

	var ex exchange
	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(b.cfg.Model),
		Messages:    buildMessages(b.cfg.SystemPrompt, instruction),
		Temperature: openai.Float(b.cfg.Temperature),
	}, option.WithMiddleware(ex.record))
	if err != nil {
		return "", ex.classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", malformedError("chat completion has no choices")
	}
	msg := resp.Choices[0].Message
	if !msg.JSON.Content.Valid() {
		return "", malformedError("chat completion choice has no message content")
	}
	return msg.Content, nil
}

func buildMessages(system, user string) []openai.ChatCompletionMessageParamUnion {
	return []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(system),
				},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: openai.String(user),
				},
			},
		},
	}
}

// exchange records what the transport saw for a single SDK call, so an SDK
// error can be attributed to the network, the status, or the payload.
type exchange struct {
	responded bool
	status    int
}

func (x *exchange) record(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	resp, err := next(req)
	if resp != nil {
		x.responded = true
		x.status = resp.StatusCode
	}
	return resp, err
}

func (x *exchange) classify(err error) *Error {
	if !x.responded {
		return networkError(err)
	}
	if x.status < 200 || x.status > 299 {
		detail := ""
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			detail = apiErr.Message
		}
		e := statusError(x.status, detail)
		e.Err = err
		return e
	}
	return malformedError("decode chat completion: %w", err)
}

var _ Backend = (*OpenAIBackend)(nil)
