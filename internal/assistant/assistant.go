package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"code-assistant/internal/llm"
	"code-assistant/internal/prompt"
)

// Response is the outcome of one operation. Exactly one of Text and Failure is
// meaningful: Failure is nil on success.
type Response struct {
	Text    string
	Failure *llm.Error
}

// OK reports whether the backend produced text.
func (r Response) OK() bool {
	return r.Failure == nil
}

// Client wraps user text in an instruction template and submits it to a backend.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	log       *slog.Logger
	backend   llm.Backend
	templates prompt.Templates
}

// New creates a Client. A nil templates value selects prompt.Chat.
func New(log *slog.Logger, backend llm.Backend, templates prompt.Templates) *Client {
	if templates == nil {
		templates = prompt.Chat
	}
	return &Client{log: log, backend: backend, templates: templates}
}

func (c *Client) GenerateCode(ctx context.Context, text string) Response {
	return c.Run(ctx, prompt.KindGenerateCode, text)
}

func (c *Client) AnalyzeCode(ctx context.Context, text string) Response {
	return c.Run(ctx, prompt.KindAnalyzeCode, text)
}

func (c *Client) SecurityCheck(ctx context.Context, text string) Response {
	return c.Run(ctx, prompt.KindSecurityCheck, text)
}

func (c *Client) GenerateTests(ctx context.Context, text string) Response {
	return c.Run(ctx, prompt.KindGenerateTests, text)
}

// Run performs one operation: a single backend call, never retried.
// Failures are returned in the Response, never as a Go error or panic.
func (c *Client) Run(ctx context.Context, kind prompt.Kind, text string) Response {
	log := c.log.With("operation", kind, "backend", c.backend.Name(), "model", c.backend.Model())
	if !kind.Valid() {
		fail := llm.NewConfigError(fmt.Sprintf("unsupported operation: %q", kind))
		log.Warn("operation rejected", "kind", fail.Kind, "err", fail.Message)
		return Response{Failure: fail}
	}

	start := time.Now()
	out, err := c.backend.Submit(ctx, c.templates.Build(kind, text))
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		fail := llm.AsError(err)
		log.Warn("operation failed", "kind", fail.Kind, "status", fail.StatusCode, "err", fail.Message, "duration_ms", elapsed)
		return Response{Failure: fail}
	}
	log.Info("operation completed", "chars", len(out), "duration_ms", elapsed)
	return Response{Text: out}
}

// Backend returns the backend this client submits to.
func (c *Client) Backend() llm.Backend {
	return c.backend
}
