package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"code-assistant/internal/app"
	"code-assistant/internal/httputil"
	"code-assistant/internal/llm"
	"code-assistant/internal/prompt"
)

const (
	// requestTimeout bounds a whole HTTP request; the assistant itself sets no deadline.
	requestTimeout  = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
)

type operationRequest struct {
	Input string `json:"input" validate:"required"`
}

type failureBody struct {
	Kind    llm.FailureKind `json:"kind"`
	Message string          `json:"message"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Run HTTP server
	g.Go(func() error {
		deps.Log.Info("assistant listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Shut down on signal
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("assistant stopped", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("assistant stopped")
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log, requestTimeout)

	r.Get("/healthz", httputil.HealthHandler(deps))
	r.Get("/api/status", statusHandler(deps))
	r.Get("/api/operations", operationsHandler())
	r.Post("/api/operations/{kind}", operationHandler(deps))

	return r
}

func statusHandler(deps app.Deps) http.HandlerFunc {
	backend := deps.Assistant.Backend()
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"backend":    backend.Name(),
			"model":      backend.Model(),
			"configured": deps.Configured,
		}
		if !deps.Configured {
			body["warning"] = "API key not configured. Please set the OPENAI_API_KEY environment variable."
		}
		httputil.WriteJSON(w, http.StatusOK, body)
	}
}

func operationsHandler() http.HandlerFunc {
	ops := prompt.Operations()
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"operations": ops})
	}
}

func operationHandler(deps app.Deps) http.HandlerFunc {
	maxInput := deps.Config.MaxInputSize

	return func(w http.ResponseWriter, r *http.Request) {
		op, ok := prompt.Lookup(prompt.Kind(chi.URLParam(r, "kind")))
		if !ok {
			httputil.Fail(deps.Log, w, "unknown operation", nil, http.StatusNotFound)
			return
		}

		// JSON escaping can inflate text up to six bytes per input byte.
		if maxInput > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, int64(maxInput)*6+1024)
		}
		var req operationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.Fail(deps.Log, w, op.EmptyInput, err, http.StatusBadRequest)
			return
		}
		if maxInput > 0 && len(req.Input) > maxInput {
			httputil.Fail(deps.Log, w, fmt.Sprintf("input too large (max %d bytes)", maxInput), nil, http.StatusBadRequest)
			return
		}

		id := uuid.New()
		resp := deps.Assistant.Run(r.Context(), op.Kind, req.Input)
		if !resp.OK() {
			httputil.WriteJSON(w, failureStatus(resp.Failure.Kind), map[string]any{
				"id":        id.String(),
				"operation": op.Kind,
				"error":     failureBody{Kind: resp.Failure.Kind, Message: resp.Failure.Message},
			})
			return
		}

		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"id":        id.String(),
			"operation": op.Kind,
			"label":     op.Label,
			"heading":   op.Heading,
			"format":    op.Format,
			"result":    resp.Text,
		})
	}
}

// failureStatus maps a failure kind to the status returned to the UI.
func failureStatus(kind llm.FailureKind) int {
	switch kind {
	case llm.ConfigError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
