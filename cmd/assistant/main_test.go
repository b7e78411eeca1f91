package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"code-assistant/internal/app"
	"code-assistant/internal/assistant"
	"code-assistant/internal/config"
	"code-assistant/internal/llm"
	"code-assistant/internal/prompt"
)

func newTestDeps(backend llm.Backend, configured bool) app.Deps {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return app.Deps{
		Config: config.Config{
			MaxInputSize: 64,
		},
		Log:        log,
		Assistant:  assistant.New(log, backend, prompt.Chat),
		Configured: configured,
	}
}

func decode(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestOperationHandler(t *testing.T) {
	tests := []struct {
		name          string
		kind          string
		body          string
		setup         func(*llm.MockBackend)
		wantStatus    int
		checkResponse func(*testing.T, map[string]any)
	}{
		{
			name: "generate code",
			kind: "generate",
			body: `{"input":"reverse a string"}`,
			setup: func(b *llm.MockBackend) {
				b.On("Submit", mock.Anything, prompt.Build(prompt.KindGenerateCode, "reverse a string")).
					Return("func reverse(s string) string", nil).Once()
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "func reverse(s string) string", body["result"])
				assert.Equal(t, "generate", body["operation"])
				assert.Equal(t, "code", body["format"])
				_, err := uuid.Parse(body["id"].(string))
				assert.NoError(t, err)
			},
		},
		{
			name: "security check renders markdown",
			kind: "security",
			body: `{"input":"os.system(cmd)"}`,
			setup: func(b *llm.MockBackend) {
				b.On("Submit", mock.Anything, prompt.Build(prompt.KindSecurityCheck, "os.system(cmd)")).
					Return("Command injection", nil).Once()
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "markdown", body["format"])
				assert.Equal(t, "Security Analysis", body["heading"])
				assert.Equal(t, "Command injection", body["result"])
			},
		},
		{
			name:       "empty input uses operation warning",
			kind:       "analyze",
			body:       `{"input":""}`,
			wantStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Please enter code to analyze.", body["error"])
			},
		},
		{
			name:       "missing input",
			kind:       "tests",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Please enter code for test generation.", body["error"])
			},
		},
		{
			name:       "invalid json",
			kind:       "generate",
			body:       `{"input":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "input too large",
			kind:       "generate",
			body:       `{"input":"` + strings.Repeat("a", 65) + `"}`,
			wantStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "input too large (max 64 bytes)", body["error"])
			},
		},
		{
			name:       "unknown operation",
			kind:       "translate",
			body:       `{"input":"x"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name: "upstream status failure",
			kind: "analyze",
			body: `{"input":"x"}`,
			setup: func(b *llm.MockBackend) {
				b.On("Submit", mock.Anything, mock.Anything).
					Return("", &llm.Error{Kind: llm.HTTPStatusError, Message: "unexpected status 500", StatusCode: 500}).Once()
			},
			wantStatus: http.StatusBadGateway,
			checkResponse: func(t *testing.T, body map[string]any) {
				failure := body["error"].(map[string]any)
				assert.Equal(t, string(llm.HTTPStatusError), failure["kind"])
				assert.Equal(t, "unexpected status 500", failure["message"])
			},
		},
		{
			name: "missing api key",
			kind: "generate",
			body: `{"input":"x"}`,
			setup: func(b *llm.MockBackend) {
				b.On("Submit", mock.Anything, mock.Anything).
					Return("", llm.NewConfigError("API key not configured")).Once()
			},
			wantStatus: http.StatusServiceUnavailable,
			checkResponse: func(t *testing.T, body map[string]any) {
				failure := body["error"].(map[string]any)
				assert.Equal(t, string(llm.ConfigError), failure["kind"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := new(llm.MockBackend)
			if tt.setup != nil {
				tt.setup(backend)
			}

			router := newRouter(newTestDeps(backend, true))
			req := httptest.NewRequest(http.MethodPost, "/api/operations/"+tt.kind, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.checkResponse != nil {
				tt.checkResponse(t, decode(t, w.Body))
			}
			backend.AssertExpectations(t)
			if tt.setup == nil {
				backend.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestOperationsHandler(t *testing.T) {
	router := newRouter(newTestDeps(new(llm.MockBackend), true))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/operations", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Operations []prompt.Operation `json:"operations"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, prompt.Operations(), body.Operations)
}

func TestStatusHandler(t *testing.T) {
	tests := []struct {
		name       string
		configured bool
	}{
		{"configured", true},
		{"missing key", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(newTestDeps(new(llm.MockBackend), tt.configured))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

			require.Equal(t, http.StatusOK, w.Code)
			body := decode(t, w.Body)
			assert.Equal(t, "mock", body["backend"])
			assert.Equal(t, "mock-model", body["model"])
			assert.Equal(t, tt.configured, body["configured"])
			_, hasWarning := body["warning"]
			assert.Equal(t, !tt.configured, hasWarning)
		})
	}
}

func TestHealthz(t *testing.T) {
	router := newRouter(newTestDeps(new(llm.MockBackend), true))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestFailureStatus(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, failureStatus(llm.ConfigError))
	assert.Equal(t, http.StatusBadGateway, failureStatus(llm.NetworkError))
	assert.Equal(t, http.StatusBadGateway, failureStatus(llm.HTTPStatusError))
	assert.Equal(t, http.StatusBadGateway, failureStatus(llm.MalformedResponseError))
}
