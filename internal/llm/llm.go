package llm

import (
	"context"
	"errors"
	"fmt"
)

// Backend submits a fully built instruction to a model server and returns the
// generated text. Implementations make exactly one outbound call per Submit and
// report failures as *Error.
type Backend interface {
	Submit(ctx context.Context, instruction string) (string, error)
	// Name identifies the backend in logs and status output.
	Name() string
	Model() string
}

// FailureKind classifies why a call did not produce text.
type FailureKind string

const (
	NetworkError           FailureKind = "network_error"
	HTTPStatusError        FailureKind = "http_status_error"
	MalformedResponseError FailureKind = "malformed_response_error"
	ConfigError            FailureKind = "config_error"
)

// ErrAPIKeyMissing is wrapped by the ConfigError returned when the hosted
// backend has no key.
var ErrAPIKeyMissing = errors.New("API key not configured")

// Error is the failure value returned by every Backend.
type Error struct {
	Kind    FailureKind
	Message string
	// StatusCode is set for HTTPStatusError.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func networkError(err error) *Error {
	return &Error{Kind: NetworkError, Message: fmt.Sprintf("request failed: %v", err), Err: err}
}

func statusError(code int, body string) *Error {
	msg := fmt.Sprintf("unexpected status %d", code)
	if body != "" {
		msg = fmt.Sprintf("%s: %s", msg, body)
	}
	return &Error{Kind: HTTPStatusError, Message: msg, StatusCode: code}
}

func malformedError(format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{Kind: MalformedResponseError, Message: err.Error(), Err: errors.Unwrap(err)}
}

// AsError converts any error into an *Error. Errors that are not already
// classified count as network failures.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return le
	}
	return networkError(err)
}

// NewConfigError builds a ConfigError with the given message.
func NewConfigError(message string) *Error {
	return &Error{Kind: ConfigError, Message: message}
}
