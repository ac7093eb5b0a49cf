package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("data not found")
	ErrSchemaMismatch     = errors.New("schema mismatch")
	ErrInvalidInput       = errors.New("invalid input")
	ErrAgentNotConfigured = errors.New("agent not configured")
)

// DetailError pairs one of the error kinds above with a message that is
// safe to show to API clients.
type DetailError struct {
	Kind   error
	Detail string
}

func (e *DetailError) Error() string { return e.Detail }

func (e *DetailError) Unwrap() error { return e.Kind }

func NotFound(format string, args ...any) error {
	return &DetailError{Kind: ErrNotFound, Detail: fmt.Sprintf(format, args...)}
}

func SchemaMismatch(format string, args ...any) error {
	return &DetailError{Kind: ErrSchemaMismatch, Detail: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...any) error {
	return &DetailError{Kind: ErrInvalidInput, Detail: fmt.Sprintf(format, args...)}
}

func AgentNotConfigured(format string, args ...any) error {
	return &DetailError{Kind: ErrAgentNotConfigured, Detail: fmt.Sprintf(format, args...)}
}

// UpstreamError carries a failed third-party response back to the caller.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s request failed: %d %s", e.Service, e.StatusCode, e.Body)
}
