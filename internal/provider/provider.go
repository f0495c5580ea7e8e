// Package provider wraps each language-model backend behind a uniform
// generate-text capability. Wire protocols stay inside this package;
// callers see only Client, Status, and typed errors.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Client is the single capability a backend must expose.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// StatusKind classifies a provider's readiness, decided once at startup.
type StatusKind string

const (
	StatusNotConfigured StatusKind = "not_configured"
	StatusReady         StatusKind = "ready"
	StatusError         StatusKind = "error"
)

// Status is the startup readiness snapshot for one provider.
type Status struct {
	Kind   StatusKind
	Reason string
}

func (s Status) String() string {
	if s.Reason == "" {
		return string(s.Kind)
	}
	return fmt.Sprintf("%s: %s", s.Kind, s.Reason)
}

// Error is a structured failure from a backend call. Retryable marks
// transient transport or payload failures; auth and quota problems are
// final.
type Error struct {
	Provider  string
	Code      string
	Message   string
	Retryable bool
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// AsError returns the *Error inside err, if any.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
