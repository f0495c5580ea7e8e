// Package router dispatches sanitized prompts to a selected provider
// with bounded retries and uniform response shaping.
package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"chatwarden/internal/audit"
	"chatwarden/internal/filter"
	"chatwarden/internal/provider"
)

const (
	// MaxRetries bounds dispatch attempts per query.
	MaxRetries = 3
	// DefaultRetryDelay is the base delay; attempt n waits n times this.
	DefaultRetryDelay = time.Second
	// MaxResponseLen caps the text returned to the caller.
	MaxResponseLen = 2000
	// AttemptTimeout bounds each individual provider call.
	AttemptTimeout = 30 * time.Second
)

// Kind classifies router failures.
type Kind string

const (
	KindEmptyPrompt   Kind = "empty_prompt"
	KindNotConfigured Kind = "provider_not_configured"
	KindExhausted     Kind = "provider_exhausted"
)

// Error is a typed dispatch failure.
type Error struct {
	Kind     Kind
	Provider string
	Reason   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("dispatch to %s failed (%s): %s", e.Provider, e.Kind, e.Reason)
}

// ClientSource resolves a provider id to its client and startup status.
// *provider.Registry satisfies this.
type ClientSource interface {
	Client(id string) (provider.Client, provider.Status)
}

// Auditor records dispatch decisions.
type Auditor interface {
	Record(entry audit.Entry) error
}

// Config wires the router's collaborators. Filter and Source are
// required.
type Config struct {
	Filter *filter.Filter
	Source ClientSource
	// RetryDelay overrides the base backoff delay. Tests shrink it.
	RetryDelay time.Duration
	// AttemptTimeout overrides the per-call deadline.
	AttemptTimeout time.Duration
	Logger         *zap.Logger
	Audit          Auditor
	SessionID      string
}

// Router sends prompts to providers.
type Router struct {
	filter         *filter.Filter
	source         ClientSource
	retryDelay     time.Duration
	attemptTimeout time.Duration
	log            *zap.Logger
	audit          Auditor
	sessionID      string
}

// New creates a Router.
func New(cfg Config) (*Router, error) {
	if cfg.Filter == nil {
		return nil, fmt.Errorf("router: filter is required")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("router: client source is required")
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = AttemptTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Router{
		filter:         cfg.Filter,
		source:         cfg.Source,
		retryDelay:     cfg.RetryDelay,
		attemptTimeout: cfg.AttemptTimeout,
		log:            cfg.Logger,
		audit:          cfg.Audit,
		sessionID:      cfg.SessionID,
	}, nil
}

// Query sanitizes prompt and dispatches it to providerID with bounded
// retries. The returned text is truncated to MaxResponseLen.
func (r *Router) Query(ctx context.Context, providerID, prompt string) (string, error) {
	// Whitespace-only prompts are a usability miss, not a violation.
	if strings.TrimSpace(prompt) == "" {
		return "", &Error{Kind: KindEmptyPrompt, Provider: providerID, Reason: "prompt is empty"}
	}

	sanitized, err := r.filter.Sanitize(prompt)
	if err != nil {
		// Security rejections short-circuit dispatch and are never retried.
		return "", err
	}

	client, status := r.source.Client(providerID)
	if status.Kind != provider.StatusReady {
		r.record(providerID, "deny", string(status.Kind))
		return "", &Error{Kind: KindNotConfigured, Provider: providerID,
			Reason: status.String()}
	}

	var lastErr error
	for attempt := 1; attempt <= MaxRetries; attempt++ {
		text, err := r.attempt(ctx, providerID, client, sanitized)
		if err == nil {
			r.record(providerID, "allow", "")
			r.log.Info("dispatch succeeded",
				zap.String("provider", providerID),
				zap.Int("attempt", attempt))
			return truncate(text, MaxResponseLen), nil
		}
		lastErr = err

		if pe, ok := provider.AsError(err); ok && !pe.Retryable {
			r.record(providerID, "deny", pe.Code)
			return "", err
		}

		r.log.Warn("dispatch attempt failed",
			zap.String("provider", providerID),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < MaxRetries {
			if err := sleep(ctx, r.retryDelay*time.Duration(attempt)); err != nil {
				return "", err
			}
		}
	}

	r.record(providerID, "deny", "exhausted")
	return "", &Error{Kind: KindExhausted, Provider: providerID,
		Reason: truncate(lastErr.Error(), 200)}
}

// attempt makes one bounded provider call. An empty payload counts as a
// retryable provider failure, never as success.
func (r *Router) attempt(ctx context.Context, providerID string, client provider.Client, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.attemptTimeout)
	defer cancel()

	text, err := client.Generate(callCtx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", &provider.Error{Provider: providerID, Message: "empty response payload", Retryable: true}
	}
	return text, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *Router) record(providerID, decision, reason string) {
	if r.audit == nil {
		return
	}
	err := r.audit.Record(audit.Entry{
		SessionID: r.sessionID,
		Event:     audit.EventDispatch,
		Subject:   providerID,
		Decision:  decision,
		Reason:    reason,
	})
	if err != nil {
		r.log.Warn("audit write failed", zap.Error(err))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
