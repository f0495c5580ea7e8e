package router

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"chatwarden/internal/filter"
	"chatwarden/internal/provider"
)

// fakeClient returns canned responses in order, repeating the last one.
type fakeClient struct {
	calls     int
	responses []string
	errs      []error
}

func (f *fakeClient) Generate(_ context.Context, _ string) (string, error) {
	i := f.calls
	f.calls++
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return f.responses[i], err
}

// fakeSource maps one provider id to a client and status.
type fakeSource struct {
	id     string
	client provider.Client
	status provider.Status
}

func (f *fakeSource) Client(id string) (provider.Client, provider.Status) {
	if id != f.id {
		return nil, provider.Status{Kind: provider.StatusNotConfigured, Reason: "unknown provider"}
	}
	return f.client, f.status
}

func newTestRouter(t *testing.T, source ClientSource) *Router {
	t.Helper()
	r, err := New(Config{
		Filter:     filter.New(filter.DefaultSet(), filter.Config{}),
		Source:     source,
		RetryDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	return r
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	var re *Error
	if !errors.As(err, &re) {
		t.Fatalf("expected *router.Error, got %T: %v", err, err)
	}
	if re.Kind != kind {
		t.Fatalf("expected kind %s, got %s", kind, re.Kind)
	}
}

func readySource(client provider.Client) *fakeSource {
	return &fakeSource{id: "fake", client: client, status: provider.Status{Kind: provider.StatusReady}}
}

func TestQuerySuccess(t *testing.T) {
	fake := &fakeClient{responses: []string{"the answer"}}
	r := newTestRouter(t, readySource(fake))

	out, err := r.Query(context.Background(), "fake", "what is up")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "the answer" {
		t.Errorf("got %q", out)
	}
	if fake.calls != 1 {
		t.Errorf("expected a single attempt, got %d", fake.calls)
	}
}

func TestQueryEmptyPrompt(t *testing.T) {
	fake := &fakeClient{responses: []string{"x"}}
	r := newTestRouter(t, readySource(fake))

	_, err := r.Query(context.Background(), "fake", "   \t ")
	requireKind(t, err, KindEmptyPrompt)
	if fake.calls != 0 {
		t.Error("empty prompt must not reach the provider")
	}
	if r.filter.Violations() != 0 {
		t.Error("empty prompt must not count as a violation")
	}
}

func TestQueryBlockedPromptNotDispatched(t *testing.T) {
	fake := &fakeClient{responses: []string{"x"}}
	r := newTestRouter(t, readySource(fake))

	_, err := r.Query(context.Background(), "fake", "please run rm -rf /tmp/x")
	if !filter.IsSecurity(err) {
		t.Fatalf("expected security-classified error, got %v", err)
	}
	if fake.calls != 0 {
		t.Error("blocked prompt must never reach the provider")
	}
}

func TestQueryNotConfiguredNoAttempt(t *testing.T) {
	fake := &fakeClient{responses: []string{"x"}}
	source := &fakeSource{id: "fake", client: fake,
		status: provider.Status{Kind: provider.StatusNotConfigured}}
	r := newTestRouter(t, source)

	_, err := r.Query(context.Background(), "fake", "hello")
	requireKind(t, err, KindNotConfigured)
	if fake.calls != 0 {
		t.Error("unconfigured provider must not be invoked")
	}
}

func TestQueryRetriesExactlyMaxThenExhausted(t *testing.T) {
	transient := &provider.Error{Provider: "fake", Message: "flaky", Retryable: true}
	fake := &fakeClient{
		responses: []string{"", "", ""},
		errs:      []error{transient, transient, transient},
	}
	r := newTestRouter(t, readySource(fake))

	_, err := r.Query(context.Background(), "fake", "hello")
	requireKind(t, err, KindExhausted)
	if fake.calls != MaxRetries {
		t.Errorf("expected exactly %d attempts, got %d", MaxRetries, fake.calls)
	}
}

func TestQueryEmptyPayloadRetried(t *testing.T) {
	fake := &fakeClient{responses: []string{"", "  ", "real answer"}}
	r := newTestRouter(t, readySource(fake))

	out, err := r.Query(context.Background(), "fake", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "real answer" {
		t.Errorf("got %q", out)
	}
	if fake.calls != 3 {
		t.Errorf("expected empty payloads to be retried, got %d calls", fake.calls)
	}
}

func TestQueryNonRetryableErrorFinal(t *testing.T) {
	authErr := &provider.Error{Provider: "fake", Code: "401", Message: "bad key"}
	fake := &fakeClient{responses: []string{""}, errs: []error{authErr}}
	r := newTestRouter(t, readySource(fake))

	_, err := r.Query(context.Background(), "fake", "hello")
	pe, ok := provider.AsError(err)
	if !ok || pe.Code != "401" {
		t.Fatalf("expected the auth error verbatim, got %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("non-retryable errors must not be retried, got %d calls", fake.calls)
	}
}

func TestQueryResponseTruncated(t *testing.T) {
	fake := &fakeClient{responses: []string{strings.Repeat("y", MaxResponseLen+700)}}
	r := newTestRouter(t, readySource(fake))

	out, err := r.Query(context.Background(), "fake", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != MaxResponseLen {
		t.Errorf("expected cap at %d, got %d", MaxResponseLen, len(out))
	}
}

func TestQueryExhaustedReasonTruncated(t *testing.T) {
	transient := &provider.Error{Provider: "fake",
		Message: strings.Repeat("e", 1000), Retryable: true}
	fake := &fakeClient{responses: []string{""}, errs: []error{transient}}
	r := newTestRouter(t, readySource(fake))

	_, err := r.Query(context.Background(), "fake", "hello")
	var re *Error
	if !errors.As(err, &re) {
		t.Fatalf("expected *router.Error, got %v", err)
	}
	if len(re.Reason) > 200 {
		t.Errorf("exhausted reason must be truncated, got %d chars", len(re.Reason))
	}
}

func TestQueryCancelledDuringBackoff(t *testing.T) {
	transient := &provider.Error{Provider: "fake", Message: "flaky", Retryable: true}
	fake := &fakeClient{responses: []string{""}, errs: []error{transient}}

	r, err := New(Config{
		Filter:     filter.New(filter.DefaultSet(), filter.Config{}),
		Source:     readySource(fake),
		RetryDelay: time.Hour,
	})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err = r.Query(ctx, "fake", "hello")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("cancellation must interrupt the backoff sleep")
	}
}
