package provider

import (
	"context"
	"strings"
	"testing"
)

func TestRegistryEmptySettings(t *testing.T) {
	r := NewRegistry(context.Background(), Settings{}, nil)

	for _, id := range []string{"gemini", "groq", "huggingface", "local", "bedrock"} {
		if st := r.Status(id); st.Kind != StatusNotConfigured {
			t.Errorf("%s: expected not_configured, got %s", id, st.Kind)
		}
	}
}

func TestRegistryBadKeyShape(t *testing.T) {
	r := NewRegistry(context.Background(), Settings{
		GroqKey:   "short",
		GroqModel: "llama-3.3-70b",
	}, nil)

	st := r.Status("groq")
	if st.Kind != StatusError {
		t.Fatalf("expected error status, got %s", st.Kind)
	}
	if !strings.Contains(st.Reason, "shape") {
		t.Errorf("reason should name the shape check, got %q", st.Reason)
	}
	if client, _ := r.Client("groq"); client != nil {
		t.Error("no client may be constructed for an invalid credential")
	}
}

func TestRegistryValidGroqKeyReady(t *testing.T) {
	r := NewRegistry(context.Background(), Settings{
		GroqKey:   "gsk_" + strings.Repeat("a", 40),
		GroqModel: "llama-3.3-70b",
	}, nil)

	client, st := r.Client("groq")
	if st.Kind != StatusReady {
		t.Fatalf("expected ready, got %s (%s)", st.Kind, st.Reason)
	}
	if client == nil {
		t.Fatal("ready provider must have a client")
	}
}

func TestRegistryLocalNeedsModelOnly(t *testing.T) {
	r := NewRegistry(context.Background(), Settings{LocalModel: "llama3"}, nil)
	if st := r.Status("local"); st.Kind != StatusReady {
		t.Errorf("local with a model should be ready, got %s", st.Kind)
	}
}

func TestRegistryUnknownProvider(t *testing.T) {
	r := NewRegistry(context.Background(), Settings{}, nil)
	_, st := r.Client("nonesuch")
	if st.Kind != StatusNotConfigured {
		t.Errorf("unknown provider should read as not_configured, got %s", st.Kind)
	}
}

func TestRegistryIDsSorted(t *testing.T) {
	r := NewRegistry(context.Background(), Settings{}, nil)
	ids := r.IDs()
	if len(ids) != 5 {
		t.Fatalf("expected 5 known providers, got %v", ids)
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Errorf("ids not sorted: %v", ids)
		}
	}
}

func TestStatusString(t *testing.T) {
	if got := (Status{Kind: StatusReady}).String(); got != "ready" {
		t.Errorf("got %q", got)
	}
	st := Status{Kind: StatusError, Reason: "boom"}
	if got := st.String(); got != "error: boom" {
		t.Errorf("got %q", got)
	}
}
