package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must yield defaults, got: %v", err)
	}
	if cfg.Provider != "gemini" {
		t.Errorf("unexpected default provider %q", cfg.Provider)
	}
	if cfg.Session.TimeoutSeconds != 900 || cfg.Session.SweepSeconds != 60 {
		t.Errorf("unexpected session defaults %+v", cfg.Session)
	}
}

func TestLoadParsesDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
user: alice
provider: groq
workspace: /home/alice/work
providers:
  groq:
    key: gsk_0123456789012345678901234567890123456789
    model: llama-3.3-70b
  local:
    model: llama3
session:
  timeout_seconds: 300
  sweep_seconds: 30
alerts:
  - url: https://hooks.example.com/warden
    format: slack
    events: [repeated_violations]
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.User != "alice" || cfg.Provider != "groq" {
		t.Errorf("unexpected identity fields %q %q", cfg.User, cfg.Provider)
	}
	if cfg.SessionTimeout() != 5*time.Minute {
		t.Errorf("unexpected timeout %v", cfg.SessionTimeout())
	}
	if len(cfg.Alerts) != 1 || cfg.Alerts[0].Format != "slack" {
		t.Errorf("unexpected alerts %+v", cfg.Alerts)
	}

	settings := cfg.ProviderSettings()
	if settings.GroqModel != "llama-3.3-70b" {
		t.Errorf("unexpected groq model %q", settings.GroqModel)
	}
	if settings.LocalModel != "llama3" {
		t.Errorf("unexpected local model %q", settings.LocalModel)
	}
}

func TestLoadMalformedYAMLErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("providers: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestEnvFillsEmptyKeys(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_from_env")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Providers.Groq.Key != "gsk_from_env" {
		t.Errorf("expected env key, got %q", cfg.Providers.Groq.Key)
	}
}

func TestFileKeyWinsOverEnv(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_from_env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := "providers:\n  groq:\n    key: gsk_from_file\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Providers.Groq.Key != "gsk_from_file" {
		t.Errorf("file value must win, got %q", cfg.Providers.Groq.Key)
	}
}

func TestReloaderFiresOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	if err := os.WriteFile(path, []byte("patterns: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var fired atomic.Int32
	r, err := NewReloader([]string{path}, func() { fired.Add(1) }, nil)
	if err != nil {
		t.Fatalf("new reloader: %v", err)
	}
	if len(r.Paths()) != 1 {
		t.Fatalf("expected 1 watched path, got %v", r.Paths())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("patterns:\n  - label: x\n    pattern: y\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for fired.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("reload callback never fired")
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestReloaderSkipsMissingPaths(t *testing.T) {
	r, err := NewReloader([]string{"", "/nonexistent/file.yaml"}, func() {}, nil)
	if err != nil {
		t.Fatalf("missing paths must be skipped, got: %v", err)
	}
	if len(r.Paths()) != 0 {
		t.Errorf("expected no watched paths, got %v", r.Paths())
	}
}
