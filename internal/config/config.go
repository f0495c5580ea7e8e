// Package config loads the chatwarden YAML configuration. A missing
// file yields defaults; malformed YAML is an error. API keys left empty
// in the file are filled from the conventional environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"chatwarden/internal/alert"
	"chatwarden/internal/provider"
)

// KeyedProvider configures one API-key backend.
type KeyedProvider struct {
	Key   string `yaml:"key"`
	Model string `yaml:"model"`
}

// LocalProvider configures an OpenAI-compatible local server.
type LocalProvider struct {
	URL   string `yaml:"url"`
	Model string `yaml:"model"`
}

// BedrockProvider configures AWS Bedrock access.
type BedrockProvider struct {
	Region    string `yaml:"region"`
	Model     string `yaml:"model"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// Providers groups every backend configuration.
type Providers struct {
	Gemini      KeyedProvider   `yaml:"gemini"`
	Groq        KeyedProvider   `yaml:"groq"`
	HuggingFace KeyedProvider   `yaml:"huggingface"`
	Local       LocalProvider   `yaml:"local"`
	Bedrock     BedrockProvider `yaml:"bedrock"`
}

// Session tunes the activity tracker.
type Session struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
	SweepSeconds   int `yaml:"sweep_seconds"`
}

// Config is the root configuration document.
type Config struct {
	User      string `yaml:"user"`
	Provider  string `yaml:"provider"`  // default dispatch target
	Workspace string `yaml:"workspace"` // exec containment root; empty = cwd

	PatternsPath string `yaml:"patterns_path"`
	AuditPath    string `yaml:"audit_path"`
	StorePath    string `yaml:"store_path"`
	LogPath      string `yaml:"log_path"`

	Providers Providers      `yaml:"providers"`
	Session   Session        `yaml:"session"`
	Alerts    []alert.Config `yaml:"alerts"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	dir := stateDir()
	return &Config{
		User:      "local",
		Provider:  "gemini",
		AuditPath: filepath.Join(dir, "audit.jsonl"),
		StorePath: filepath.Join(dir, "warden.db"),
		LogPath:   filepath.Join(dir, "chatwarden.log"),
		Session: Session{
			TimeoutSeconds: 900,
			SweepSeconds:   60,
		},
	}
}

// Load reads configuration from path. Empty path falls back to
// ~/.chatwarden/config.yaml. Missing file returns defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = filepath.Join(stateDir(), "config.yaml")
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv fills empty credentials from the conventional environment
// variables. File values win over the environment.
func (c *Config) applyEnv() {
	if c.Providers.Gemini.Key == "" {
		c.Providers.Gemini.Key = os.Getenv("GEMINI_API_KEY")
	}
	if c.Providers.Groq.Key == "" {
		c.Providers.Groq.Key = os.Getenv("GROQ_API_KEY")
	}
	if c.Providers.HuggingFace.Key == "" {
		c.Providers.HuggingFace.Key = os.Getenv("HF_TOKEN")
	}
}

// ProviderSettings maps the document onto the registry's settings.
func (c *Config) ProviderSettings() provider.Settings {
	return provider.Settings{
		GeminiKey:        c.Providers.Gemini.Key,
		GeminiModel:      c.Providers.Gemini.Model,
		GroqKey:          c.Providers.Groq.Key,
		GroqModel:        c.Providers.Groq.Model,
		HuggingFaceKey:   c.Providers.HuggingFace.Key,
		HuggingFaceModel: c.Providers.HuggingFace.Model,
		LocalURL:         c.Providers.Local.URL,
		LocalModel:       c.Providers.Local.Model,
		Bedrock: provider.BedrockConfig{
			Region:    c.Providers.Bedrock.Region,
			Model:     c.Providers.Bedrock.Model,
			AccessKey: c.Providers.Bedrock.AccessKey,
			SecretKey: c.Providers.Bedrock.SecretKey,
		},
	}
}

// SessionTimeout returns the configured idle timeout.
func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.Session.TimeoutSeconds) * time.Second
}

// SweepInterval returns the configured sweep cadence.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Session.SweepSeconds) * time.Second
}

func stateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chatwarden"
	}
	return filepath.Join(home, ".chatwarden")
}
