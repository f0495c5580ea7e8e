package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Endpoints for the OpenAI-compatible backends. HuggingFace and Groq
// both speak the chat-completions dialect; local points at an
// Ollama-style server.
const (
	GroqEndpoint        = "https://api.groq.com/openai/v1/chat/completions"
	HuggingFaceEndpoint = "https://router.huggingface.co/v1/chat/completions"
	LocalEndpoint       = "http://localhost:11434/v1/chat/completions"
)

const defaultHTTPTimeout = 30 * time.Second

// ChatConfig holds parameters for an OpenAI-compatible chat backend.
type ChatConfig struct {
	Name    string
	APIURL  string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// ChatClient talks to any chat-completions endpoint. One instance per
// configured backend.
type ChatClient struct {
	cfg  ChatConfig
	http *http.Client
}

// NewChatClient builds a client for an OpenAI-compatible endpoint.
func NewChatClient(cfg ChatConfig) (*ChatClient, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("provider %s: endpoint URL is required", cfg.Name)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("provider %s: model is required", cfg.Name)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	return &ChatClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *ChatClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &Error{Provider: c.cfg.Name, Message: err.Error(), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", classifyHTTP(c.cfg.Name, resp.StatusCode, respBody)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil || len(result.Choices) == 0 {
		return "", &Error{Provider: c.cfg.Name, Message: "malformed completion response", Retryable: true}
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

// classifyHTTP maps a non-200 status to a typed error. Rate limits and
// upstream outages are retryable; auth and moderation are final.
func classifyHTTP(name string, status int, body []byte) *Error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	retryable := status == http.StatusTooManyRequests || status >= 500
	return &Error{
		Provider:  name,
		Code:      fmt.Sprintf("%d", status),
		Message:   msg,
		Retryable: retryable,
	}
}
