package provider

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"chatwarden/internal/credential"
)

// Settings configures every backend the registry may construct. Empty
// credentials leave the corresponding provider unconfigured rather than
// erroring.
type Settings struct {
	GeminiKey   string
	GeminiModel string

	GroqKey   string
	GroqModel string

	HuggingFaceKey   string
	HuggingFaceModel string

	// LocalURL points at an OpenAI-compatible local server. LocalModel
	// must be set for the local provider to be considered configured.
	LocalURL   string
	LocalModel string

	Bedrock BedrockConfig

	Timeout time.Duration
}

// Registry holds the constructed clients and their startup statuses.
// Statuses are decided once in NewRegistry and read-only afterwards.
type Registry struct {
	clients map[string]Client
	status  map[string]Status
}

// NewRegistry validates credentials, constructs a client per configured
// provider, and records a Status for every known provider id.
func NewRegistry(ctx context.Context, settings Settings, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{
		clients: make(map[string]Client),
		status:  make(map[string]Status),
	}

	r.addKeyed(ctx, "gemini", settings.GeminiKey, func() (Client, error) {
		return NewGeminiClient(ctx, settings.GeminiKey, settings.GeminiModel)
	})
	r.addKeyed(ctx, "groq", settings.GroqKey, func() (Client, error) {
		return NewChatClient(ChatConfig{
			Name:    "groq",
			APIURL:  GroqEndpoint,
			APIKey:  settings.GroqKey,
			Model:   settings.GroqModel,
			Timeout: settings.Timeout,
		})
	})
	r.addKeyed(ctx, "huggingface", settings.HuggingFaceKey, func() (Client, error) {
		return NewChatClient(ChatConfig{
			Name:    "huggingface",
			APIURL:  HuggingFaceEndpoint,
			APIKey:  settings.HuggingFaceKey,
			Model:   settings.HuggingFaceModel,
			Timeout: settings.Timeout,
		})
	})

	// Local servers take no credential; configured iff a model is named.
	if settings.LocalModel == "" {
		r.status["local"] = Status{Kind: StatusNotConfigured}
	} else {
		url := settings.LocalURL
		if url == "" {
			url = LocalEndpoint
		}
		r.add("local", func() (Client, error) {
			return NewChatClient(ChatConfig{
				Name:    "local",
				APIURL:  url,
				Model:   settings.LocalModel,
				Timeout: settings.Timeout,
			})
		})
	}

	// Bedrock authenticates through the AWS credential chain, which has
	// its own key formats; the shape validator does not apply.
	if settings.Bedrock.Region == "" {
		r.status["bedrock"] = Status{Kind: StatusNotConfigured}
	} else {
		r.add("bedrock", func() (Client, error) {
			return NewBedrockClient(ctx, settings.Bedrock)
		})
	}

	for _, id := range r.IDs() {
		st := r.status[id]
		logger.Info("provider registered",
			zap.String("provider", id),
			zap.String("status", string(st.Kind)))
	}
	return r
}

// addKeyed registers a provider gated on API-key shape validation.
func (r *Registry) addKeyed(_ context.Context, id, key string, build func() (Client, error)) {
	if key == "" {
		r.status[id] = Status{Kind: StatusNotConfigured}
		return
	}
	if !credential.ValidateKey(key, id) {
		r.status[id] = Status{Kind: StatusError, Reason: "credential failed shape validation"}
		return
	}
	r.add(id, build)
}

func (r *Registry) add(id string, build func() (Client, error)) {
	client, err := build()
	if err != nil {
		r.status[id] = Status{Kind: StatusError, Reason: err.Error()}
		return
	}
	r.clients[id] = client
	r.status[id] = Status{Kind: StatusReady}
}

// Client returns the constructed client and its status. The client is
// nil unless the status kind is StatusReady.
func (r *Registry) Client(id string) (Client, Status) {
	st, ok := r.status[id]
	if !ok {
		return nil, Status{Kind: StatusNotConfigured, Reason: "unknown provider"}
	}
	return r.clients[id], st
}

// Status returns the startup status for one provider id.
func (r *Registry) Status(id string) Status {
	st, ok := r.status[id]
	if !ok {
		return Status{Kind: StatusNotConfigured, Reason: "unknown provider"}
	}
	return st
}

// Statuses returns a copy of every provider's status for display.
func (r *Registry) Statuses() map[string]Status {
	out := make(map[string]Status, len(r.status))
	for id, st := range r.status {
		out[id] = st
	}
	return out
}

// IDs returns the known provider ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.status))
	for id := range r.status {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
