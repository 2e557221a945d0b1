// Package ollama implements the provider adapter for a local or remote
// Ollama server.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"radsim/internal/chat"
	"radsim/internal/logging"
	"radsim/internal/provider"
)

// Name is the provider name used in router configuration.
const Name = "ollama"

// Config configures the adapter.
type Config struct {
	BaseURL     string
	APIKey      string // optional, for servers behind an auth proxy
	HTTPTimeout time.Duration
}

// Adapter talks to the Ollama chat API.
type Adapter struct {
	client *api.Client
}

var _ provider.Adapter = (*Adapter)(nil)

// authTransport adds a bearer token to every request.
type authTransport struct {
	base   http.RoundTripper
	apiKey string
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+t.apiKey)
	return t.base.RoundTrip(clone)
}

// New returns an adapter for cfg.
func New(cfg Config) (*Adapter, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL: %w", err)
	}
	if base.Scheme == "http" {
		switch base.Hostname() {
		case "localhost", "127.0.0.1", "::1":
		default:
			logging.Warn("ollama connection uses unencrypted HTTP to remote host", "host", base.Hostname())
		}
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	if cfg.APIKey != "" {
		httpClient.Transport = &authTransport{base: http.DefaultTransport, apiKey: cfg.APIKey}
	}
	return &Adapter{client: api.NewClient(base, httpClient)}, nil
}

// Name implements provider.Adapter.
func (a *Adapter) Name() string { return Name }

// Send implements provider.Adapter.
func (a *Adapter) Send(ctx context.Context, model string, req *provider.Request, onDelta provider.DeltaFunc) (*provider.Response, error) {
	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: toMessages(req),
		Stream:   Ptr(true),
		Tools:    toTools(req.Tools),
		Options:  options(req.Params),
	}

	stream, chunks := provider.NewStream(16)
	go func() {
		defer close(chunks)
		err := a.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
			if !provider.Emit(ctx, chunks, toChunk(resp)) {
				return ctx.Err()
			}
			return nil
		})
		if err != nil {
			provider.Emit(ctx, chunks, provider.Chunk{Err: classify(ctx, model, err), Done: true})
		}
	}()

	resp, err := provider.Collect(ctx, stream, onDelta)
	if err != nil {
		return nil, provider.Classify(ctx, Name, model, err)
	}
	resp.Provider = Name
	resp.Model = model
	return resp, nil
}

func toChunk(resp api.ChatResponse) provider.Chunk {
	chunk := provider.Chunk{Text: resp.Message.Content}
	for _, tc := range resp.Message.ToolCalls {
		id := tc.ID
		if id == "" {
			id = provider.NewCallID()
		}
		chunk.ToolCalls = append(chunk.ToolCalls, chat.ToolCall{
			ID:   id,
			Name: tc.Function.Name,
			Args: tc.Function.Arguments.ToMap(),
		})
	}
	if resp.Done {
		chunk.Done = true
		chunk.InputTokens = resp.PromptEvalCount
		chunk.OutputTokens = resp.EvalCount
		if resp.DoneReason == "length" {
			chunk.StopReason = provider.StopMaxTokens
		}
	}
	return chunk
}

func classify(ctx context.Context, model string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var statusPtr *api.StatusError
	if errors.As(err, &statusPtr) && statusPtr != nil {
		return statusError(model, statusPtr.StatusCode, statusPtr.ErrorMessage, err)
	}
	var status api.StatusError
	if errors.As(err, &status) {
		return statusError(model, status.StatusCode, status.ErrorMessage, err)
	}
	return provider.Classify(ctx, Name, model, err)
}

func statusError(model string, code int, message string, err error) *provider.Error {
	if code == http.StatusNotFound {
		message = fmt.Sprintf("model %q is not installed (ollama pull %s): %s", model, model, message)
	}
	logging.Warn("ollama API error", "status", code, "model", model)
	pe := provider.StatusError(Name, model, code, message)
	pe.Err = err
	return pe
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
