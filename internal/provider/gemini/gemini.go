// Package gemini implements the provider adapter for the Gemini API using
// the google.golang.org/genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"google.golang.org/genai"

	"radsim/internal/chat"
	"radsim/internal/logging"
	"radsim/internal/provider"
)

// Name is the provider name used in router configuration.
const Name = "gemini"

const finishMalformedCall genai.FinishReason = "MALFORMED_FUNCTION_CALL"

// contentStreamer is the part of genai.Models the adapter uses.
type contentStreamer interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// Adapter talks to the Gemini API.
type Adapter struct {
	models contentStreamer
}

var _ provider.Adapter = (*Adapter)(nil)

// New creates a Gemini API client for apiKey.
func New(ctx context.Context, apiKey string) (*Adapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Adapter{models: client.Models}, nil
}

// Name implements provider.Adapter.
func (a *Adapter) Name() string { return Name }

// Send implements provider.Adapter.
func (a *Adapter) Send(ctx context.Context, model string, req *provider.Request, onDelta provider.DeltaFunc) (*provider.Response, error) {
	seq := a.models.GenerateContentStream(ctx, model, toContents(req.Turns), toConfig(req))

	stream, chunks := provider.NewStream(16)
	go func() {
		defer close(chunks)
		for resp, err := range seq {
			if err != nil {
				provider.Emit(ctx, chunks, provider.Chunk{Err: classify(ctx, model, err), Done: true})
				return
			}
			chunk := toChunk(model, resp)
			if !provider.Emit(ctx, chunks, chunk) || chunk.Done {
				return
			}
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

func toChunk(model string, resp *genai.GenerateContentResponse) provider.Chunk {
	var chunk provider.Chunk
	if resp == nil {
		return chunk
	}
	if resp.UsageMetadata != nil {
		chunk.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		chunk.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) == 0 {
		return chunk
	}

	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			chunk.Text += part.Text
			if fc := part.FunctionCall; fc != nil {
				id := fc.ID
				if id == "" {
					id = provider.NewCallID()
				}
				chunk.ToolCalls = append(chunk.ToolCalls, chat.ToolCall{ID: id, Name: fc.Name, Args: fc.Args})
			}
		}
	}

	switch candidate.FinishReason {
	case "":
	case genai.FinishReasonStop:
		chunk.StopReason = provider.StopEndTurn
		chunk.Done = true
	case genai.FinishReasonMaxTokens:
		chunk.StopReason = provider.StopMaxTokens
		chunk.Done = true
	case finishMalformedCall:
		chunk.Err = &provider.Error{
			Kind:     provider.Fatal,
			Provider: Name,
			Model:    model,
			Message:  "malformed function call",
			Raw:      chunk.Text,
		}
		chunk.Done = true
	default:
		chunk.Err = &provider.Error{
			Kind:     provider.Fatal,
			Provider: Name,
			Model:    model,
			Message:  fmt.Sprintf("response blocked: %s", candidate.FinishReason),
		}
		chunk.Done = true
	}
	return chunk
}

// classify maps SDK errors onto provider errors by HTTP status.
func classify(ctx context.Context, model string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiError(model, apiErrPtr.Code, apiErrPtr.Message, err)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiError(model, apiErr.Code, apiErr.Message, err)
	}
	return provider.Classify(ctx, Name, model, err)
}

func apiError(model string, code int, message string, err error) *provider.Error {
	logging.Warn("gemini API error", "status", code, "model", model)
	pe := provider.StatusError(Name, model, code, message)
	pe.Err = err
	return pe
}
