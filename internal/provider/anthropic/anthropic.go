// Package anthropic implements the provider adapter for the Anthropic
// Messages API over server-sent events.
package anthropic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"radsim/internal/chat"
	"radsim/internal/logging"
	"radsim/internal/provider"
)

// Name is the provider name used in router configuration.
const Name = "claude"

const (
	apiVersion       = "2023-06-01"
	defaultBaseURL   = "https://api.anthropic.com"
	defaultMaxTokens = 8192
)

// Config configures the adapter.
type Config struct {
	APIKey      string
	BaseURL     string
	HTTPTimeout time.Duration
	HTTPClient  *http.Client // optional, overrides HTTPTimeout
}

// Adapter talks to the Messages API.
type Adapter struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ provider.Adapter = (*Adapter)(nil)

// New returns an adapter for cfg.
func New(cfg Config) *Adapter {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	return &Adapter{apiKey: cfg.APIKey, baseURL: baseURL, httpClient: httpClient}
}

// Name implements provider.Adapter.
func (a *Adapter) Name() string { return Name }

// Send implements provider.Adapter.
func (a *Adapter) Send(ctx context.Context, model string, req *provider.Request, onDelta provider.DeltaFunc) (*provider.Response, error) {
	stream, err := a.stream(ctx, model, req)
	if err != nil {
		return nil, provider.Classify(ctx, Name, model, err)
	}
	resp, err := provider.Collect(ctx, stream, onDelta)
	if err != nil {
		return nil, provider.Classify(ctx, Name, model, err)
	}
	resp.Provider = Name
	resp.Model = model
	return resp, nil
}

func (a *Adapter) stream(ctx context.Context, model string, req *provider.Request) (*provider.Stream, error) {
	body, err := json.Marshal(buildRequestBody(model, req))
	if err != nil {
		return nil, &provider.Error{Kind: provider.Fatal, Provider: Name, Model: model, Message: "failed to marshal request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	logging.Debug("anthropic request", "model", model, "turns", len(req.Turns), "tools", len(req.Tools))

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		defer httpResp.Body.Close()
		msg, readErr := io.ReadAll(io.LimitReader(httpResp.Body, 64*1024))
		if readErr != nil {
			msg = []byte("(failed to read response body)")
		}
		logging.Warn("anthropic API error", "status", httpResp.StatusCode, "model", model)
		return nil, provider.StatusError(Name, model, httpResp.StatusCode, errorMessage(msg))
	}

	stream, chunks := provider.NewStream(16)
	go func() {
		defer close(chunks)
		defer httpResp.Body.Close()
		readEvents(ctx, model, httpResp.Body, chunks)
	}()
	return stream, nil
}

// errorMessage extracts error.message from an API error body.
func errorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Type + ": " + payload.Error.Message
	}
	return strings.TrimSpace(string(body))
}

// eventState accumulates a tool_use block across deltas.
type eventState struct {
	toolID    string
	toolName  string
	toolInput strings.Builder
	calls     []chat.ToolCall

	inputTokens  int
	outputTokens int
	stopReason   string
}

func readEvents(ctx context.Context, model string, body io.Reader, chunks chan<- provider.Chunk) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)
	st := &eventState{}

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" {
			continue
		}

		var event map[string]any
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			logging.Warn("failed to parse SSE event", "error", err.Error())
			continue
		}

		chunk := st.handle(model, event)
		if chunk.Text == "" && !chunk.Done && chunk.Err == nil {
			continue
		}
		if !provider.Emit(ctx, chunks, chunk) || chunk.Done {
			return
		}
	}

	var err error
	if scanErr := scanner.Err(); scanErr != nil {
		err = provider.Classify(ctx, Name, model, scanErr)
	} else {
		err = &provider.Error{Kind: provider.Transient, Provider: Name, Model: model, Message: "stream ended before message_stop"}
	}
	provider.Emit(ctx, chunks, provider.Chunk{Err: err, Done: true})
}

func (st *eventState) handle(model string, event map[string]any) provider.Chunk {
	var chunk provider.Chunk
	eventType, _ := event["type"].(string)

	switch eventType {
	case "message_start":
		if msg, ok := event["message"].(map[string]any); ok {
			if usage, ok := msg["usage"].(map[string]any); ok {
				st.inputTokens = intValue(usage["input_tokens"])
			}
		}

	case "content_block_start":
		block, _ := event["content_block"].(map[string]any)
		if t, _ := block["type"].(string); t == "tool_use" {
			st.toolID, _ = block["id"].(string)
			st.toolName, _ = block["name"].(string)
			st.toolInput.Reset()
		}

	case "content_block_delta":
		delta, _ := event["delta"].(map[string]any)
		switch delta["type"] {
		case "text_delta":
			chunk.Text, _ = delta["text"].(string)
		case "input_json_delta":
			partial, _ := delta["partial_json"].(string)
			st.toolInput.WriteString(partial)
		}

	case "content_block_stop":
		if st.toolName == "" {
			break
		}
		raw := st.toolInput.String()
		args := map[string]any{}
		if strings.TrimSpace(raw) != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				logging.Error("tool args JSON unmarshal failed", "tool", st.toolName, "error", err.Error())
				chunk.Err = provider.MalformedToolCall(Name, model, st.toolName, raw, err)
				chunk.Done = true
				return chunk
			}
		}
		id := st.toolID
		if id == "" {
			id = provider.NewCallID()
		}
		st.calls = append(st.calls, chat.ToolCall{ID: id, Name: st.toolName, Args: args})
		st.toolID, st.toolName = "", ""
		st.toolInput.Reset()

	case "message_delta":
		if delta, ok := event["delta"].(map[string]any); ok {
			if reason, ok := delta["stop_reason"].(string); ok {
				st.stopReason = normalizeStop(reason)
			}
		}
		if usage, ok := event["usage"].(map[string]any); ok {
			st.outputTokens = intValue(usage["output_tokens"])
		}

	case "message_stop":
		chunk.Done = true
		chunk.ToolCalls = st.calls
		chunk.StopReason = st.stopReason
		chunk.InputTokens = st.inputTokens
		chunk.OutputTokens = st.outputTokens

	case "error":
		errData, _ := event["error"].(map[string]any)
		errType, _ := errData["type"].(string)
		errMsg, _ := errData["message"].(string)
		logging.Error("anthropic stream error event", "type", errType, "message", errMsg)
		chunk.Err = provider.StatusError(Name, model, statusForErrorType(errType), errType+": "+errMsg)
		chunk.Done = true
	}
	return chunk
}

func normalizeStop(reason string) string {
	switch reason {
	case "tool_use":
		return provider.StopToolUse
	case "max_tokens":
		return provider.StopMaxTokens
	default:
		return provider.StopEndTurn
	}
}

// statusForErrorType maps stream error types onto the HTTP status the API
// would have used, so classification stays in one place.
func statusForErrorType(errType string) int {
	switch errType {
	case "overloaded_error":
		return 529
	case "rate_limit_error":
		return http.StatusTooManyRequests
	case "api_error":
		return http.StatusInternalServerError
	case "authentication_error":
		return http.StatusUnauthorized
	case "permission_error":
		return http.StatusForbidden
	case "not_found_error":
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func intValue(v any) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return 0
}
