package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radsim/internal/chat"
	"radsim/internal/provider"
)

func newAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	a, err := New(Config{BaseURL: srv.URL, APIKey: "secret"})
	require.NoError(t, err)
	return a
}

func TestSendStreamsToolCalls(t *testing.T) {
	var got map[string]any
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		data, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(data, &got))

		w.Header().Set("Content-Type", "application/x-ndjson")
		io.WriteString(w, `{"model":"qwen3","message":{"role":"assistant","content":"On it"},"done":false}`+"\n")
		io.WriteString(w, `{"model":"qwen3","message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"glob_files","arguments":{"pattern":"*.txt"}}}]},"done":false}`+"\n")
		io.WriteString(w, `{"model":"qwen3","message":{"role":"assistant","content":""},"done":true,"done_reason":"stop","prompt_eval_count":20,"eval_count":5}`+"\n")
	})

	req := &provider.Request{
		System: "sys",
		Turns: []chat.Turn{
			chat.NewUserTurn("list"),
			chat.NewAssistantTurn("", []chat.ToolCall{{ID: "call_1", Name: "read_file", Args: map[string]any{"path": "a"}}}),
			chat.NewToolResultTurn([]chat.ToolResult{{CallID: "call_1", Name: "read_file", Success: true, Content: "data"}}),
		},
		Tools: []provider.ToolSpec{{Name: "glob_files", Description: "glob", Schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"pattern": map[string]any{"type": "string", "description": "glob"}},
			"required":   []string{"pattern"},
		}}},
		Params: provider.Params{MaxTokens: 256},
	}

	var deltas []string
	resp, err := a.Send(context.Background(), "qwen3", req, func(s string) { deltas = append(deltas, s) })
	require.NoError(t, err)

	assert.Equal(t, "On it", resp.Text)
	assert.Equal(t, []string{"On it"}, deltas)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "glob_files", resp.ToolCalls[0].Name)
	assert.Equal(t, "*.txt", resp.ToolCalls[0].Args["pattern"])
	assert.NotEmpty(t, resp.ToolCalls[0].ID)
	assert.Equal(t, provider.StopToolUse, resp.StopReason)
	assert.Equal(t, provider.Usage{InputTokens: 20, OutputTokens: 5}, resp.Usage)

	assert.Equal(t, "qwen3", got["model"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	toolMsg := msgs[3].(map[string]any)
	assert.Equal(t, "tool", toolMsg["role"])
	assert.Equal(t, "data", toolMsg["content"])
	assert.Equal(t, float64(256), got["options"].(map[string]any)["num_predict"])
}

func TestSendStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   provider.Kind
	}{
		{http.StatusServiceUnavailable, provider.Transient},
		{http.StatusTooManyRequests, provider.Transient},
		{http.StatusNotFound, provider.Fatal},
		{http.StatusBadRequest, provider.Fatal},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				io.WriteString(w, `{"error":"nope"}`)
			})
			_, err := a.Send(context.Background(), "qwen3", &provider.Request{}, nil)
			var pe *provider.Error
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.want, pe.Kind)
			assert.Equal(t, tt.status, pe.StatusCode)
		})
	}
}

func TestSendServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	a, err := New(Config{BaseURL: base})
	require.NoError(t, err)
	_, err = a.Send(context.Background(), "qwen3", &provider.Request{}, nil)
	assert.True(t, provider.IsTransient(err))
}

func TestSendCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		// the server only notices the client going away once the body is read
		_, _ = io.Copy(io.Discard, r.Body)
		cancel()
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	_, err := a.Send(ctx, "qwen3", &provider.Request{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
