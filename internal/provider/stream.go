package provider

import (
	"context"
	"strings"

	"radsim/internal/chat"
)

// Chunk is one piece of a streamed response.
type Chunk struct {
	Text         string
	ToolCalls    []chat.ToolCall
	InputTokens  int
	OutputTokens int
	StopReason   string
	Done         bool
	Err          error
}

// Stream is the channel an adapter's reader goroutine fills. The producer
// closes Chunks when it is finished.
type Stream struct {
	Chunks <-chan Chunk
}

// NewStream returns a stream and the send side for its producer.
func NewStream(buffer int) (*Stream, chan<- Chunk) {
	ch := make(chan Chunk, buffer)
	return &Stream{Chunks: ch}, ch
}

// Emit sends c unless ctx is done. It reports whether the chunk was delivered.
func Emit(ctx context.Context, ch chan<- Chunk, c Chunk) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

// Collect drains a stream into one Response, forwarding text to onDelta.
func Collect(ctx context.Context, s *Stream, onDelta DeltaFunc) (*Response, error) {
	resp := &Response{}
	var text strings.Builder

	finish := func() *Response {
		resp.Text = text.String()
		switch {
		case resp.HasToolCalls() && resp.StopReason != StopMaxTokens:
			resp.StopReason = StopToolUse
		case resp.StopReason == "":
			resp.StopReason = StopEndTurn
		}
		return resp
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case chunk, ok := <-s.Chunks:
			if !ok {
				return finish(), nil
			}
			if chunk.Err != nil {
				return nil, chunk.Err
			}

			if chunk.Text != "" {
				text.WriteString(chunk.Text)
				if onDelta != nil {
					onDelta(chunk.Text)
				}
			}
			resp.ToolCalls = append(resp.ToolCalls, chunk.ToolCalls...)

			// Usage is usually reported once, on the final chunk.
			if chunk.InputTokens > 0 {
				resp.Usage.InputTokens = chunk.InputTokens
			}
			if chunk.OutputTokens > 0 {
				resp.Usage.OutputTokens = chunk.OutputTokens
			}
			if chunk.StopReason != "" {
				resp.StopReason = chunk.StopReason
			}
			if chunk.Done {
				return finish(), nil
			}
		}
	}
}
