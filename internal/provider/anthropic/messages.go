package anthropic

import (
	"radsim/internal/chat"
	"radsim/internal/provider"
)

func buildRequestBody(model string, req *provider.Request) map[string]any {
	maxTokens := req.Params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	body := map[string]any{
		"model":      model,
		"max_tokens": maxTokens,
		"stream":     true,
		"messages":   buildMessages(req.Turns),
	}
	if req.System != "" {
		body["system"] = req.System
	}
	if req.Params.Temperature > 0 {
		body["temperature"] = req.Params.Temperature
	}
	if len(req.Tools) > 0 {
		tools := make([]map[string]any, 0, len(req.Tools))
		for _, t := range req.Tools {
			schema := t.Schema
			if schema == nil {
				schema = map[string]any{"type": "object", "properties": map[string]any{}}
			}
			tools = append(tools, map[string]any{
				"name":         t.Name,
				"description":  t.Description,
				"input_schema": schema,
			})
		}
		body["tools"] = tools
	}
	return body
}

// buildMessages converts turns into Messages API messages. Tool results are
// sent as user content blocks, and consecutive messages with the same role
// are merged because the API requires alternating roles.
func buildMessages(turns []chat.Turn) []map[string]any {
	messages := make([]map[string]any, 0, len(turns))

	add := func(role string, blocks []map[string]any) {
		if len(blocks) == 0 {
			return
		}
		if n := len(messages); n > 0 && messages[n-1]["role"] == role {
			prev := messages[n-1]["content"].([]map[string]any)
			messages[n-1]["content"] = append(prev, blocks...)
			return
		}
		messages = append(messages, map[string]any{"role": role, "content": blocks})
	}

	for _, turn := range turns {
		switch turn.Role {
		case chat.RoleUser:
			add("user", textBlocks(turn.Text))

		case chat.RoleAssistant:
			blocks := textBlocks(turn.Text)
			for _, call := range turn.ToolCalls {
				input := call.Args
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, map[string]any{
					"type":  "tool_use",
					"id":    call.ID,
					"name":  call.Name,
					"input": input,
				})
			}
			add("assistant", blocks)

		case chat.RoleTool:
			blocks := make([]map[string]any, 0, len(turn.Results))
			for _, r := range turn.Results {
				block := map[string]any{
					"type":        "tool_result",
					"tool_use_id": r.CallID,
					"content":     r.Text(),
				}
				if !r.Success {
					block["is_error"] = true
				}
				blocks = append(blocks, block)
			}
			add("user", blocks)
		}
	}
	return messages
}

func textBlocks(text string) []map[string]any {
	if text == "" {
		return nil
	}
	return []map[string]any{{"type": "text", "text": text}}
}
