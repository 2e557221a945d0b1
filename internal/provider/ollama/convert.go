package ollama

import (
	"github.com/ollama/ollama/api"

	"radsim/internal/chat"
	"radsim/internal/provider"
)

func options(p provider.Params) map[string]any {
	opts := map[string]any{}
	if p.MaxTokens > 0 {
		opts["num_predict"] = p.MaxTokens
	}
	if p.Temperature > 0 {
		opts["temperature"] = p.Temperature
	}
	return opts
}

func toMessages(req *provider.Request) []api.Message {
	messages := make([]api.Message, 0, len(req.Turns)+1)
	if req.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.System})
	}

	for _, turn := range req.Turns {
		switch turn.Role {
		case chat.RoleUser:
			messages = append(messages, api.Message{Role: "user", Content: turn.Text})

		case chat.RoleAssistant:
			msg := api.Message{Role: "assistant", Content: turn.Text}
			for i, call := range turn.ToolCalls {
				args := api.NewToolCallFunctionArguments()
				for k, v := range call.Args {
					args.Set(k, v)
				}
				msg.ToolCalls = append(msg.ToolCalls, api.ToolCall{
					ID: call.ID,
					Function: api.ToolCallFunction{
						Index:     i,
						Name:      call.Name,
						Arguments: args,
					},
				})
			}
			messages = append(messages, msg)

		case chat.RoleTool:
			for _, r := range turn.Results {
				messages = append(messages, api.Message{
					Role:       "tool",
					Content:    r.Text(),
					ToolName:   r.Name,
					ToolCallID: r.CallID,
				})
			}
		}
	}
	return messages
}

func toTools(specs []provider.ToolSpec) []api.Tool {
	if len(specs) == 0 {
		return nil
	}
	tools := make([]api.Tool, 0, len(specs))
	for _, spec := range specs {
		params := api.ToolFunctionParameters{
			Type:       "object",
			Properties: api.NewToolPropertiesMap(),
		}
		if required, ok := spec.Schema["required"].([]string); ok {
			params.Required = required
		} else if raw, ok := spec.Schema["required"].([]any); ok {
			for _, r := range raw {
				if s, ok := r.(string); ok {
					params.Required = append(params.Required, s)
				}
			}
		}

		props, _ := spec.Schema["properties"].(map[string]any)
		for name, raw := range props {
			schema, _ := raw.(map[string]any)
			prop := api.ToolProperty{}
			if desc, ok := schema["description"].(string); ok {
				prop.Description = desc
			}
			if typ, ok := schema["type"].(string); ok {
				prop.Type = api.PropertyType{typ}
			}
			if enum, ok := schema["enum"].([]any); ok {
				prop.Enum = enum
			} else if enum, ok := schema["enum"].([]string); ok {
				for _, e := range enum {
					prop.Enum = append(prop.Enum, e)
				}
			}
			params.Properties.Set(name, prop)
		}

		tools = append(tools, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  params,
			},
		})
	}
	return tools
}
