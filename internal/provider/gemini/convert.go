package gemini

import (
	"google.golang.org/genai"

	"radsim/internal/chat"
	"radsim/internal/provider"
)

func toConfig(req *provider.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.Params.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.Params.MaxTokens)
	}
	if req.Params.Temperature > 0 {
		cfg.Temperature = Ptr(req.Params.Temperature)
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toSchema(t.Schema),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return cfg
}

// toContents converts turns into Gemini contents. Tool results travel as
// function responses in a user content, and adjacent contents with the same
// role are merged.
func toContents(turns []chat.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))

	add := func(role string, parts []*genai.Part) {
		if len(parts) == 0 {
			return
		}
		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, parts...)
			return
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	for _, turn := range turns {
		var parts []*genai.Part
		if turn.Text != "" {
			parts = append(parts, genai.NewPartFromText(turn.Text))
		}

		switch turn.Role {
		case chat.RoleUser:
			add(genai.RoleUser, parts)

		case chat.RoleAssistant:
			for _, call := range turn.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   call.ID,
					Name: call.Name,
					Args: call.Args,
				}})
			}
			add(genai.RoleModel, parts)

		case chat.RoleTool:
			for _, r := range turn.Results {
				response := map[string]any{"output": r.Content}
				if !r.Success {
					response = map[string]any{"error": r.Error}
					if r.Content != "" {
						response["output"] = r.Content
					}
				}
				part := genai.NewPartFromFunctionResponse(r.Name, response)
				part.FunctionResponse.ID = r.CallID
				parts = append(parts, part)
			}
			add(genai.RoleUser, parts)
		}
	}

	if len(contents) == 0 {
		contents = append(contents, genai.NewContentFromText(" ", genai.RoleUser))
	}
	return contents
}

// toSchema converts a JSON schema object into a genai.Schema.
func toSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}
	out := &genai.Schema{Type: toType(schema["type"])}
	if desc, ok := schema["description"].(string); ok {
		out.Description = desc
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if prop, ok := raw.(map[string]any); ok {
				out.Properties[name] = toSchema(prop)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		out.Items = toSchema(items)
	}
	out.Required = stringList(schema["required"])
	out.Enum = stringList(schema["enum"])
	return out
}

func toType(v any) genai.Type {
	switch v {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
