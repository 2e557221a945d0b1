package tools

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// validateArgs checks args against the subset of JSON schema used by tool
// definitions: required, property types, enum and additionalProperties.
func validateArgs(schema map[string]any, args map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	required, err := parseRequired(schema["required"])
	if err != nil {
		return err
	}
	for _, field := range required {
		if _, ok := args[field]; !ok {
			return fmt.Errorf("missing required argument %q", field)
		}
	}

	properties, hasProperties := schema["properties"].(map[string]any)
	additionalAllowed := true
	if v, ok := schema["additionalProperties"].(bool); ok {
		additionalAllowed = v
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := args[key]
		prop, ok := properties[key].(map[string]any)
		if !ok {
			if hasProperties && !additionalAllowed {
				return fmt.Errorf("unknown argument %q", key)
			}
			continue
		}

		if typ, ok := prop["type"].(string); ok && !matchesType(typ, value) {
			return fmt.Errorf("argument %q must be %s", key, typ)
		}
		if enum, ok := enumValues(prop["enum"]); ok && !inEnum(enum, value) {
			return fmt.Errorf("argument %q must be one of %v", key, enum)
		}
	}
	return nil
}

func parseRequired(raw any) ([]string, error) {
	switch value := raw.(type) {
	case nil:
		return nil, nil
	case []string:
		return value, nil
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			field, ok := item.(string)
			if !ok {
				return nil, errors.New(`schema "required" entries must be strings`)
			}
			out = append(out, field)
		}
		return out, nil
	default:
		return nil, errors.New(`schema "required" must be an array`)
	}
}

func enumValues(raw any) ([]any, bool) {
	switch value := raw.(type) {
	case []any:
		return value, true
	case []string:
		out := make([]any, len(value))
		for i, v := range value {
			out[i] = v
		}
		return out, true
	}
	return nil, false
}

func inEnum(enum []any, value any) bool {
	for _, e := range enum {
		if reflect.DeepEqual(e, value) {
			return true
		}
	}
	return false
}

func matchesType(expected string, value any) bool {
	switch expected {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		return isNumber(value)
	case "integer":
		return isInteger(value)
	case "object":
		if value == nil {
			return false
		}
		return reflect.TypeOf(value).Kind() == reflect.Map
	case "array":
		if value == nil {
			return false
		}
		kind := reflect.TypeOf(value).Kind()
		return kind == reflect.Array || kind == reflect.Slice
	default:
		return true
	}
}

func isNumber(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return float64(v) == math.Trunc(float64(v))
	case float64:
		return v == math.Trunc(v) && !math.IsInf(v, 0)
	}
	return false
}
