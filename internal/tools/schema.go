package tools

import (
	"fmt"
	"slices"
	"strings"
)

// ValidateArgs checks args against params and returns a new map with
// defaults applied. Unknown keys are dropped.
func ValidateArgs(params []ParameterDef, args map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(params))

	for _, param := range params {
		value, ok := args[param.Name]
		if !ok || value == nil {
			if param.Default != nil {
				out[param.Name] = param.Default
				continue
			}
			if param.Required {
				return nil, fmt.Errorf("missing required parameter: %s", param.Name)
			}
			continue
		}

		normalized, err := checkType(param, value)
		if err != nil {
			return nil, err
		}

		if s, isString := normalized.(string); isString {
			if param.NonEmpty && strings.TrimSpace(s) == "" {
				return nil, fmt.Errorf("parameter %s cannot be empty", param.Name)
			}
			if len(param.Enum) > 0 && !slices.Contains(param.Enum, s) {
				return nil, fmt.Errorf("parameter %s must be one of %s, got %q",
					param.Name, strings.Join(param.Enum, ", "), s)
			}
		}

		out[param.Name] = normalized
	}

	return out, nil
}

func checkType(param ParameterDef, value any) (any, error) {
	switch param.Type {
	case "string":
		if s, ok := value.(string); ok {
			return s, nil
		}
	case "boolean":
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case "number":
		switch n := value.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	default:
		return value, nil
	}
	return nil, fmt.Errorf("parameter %s must be a %s, got %T", param.Name, param.Type, value)
}

// buildParameterSchema builds parameter schema
func buildParameterSchema(params []ParameterDef) map[string]interface{} {
	properties := make(map[string]interface{})
	required := make([]string, 0)

	for _, param := range params {
		prop := map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}
		if len(param.Enum) > 0 {
			prop["enum"] = param.Enum
		}
		if param.Default != nil {
			prop["default"] = param.Default
		}
		if param.NonEmpty {
			prop["minLength"] = 1
		}
		properties[param.Name] = prop

		if param.Required {
			required = append(required, param.Name)
		}
	}

	schema := map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}
