package pqcbridge

import (
	"encoding/json"
	"fmt"
	"math"
)

// ValidateArguments checks args against the descriptor's input schema and
// returns a normalized copy with schema defaults filled in for absent
// optional fields. Undeclared keys, missing required fields, type mismatches,
// and enum violations all fail with an InvalidArgument error naming the field.
// No tool handler runs, and no subprocess is spawned, unless validation passes.
func ValidateArguments(desc ToolDescriptor, args map[string]any) (map[string]any, error) {
	schema := desc.InputSchema
	normalized := make(map[string]any, len(schema.Properties))

	for key := range args {
		if _, ok := schema.Properties[key]; !ok {
			return nil, invalidArgument(key, fmt.Sprintf("argument %q is not accepted by tool %q", key, desc.ToolID))
		}
	}

	for _, key := range schema.Required {
		if _, ok := args[key]; !ok {
			return nil, invalidArgument(key, fmt.Sprintf("missing required argument %q", key))
		}
	}

	for key, prop := range schema.Properties {
		value, ok := args[key]
		if !ok {
			if prop.Default != nil {
				normalized[key] = prop.Default
			}
			continue
		}
		coerced, err := checkArgumentValue(key, prop, value)
		if err != nil {
			return nil, err
		}
		normalized[key] = coerced
	}

	return normalized, nil
}

func checkArgumentValue(key string, prop Schema, value any) (any, error) {
	switch prop.Type {
	case "string":
		str, ok := value.(string)
		if !ok {
			return nil, invalidArgument(key, fmt.Sprintf("argument %q must be a string", key))
		}
		if len(prop.Enum) > 0 && !enumContains(prop.Enum, str) {
			return nil, invalidArgument(key, fmt.Sprintf("argument %q must be one of %v", key, prop.Enum))
		}
		return str, nil
	case "number":
		f, ok := asNumber(value)
		if !ok {
			return nil, invalidArgument(key, fmt.Sprintf("argument %q must be a number", key))
		}
		return f, nil
	case "integer":
		f, ok := asNumber(value)
		if !ok || f != math.Trunc(f) {
			return nil, invalidArgument(key, fmt.Sprintf("argument %q must be an integer", key))
		}
		return f, nil
	case "boolean":
		b, ok := value.(bool)
		if !ok {
			return nil, invalidArgument(key, fmt.Sprintf("argument %q must be a boolean", key))
		}
		return b, nil
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, invalidArgument(key, fmt.Sprintf("argument %q must be an object", key))
		}
		return obj, nil
	case "array":
		arr, ok := value.([]any)
		if !ok {
			return nil, invalidArgument(key, fmt.Sprintf("argument %q must be an array", key))
		}
		return arr, nil
	default:
		return value, nil
	}
}

func invalidArgument(field, message string) error {
	return withErrorDetails(
		newBridgeError(ErrorCodeInvalidArgument, message, nil),
		map[string]any{"field": field})
}

func enumContains(enum []any, value string) bool {
	for _, candidate := range enum {
		if str, ok := candidate.(string); ok && str == value {
			return true
		}
	}
	return false
}

func asNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// stringArg reads a validated string argument, returning fallback when absent.
func stringArg(args map[string]any, key, fallback string) string {
	if value, ok := args[key].(string); ok {
		return value
	}
	return fallback
}

// floatArg reads a validated numeric argument, returning fallback when absent.
func floatArg(args map[string]any, key string, fallback float64) float64 {
	if value, ok := asNumber(args[key]); ok {
		return value
	}
	return fallback
}

// boolArg reads a validated boolean argument, returning fallback when absent.
func boolArg(args map[string]any, key string, fallback bool) bool {
	if value, ok := args[key].(bool); ok {
		return value
	}
	return fallback
}
