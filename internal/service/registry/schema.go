package registry

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/vpsbridge/vpsbridge/pkg/types"
)

// ValidateArgs checks the supplied arguments against a declarative schema:
// required-field presence, type conformance, enum membership and mutual
// exclusion. It returns one FieldError per problem; an empty slice means the
// arguments are valid. No handler runs until this passes.
func ValidateArgs(schema types.ToolInputSchema, args map[string]any) []types.FieldError {
	var errs []types.FieldError

	for name := range args {
		if _, known := schema.Properties[name]; !known {
			errs = append(errs, types.FieldError{Field: name, Reason: "unknown parameter"})
		}
	}

	for name, spec := range schema.Properties {
		val, present := args[name]
		if !present {
			if spec.Required {
				errs = append(errs, types.FieldError{Field: name, Reason: "required parameter is missing"})
			}
			continue
		}
		if reason := checkValue(spec, val); reason != "" {
			errs = append(errs, types.FieldError{Field: name, Reason: reason})
		}
	}

	for _, group := range schema.OneOf {
		var present []string
		for _, name := range group {
			if _, ok := args[name]; ok {
				present = append(present, name)
			}
		}
		switch len(present) {
		case 1:
			// exactly one, as required
		case 0:
			errs = append(errs, types.FieldError{
				Field:  strings.Join(group, "|"),
				Reason: fmt.Sprintf("exactly one of %s is required", strings.Join(group, ", ")),
			})
		default:
			errs = append(errs, types.FieldError{
				Field:  strings.Join(present, "|"),
				Reason: fmt.Sprintf("%s are mutually exclusive", strings.Join(present, " and ")),
			})
		}
	}

	return errs
}

// checkValue verifies a single argument against its spec.
// It returns an empty string when the value conforms.
func checkValue(spec types.ParamSpec, val any) string {
	switch spec.Type {
	case types.ParamString:
		s, ok := val.(string)
		if !ok {
			return "must be a string"
		}
		if spec.Required && strings.TrimSpace(s) == "" {
			return "must not be empty"
		}
		if len(spec.Enum) > 0 && !slices.Contains(spec.Enum, s) {
			return fmt.Sprintf("must be one of: %s", strings.Join(spec.Enum, ", "))
		}
	case types.ParamInteger:
		if !isInteger(val) {
			return "must be an integer"
		}
	case types.ParamBoolean:
		if _, ok := val.(bool); !ok {
			return "must be a boolean"
		}
	case types.ParamArray:
		items, ok := val.([]any)
		if !ok {
			return "must be an array"
		}
		if spec.Required && len(items) == 0 {
			return "must not be empty"
		}
		for i, item := range items {
			if reason := checkValue(types.ParamSpec{Type: spec.Items}, item); reason != "" {
				return fmt.Sprintf("element %d %s", i, reason)
			}
		}
	case types.ParamObject:
		if _, ok := val.(map[string]any); !ok {
			return "must be an object"
		}
	}
	return ""
}

// isInteger accepts the shapes a JSON decoder can produce for a whole number.
func isInteger(val any) bool {
	switch v := val.(type) {
	case int, int32, int64:
		return true
	case float64:
		return v == math.Trunc(v)
	case json.Number:
		_, err := v.Int64()
		return err == nil
	default:
		return false
	}
}

// String returns a trimmed string argument, or "" when absent.
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return strings.TrimSpace(s)
}

// Int returns an integer argument, or 0 when absent.
func (a Args) Int(name string) int {
	switch v := a[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}

// Bool returns a boolean argument, or fallback when absent.
func (a Args) Bool(name string, fallback bool) bool {
	if v, ok := a[name].(bool); ok {
		return v
	}
	return fallback
}

// StringSlice returns an array argument's elements as trimmed strings.
func (a Args) StringSlice(name string) []string {
	items, ok := a[name].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// Int64Slice returns an array argument's elements as int64 values.
func (a Args) Int64Slice(name string) []int64 {
	items, ok := a[name].([]any)
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case float64:
			out = append(out, int64(v))
		case int:
			out = append(out, int64(v))
		case int64:
			out = append(out, v)
		case json.Number:
			if n, err := v.Int64(); err == nil {
				out = append(out, n)
			}
		}
	}
	return out
}

// Object returns a nested object argument, or nil when absent.
func (a Args) Object(name string) map[string]any {
	m, _ := a[name].(map[string]any)
	return m
}
