package types

import "fmt"

// ErrorKind classifies a tool call failure so that a calling agent can
// distinguish "your input was wrong" from "the provider rejected this"
// from "we couldn't reach the provider".
type ErrorKind string

const (
	// ErrMalformedRequest means the request envelope could not be parsed.
	ErrMalformedRequest ErrorKind = "malformed_request"

	// ErrUnknownTool means the requested tool is not in the registry.
	ErrUnknownTool ErrorKind = "unknown_tool"

	// ErrInvalidArguments means the supplied arguments failed schema validation.
	ErrInvalidArguments ErrorKind = "invalid_arguments"

	// ErrValidationFailed means a business-rule cross-check failed,
	// eg- the chosen plan is not offered in the chosen region.
	ErrValidationFailed ErrorKind = "validation_failed"

	// ErrUpstreamError means the provider returned a non-success response.
	ErrUpstreamError ErrorKind = "upstream_error"

	// ErrUpstreamUnreachable means the provider could not be reached at all.
	ErrUpstreamUnreachable ErrorKind = "upstream_unreachable"

	// ErrInternal means the bridge itself failed unexpectedly.
	ErrInternal ErrorKind = "internal_error"
)

// FieldError reports a problem with a single input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ToolError is the structured error returned for a failed tool call.
type ToolError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`

	// Fields carries field-level detail for invalid_arguments and
	// validation_failed errors.
	Fields []FieldError `json:"fields,omitempty"`

	// Status is the HTTP status returned by the provider for upstream_error.
	Status int `json:"status,omitempty"`
}

func (e *ToolError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s (%d field errors)", e.Kind, e.Message, len(e.Fields))
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewToolError creates a ToolError with the given kind and message.
func NewToolError(kind ErrorKind, format string, args ...any) *ToolError {
	return &ToolError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
