package types

// ParamType is the JSON type expected for a tool parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
	ParamBoolean ParamType = "boolean"
	ParamArray   ParamType = "array"
	ParamObject  ParamType = "object"
)

// ParamSpec declares a single tool parameter.
// Specs are pure data so that the same declaration drives both
// discovery output and server-side input validation.
type ParamSpec struct {
	Type        ParamType `json:"type"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required,omitempty"`

	// Enum restricts string parameters to a fixed set of values.
	Enum []string `json:"enum,omitempty"`

	// Items describes the element type for array parameters.
	Items ParamType `json:"items,omitempty"`
}

// ToolInputSchema defines the schema for the input parameters of a tool.
type ToolInputSchema struct {
	Properties map[string]ParamSpec `json:"properties,omitempty"`

	// OneOf lists groups of mutually exclusive parameters.
	// Exactly one parameter from each group must be supplied.
	// eg- an instance is created from either a product_id or a custom spec, never both.
	OneOf [][]string `json:"one_of,omitempty"`
}

// Tool describes a named operation invocable over the bridge.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema ToolInputSchema `json:"input_schema"`
}

// ToolInvokeRequest is the payload for invoking a tool via the HTTP API.
type ToolInvokeRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolInvokeResult represents the result of a tool call.
// It is designed to be passed down to the end user.
type ToolInvokeResult struct {
	// TraceID identifies the logged call record for this invocation.
	TraceID string `json:"trace_id,omitempty"`

	IsError bool `json:"is_error,omitempty"`

	// Result holds the tool's payload on success.
	Result any `json:"result,omitempty"`

	// Error holds the structured error on failure.
	Error *ToolError `json:"error,omitempty"`
}
