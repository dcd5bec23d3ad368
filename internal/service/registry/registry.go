// Package registry holds the static, self-describing catalog of tools
// exposed by the bridge. The registry is built once at startup and is
// read-only afterwards, so lookups need no locking.
package registry

import (
	"context"
	"fmt"

	"github.com/vpsbridge/vpsbridge/pkg/types"
)

// Args holds a tool call's arguments after schema validation.
type Args map[string]any

// HandlerFunc executes a tool call with validated arguments.
// The returned value is serialized verbatim into the response.
type HandlerFunc func(ctx context.Context, args Args) (any, error)

// ToolDefinition binds a tool's name, documentation, input schema and
// handler together. The schema is declarative data: the same definition
// drives both discovery output and server-side validation, so the two can
// never drift apart.
type ToolDefinition struct {
	Name        string
	Description string
	Schema      types.ToolInputSchema
	Handler     HandlerFunc
}

// Registry maps tool names to their definitions.
type Registry struct {
	defs   []*ToolDefinition
	byName map[string]*ToolDefinition
}

func newRegistry() *Registry {
	return &Registry{byName: make(map[string]*ToolDefinition)}
}

// register adds a tool definition. Called only during construction.
func (r *Registry) register(def *ToolDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("tool definition has no name")
	}
	if _, exists := r.byName[def.Name]; exists {
		return fmt.Errorf("duplicate tool name %q", def.Name)
	}
	r.defs = append(r.defs, def)
	r.byName[def.Name] = def
	return nil
}

// Describe returns every registered tool in registration order.
// The output is stable across calls within a process lifetime.
func (r *Registry) Describe() []types.Tool {
	out := make([]types.Tool, len(r.defs))
	for i, def := range r.defs {
		out[i] = types.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.Schema,
		}
	}
	return out
}

// Resolve looks up a tool by name.
func (r *Registry) Resolve(name string) (*ToolDefinition, bool) {
	def, ok := r.byName[name]
	return def, ok
}
