package api

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/vpsbridge/vpsbridge/pkg/types"
	"go.uber.org/zap"
)

// registerMCPTools publishes every registry tool on the MCP server.
// Calls arriving over /mcp go through the same dispatcher as the REST
// API, so they are validated and logged identically.
func (s *Server) registerMCPTools() {
	if s.mcpServer == nil {
		return
	}
	for _, t := range s.dispatcher.Registry().Describe() {
		tool := mcp.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: convertInputSchema(t.InputSchema),
		}
		s.mcpServer.AddTool(tool, s.mcpToolCallHandler(t.Name))
	}
}

func (s *Server) mcpToolCallHandler(name string) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := s.dispatcher.Dispatch(ctx, name, req.GetArguments())

		if result.IsError {
			payload, err := json.Marshal(result.Error)
			if err != nil {
				s.logger.Error("failed to marshal tool error", zap.String("tool", name), zap.Error(err))
				return mcp.NewToolResultError(result.Error.Message), nil
			}
			return mcp.NewToolResultError(string(payload)), nil
		}

		payload, err := json.Marshal(result.Result)
		if err != nil {
			s.logger.Error("failed to marshal tool result", zap.String("tool", name), zap.Error(err))
			return mcp.NewToolResultError("failed to serialize tool result"), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}

// convertInputSchema renders a declarative tool schema as the JSON Schema
// object shape MCP clients expect.
func convertInputSchema(schema types.ToolInputSchema) mcp.ToolInputSchema {
	properties := make(map[string]any, len(schema.Properties))
	var required []string
	for name, spec := range schema.Properties {
		prop := map[string]any{"type": string(spec.Type)}
		if spec.Description != "" {
			prop["description"] = spec.Description
		}
		if len(spec.Enum) > 0 {
			prop["enum"] = spec.Enum
		}
		if spec.Type == types.ParamArray && spec.Items != "" {
			prop["items"] = map[string]any{"type": string(spec.Items)}
		}
		properties[name] = prop
		if spec.Required {
			required = append(required, name)
		}
	}
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}
