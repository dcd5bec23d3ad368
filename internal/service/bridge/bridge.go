package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/vpsbridge/vpsbridge/pkg/types"
	"go.uber.org/zap"
)

const protocolVersion = "2024-11-05"

// JSON-RPC 2.0 error codes used by the stdio transport.
const (
	codeParseError     = -32700
	codeInvalidParams  = -32602
	codeMethodNotFound = -32601
)

// maxLineSize bounds a single request line. Catalog payloads are small;
// anything bigger than this is not a legitimate request.
const maxLineSize = 10 * 1024 * 1024

// ServerInfo identifies the bridge to initializing clients.
type ServerInfo struct {
	Name    string
	Version string
}

// Bridge speaks line-delimited JSON-RPC 2.0 over a reader/writer pair,
// typically stdin/stdout. One request per line, one response line per
// request; notifications (requests without an id) produce no response.
type Bridge struct {
	dispatcher *Dispatcher
	info       ServerInfo
	logger     *zap.Logger

	mu  sync.Mutex
	out io.Writer
}

// NewBridge creates a stdio bridge over the given dispatcher.
func NewBridge(d *Dispatcher, info ServerInfo, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{dispatcher: d, info: info, logger: logger}
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// Serve reads request lines until the reader is exhausted or the context
// is canceled. It returns nil on clean EOF.
func (b *Bridge) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	b.mu.Lock()
	b.out = w
	b.mu.Unlock()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		b.handleLine(ctx, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read request stream: %w", err)
	}
	return nil
}

func (b *Bridge) handleLine(ctx context.Context, line []byte) {
	var req rpcRequest
	if err := json.Unmarshal(line, &req); err != nil {
		b.logger.Warn("received malformed request line", zap.Error(err))
		b.dispatcher.LogProtocolError(ctx, "unknown", line,
			types.NewToolError(types.ErrMalformedRequest, "request is not valid JSON: %v", err))
		b.reply(nil, nil, &rpcError{Code: codeParseError, Message: "parse error"})
		return
	}

	// A request without an id is a notification: process nothing,
	// answer nothing.
	if isNotification(req.ID) {
		b.logger.Debug("ignoring notification", zap.String("method", req.Method))
		return
	}

	switch req.Method {
	case "initialize":
		b.reply(req.ID, b.initializeResult(), nil)
	case "ping":
		b.reply(req.ID, struct{}{}, nil)
	case "tools/list":
		b.reply(req.ID, map[string]any{"tools": b.describeTools()}, nil)
	case "tools/call":
		b.handleToolCall(ctx, &req)
	default:
		b.logger.Warn("unknown method requested", zap.String("method", req.Method))
		b.dispatcher.LogProtocolError(ctx, req.Method, line,
			types.NewToolError(types.ErrMalformedRequest, "unknown method %q", req.Method))
		b.reply(req.ID, nil, &rpcError{Code: codeMethodNotFound, Message: "method not found"})
	}
}

func (b *Bridge) initializeResult() map[string]any {
	return map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    b.info.Name,
			"version": b.info.Version,
		},
	}
}

type toolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// handleToolCall dispatches a tools/call request. Tool failures are
// reported inside the result with isError set, never as JSON-RPC errors:
// the protocol layer succeeded, the tool did not.
func (b *Bridge) handleToolCall(ctx context.Context, req *rpcRequest) {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		b.dispatcher.LogProtocolError(ctx, req.Method, req.Params,
			types.NewToolError(types.ErrMalformedRequest, "invalid tools/call params: %v", err))
		b.reply(req.ID, nil, &rpcError{Code: codeInvalidParams, Message: "invalid params"})
		return
	}

	result := b.dispatcher.Dispatch(ctx, params.Name, params.Arguments)

	var text []byte
	if result.IsError {
		text = marshalOrNull(result.Error)
	} else {
		text = marshalOrNull(result.Result)
	}

	b.reply(req.ID, map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(text)},
		},
		"isError": result.IsError,
		"_meta":   map[string]any{"trace_id": result.TraceID},
	}, nil)
}

// describeTools renders the registry in the wire schema clients expect.
func (b *Bridge) describeTools() []map[string]any {
	tools := b.dispatcher.Registry().Describe()
	out := make([]map[string]any, len(tools))
	for i, t := range tools {
		out[i] = map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"inputSchema": wireInputSchema(t.InputSchema),
		}
	}
	return out
}

// wireInputSchema converts a declarative tool schema into the JSON Schema
// object shape used on the wire.
func wireInputSchema(schema types.ToolInputSchema) map[string]any {
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

	out := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	if len(schema.OneOf) > 0 {
		var oneOf []map[string]any
		for _, group := range schema.OneOf {
			for _, name := range group {
				oneOf = append(oneOf, map[string]any{"required": []string{name}})
			}
		}
		out["oneOf"] = oneOf
	}
	return out
}

func isNotification(id json.RawMessage) bool {
	return len(id) == 0 || string(id) == "null"
}

func (b *Bridge) reply(id json.RawMessage, result any, rpcErr *rpcError) {
	if id == nil {
		id = json.RawMessage("null")
	}
	resp := rpcResponse{JSONRPC: "2.0", ID: id, Result: result, Error: rpcErr}
	line, err := json.Marshal(resp)
	if err != nil {
		b.logger.Error("failed to marshal response", zap.Error(err))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.out.Write(append(line, '\n')); err != nil {
		b.logger.Error("failed to write response", zap.Error(err))
	}
}
