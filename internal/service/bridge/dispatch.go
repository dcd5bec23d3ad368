// Package bridge implements the tool call protocol engine: a dispatcher
// that resolves, validates, executes and durably logs every tool call,
// and a line-oriented JSON-RPC front end for stdio transports.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/vpsbridge/vpsbridge/internal/model"
	"github.com/vpsbridge/vpsbridge/internal/provider"
	"github.com/vpsbridge/vpsbridge/internal/service/calllog"
	"github.com/vpsbridge/vpsbridge/internal/service/registry"
	"github.com/vpsbridge/vpsbridge/internal/telemetry"
	"github.com/vpsbridge/vpsbridge/pkg/types"
	"go.uber.org/zap"
)

// Dispatcher routes tool calls through resolution, schema validation and
// execution, and seals one call log record per invocation. Every call is
// logged, including the ones rejected before their handler ran, with the
// caller's argument snapshot preserved verbatim.
type Dispatcher struct {
	registry *registry.Registry
	log      *calllog.Service
	metrics  telemetry.CustomMetrics
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher over the given registry and call log.
func NewDispatcher(reg *registry.Registry, log *calllog.Service, metrics telemetry.CustomMetrics, logger *zap.Logger) *Dispatcher {
	if metrics == nil {
		metrics = telemetry.NewNoopCustomMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		registry: reg,
		log:      log,
		metrics:  metrics,
		logger:   logger,
	}
}

// Registry exposes the dispatcher's tool registry for discovery endpoints.
func (d *Dispatcher) Registry() *registry.Registry {
	return d.registry
}

// Dispatch runs one tool call end to end and returns the result that goes
// back to the caller. It never returns an error: failures are folded into
// the result with IsError set, so transports need no error mapping of
// their own.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) *types.ToolInvokeResult {
	receivedAt := time.Now()
	traceID := ulid.Make().String()

	result := d.execute(ctx, name, args)
	result.TraceID = traceID

	completedAt := time.Now()
	d.seal(ctx, &callOutcome{
		traceID:     traceID,
		tool:        name,
		args:        args,
		result:      result,
		receivedAt:  receivedAt,
		completedAt: completedAt,
	})

	return result
}

// execute resolves and validates the call, then runs the handler.
func (d *Dispatcher) execute(ctx context.Context, name string, args map[string]any) *types.ToolInvokeResult {
	def, ok := d.registry.Resolve(name)
	if !ok {
		return errResult(types.NewToolError(types.ErrUnknownTool, "unknown tool %q", name))
	}

	if fieldErrs := registry.ValidateArgs(def.Schema, args); len(fieldErrs) > 0 {
		return errResult(&types.ToolError{
			Kind:    types.ErrInvalidArguments,
			Message: "arguments failed schema validation",
			Fields:  fieldErrs,
		})
	}

	out, err := def.Handler(ctx, registry.Args(args))
	if err != nil {
		return errResult(classifyError(err))
	}
	return &types.ToolInvokeResult{Result: out}
}

// classifyError maps handler errors onto the error taxonomy.
func classifyError(err error) *types.ToolError {
	var toolErr *types.ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}

	var upstream *provider.UpstreamError
	if errors.As(err, &upstream) {
		return &types.ToolError{
			Kind:    types.ErrUpstreamError,
			Message: upstream.Error(),
			Status:  upstream.Status,
		}
	}

	if provider.IsUnreachable(err) {
		return types.NewToolError(types.ErrUpstreamUnreachable, "%v", err)
	}

	return types.NewToolError(types.ErrInternal, "internal error: %v", err)
}

func errResult(toolErr *types.ToolError) *types.ToolInvokeResult {
	return &types.ToolInvokeResult{IsError: true, Error: toolErr}
}

type callOutcome struct {
	traceID     string
	tool        string
	args        map[string]any
	result      *types.ToolInvokeResult
	receivedAt  time.Time
	completedAt time.Time
}

// seal writes the durable record for a completed call. A failure to
// persist is logged but never surfaced to the caller: the tool call
// already happened and its result must still be delivered.
func (d *Dispatcher) seal(ctx context.Context, out *callOutcome) {
	duration := out.completedAt.Sub(out.receivedAt)

	errorKind := ""
	var response any = out.result.Result
	if out.result.IsError {
		errorKind = string(out.result.Error.Kind)
		response = out.result.Error
	}

	record := &model.ToolCall{
		TraceID:     out.traceID,
		Tool:        out.tool,
		Request:     marshalOrNull(out.args),
		Response:    marshalOrNull(response),
		IsError:     out.result.IsError,
		ErrorKind:   errorKind,
		ReceivedAt:  out.receivedAt,
		CompletedAt: out.completedAt,
		DurationMs:  duration.Milliseconds(),
	}
	if _, err := d.log.Append(record); err != nil {
		d.logger.Error("failed to persist tool call record",
			zap.String("trace_id", out.traceID),
			zap.String("tool", out.tool),
			zap.Error(err),
		)
	}

	d.metrics.RecordToolCall(ctx, out.tool, errorKind, duration)
}

// LogProtocolError records a request that failed at the protocol layer,
// before any tool was resolved. The method name stands in for the tool
// name and the raw request line is preserved as the snapshot.
func (d *Dispatcher) LogProtocolError(ctx context.Context, method string, rawRequest []byte, toolErr *types.ToolError) {
	now := time.Now()
	record := &model.ToolCall{
		TraceID:     ulid.Make().String(),
		Tool:        method,
		Request:     snapshotRaw(rawRequest),
		Response:    marshalOrNull(toolErr),
		IsError:     true,
		ErrorKind:   string(toolErr.Kind),
		ReceivedAt:  now,
		CompletedAt: now,
	}
	if _, err := d.log.Append(record); err != nil {
		d.logger.Error("failed to persist protocol error record",
			zap.String("method", method),
			zap.Error(err),
		)
	}

	d.metrics.RecordToolCall(ctx, method, string(toolErr.Kind), 0)
}

func marshalOrNull(v any) []byte {
	if v == nil {
		return []byte("null")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("null")
	}
	return b
}

// snapshotRaw keeps the offending request line as a JSON string when it
// is not itself valid JSON, so malformed input survives in the log.
func snapshotRaw(raw []byte) []byte {
	if json.Valid(raw) {
		return raw
	}
	quoted, err := json.Marshal(string(raw))
	if err != nil {
		return []byte("null")
	}
	return quoted
}
