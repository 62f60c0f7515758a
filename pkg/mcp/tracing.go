package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/browserhost/pkg/log"
)

// ToolHandler handles a call to a tool with typed arguments.
type ToolHandler[In, Out any] func(
	context.Context,
	*mcp.ServerSession,
	*mcp.CallToolParamsFor[In],
) (*mcp.CallToolResultFor[Out], error)

// WithTracing runs every call to handler in a span named after the tool.
// Calls are logged at debug level, and failures at error level. A result
// flagged as an error marks the span as failed.
func WithTracing[In, Out any](tracer trace.Tracer, handler ToolHandler[In, Out]) mcp.ToolHandlerFor[In, Out] {
	return func(
		ctx context.Context,
		session *mcp.ServerSession,
		params *mcp.CallToolParamsFor[In],
	) (*mcp.CallToolResultFor[Out], error) {
		tool := params.Name

		ctx, span := tracer.Start(ctx, "tool "+tool, trace.WithAttributes(
			attribute.String("mcp.tool", tool),
		))
		defer span.End()

		logger := log.WithContext(ctx).With(slog.String("tool", tool))
		logger.DebugContext(ctx, "tool called", slog.Any("args", params.Arguments))

		result, err := handler(ctx, session, params)

		switch {
		case err != nil:
			logger.ErrorContext(ctx, "tool failed", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

		case result != nil && result.IsError:
			logger.DebugContext(ctx, "tool returned an error result")
			span.SetStatus(codes.Error, "error result")

		default:
			span.SetStatus(codes.Ok, "")
		}

		return result, err
	}
}
