package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/mcp-go/mcp"
	mcpGoServer "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/i2y/clinicalmcp/internal/adapter/outbound/openapi"
	"github.com/i2y/clinicalmcp/internal/domain"
	"github.com/i2y/clinicalmcp/internal/telemetry"
)

// ToolSpec describes one tool: its advertised shape and the pure function
// that evaluates it.
type ToolSpec[In, Out any] struct {
	Name        string
	Title       string
	Description string
	Shape       *openapi3.Schema
	// Idempotent is false for tools that mint identifiers.
	Idempotent bool
	Evaluate   func(context.Context, In) (Out, error)
}

// Register adds spec to the registry's server. Every call runs
// validate, decode, evaluate, then format on success or classify on failure.
func Register[In, Out any](r *Registry, spec ToolSpec[In, Out]) error {
	if spec.Evaluate == nil {
		return fmt.Errorf("tool %q has no evaluator", spec.Name)
	}
	schema, err := openapi.InputSchema(spec.Shape)
	if err != nil {
		return fmt.Errorf("tool %q: %w", spec.Name, err)
	}
	if err := r.record(domain.Capability{
		Kind:        domain.CapabilityTool,
		Name:        spec.Name,
		Title:       spec.Title,
		Description: spec.Description,
		Arguments:   shapeFields(spec.Shape),
	}); err != nil {
		return err
	}

	tool := mcp.NewToolWithRawSchema(spec.Name, spec.Description, schema)
	tool.Annotations = mcp.ToolAnnotation{
		Title:           spec.Title,
		ReadOnlyHint:    mcp.ToBoolPtr(true),
		DestructiveHint: mcp.ToBoolPtr(false),
		IdempotentHint:  mcp.ToBoolPtr(spec.Idempotent),
		OpenWorldHint:   mcp.ToBoolPtr(false),
	}
	r.server.AddTool(tool, toolHandler(r, spec))
	r.logger.Debug("Tool registered.", slog.String("tool", spec.Name))
	return nil
}

func shapeFields(shape *openapi3.Schema) []string {
	if shape == nil {
		return nil
	}
	names := make([]string, 0, len(shape.Properties))
	for name := range shape.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func toolHandler[In, Out any](r *Registry, spec ToolSpec[In, Out]) mcpGoServer.ToolHandlerFunc {
	log := r.logger.With(slog.String("tool", spec.Name))
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		started := r.now()
		ctx, span := r.tracer.Start(ctx, "tool/"+spec.Name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", spec.Name)),
		)
		defer span.End()

		out, err := runTool(ctx, r, spec, req)
		var result *mcp.CallToolResult
		if err == nil {
			result, err = FormatSuccess(spec.Name, out, started, r.now())
		}
		elapsed := r.now().Sub(started)

		if err != nil {
			c := Classify(err, map[string]any{"tool": spec.Name, "elapsed_ms": elapsed.Milliseconds()})
			span.RecordError(err)
			span.SetStatus(codes.Error, string(c.Kind))
			r.instruments.Record(ctx, spec.Name, telemetry.OutcomeError, elapsed)
			if c.Kind == domain.KindValidation {
				log.Info("Tool input rejected.", slog.Any("context", c.Context), slog.Any("error", err))
			} else {
				log.Error("Tool call failed.", slog.String("kind", string(c.Kind)), slog.Any("context", c.Context), slog.Any("error", err))
			}
			return FormatError(c), nil
		}

		span.SetStatus(codes.Ok, "")
		r.instruments.Record(ctx, spec.Name, telemetry.OutcomeSuccess, elapsed)
		log.Debug("Tool call succeeded.", slog.Duration("elapsed", elapsed))
		return result, nil
	}
}

type outcome[Out any] struct {
	out Out
	err error
}

// runTool validates and decodes the arguments, then evaluates them under the
// registry timeout. A panic in the evaluator becomes a ProcessingError.
func runTool[In, Out any](ctx context.Context, r *Registry, spec ToolSpec[In, Out], req mcp.CallToolRequest) (Out, error) {
	var zero Out
	if err := r.validator.Validate(spec.Name, spec.Shape, req.GetArguments()); err != nil {
		return zero, err
	}
	var in In
	if err := req.BindArguments(&in); err != nil {
		return zero, domain.NewValidationError("arguments", err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan outcome[Out], 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome[Out]{err: &domain.ProcessingError{Operation: spec.Name, Err: fmt.Errorf("panic: %v", p)}}
			}
		}()
		out, err := spec.Evaluate(ctx, in)
		done <- outcome[Out]{out: out, err: err}
	}()

	select {
	case o := <-done:
		return o.out, o.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, &domain.ProcessingTimeoutError{Operation: spec.Name, Timeout: r.timeout, Err: ctx.Err()}
		}
		return zero, ctx.Err()
	}
}
