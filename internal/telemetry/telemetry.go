// Package telemetry configures OpenTelemetry tracing and the tool-call instruments.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// InstrumentationName names the tracer and meter used by the server.
const InstrumentationName = "github.com/i2y/clinicalmcp"

// Settings selects the OTLP exporter.
type Settings struct {
	Endpoint       string
	Insecure       bool
	ServiceName    string
	ServiceVersion string
}

// Init installs a global TracerProvider exporting over OTLP/gRPC. Tracing is
// left disabled when no endpoint is configured. The returned function flushes
// and closes the exporter.
func Init(ctx context.Context, s Settings, logger *slog.Logger) (func(context.Context) error, error) {
	logger = logger.With("component", "telemetry")
	if s.Endpoint == "" {
		logger.Info("OTEL_EXPORTER_OTLP_ENDPOINT not set, OpenTelemetry tracing disabled.")
		return func(context.Context) error { return nil }, nil
	}

	logger.Info("Initializing OTLP exporter.", slog.String("endpoint", s.Endpoint))
	var creds grpc.DialOption
	if s.Insecure {
		creds = grpc.WithTransportCredentials(insecure.NewCredentials())
		logger.Warn("Using insecure connection for OTLP exporter.")
	} else {
		creds = grpc.WithTransportCredentials(credentials.NewClientTLSFromCert(nil, ""))
	}

	conn, err := grpc.NewClient(s.Endpoint, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to OTLP endpoint: %w", err)
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(s.ServiceName),
			semconv.ServiceVersionKey.String(s.ServiceVersion),
		),
	)
	if err != nil {
		_ = exporter.Shutdown(ctx)
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	logger.Info("OpenTelemetry TracerProvider configured.")

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), conn.Close())
	}, nil
}

// Tracer returns the server tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// Outcomes recorded on clinicalmcp.tool.calls.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// ToolInstruments records per-tool call counts and latency.
type ToolInstruments struct {
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewToolInstruments creates the instruments on meter, or on the global
// meter provider when meter is nil.
func NewToolInstruments(meter metric.Meter) (*ToolInstruments, error) {
	if meter == nil {
		meter = otel.Meter(InstrumentationName)
	}
	calls, err := meter.Int64Counter("clinicalmcp.tool.calls",
		metric.WithDescription("Tool invocations by outcome."),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool call counter: %w", err)
	}
	duration, err := meter.Float64Histogram("clinicalmcp.tool.duration",
		metric.WithDescription("Tool invocation latency."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool duration histogram: %w", err)
	}
	return &ToolInstruments{calls: calls, duration: duration}, nil
}

// Record adds one call with its outcome and elapsed time.
func (i *ToolInstruments) Record(ctx context.Context, tool, outcome string, elapsed time.Duration) {
	if i == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("outcome", outcome),
	)
	i.calls.Add(ctx, 1, attrs)
	i.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}
