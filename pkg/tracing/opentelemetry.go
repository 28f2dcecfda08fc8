package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/run-bigpig/apitools/pkg/interfaces"
	"github.com/run-bigpig/apitools/pkg/logging"
	"github.com/run-bigpig/apitools/pkg/tools"
)

// OTelTracer implements tracing using OpenTelemetry
type OTelTracer struct {
	tracer      trace.Tracer
	enabled     bool
	serviceName string
}

// OTelConfig contains configuration for OpenTelemetry
type OTelConfig struct {
	// Enabled determines whether OpenTelemetry tracing is enabled
	Enabled bool

	// ServiceName is the name of the service
	ServiceName string

	// CollectorEndpoint is the endpoint of the OpenTelemetry collector
	CollectorEndpoint string
}

// NewOTelTracer creates a new OpenTelemetry tracer
func NewOTelTracer(config OTelConfig) (*OTelTracer, error) {
	if !config.Enabled {
		return &OTelTracer{
			enabled: false,
		}, nil
	}

	// Create exporter
	ctx := context.Background()
	exporter, err := otlptrace.New(
		ctx,
		otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(config.CollectorEndpoint),
			otlptracegrpc.WithInsecure(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	// Create resource
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// Create trace provider
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	// Create tracer
	tracer := tp.Tracer(config.ServiceName)

	return &OTelTracer{
		tracer:      tracer,
		enabled:     true,
		serviceName: config.ServiceName,
	}, nil
}

// StartSpan starts a new span
func (t *OTelTracer) StartSpan(ctx context.Context, name string, attributes map[string]string) (context.Context, trace.Span) {
	if !t.enabled {
		return ctx, trace.SpanFromContext(ctx)
	}

	// Convert attributes to OpenTelemetry attributes
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		attrs = append(attrs, attribute.String(k, v))
	}

	// Tie spans to the tool invocation when one is in flight
	if id, ok := logging.GetInvocationID(ctx); ok {
		attrs = append(attrs, attribute.String("invocation_id", id))
	}

	// Start span
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan ends a span
func (t *OTelTracer) EndSpan(span trace.Span, err error) {
	if !t.enabled {
		return
	}

	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

// InvokerOTelMiddleware wraps an invoker with OpenTelemetry tracing of every
// tool execution
type InvokerOTelMiddleware struct {
	invoker tools.Invoker
	tracer  *OTelTracer
}

// NewInvokerOTelMiddleware creates a new invoker middleware with OpenTelemetry tracing
func NewInvokerOTelMiddleware(invoker tools.Invoker, tracer *OTelTracer) *InvokerOTelMiddleware {
	return &InvokerOTelMiddleware{
		invoker: invoker,
		tracer:  tracer,
	}
}

// Execute executes a descriptor with OpenTelemetry tracing
func (m *InvokerOTelMiddleware) Execute(ctx context.Context, desc *tools.Descriptor, args map[string]interface{}) (*interfaces.ToolResult, error) {
	attributes := map[string]string{
		"tool.name":     desc.Name,
		"tool.category": desc.Category,
		"tool.method":   desc.Plan.Method,
	}

	ctx, span := m.tracer.StartSpan(ctx, "tool.execute", attributes)
	result, err := m.invoker.Execute(ctx, desc, args)

	if err == nil && result != nil {
		span.SetAttributes(attribute.Bool("tool.is_error", result.IsError))
	}
	m.tracer.EndSpan(span, err)

	return result, err
}
