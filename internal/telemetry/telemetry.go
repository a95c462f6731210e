// Package telemetry wires OpenTelemetry tracing and metrics. Without an OTLP
// endpoint the global no-op providers stay in place and every instrument is
// free to call.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/SigNoz/signoz-query-mcp"

// ShutdownFunc flushes and stops the providers.
type ShutdownFunc func(context.Context) error

// Setup installs global tracer and meter providers exporting over OTLP/gRPC to
// endpoint. An empty endpoint leaves telemetry disabled.
func Setup(ctx context.Context, log *zap.Logger, endpoint, serviceName, version string) (ShutdownFunc, error) {
	if endpoint == "" {
		log.Debug("OTLP endpoint not set, telemetry disabled")
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", version),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build resource: %w", err)
	}

	traceExp, err := otlptracegrpc.New(ctx, traceEndpoint(endpoint)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	metricExp, err := otlpmetricgrpc.New(ctx, metricEndpoint(endpoint)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExp), sdktrace.WithResource(res))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	if err := runtime.Start(runtime.WithMeterProvider(mp)); err != nil {
		log.Warn("Failed to start runtime metrics", zap.Error(err))
	}

	log.Info("Telemetry enabled", zap.String("endpoint", endpoint))
	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

// endpoints given with a scheme are passed as URLs; bare host:port is
// assumed to be a plaintext collector.
func traceEndpoint(endpoint string) []otlptracegrpc.Option {
	if strings.Contains(endpoint, "://") {
		return []otlptracegrpc.Option{otlptracegrpc.WithEndpointURL(endpoint)}
	}
	return []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure()}
}

func metricEndpoint(endpoint string) []otlpmetricgrpc.Option {
	if strings.Contains(endpoint, "://") {
		return []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpointURL(endpoint)}
	}
	return []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(endpoint), otlpmetricgrpc.WithInsecure()}
}

// Instruments records one span, one counter increment and one latency sample
// per tool call.
type Instruments struct {
	tracer   trace.Tracer
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewInstruments creates tool-call instruments from the global providers.
func NewInstruments() (*Instruments, error) {
	meter := otel.Meter(instrumentationName)

	calls, err := meter.Int64Counter("mcp.tool.calls",
		metric.WithDescription("Number of MCP tool calls"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("mcp.tool.duration",
		metric.WithDescription("Duration of MCP tool calls"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return &Instruments{
		tracer:   otel.Tracer(instrumentationName),
		calls:    calls,
		duration: duration,
	}, nil
}

// StartToolCall opens a span for tool. The returned func must be called once
// with the call's outcome.
func (i *Instruments) StartToolCall(ctx context.Context, tool string) (context.Context, func(error)) {
	if i == nil {
		return ctx, func(error) {}
	}
	started := time.Now()
	ctx, span := i.tracer.Start(ctx, "tool "+tool, trace.WithAttributes(attribute.String("mcp.tool", tool)))

	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		attrs := metric.WithAttributes(attribute.String("mcp.tool", tool), attribute.String("outcome", outcome))
		i.calls.Add(ctx, 1, attrs)
		i.duration.Record(ctx, time.Since(started).Seconds(), attrs)
		span.End()
	}
}
