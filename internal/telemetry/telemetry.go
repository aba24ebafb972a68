// Package telemetry implements AGENTESE's Telemetry Middleware:
// process-wide OpenTelemetry bootstrap, plus the HTTP-edge span
// that wraps a whole gateway request around an invocation. The per-invoke
// span with the {path, aspect, archetype, ok, duration_s, tokens_in,
// tokens_out, law_check_status} attribute set lives in internal/logos —
// it needs the resolver's own step boundaries to attach accurate timing
// and error detail; this package owns the tracer provider lifecycle and
// the outermost HTTP span, consistent with the ordering rule "telemetry
// outermost -> curator -> law-check -> dispatch".
package telemetry

import (
	"context"
	"fmt"

	"github.com/agentese/logos/internal/config"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Init sets up OpenTelemetry tracing with an OTLP gRPC exporter, or a
// disabled no-op provider when telemetry is off (AGENTESE_TELEMETRY=off)
// or no endpoint is configured. Returns a shutdown func for graceful
// shutdown.
func Init(cfg config.TelemetryConfig) (func(context.Context) error, error) {
	if !cfg.Enabled || cfg.OTLPEndpoint == "" {
		log.Info().Msg("🔕 telemetry disabled")
		return func(ctx context.Context) error { return nil }, nil
	}

	ctx := context.Background()

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
		),
		resource.WithHost(),
		resource.WithOS(),
		resource.WithProcess(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info().
		Str("endpoint", cfg.OTLPEndpoint).
		Str("service", cfg.ServiceName).
		Msg("📡 telemetry initialized")

	return tp.Shutdown, nil
}
