// Package observability wires OpenTelemetry tracing for the service. The
// reasoning engine and gateway create spans through the global tracer
// provider this package installs.
package observability

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Config selects how spans leave the process.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool
	// Export is "stdout" or "none". Disabled tracing installs nothing and
	// spans become no-ops through the default global provider.
	Export string
}

// Provider owns the installed tracer provider and its shutdown.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// New installs the global tracer provider. With tracing disabled it
// returns a provider whose Shutdown is a no-op.
func New(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{}, nil
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	switch cfg.Export {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	case "none", "":
		// Spans are recorded but never exported; useful for sampling
		// overhead tests.
	default:
		return nil, errors.New("unknown trace exporter: " + cfg.Export)
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return &Provider{tp: tp}, nil
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}
