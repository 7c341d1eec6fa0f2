package observability

import (
	"context"
	"os"

	"calcpad/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Version is stamped into the telemetry resource. Release builds set it with
// -ldflags "-X calcpad/internal/observability.Version=...".
var Version = "dev"

// InitTracing installs a batching OTLP tracer provider. Root spans are kept
// at cfg.SampleRatio; children follow the parent's decision so a request's
// per-action spans are never split.
func InitTracing(ctx context.Context, cfg config.TelemetryConfig) (func(context.Context) error, error) {

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRatio)),
	)

	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}

func sampler(ratio float64) sdktrace.Sampler {
	if ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// newResource describes this process to every exporter. OTEL_RESOURCE_ATTRIBUTES
// is merged in, but the explicit attributes win.
func newResource(ctx context.Context, cfg config.TelemetryConfig) (*resource.Resource, error) {
	attrs := []resource.Option{
		resource.WithFromEnv(),
		resource.WithAttributes(
			semconv.ServiceName(ServiceName(cfg)),
			semconv.ServiceVersion(Version),
		),
	}
	if cfg.Environment != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.DeploymentEnvironment(cfg.Environment)))
	}
	return resource.New(ctx, attrs...)
}

// ServiceName prefers OTEL_SERVICE_NAME, then the configured name.
func ServiceName(cfg config.TelemetryConfig) string {
	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		return name
	}
	if cfg.ServiceName != "" {
		return cfg.ServiceName
	}
	return "calcpad"
}
