package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/Alijeyrad/medtrack_backend/config"
)

const shutdownTimeout = 5 * time.Second

// Config selects which signals the portal exports.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Empty disables span export; spans are still sampled for log correlation.
	OTLPEndpoint string
	OTLPInsecure bool
	SamplingRate float64

	Metrics bool
}

// FromCentralConfig maps the observability section onto Config. Tracing
// exports only when tracing is enabled and an endpoint is set.
func FromCentralConfig(cfg *config.Config) Config {
	o := cfg.Observability
	out := Config{
		ServiceName:    o.ServiceName,
		ServiceVersion: o.ServiceVersion,
		Environment:    cfg.Server.Environment,
		SamplingRate:   o.Tracing.SamplingRate,
		Metrics:        o.Metrics.Enabled,
	}
	if o.Tracing.Enabled && o.Tracing.OTLPEndpoint != "" {
		out.OTLPEndpoint = o.Tracing.OTLPEndpoint
		out.OTLPInsecure = o.Tracing.OTLPInsecure
	}
	return out
}

func (c Config) sampler() sdktrace.Sampler {
	rate := c.SamplingRate
	if rate <= 0 || rate > 1 {
		rate = 1
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
}

// Telemetry owns the installed global providers. Meters is nil when metrics
// are off, in which case the global meter stays a no-op.
type Telemetry struct {
	Tracers *sdktrace.TracerProvider
	Meters  *sdkmetric.MeterProvider
}

// Start installs the tracer and meter providers and the W3C propagator.
func Start(ctx context.Context, cfg Config) (*Telemetry, error) {
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes("",
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res), sdktrace.WithSampler(cfg.sampler()))
	if cfg.OTLPEndpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("otlp exporter: %w", err)
		}
		tp.RegisterSpanProcessor(sdktrace.NewBatchSpanProcessor(exp))
	}
	otel.SetTracerProvider(tp)

	t := &Telemetry{Tracers: tp}
	if cfg.Metrics {
		// registers with the default prometheus registry served at the metrics path
		exp, err := prometheus.New()
		if err != nil {
			_ = tp.Shutdown(ctx)
			return nil, fmt.Errorf("prometheus exporter: %w", err)
		}
		t.Meters = sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(exp))
		otel.SetMeterProvider(t.Meters)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return t, nil
}

// Shutdown flushes pending spans and stops both providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if err := t.Tracers.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracer provider: %w", err))
	}
	if t.Meters != nil {
		if err := t.Meters.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}
