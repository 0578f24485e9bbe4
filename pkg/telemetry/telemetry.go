// Package telemetry installs the OpenTelemetry providers for a panel
// process and exposes the tracer and meter the services record on.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/imobsites/imobsites-panel/pkg/config"
)

const namespace = "imobsites"

// Config selects whether spans and metrics are exported and where to
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	CollectorAddr  string
	MetricInterval time.Duration // default 15s
	SampleRatio    float64       // default 1.0
}

// FromConfig builds telemetry settings for one binary
func FromConfig(cfg *config.Config, serviceName string) *Config {
	return &Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    serviceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
	}
}

// Provider is the installed tracer and meter plus what must be flushed on
// exit
type Provider struct {
	Tracer   trace.Tracer
	Meter    metric.Meter
	Exported bool

	closers []func(context.Context) error
}

var (
	mu      sync.RWMutex
	current *Provider
)

// Init installs the process-wide provider. Without export the otel global
// no-op providers back the tracer and meter, so instrumented code runs
// unchanged.
func Init(ctx context.Context, cfg *Config) (*Provider, error) {
	name := namespace
	if cfg != nil && cfg.ServiceName != "" {
		name = cfg.ServiceName
	}
	if cfg == nil || !cfg.Enabled {
		return install(&Provider{Tracer: otel.Tracer(name), Meter: otel.Meter(name)}), nil
	}

	interval := cfg.MetricInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ratio := cfg.SampleRatio
	if ratio <= 0 {
		ratio = 1.0
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(name),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentNameKey.String(cfg.Environment),
		attribute.String("service.namespace", namespace),
	)

	spans, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.CollectorAddr), otlptracegrpc.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("otlp trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spans),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)

	metrics, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(cfg.CollectorAddr), otlpmetricgrpc.WithInsecure())
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("otlp metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metrics, sdkmetric.WithInterval(interval))),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return install(&Provider{
		Tracer:   tp.Tracer(name),
		Meter:    mp.Meter(name),
		Exported: true,
		closers:  []func(context.Context) error{tp.Shutdown, mp.Shutdown},
	}), nil
}

func install(p *Provider) *Provider {
	mu.Lock()
	current = p
	mu.Unlock()
	return p
}

func active() *Provider {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Shutdown flushes pending spans and metrics
func Shutdown(ctx context.Context) error {
	p := active()
	if p == nil {
		return nil
	}
	var errs []error
	for _, closeFn := range p.closers {
		if err := closeFn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func meter() metric.Meter {
	if p := active(); p != nil {
		return p.Meter
	}
	return otel.Meter(namespace)
}

// StartSpan starts a span on the process tracer
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if p := active(); p != nil {
		return p.Tracer.Start(ctx, name, opts...)
	}
	return otel.Tracer(namespace).Start(ctx, name, opts...)
}

// RecordError marks the span in ctx as failed. A nil err is ignored.
func RecordError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceID is the hex trace id of the span in ctx, empty when unsampled
func TraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
