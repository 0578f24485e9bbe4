package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricOpts names an instrument
type MetricOpts struct {
	Name        string
	Description string
	Unit        string
}

// Counter counts events such as reminders sent or webhooks received
type Counter struct {
	inner metric.Int64Counter
}

// NewCounter registers a counter on the process meter
func NewCounter(opts MetricOpts) (*Counter, error) {
	c, err := meter().Int64Counter(opts.Name, metric.WithDescription(opts.Description), metric.WithUnit(opts.Unit))
	if err != nil {
		return nil, err
	}
	return &Counter{inner: c}, nil
}

// MustCounter panics on an invalid instrument name
func MustCounter(opts MetricOpts) *Counter {
	c, err := NewCounter(opts)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Counter) Add(ctx context.Context, n int64, attrs ...attribute.KeyValue) {
	if c == nil {
		return
	}
	c.inner.Add(ctx, n, metric.WithAttributes(attrs...))
}

func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.Add(ctx, 1, attrs...)
}

// Histogram records durations, in seconds for gateway calls
type Histogram struct {
	inner metric.Float64Histogram
}

// NewHistogram registers a histogram on the process meter
func NewHistogram(opts MetricOpts) (*Histogram, error) {
	h, err := meter().Float64Histogram(opts.Name, metric.WithDescription(opts.Description), metric.WithUnit(opts.Unit))
	if err != nil {
		return nil, err
	}
	return &Histogram{inner: h}, nil
}

func (h *Histogram) Record(ctx context.Context, v float64, attrs ...attribute.KeyValue) {
	if h == nil {
		return
	}
	h.inner.Record(ctx, v, metric.WithAttributes(attrs...))
}

// attribute keys used by the master panel instruments
const (
	AttrPaymentMethod = "payment.method"
	AttrGatewayOp     = "gateway.operation"
	AttrEventType     = "email.event_type"
	AttrOutcome       = "outcome"
)

func PaymentMethodAttr(m string) attribute.KeyValue { return attribute.String(AttrPaymentMethod, m) }

func GatewayOpAttr(op string) attribute.KeyValue { return attribute.String(AttrGatewayOp, op) }

func EventTypeAttr(e string) attribute.KeyValue { return attribute.String(AttrEventType, e) }

func OutcomeAttr(o string) attribute.KeyValue { return attribute.String(AttrOutcome, o) }
