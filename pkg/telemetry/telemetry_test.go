package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imobsites/imobsites-panel/pkg/config"
)

func TestInit_Disabled(t *testing.T) {
	p, err := Init(context.Background(), &Config{Enabled: false, ServiceName: "master"})
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Same(t, p, active())
	assert.False(t, p.Exported)
	assert.NoError(t, Shutdown(context.Background()))
}

func TestInit_Nil(t *testing.T) {
	p, err := Init(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, p.Tracer)
	assert.NotNil(t, p.Meter)
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{
		App:  config.AppConfig{Version: "2.1.0", Environment: "staging"},
		OTel: config.OTelConfig{Enabled: true, CollectorAddr: "otel:4317"},
	}

	tc := FromConfig(cfg, "imobsites-master")

	assert.True(t, tc.Enabled)
	assert.Equal(t, "imobsites-master", tc.ServiceName)
	assert.Equal(t, "2.1.0", tc.ServiceVersion)
	assert.Equal(t, "otel:4317", tc.CollectorAddr)
}

func TestStartSpan_Disabled(t *testing.T) {
	_, _ = Init(context.Background(), &Config{Enabled: false})

	ctx, span := StartSpan(context.Background(), "gateway.create_payment")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.Empty(t, TraceID(ctx), "no-op tracer produces no trace id")
	RecordError(ctx, errors.New("boom"))
	RecordError(ctx, nil)
}

func TestInstruments_Disabled(t *testing.T) {
	_, _ = Init(context.Background(), &Config{Enabled: false})
	ctx := context.Background()

	counter, err := NewCounter(MetricOpts{Name: "reminders_sent_total", Unit: "1"})
	require.NoError(t, err)
	counter.Inc(ctx, OutcomeAttr("sent"))
	counter.Add(ctx, 3, PaymentMethodAttr("pix"))

	hist, err := NewHistogram(MetricOpts{Name: "gateway_request_duration", Unit: "s"})
	require.NoError(t, err)
	hist.Record(ctx, 0.25, GatewayOpAttr("create_payment"))

	assert.NotPanics(t, func() { MustCounter(MetricOpts{Name: "orders_created_total"}) })
}

func TestAttributeHelpers(t *testing.T) {
	assert.Equal(t, AttrOutcome, string(OutcomeAttr("sent").Key))
	assert.Equal(t, "pix", PaymentMethodAttr("pix").Value.AsString())
	assert.Equal(t, AttrEventType, string(EventTypeAttr("order_paid").Key))
}

func TestNilInstruments_NoOp(t *testing.T) {
	var c *Counter
	var h *Histogram
	assert.NotPanics(t, func() {
		c.Inc(context.Background())
		h.Record(context.Background(), 1)
	})
}
