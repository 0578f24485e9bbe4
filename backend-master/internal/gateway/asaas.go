package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/imobsites/imobsites-panel/pkg/config"
	"github.com/imobsites/imobsites-panel/pkg/logger"
	"github.com/imobsites/imobsites-panel/pkg/telemetry"
)

// AsaasConfig holds the Asaas connection settings
type AsaasConfig struct {
	APIKey            string
	BaseURL           string
	ConnectTimeout    time.Duration
	ReadTimeout       time.Duration
	RequestsPerSecond float64
}

// DefaultAsaasConfig returns sandbox defaults
func DefaultAsaasConfig() *AsaasConfig {
	return &AsaasConfig{
		BaseURL:           "https://sandbox.asaas.com/api/v3",
		ConnectTimeout:    10 * time.Second,
		ReadTimeout:       30 * time.Second,
		RequestsPerSecond: 5,
	}
}

// AsaasConfigFrom maps the application asaas section
func AsaasConfigFrom(c config.AsaasConfig) *AsaasConfig {
	return &AsaasConfig{
		APIKey:            c.APIKey,
		BaseURL:           c.BaseURL(),
		ConnectTimeout:    c.ConnectTimeout,
		ReadTimeout:       c.ReadTimeout,
		RequestsPerSecond: c.RequestsPerSecond,
	}
}

// AsaasClient implements PaymentGateway against the Asaas v3 REST API
type AsaasClient struct {
	http    *resty.Client
	limiter *rate.Limiter
	errors  *telemetry.Counter
	calls   *telemetry.Histogram
}

// NewAsaasClient creates a new AsaasClient
func NewAsaasClient(cfg *AsaasConfig) *AsaasClient {
	defaults := DefaultAsaasConfig()
	if cfg == nil {
		cfg = defaults
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaults.ConnectTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
	}

	client := resty.New().
		SetTransport(transport).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.ReadTimeout).
		SetHeader("access_token", cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "imobsites-panel")

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	errCounter, _ := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "gateway_errors_total",
		Description: "Failed payment gateway calls",
	})
	latency, _ := telemetry.NewHistogram(telemetry.MetricOpts{
		Name:        "gateway_call_duration_seconds",
		Description: "Payment gateway call latency",
		Unit:        "s",
	})

	return &AsaasClient{
		http:    client,
		limiter: rate.NewLimiter(limit, 1),
		errors:  errCounter,
		calls:   latency,
	}
}

func (c *AsaasClient) Name() string {
	return "asaas"
}

type call struct {
	op     string
	method string
	path   string
	query  map[string]string
	body   any
	result any
}

// do runs one throttled, traced request. Non-2xx responses become *APIError.
func (c *AsaasClient) do(ctx context.Context, in call) (*resty.Response, error) {
	ctx, span := telemetry.StartSpan(ctx, "asaas."+in.op)
	defer span.End()
	span.SetAttributes(attribute.String("http.method", in.method), telemetry.GatewayOpAttr(in.op))

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("asaas %s: %w", in.op, err)
	}

	apiErr := &APIError{}
	req := c.http.R().SetContext(ctx).SetError(apiErr)
	if len(in.query) > 0 {
		req.SetQueryParams(in.query)
	}
	if in.body != nil {
		req.SetBody(in.body)
	}
	if in.result != nil {
		req.SetResult(in.result)
	}

	start := time.Now()
	resp, err := req.Execute(in.method, in.path)
	if c.calls != nil {
		c.calls.Record(ctx, time.Since(start).Seconds(), telemetry.GatewayOpAttr(in.op))
	}
	if err != nil {
		c.fail(ctx, in.op, err)
		return nil, fmt.Errorf("asaas %s: %w", in.op, err)
	}
	if resp.IsError() {
		apiErr.StatusCode = resp.StatusCode()
		c.fail(ctx, in.op, apiErr)
		return resp, apiErr
	}
	return resp, nil
}

func (c *AsaasClient) fail(ctx context.Context, op string, err error) {
	telemetry.RecordError(ctx, err)
	if c.errors != nil {
		c.errors.Inc(ctx, telemetry.GatewayOpAttr(op))
	}
	logger.Get().WithContext(ctx).Debug("gateway call failed", zap.String("op", op), zap.Error(err))
}

type customerList struct {
	TotalCount int        `json:"totalCount"`
	Data       []Customer `json:"data"`
}

func (c *AsaasClient) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	var list customerList
	_, err := c.do(ctx, call{
		op:     "find_customer",
		method: http.MethodGet,
		path:   "/customers",
		query:  map[string]string{"email": email},
		result: &list,
	})
	if err != nil {
		return nil, err
	}
	for i := range list.Data {
		if !list.Data[i].Deleted {
			return &list.Data[i], nil
		}
	}
	return nil, nil
}

func (c *AsaasClient) CreateCustomer(ctx context.Context, req *CustomerRequest) (*Customer, error) {
	var customer Customer
	if _, err := c.do(ctx, call{op: "create_customer", method: http.MethodPost, path: "/customers", body: req, result: &customer}); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *AsaasClient) UpdateCustomer(ctx context.Context, id string, req *CustomerUpdate) (*Customer, error) {
	var customer Customer
	if _, err := c.do(ctx, call{op: "update_customer", method: http.MethodPut, path: "/customers/" + url.PathEscape(id), body: req, result: &customer}); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *AsaasClient) CreatePayment(ctx context.Context, req *PaymentRequest) (*Payment, error) {
	var payment Payment
	resp, err := c.do(ctx, call{op: "create_payment", method: http.MethodPost, path: "/payments", body: req, result: &payment})
	if err != nil {
		return nil, err
	}
	payment.Raw = json.RawMessage(resp.Body())
	return &payment, nil
}

func (c *AsaasClient) GetPayment(ctx context.Context, id string) (*Payment, error) {
	var payment Payment
	resp, err := c.do(ctx, call{op: "get_payment", method: http.MethodGet, path: "/payments/" + url.PathEscape(id), result: &payment})
	if err != nil {
		return nil, err
	}
	payment.Raw = json.RawMessage(resp.Body())
	return &payment, nil
}

func (c *AsaasClient) GetPixQrCode(ctx context.Context, paymentID string) (*PixQrCode, error) {
	var qr PixQrCode
	if _, err := c.do(ctx, call{op: "pix_qr_code", method: http.MethodGet, path: "/payments/" + url.PathEscape(paymentID) + "/pixQrCode", result: &qr}); err != nil {
		return nil, err
	}
	return &qr, nil
}

func (c *AsaasClient) GetIdentificationField(ctx context.Context, paymentID string) (*IdentificationField, error) {
	var field IdentificationField
	if _, err := c.do(ctx, call{op: "identification_field", method: http.MethodGet, path: "/payments/" + url.PathEscape(paymentID) + "/identificationField", result: &field}); err != nil {
		return nil, err
	}
	return &field, nil
}

func (c *AsaasClient) CreateSubscription(ctx context.Context, req *SubscriptionRequest) (*Subscription, error) {
	var sub Subscription
	resp, err := c.do(ctx, call{op: "create_subscription", method: http.MethodPost, path: "/subscriptions", body: req, result: &sub})
	if err != nil {
		return nil, err
	}
	sub.Raw = json.RawMessage(resp.Body())
	return &sub, nil
}

func (c *AsaasClient) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	var sub Subscription
	resp, err := c.do(ctx, call{op: "get_subscription", method: http.MethodGet, path: "/subscriptions/" + url.PathEscape(id), result: &sub})
	if err != nil {
		return nil, err
	}
	sub.Raw = json.RawMessage(resp.Body())
	return &sub, nil
}

func (c *AsaasClient) CancelSubscription(ctx context.Context, id string) error {
	_, err := c.do(ctx, call{op: "cancel_subscription", method: http.MethodDelete, path: "/subscriptions/" + url.PathEscape(id)})
	return err
}
