package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-master/internal/gateway"
	"github.com/imobsites/imobsites-panel/pkg/config"
	"github.com/imobsites/imobsites-panel/pkg/logger"
	"github.com/imobsites/imobsites-panel/pkg/retry"
	"github.com/imobsites/imobsites-panel/pkg/telemetry"
)

var (
	ErrCardRequired         = errors.New("credit card data is required")
	ErrUnsupportedMethod    = errors.New("unsupported payment method")
	ErrSubscriptionCardOnly = errors.New("subscriptions are only available for credit card")
	ErrInvalidAmount        = errors.New("amount must be greater than zero")

	errPixPending = errors.New("pix data not available yet")
)

const (
	paymentDueDays      = 3
	subscriptionDueDays = 1
)

var bareBase64 = regexp.MustCompile(`^[A-Za-z0-9+/\s]+={0,2}$`)

// PollingConfig controls how long we wait for asynchronously populated
// payment fields
type PollingConfig struct {
	PixInitialDelay    time.Duration
	PixRetryInterval   time.Duration
	PixMaxRetries      int
	BoletoInitialDelay time.Duration
}

// DefaultPollingConfig returns 1s initial waits and three 2s PIX retries
func DefaultPollingConfig() PollingConfig {
	return PollingConfig{
		PixInitialDelay:    time.Second,
		PixRetryInterval:   2 * time.Second,
		PixMaxRetries:      3,
		BoletoInitialDelay: time.Second,
	}
}

// PollingConfigFrom maps the application asaas section
func PollingConfigFrom(c config.AsaasConfig) PollingConfig {
	return PollingConfig{
		PixInitialDelay:    c.PixInitialDelay,
		PixRetryInterval:   c.PixRetryInterval,
		PixMaxRetries:      c.PixMaxRetries,
		BoletoInitialDelay: c.BoletoInitialDelay,
	}
}

// CardInput is the card as typed at checkout
type CardInput struct {
	HolderName  string `json:"holder_name"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CCV         string `json:"ccv"`
}

// LastDigits returns the last four card digits
func (c *CardInput) LastDigits() string {
	d := DigitsOnly(c.Number)
	if len(d) <= 4 {
		return d
	}
	return d[len(d)-4:]
}

// HolderInput identifies the card holder
type HolderInput struct {
	Name          string
	Email         string
	Document      string
	PostalCode    string
	AddressNumber string
	Phone         string
}

// PaymentInput is everything needed to charge an order
type PaymentInput struct {
	OrderID      string
	CustomerID   string
	Method       domain.PaymentMethod
	Amount       decimal.Decimal
	Description  string
	Document     string
	Installments int
	Card         *CardInput
	Holder       HolderInput
	RemoteIP     string
}

// PaymentResult is the normalized outcome of a charge or subscription
type PaymentResult struct {
	ProviderID     string          `json:"provider_id"`
	SubscriptionID string          `json:"subscription_id,omitempty"`
	Status         string          `json:"status"`
	PaymentURL     string          `json:"payment_url,omitempty"`
	PixPayload     string          `json:"pix_payload,omitempty"`
	PixQRImage     string          `json:"pix_qr_image,omitempty"`
	BoletoURL      string          `json:"boleto_url,omitempty"`
	BoletoBarcode  string          `json:"boleto_barcode,omitempty"`
	BoletoLine     string          `json:"boleto_line,omitempty"`
	CardLastDigits string          `json:"card_last_digits,omitempty"`
	Raw            json.RawMessage `json:"-"`
}

// PaymentCreator turns orders into gateway charges and subscriptions
type PaymentCreator struct {
	gateway gateway.PaymentGateway
	polling PollingConfig
	now     func() time.Time
	created *telemetry.Counter
}

// NewPaymentCreator creates a new PaymentCreator
func NewPaymentCreator(gw gateway.PaymentGateway, polling PollingConfig) *PaymentCreator {
	created, _ := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "gateway_charges_created_total",
		Description: "Charges and subscriptions created at the gateway",
	})
	return &PaymentCreator{
		gateway: gw,
		polling: polling,
		now:     time.Now,
		created: created,
	}
}

func billingType(m domain.PaymentMethod) (string, error) {
	switch m {
	case domain.PaymentMethodCreditCard:
		return gateway.BillingTypeCreditCard, nil
	case domain.PaymentMethodPix:
		return gateway.BillingTypePix, nil
	case domain.PaymentMethodBoleto:
		return gateway.BillingTypeBoleto, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, m)
}

// InstallmentValue splits total into n installments rounded to cents
func InstallmentValue(total decimal.Decimal, n int) decimal.Decimal {
	if n < 1 {
		n = 1
	}
	return total.Div(decimal.NewFromInt(int64(n))).Round(2)
}

// CreatePayment creates a one-off charge. PIX and boleto charges are then
// polled for their payment data; polling failures leave those fields empty.
func (p *PaymentCreator) CreatePayment(ctx context.Context, in PaymentInput) (*PaymentResult, error) {
	bt, err := billingType(in.Method)
	if err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	log := p.logFor(ctx, in)
	document := DigitsOnly(in.Document)

	req := &gateway.PaymentRequest{
		Customer:          in.CustomerID,
		BillingType:       bt,
		Value:             json.Number(in.Amount.StringFixed(2)),
		DueDate:           p.now().AddDate(0, 0, paymentDueDays).Format(gateway.DateLayout),
		Description:       in.Description,
		ExternalReference: domain.ExternalReferencePrefix + in.OrderID,
		RemoteIP:          in.RemoteIP,
	}

	switch in.Method {
	case domain.PaymentMethodPix, domain.PaymentMethodBoleto:
		if document != "" {
			req.CpfCnpj = document
		}
	case domain.PaymentMethodCreditCard:
		if in.Card == nil {
			return nil, ErrCardRequired
		}
		installments := in.Installments
		if installments < 1 {
			installments = 1
		}
		req.InstallmentCount = installments
		req.InstallmentValue = json.Number(InstallmentValue(in.Amount, installments).StringFixed(2))
		req.CreditCard = cardPayload(in.Card)
		req.CreditCardHolderInfo = p.holderPayload(log, in.Holder)
	}

	payment, err := p.gateway.CreatePayment(ctx, req)
	if err != nil {
		log.Error("failed to create gateway payment",
			zap.String("billing_type", bt),
			logger.Document("cpf", document),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to create gateway payment: %w", err)
	}
	if p.created != nil {
		p.created.Inc(ctx, telemetry.PaymentMethodAttr(string(in.Method)))
	}

	result := &PaymentResult{
		ProviderID: payment.ID,
		Status:     payment.Status,
		PaymentURL: payment.InvoiceURL,
		BoletoURL:  payment.BankSlipURL,
		Raw:        payment.Raw,
	}
	if payment.CreditCard != nil && payment.CreditCard.CreditCardNumber != "" {
		result.CardLastDigits = payment.CreditCard.CreditCardNumber
	} else if in.Card != nil {
		result.CardLastDigits = in.Card.LastDigits()
	}

	switch in.Method {
	case domain.PaymentMethodPix:
		p.fetchPix(ctx, log, payment.ID, result)
	case domain.PaymentMethodBoleto:
		p.fetchBoletoLine(ctx, log, payment.ID, result)
	}

	log.Info("gateway payment created",
		zap.String("payment_id", logger.MaskID(payment.ID)),
		zap.String("billing_type", bt),
		zap.String("status", payment.Status),
	)
	return result, nil
}

// CreateSubscription creates a monthly card subscription starting tomorrow
func (p *PaymentCreator) CreateSubscription(ctx context.Context, in PaymentInput) (*PaymentResult, error) {
	if in.Method != domain.PaymentMethodCreditCard {
		return nil, ErrSubscriptionCardOnly
	}
	if in.Card == nil {
		return nil, ErrCardRequired
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	log := p.logFor(ctx, in)

	req := &gateway.SubscriptionRequest{
		Customer:             in.CustomerID,
		BillingType:          gateway.BillingTypeCreditCard,
		Value:                json.Number(in.Amount.StringFixed(2)),
		NextDueDate:          p.now().AddDate(0, 0, subscriptionDueDays).Format(gateway.DateLayout),
		Cycle:                gateway.CycleMonthly,
		Description:          in.Description,
		ExternalReference:    domain.ExternalReferencePrefix + in.OrderID,
		CreditCard:           cardPayload(in.Card),
		CreditCardHolderInfo: p.holderPayload(log, in.Holder),
		RemoteIP:             in.RemoteIP,
	}

	sub, err := p.gateway.CreateSubscription(ctx, req)
	if err != nil {
		log.Error("failed to create gateway subscription",
			logger.Document("cpf", in.Holder.Document),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to create gateway subscription: %w", err)
	}
	if p.created != nil {
		p.created.Inc(ctx, telemetry.PaymentMethodAttr("subscription"))
	}

	result := &PaymentResult{
		ProviderID:     sub.ID,
		SubscriptionID: sub.ID,
		Status:         sub.Status,
		CardLastDigits: in.Card.LastDigits(),
		Raw:            sub.Raw,
	}
	if sub.CreditCard != nil && sub.CreditCard.CreditCardNumber != "" {
		result.CardLastDigits = sub.CreditCard.CreditCardNumber
	}

	log.Info("gateway subscription created", zap.String("subscription_id", logger.MaskID(sub.ID)))
	return result, nil
}

func (p *PaymentCreator) logFor(ctx context.Context, in PaymentInput) *logger.Logger {
	return logger.Get().WithContext(ctx).WithFields(
		zap.String("order_id", logger.MaskID(in.OrderID)),
		zap.String("customer_id", logger.MaskID(in.CustomerID)),
		zap.String("payment_method", string(in.Method)),
	)
}

func cardPayload(c *CardInput) *gateway.CreditCard {
	return &gateway.CreditCard{
		HolderName:  strings.TrimSpace(c.HolderName),
		Number:      DigitsOnly(c.Number),
		ExpiryMonth: c.ExpiryMonth,
		ExpiryYear:  c.ExpiryYear,
		CCV:         c.CCV,
	}
}

// holderPayload builds the holder block. Missing identity fields are only
// warned about; the gateway rejects the charge if it needs them.
func (p *PaymentCreator) holderPayload(log *logger.Logger, h HolderInput) *gateway.CreditCardHolderInfo {
	document := DigitsOnly(h.Document)

	var missing []string
	if strings.TrimSpace(h.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(h.Email) == "" {
		missing = append(missing, "email")
	}
	if document == "" {
		missing = append(missing, "cpfCnpj")
	}
	if len(missing) > 0 {
		log.Warn("card holder info incomplete", zap.Strings("missing", missing))
	}

	phone := FormatPhone(h.Phone)
	return &gateway.CreditCardHolderInfo{
		Name:          strings.TrimSpace(h.Name),
		Email:         strings.TrimSpace(h.Email),
		CpfCnpj:       document,
		PostalCode:    DigitsOnly(h.PostalCode),
		AddressNumber: h.AddressNumber,
		Phone:         phone,
		MobilePhone:   phone,
	}
}

// fetchPix waits for the QR code endpoint, then falls back to reading
// pixTransaction from the payment itself
func (p *PaymentCreator) fetchPix(ctx context.Context, log *logger.Logger, paymentID string, result *PaymentResult) {
	qr, err := retry.Do(ctx, retry.Once(p.polling.PixInitialDelay), func(ctx context.Context) (*gateway.PixQrCode, error) {
		qr, err := p.gateway.GetPixQrCode(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		if qr.Payload == "" {
			return nil, errPixPending
		}
		return qr, nil
	})
	if err == nil {
		applyPix(result, qr)
		return
	}
	if ctx.Err() != nil {
		log.Warn("pix polling interrupted", zap.Error(ctx.Err()))
		return
	}
	log.Warn("pix qr code not available, polling payment", zap.Error(err))

	policy := retry.Policy{
		InitialDelay: p.polling.PixRetryInterval,
		Interval:     p.polling.PixRetryInterval,
		MaxAttempts:  p.polling.PixMaxRetries,
		OnRetry: func(err error, next time.Duration) {
			log.Debug("pix data still pending", zap.Duration("next", next), zap.Error(err))
		},
	}
	qr, err = retry.Do(ctx, policy, func(ctx context.Context) (*gateway.PixQrCode, error) {
		payment, err := p.gateway.GetPayment(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		if qr, ok := payment.PixFromTransaction(); ok {
			return qr, nil
		}
		return nil, errPixPending
	})
	if err != nil {
		log.Warn("pix payload unavailable after retries",
			zap.Int("attempts", p.polling.PixMaxRetries),
			zap.Error(err),
		)
		return
	}
	applyPix(result, qr)
}

func applyPix(result *PaymentResult, qr *gateway.PixQrCode) {
	result.PixPayload = qr.Payload
	result.PixQRImage = NormalizeQRImage(qr.EncodedImage)
}

func (p *PaymentCreator) fetchBoletoLine(ctx context.Context, log *logger.Logger, paymentID string, result *PaymentResult) {
	field, err := retry.Do(ctx, retry.Once(p.polling.BoletoInitialDelay), func(ctx context.Context) (*gateway.IdentificationField, error) {
		return p.gateway.GetIdentificationField(ctx, paymentID)
	})
	if err != nil {
		log.Warn("boleto identification field unavailable", zap.Error(err))
		return
	}
	result.BoletoLine = field.IdentificationField
	result.BoletoBarcode = field.BarCode
}

// NormalizeQRImage turns bare base64 PNG data into a data URI. URLs and
// data URIs pass through.
func NormalizeQRImage(img string) string {
	img = strings.TrimSpace(img)
	if img == "" || strings.HasPrefix(img, "data:") {
		return img
	}
	if strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") {
		return img
	}
	if bareBase64.MatchString(img) {
		return "data:image/png;base64," + img
	}
	return img
}
