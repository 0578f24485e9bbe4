package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the payment state of an order
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusCanceled OrderStatus = "canceled"
	OrderStatusExpired  OrderStatus = "expired"
)

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusCanceled, OrderStatusExpired:
		return true
	}
	return false
}

// PaymentMethod is how the customer pays
type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodPix        PaymentMethod = "pix"
	PaymentMethodBoleto     PaymentMethod = "boleto"
)

// Valid reports whether m is a known method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodPix, PaymentMethodBoleto:
		return true
	}
	return false
}

// Reminder cadence
const (
	ReminderMaxCount = 3
	ReminderMinAge   = time.Hour
	ReminderInterval = 24 * time.Hour
)

// ExternalReferencePrefix prefixes order ids sent to the gateway
const ExternalReferencePrefix = "order:"

// Order is one checkout transaction
type Order struct {
	ID                    string          `json:"id"`
	PlanCode              string          `json:"plan_code"`
	TenantID              *string         `json:"tenant_id,omitempty"`
	CustomerName          string          `json:"customer_name"`
	CustomerEmail         string          `json:"customer_email"`
	CustomerPhone         string          `json:"customer_phone,omitempty"`
	CustomerDocument      string          `json:"customer_document,omitempty"`
	Amount                decimal.Decimal `json:"amount"`
	PaymentMethod         PaymentMethod   `json:"payment_method"`
	IsRecurring           bool            `json:"is_recurring"`
	Status                OrderStatus     `json:"status"`
	GatewayCustomerID     string          `json:"gateway_customer_id,omitempty"`
	GatewayPaymentID      string          `json:"gateway_payment_id,omitempty"`
	GatewaySubscriptionID string          `json:"gateway_subscription_id,omitempty"`
	PaymentURL            string          `json:"payment_url,omitempty"`
	PixPayload            string          `json:"pix_payload,omitempty"`
	PixQRImage            string          `json:"pix_qr_image,omitempty"`
	BoletoURL             string          `json:"boleto_url,omitempty"`
	BoletoBarcode         string          `json:"boleto_barcode,omitempty"`
	BoletoLine            string          `json:"boleto_line,omitempty"`
	CardLastDigits        string          `json:"card_last_digits,omitempty"`
	GatewayResponse       json.RawMessage `json:"gateway_response,omitempty"`
	ReminderCount         int             `json:"reminder_count"`
	FirstReminderSentAt   *time.Time      `json:"first_reminder_sent_at,omitempty"`
	LastReminderSentAt    *time.Time      `json:"last_reminder_sent_at,omitempty"`
	PaidAt                *time.Time      `json:"paid_at,omitempty"`
	CanceledAt            *time.Time      `json:"canceled_at,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// ExternalReference is the reference stored on gateway records
func (o *Order) ExternalReference() string {
	return ExternalReferencePrefix + o.ID
}

// OrderIDFromReference extracts the order id from an external reference
func OrderIDFromReference(ref string) (string, bool) {
	if !strings.HasPrefix(ref, ExternalReferencePrefix) {
		return "", false
	}
	id := strings.TrimPrefix(ref, ExternalReferencePrefix)
	return id, id != ""
}

// IsReminderEligible mirrors the reminder selection query
func (o *Order) IsReminderEligible(now time.Time) bool {
	if o.Status != OrderStatusPending || strings.TrimSpace(o.CustomerEmail) == "" {
		return false
	}
	if o.CreatedAt.After(now.Add(-ReminderMinAge)) {
		return false
	}
	if o.ReminderCount >= ReminderMaxCount {
		return false
	}
	if o.LastReminderSentAt != nil && o.LastReminderSentAt.After(now.Add(-ReminderInterval)) {
		return false
	}
	return true
}

// ApplyReminder records a reminder sent at now
func (o *Order) ApplyReminder(now time.Time) {
	if o.ReminderCount == 0 {
		o.FirstReminderSentAt = &now
	}
	o.LastReminderSentAt = &now
	o.ReminderCount++
}

// HasTenant reports whether a tenant was already attached
func (o *Order) HasTenant() bool {
	return o.TenantID != nil && *o.TenantID != ""
}
