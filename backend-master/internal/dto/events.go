package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
)

// Topic names for lifecycle events
const (
	TopicOrderEvents  = "orders.events"
	TopicTenantEvents = "tenants.events"
)

// Event types
const (
	EventOrderCreated    = "order.created"
	EventOrderPaid       = "order.paid"
	EventOrderExpired    = "order.expired"
	EventOrderCanceled   = "order.canceled"
	EventTenantOnboarded = "tenant.onboarded"
	EventTenantSuspended = "tenant.suspended"
	EventTenantActivated = "tenant.activated"
)

// OrderEvent is published on every order status change
type OrderEvent struct {
	EventType     string               `json:"event_type"`
	OrderID       string               `json:"order_id"`
	PlanCode      string               `json:"plan_code"`
	Status        domain.OrderStatus   `json:"status"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	Amount        decimal.Decimal      `json:"amount"`
	TenantID      string               `json:"tenant_id,omitempty"`
	GatewayID     string               `json:"gateway_payment_id,omitempty"`
	Timestamp     time.Time            `json:"timestamp"`
}

// Key returns the Kafka message key for partitioning
func (e *OrderEvent) Key() string {
	return e.OrderID
}

// NewOrderEvent builds an event from the order's current state
func NewOrderEvent(eventType string, o *domain.Order) *OrderEvent {
	e := &OrderEvent{
		EventType:     eventType,
		OrderID:       o.ID,
		PlanCode:      o.PlanCode,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		Amount:        o.Amount,
		GatewayID:     o.GatewayPaymentID,
		Timestamp:     time.Now().UTC(),
	}
	if o.HasTenant() {
		e.TenantID = *o.TenantID
	}
	return e
}

// TenantEvent is published on tenant lifecycle changes
type TenantEvent struct {
	EventType string              `json:"event_type"`
	TenantID  string              `json:"tenant_id"`
	Slug      string              `json:"slug"`
	Status    domain.TenantStatus `json:"status"`
	Domain    string              `json:"domain,omitempty"`
	OrderID   string              `json:"order_id,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// Key returns the Kafka message key for partitioning
func (e *TenantEvent) Key() string {
	return e.TenantID
}
