package dto

import "github.com/imobsites/imobsites-panel/backend-master/internal/gateway"

// Webhook event names sent by the payment provider
const (
	WebhookPaymentConfirmed = "PAYMENT_CONFIRMED"
	WebhookPaymentReceived  = "PAYMENT_RECEIVED"
	WebhookPaymentOverdue   = "PAYMENT_OVERDUE"
	WebhookPaymentDeleted   = "PAYMENT_DELETED"
)

// WebhookTokenHeader carries the shared webhook secret
const WebhookTokenHeader = "asaas-access-token"

// AsaasWebhook is the provider's payment notification
type AsaasWebhook struct {
	ID      string           `json:"id"`
	Event   string           `json:"event" binding:"required"`
	Payment *gateway.Payment `json:"payment"`
}

// WebhookResult reports what a notification did
type WebhookResult struct {
	Event   string `json:"event"`
	OrderID string `json:"order_id,omitempty"`
	Action  string `json:"action"`
}
