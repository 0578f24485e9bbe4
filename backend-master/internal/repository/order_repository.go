package repository

import (
	"context"
	"time"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
)

// OrderFilter narrows order listings. Limit 0 returns every match.
type OrderFilter struct {
	Page   int
	Limit  int
	Status domain.OrderStatus
	Search string
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByGatewayPaymentID(ctx context.Context, paymentID string) (*domain.Order, error)
	List(ctx context.Context, f OrderFilter) ([]*domain.Order, int, error)

	// SetGatewayCustomerID stores the resolved gateway customer
	SetGatewayCustomerID(ctx context.Context, orderID, customerID string) error
	// SaveGatewayResult stores the payment fields returned by the gateway
	SaveGatewayResult(ctx context.Context, order *domain.Order) error

	// MarkPaid moves a pending order to paid. Reports whether a
	// row changed so repeated webhooks stay idempotent.
	MarkPaid(ctx context.Context, id string, at time.Time) (bool, error)
	// MarkExpired moves a pending order to expired
	MarkExpired(ctx context.Context, id string, at time.Time) (bool, error)
	// Cancel moves a pending order to canceled
	Cancel(ctx context.Context, id string, at time.Time) (bool, error)

	// ListReminderEligible selects pending orders due for a reminder, oldest first
	ListReminderEligible(ctx context.Context, now time.Time, limit int) ([]*domain.Order, error)
	// RecordReminder bumps the reminder cadence if reminder_count still equals
	// prevCount. Reports false when another run got there first.
	RecordReminder(ctx context.Context, id string, prevCount int, at time.Time) (bool, error)
}
