package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-master/internal/gateway"
	"github.com/imobsites/imobsites-panel/pkg/logger"
)

var ErrEmailRequired = errors.New("customer e-mail is required")

// CustomerStore persists the gateway customer id on the order row
type CustomerStore interface {
	SetGatewayCustomerID(ctx context.Context, orderID, customerID string) error
}

// CustomerResolver finds or creates the gateway customer for an order
type CustomerResolver struct {
	gateway gateway.PaymentGateway
	orders  CustomerStore
}

// NewCustomerResolver creates a new CustomerResolver
func NewCustomerResolver(gw gateway.PaymentGateway, orders CustomerStore) *CustomerResolver {
	return &CustomerResolver{gateway: gw, orders: orders}
}

// ResolveCustomer returns the gateway customer id for the order's e-mail.
// An existing customer is reused and backfilled, otherwise one is created.
func (r *CustomerResolver) ResolveCustomer(ctx context.Context, order *domain.Order) (string, error) {
	email := strings.TrimSpace(order.CustomerEmail)
	if email == "" {
		return "", ErrEmailRequired
	}

	log := logger.Get().WithContext(ctx).WithFields(
		zap.String("order_id", logger.MaskID(order.ID)),
		zap.String("gateway", r.gateway.Name()),
	)
	document := DigitsOnly(order.CustomerDocument)

	existing, err := r.gateway.FindCustomerByEmail(ctx, email)
	if err != nil {
		log.Warn("gateway customer lookup failed, creating a new one", zap.Error(err))
		existing = nil
	}

	if existing != nil {
		update := &gateway.CustomerUpdate{}
		if existing.CpfCnpj == "" && document != "" {
			update.CpfCnpj = document
		}
		if !existing.NotificationDisabled {
			disabled := true
			update.NotificationDisabled = &disabled
		}
		if !update.IsEmpty() {
			if _, err := r.gateway.UpdateCustomer(ctx, existing.ID, update); err != nil {
				log.Error("failed to update gateway customer",
					zap.String("customer_id", logger.MaskID(existing.ID)),
					logger.Document("document", document),
					zap.Error(err),
				)
			}
		}
		return existing.ID, r.persist(ctx, order, existing.ID)
	}

	req := &gateway.CustomerRequest{
		Name:                 strings.TrimSpace(order.CustomerName),
		Email:                email,
		MobilePhone:          FormatPhone(order.CustomerPhone),
		CpfCnpj:              document,
		ExternalReference:    order.ExternalReference(),
		NotificationDisabled: true,
	}
	created, err := r.gateway.CreateCustomer(ctx, req)
	if err != nil {
		log.Error("failed to create gateway customer",
			logger.Document("document", document),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to create gateway customer: %w", err)
	}

	log.Info("gateway customer created", zap.String("customer_id", logger.MaskID(created.ID)))
	return created.ID, r.persist(ctx, order, created.ID)
}

func (r *CustomerResolver) persist(ctx context.Context, order *domain.Order, customerID string) error {
	order.GatewayCustomerID = customerID
	if r.orders == nil {
		return nil
	}
	if err := r.orders.SetGatewayCustomerID(ctx, order.ID, customerID); err != nil {
		return fmt.Errorf("failed to store gateway customer id: %w", err)
	}
	return nil
}
