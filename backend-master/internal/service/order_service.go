package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-master/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-master/internal/export"
	"github.com/imobsites/imobsites-panel/backend-master/internal/gateway"
	"github.com/imobsites/imobsites-panel/backend-master/internal/notification"
	"github.com/imobsites/imobsites-panel/backend-master/internal/repository"
	"github.com/imobsites/imobsites-panel/pkg/kafka"
	"github.com/imobsites/imobsites-panel/pkg/logger"
)

// FormatBRL formats an amount as "1.438,80"
func FormatBRL(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := b.String() + "," + frac
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}

// orderVars are the template variables every order e-mail gets
func orderVars(o *domain.Order) notification.Vars {
	return notification.Vars{
		"order_id":       o.ID,
		"customer_name":  o.CustomerName,
		"customer_email": o.CustomerEmail,
		"plan_code":      o.PlanCode,
		"plan_name":      o.PlanCode,
		"amount":         FormatBRL(o.Amount),
		"payment_method": string(o.PaymentMethod),
		"payment_url":    o.PaymentURL,
		"pix_payload":    o.PixPayload,
		"boleto_url":     o.BoletoURL,
		"boleto_line":    o.BoletoLine,
	}
}

// OrderService defines the interface for order management operations
type OrderService interface {
	List(ctx context.Context, query *dto.ListOrdersQuery) ([]*domain.Order, int, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	// Cancel cancels a pending order. Already canceled or expired orders
	// are returned unchanged with a warning; paid orders are rejected.
	Cancel(ctx context.Context, id string) (*domain.Order, string, error)
	// AttachTenant onboards a tenant from a paid order and links them
	AttachTenant(ctx context.Context, id string, req *dto.AttachTenantRequest) (*dto.OnboardResponse, error)
	// Export writes the filtered orders as XLSX
	Export(ctx context.Context, query *dto.ListOrdersQuery, w io.Writer) error
}

type orderService struct {
	orderRepo repository.OrderRepository
	tenants   TenantService
	gw        gateway.PaymentGateway
	publisher kafka.Publisher
	now       func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo repository.OrderRepository,
	tenants TenantService,
	gw gateway.PaymentGateway,
	publisher kafka.Publisher,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		tenants:   tenants,
		gw:        gw,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *orderService) filter(query *dto.ListOrdersQuery) repository.OrderFilter {
	return repository.OrderFilter{
		Page:   query.Page,
		Limit:  query.Limit,
		Status: domain.OrderStatus(query.Status),
		Search: strings.TrimSpace(query.Search),
	}
}

func (s *orderService) List(ctx context.Context, query *dto.ListOrdersQuery) ([]*domain.Order, int, error) {
	query.SetDefaults()
	return s.orderRepo.List(ctx, s.filter(query))
}

func (s *orderService) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// cancelOutcome decides what canceling an order in its current status means
func cancelOutcome(status domain.OrderStatus) (warning string, err error) {
	switch status {
	case domain.OrderStatusPaid:
		return "", ErrOrderAlreadyPaid
	case domain.OrderStatusCanceled:
		return WarnOrderAlreadyCanceled, nil
	case domain.OrderStatusExpired:
		return WarnOrderAlreadyExpired, nil
	}
	return "", nil
}

func (s *orderService) Cancel(ctx context.Context, id string) (*domain.Order, string, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if o.Status != domain.OrderStatusPending {
		warning, err := cancelOutcome(o.Status)
		if err != nil {
			return nil, "", err
		}
		return o, warning, nil
	}

	now := s.now()
	changed, err := s.orderRepo.Cancel(ctx, id, now)
	if err != nil {
		return nil, "", err
	}
	if !changed {
		// status moved under us; answer for whatever it is now
		if o, err = s.Get(ctx, id); err != nil {
			return nil, "", err
		}
		warning, err := cancelOutcome(o.Status)
		if err != nil {
			return nil, "", err
		}
		return o, warning, nil
	}

	o.Status = domain.OrderStatusCanceled
	o.CanceledAt = &now
	o.UpdatedAt = now

	if o.GatewaySubscriptionID != "" && s.gw != nil {
		if err := s.gw.CancelSubscription(ctx, o.GatewaySubscriptionID); err != nil {
			logger.Get().WithContext(ctx).Warn("failed to cancel gateway subscription",
				zap.String("order_id", o.ID),
				zap.String("subscription_id", logger.MaskID(o.GatewaySubscriptionID)),
				zap.Error(err),
			)
		}
	}
	publish(ctx, s.publisher, dto.TopicOrderEvents, dto.NewOrderEvent(dto.EventOrderCanceled, o))
	return o, "", nil
}

func (s *orderService) AttachTenant(ctx context.Context, id string, req *dto.AttachTenantRequest) (*dto.OnboardResponse, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.OrderStatusPaid {
		return nil, ErrOrderNotPaid
	}
	if o.HasTenant() {
		return nil, ErrOrderHasTenant
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = o.CustomerName
	}
	return s.tenants.OnboardFromOrder(ctx, &dto.OnboardTenantRequest{
		Name:         name,
		Slug:         req.Slug,
		Domain:       req.Domain,
		ContactName:  o.CustomerName,
		ContactEmail: o.CustomerEmail,
		ContactPhone: o.CustomerPhone,
		Document:     o.CustomerDocument,
		AdminName:    o.CustomerName,
		AdminEmail:   o.CustomerEmail,
	}, o.ID)
}

func (s *orderService) Export(ctx context.Context, query *dto.ListOrdersQuery, w io.Writer) error {
	f := s.filter(query)
	f.Page, f.Limit = 0, 0
	orders, _, err := s.orderRepo.List(ctx, f)
	if err != nil {
		return err
	}
	return export.WriteOrders(w, orders)
}
