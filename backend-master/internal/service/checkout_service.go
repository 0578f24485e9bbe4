package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/backend-master/internal/billing"
	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-master/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-master/internal/repository"
	"github.com/imobsites/imobsites-panel/pkg/kafka"
	"github.com/imobsites/imobsites-panel/pkg/logger"
	"github.com/imobsites/imobsites-panel/pkg/telemetry"
)

// CustomerResolver finds or creates the gateway customer of an order
type CustomerResolver interface {
	ResolveCustomer(ctx context.Context, order *domain.Order) (string, error)
}

// PaymentCreator charges orders at the gateway
type PaymentCreator interface {
	CreatePayment(ctx context.Context, in billing.PaymentInput) (*billing.PaymentResult, error)
	CreateSubscription(ctx context.Context, in billing.PaymentInput) (*billing.PaymentResult, error)
}

// CheckoutService runs the public checkout flow
type CheckoutService interface {
	Checkout(ctx context.Context, req *dto.CheckoutRequest, remoteIP string) (*dto.CheckoutResponse, error)
}

type checkoutService struct {
	planRepo  repository.PlanRepository
	orderRepo repository.OrderRepository
	customers CustomerResolver
	payments  PaymentCreator
	mailer    EmailSender
	publisher kafka.Publisher
	now       func() time.Time
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	planRepo repository.PlanRepository,
	orderRepo repository.OrderRepository,
	customers CustomerResolver,
	payments PaymentCreator,
	mailer EmailSender,
	publisher kafka.Publisher,
) CheckoutService {
	return &checkoutService{
		planRepo:  planRepo,
		orderRepo: orderRepo,
		customers: customers,
		payments:  payments,
		mailer:    mailer,
		publisher: publisher,
		now:       time.Now,
	}
}

// IsPaymentInputError reports errors caused by the buyer's input rather
// than by the gateway
func IsPaymentInputError(err error) bool {
	return errors.Is(err, billing.ErrCardRequired) ||
		errors.Is(err, billing.ErrUnsupportedMethod) ||
		errors.Is(err, billing.ErrSubscriptionCardOnly) ||
		errors.Is(err, billing.ErrInvalidAmount) ||
		errors.Is(err, billing.ErrEmailRequired)
}

func (s *checkoutService) Checkout(ctx context.Context, req *dto.CheckoutRequest, remoteIP string) (*dto.CheckoutResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "checkout")
	defer span.End()

	req.Normalize()
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}

	plan, err := s.planRepo.GetByCode(ctx, req.PlanCode)
	if err != nil {
		return nil, err
	}
	if plan == nil || !plan.IsActive {
		return nil, ErrPlanUnavailable
	}

	method := domain.PaymentMethod(req.PaymentMethod)
	recurring := req.Recurring && method == domain.PaymentMethodCreditCard
	// recurring plans are charged month by month
	amount := plan.TotalAmount
	if recurring {
		amount = plan.PricePerMonth
	}

	now := s.now()
	order := &domain.Order{
		ID:               uuid.New().String(),
		PlanCode:         plan.Code,
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		CustomerPhone:    req.CustomerPhone,
		CustomerDocument: req.CustomerDocument,
		Amount:           amount,
		PaymentMethod:    method,
		IsRecurring:      recurring,
		Status:           domain.OrderStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	log := logger.Get().WithContext(ctx).WithFields(
		zap.String("order_id", order.ID),
		zap.String("plan_code", plan.Code),
		zap.String("payment_method", string(method)),
	)

	customerID, err := s.customers.ResolveCustomer(ctx, order)
	if err != nil {
		return nil, s.abandon(ctx, log, order, err)
	}

	in := billing.PaymentInput{
		OrderID:      order.ID,
		CustomerID:   customerID,
		Method:       method,
		Amount:       amount,
		Description:  "ImobSites - " + plan.Name,
		Document:     req.CustomerDocument,
		Installments: req.Installments,
		Card:         req.CardInput(),
		Holder: billing.HolderInput{
			Name:          req.CustomerName,
			Email:         req.CustomerEmail,
			Document:      req.CustomerDocument,
			PostalCode:    req.PostalCode,
			AddressNumber: req.AddressNumber,
			Phone:         req.CustomerPhone,
		},
		RemoteIP: remoteIP,
	}

	var result *billing.PaymentResult
	if recurring {
		result, err = s.payments.CreateSubscription(ctx, in)
	} else {
		result, err = s.payments.CreatePayment(ctx, in)
	}
	if err != nil {
		return nil, s.abandon(ctx, log, order, err)
	}

	applyPaymentResult(order, result)
	order.UpdatedAt = s.now()
	if err := s.orderRepo.SaveGatewayResult(ctx, order); err != nil {
		// the charge exists; the webhook can still match it by reference
		log.Error("failed to store gateway result", zap.Error(err))
	}

	vars := orderVars(order)
	vars["plan_name"] = plan.Name
	notify(ctx, s.mailer, domain.EventOrderCreated, order.CustomerEmail, order.CustomerName, vars)
	publish(ctx, s.publisher, dto.TopicOrderEvents, dto.NewOrderEvent(dto.EventOrderCreated, order))

	log.Info("checkout completed",
		zap.Bool("recurring", recurring),
		zap.Bool("pix_ready", order.PixPayload != ""),
	)
	return dto.NewCheckoutResponse(order), nil
}

// abandon cancels an order the gateway never charged so it is not
// reminded, and maps the gateway failure for the caller
func (s *checkoutService) abandon(ctx context.Context, log *logger.Logger, order *domain.Order, cause error) error {
	telemetry.RecordError(ctx, cause)
	log.Warn("checkout failed at the gateway, canceling order", zap.Error(cause))
	if _, err := s.orderRepo.Cancel(ctx, order.ID, s.now()); err != nil {
		log.Error("failed to cancel uncharged order", zap.Error(err))
	}
	if IsPaymentInputError(cause) {
		return cause
	}
	return fmt.Errorf("%w: %v", ErrPaymentFailed, cause)
}

func applyPaymentResult(o *domain.Order, r *billing.PaymentResult) {
	if r.SubscriptionID != "" {
		o.GatewaySubscriptionID = r.SubscriptionID
	} else {
		o.GatewayPaymentID = r.ProviderID
	}
	o.PaymentURL = r.PaymentURL
	o.PixPayload = r.PixPayload
	o.PixQRImage = r.PixQRImage
	o.BoletoURL = r.BoletoURL
	o.BoletoBarcode = r.BoletoBarcode
	o.BoletoLine = r.BoletoLine
	o.CardLastDigits = r.CardLastDigits
	if len(r.Raw) > 0 {
		o.GatewayResponse = r.Raw
	}
}
