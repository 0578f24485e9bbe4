package service

import (
	"context"
	"crypto/subtle"
	"time"

	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-master/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-master/internal/repository"
	"github.com/imobsites/imobsites-panel/pkg/kafka"
	"github.com/imobsites/imobsites-panel/pkg/logger"
	"github.com/imobsites/imobsites-panel/pkg/telemetry"
)

// Webhook actions
const (
	WebhookActionPaid    = "paid"
	WebhookActionExpired = "expired"
	WebhookActionNoop    = "noop"
	WebhookActionIgnored = "ignored"
)

// WebhookService applies payment provider notifications to orders
type WebhookService interface {
	// Handle verifies token and applies the notification. Repeated
	// notifications leave the order unchanged.
	Handle(ctx context.Context, token string, payload *dto.AsaasWebhook) (*dto.WebhookResult, error)
}

type webhookService struct {
	orderRepo repository.OrderRepository
	planRepo  repository.PlanRepository
	mailer    EmailSender
	publisher kafka.Publisher
	token     string
	now       func() time.Time
	received  *telemetry.Counter
}

// NewWebhookService creates a new WebhookService. An empty token rejects
// every notification.
func NewWebhookService(
	orderRepo repository.OrderRepository,
	planRepo repository.PlanRepository,
	mailer EmailSender,
	publisher kafka.Publisher,
	token string,
) WebhookService {
	return &webhookService{
		orderRepo: orderRepo,
		planRepo:  planRepo,
		mailer:    mailer,
		publisher: publisher,
		token:     token,
		now:       time.Now,
		received: telemetry.MustCounter(telemetry.MetricOpts{
			Name:        "payment_webhooks_total",
			Description: "Payment provider notifications by outcome",
		}),
	}
}

func (s *webhookService) authorized(token string) bool {
	if s.token == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.token), []byte(token)) == 1
}

func (s *webhookService) Handle(ctx context.Context, token string, payload *dto.AsaasWebhook) (*dto.WebhookResult, error) {
	if !s.authorized(token) {
		s.received.Inc(ctx, telemetry.OutcomeAttr("unauthorized"))
		return nil, ErrInvalidWebhookToken
	}

	res := &dto.WebhookResult{Event: payload.Event, Action: WebhookActionIgnored}
	defer func() { s.received.Inc(ctx, telemetry.OutcomeAttr(res.Action)) }()

	var paid bool
	switch payload.Event {
	case dto.WebhookPaymentConfirmed, dto.WebhookPaymentReceived:
		paid = true
	case dto.WebhookPaymentOverdue, dto.WebhookPaymentDeleted:
	default:
		return res, nil
	}
	if payload.Payment == nil {
		return res, nil
	}

	log := logger.Get().WithContext(ctx).WithFields(
		zap.String("event", payload.Event),
		zap.String("payment_id", logger.MaskID(payload.Payment.ID)),
	)

	order, err := s.findOrder(ctx, payload)
	if err != nil {
		return nil, err
	}
	if order == nil {
		log.Warn("webhook payment does not match any order",
			zap.String("external_reference", payload.Payment.ExternalReference),
		)
		return res, ErrWebhookOrderNotFound
	}
	res.OrderID = order.ID
	log = log.WithFields(zap.String("order_id", order.ID))

	now := s.now()
	if paid {
		changed, err := s.orderRepo.MarkPaid(ctx, order.ID, now)
		if err != nil {
			return nil, err
		}
		if !changed {
			if order.Status == domain.OrderStatusExpired || order.Status == domain.OrderStatusCanceled {
				// money arrived for a closed order; the operator settles it by hand
				log.Warn("payment received for a closed order", zap.String("status", string(order.Status)))
			}
			res.Action = WebhookActionNoop
			return res, nil
		}
		order.Status = domain.OrderStatusPaid
		order.PaidAt = &now
		order.UpdatedAt = now
		res.Action = WebhookActionPaid

		vars := orderVars(order)
		if p, err := s.planRepo.GetByCode(ctx, order.PlanCode); err == nil && p != nil {
			vars["plan_name"] = p.Name
		}
		notify(ctx, s.mailer, domain.EventOrderPaid, order.CustomerEmail, order.CustomerName, vars)
		publish(ctx, s.publisher, dto.TopicOrderEvents, dto.NewOrderEvent(dto.EventOrderPaid, order))
		log.Info("order paid")
		return res, nil
	}

	changed, err := s.orderRepo.MarkExpired(ctx, order.ID, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		res.Action = WebhookActionNoop
		return res, nil
	}
	order.Status = domain.OrderStatusExpired
	order.UpdatedAt = now
	res.Action = WebhookActionExpired
	publish(ctx, s.publisher, dto.TopicOrderEvents, dto.NewOrderEvent(dto.EventOrderExpired, order))
	log.Info("order expired")
	return res, nil
}

// findOrder matches by our external reference first, then by payment id
func (s *webhookService) findOrder(ctx context.Context, payload *dto.AsaasWebhook) (*domain.Order, error) {
	if id, ok := domain.OrderIDFromReference(payload.Payment.ExternalReference); ok {
		o, err := s.orderRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if o != nil {
			return o, nil
		}
	}
	if payload.Payment.ID == "" {
		return nil, nil
	}
	return s.orderRepo.GetByGatewayPaymentID(ctx, payload.Payment.ID)
}
