package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-master/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-master/internal/gateway"
)

const webhookToken = "whsec-test"

func newWebhookFixture(orders ...*domain.Order) (WebhookService, *MockOrderRepository, *MockEmailSender, *MockPublisher) {
	repo := NewMockOrderRepository(orders...)
	mailer := &MockEmailSender{}
	pub := &MockPublisher{}
	svc := NewWebhookService(repo, NewMockPlanRepository(annualPlan()), mailer, pub, webhookToken)
	return svc, repo, mailer, pub
}

func paymentEvent(event, ref, paymentID string) *dto.AsaasWebhook {
	return &dto.AsaasWebhook{
		Event:   event,
		Payment: &gateway.Payment{ID: paymentID, ExternalReference: ref},
	}
}

func TestWebhook_ConfirmedMarksPaidOnce(t *testing.T) {
	ctx := context.Background()
	svc, repo, mailer, pub := newWebhookFixture(newOrder("o1", domain.OrderStatusPending))

	res, err := svc.Handle(ctx, webhookToken, paymentEvent(dto.WebhookPaymentConfirmed, "order:o1", "pay_1"))
	require.NoError(t, err)
	assert.Equal(t, WebhookActionPaid, res.Action)
	assert.Equal(t, "o1", res.OrderID)
	assert.Equal(t, domain.OrderStatusPaid, repo.Get("o1").Status)
	assert.NotNil(t, repo.Get("o1").PaidAt)

	// the provider sends RECEIVED after CONFIRMED for the same charge
	res, err = svc.Handle(ctx, webhookToken, paymentEvent(dto.WebhookPaymentReceived, "order:o1", "pay_1"))
	require.NoError(t, err)
	assert.Equal(t, WebhookActionNoop, res.Action)

	assert.Equal(t, []domain.EventType{domain.EventOrderPaid}, mailer.Events())
	assert.Equal(t, "Plano Anual", mailer.Sent[0].Vars["plan_name"])
	require.Equal(t, 1, pub.Count())
	assert.Equal(t, dto.EventOrderPaid, pub.Events[0].(*dto.OrderEvent).EventType)
}

func TestWebhook_MatchesByPaymentID(t *testing.T) {
	o := newOrder("o1", domain.OrderStatusPending)
	o.GatewayPaymentID = "pay_42"
	svc, repo, _, _ := newWebhookFixture(o)

	res, err := svc.Handle(context.Background(), webhookToken, paymentEvent(dto.WebhookPaymentReceived, "", "pay_42"))
	require.NoError(t, err)
	assert.Equal(t, WebhookActionPaid, res.Action)
	assert.Equal(t, domain.OrderStatusPaid, repo.Get("o1").Status)
}

func TestWebhook_OverdueExpiresPendingOnly(t *testing.T) {
	ctx := context.Background()
	svc, repo, mailer, pub := newWebhookFixture(
		newOrder("pending", domain.OrderStatusPending),
		newOrder("paid", domain.OrderStatusPaid),
	)

	res, err := svc.Handle(ctx, webhookToken, paymentEvent(dto.WebhookPaymentOverdue, "order:pending", ""))
	require.NoError(t, err)
	assert.Equal(t, WebhookActionExpired, res.Action)
	assert.Equal(t, domain.OrderStatusExpired, repo.Get("pending").Status)

	res, err = svc.Handle(ctx, webhookToken, paymentEvent(dto.WebhookPaymentDeleted, "order:paid", ""))
	require.NoError(t, err)
	assert.Equal(t, WebhookActionNoop, res.Action)
	assert.Equal(t, domain.OrderStatusPaid, repo.Get("paid").Status)

	assert.Empty(t, mailer.Sent)
	assert.Equal(t, 1, pub.Count())
}

func TestWebhook_LatePaymentLeavesClosedOrders(t *testing.T) {
	for _, status := range []domain.OrderStatus{domain.OrderStatusExpired, domain.OrderStatusCanceled} {
		t.Run(string(status), func(t *testing.T) {
			svc, repo, mailer, pub := newWebhookFixture(newOrder("o1", status))

			res, err := svc.Handle(context.Background(), webhookToken, paymentEvent(dto.WebhookPaymentReceived, "order:o1", ""))
			require.NoError(t, err)
			assert.Equal(t, WebhookActionNoop, res.Action)
			assert.Equal(t, status, repo.Get("o1").Status)
			assert.Nil(t, repo.Get("o1").PaidAt)
			assert.Empty(t, mailer.Sent)
			assert.Equal(t, 0, pub.Count())
		})
	}
}

func TestWebhook_Rejections(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := newWebhookFixture(newOrder("o1", domain.OrderStatusPending))

	_, err := svc.Handle(ctx, "wrong", paymentEvent(dto.WebhookPaymentConfirmed, "order:o1", ""))
	assert.ErrorIs(t, err, ErrInvalidWebhookToken)
	_, err = svc.Handle(ctx, "", paymentEvent(dto.WebhookPaymentConfirmed, "order:o1", ""))
	assert.ErrorIs(t, err, ErrInvalidWebhookToken)
	assert.Equal(t, domain.OrderStatusPending, repo.Get("o1").Status)

	unconfigured := NewWebhookService(repo, nil, nil, nil, "")
	_, err = unconfigured.Handle(ctx, "", paymentEvent(dto.WebhookPaymentConfirmed, "order:o1", ""))
	assert.ErrorIs(t, err, ErrInvalidWebhookToken)

	res, err := svc.Handle(ctx, webhookToken, paymentEvent("PAYMENT_CREATED", "order:o1", ""))
	require.NoError(t, err)
	assert.Equal(t, WebhookActionIgnored, res.Action)

	_, err = svc.Handle(ctx, webhookToken, paymentEvent(dto.WebhookPaymentConfirmed, "order:unknown", "pay_x"))
	assert.ErrorIs(t, err, ErrWebhookOrderNotFound)
}
