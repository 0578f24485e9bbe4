package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-master/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-master/internal/gateway"
)

func newOrder(id string, status domain.OrderStatus) *domain.Order {
	now := time.Now()
	return &domain.Order{
		ID:            id,
		PlanCode:      "P02_ANUAL",
		CustomerName:  "Maria Souza",
		CustomerEmail: "maria@example.com",
		Amount:        decimal.RequireFromString("1438.80"),
		PaymentMethod: domain.PaymentMethodPix,
		Status:        status,
		CreatedAt:     now.Add(-2 * time.Hour),
		UpdatedAt:     now.Add(-2 * time.Hour),
	}
}

func TestFormatBRL(t *testing.T) {
	tests := map[string]string{
		"1438.8":     "1.438,80",
		"119.9":      "119,90",
		"0":          "0,00",
		"1234567.89": "1.234.567,89",
		"-10.5":      "-10,50",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatBRL(decimal.RequireFromString(in)), in)
	}
}

func TestOrderService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("pending order is canceled", func(t *testing.T) {
		repo := NewMockOrderRepository(newOrder("o1", domain.OrderStatusPending))
		pub := &MockPublisher{}
		svc := NewOrderService(repo, nil, nil, pub)

		o, warning, err := svc.Cancel(ctx, "o1")
		require.NoError(t, err)
		assert.Empty(t, warning)
		assert.Equal(t, domain.OrderStatusCanceled, o.Status)
		assert.NotNil(t, o.CanceledAt)
		assert.Equal(t, domain.OrderStatusCanceled, repo.Get("o1").Status)
		require.Equal(t, 1, pub.Count())
		assert.Equal(t, dto.EventOrderCanceled, pub.Events[0].(*dto.OrderEvent).EventType)
	})

	t.Run("paid order is rejected", func(t *testing.T) {
		repo := NewMockOrderRepository(newOrder("o1", domain.OrderStatusPaid))
		svc := NewOrderService(repo, nil, nil, &MockPublisher{})

		_, _, err := svc.Cancel(ctx, "o1")
		assert.ErrorIs(t, err, ErrOrderAlreadyPaid)
		assert.Equal(t, "paid orders cannot be canceled", err.Error())
		assert.Equal(t, domain.OrderStatusPaid, repo.Get("o1").Status)
	})

	t.Run("canceled and expired are no-ops with distinct warnings", func(t *testing.T) {
		repo := NewMockOrderRepository(
			newOrder("c", domain.OrderStatusCanceled),
			newOrder("e", domain.OrderStatusExpired),
		)
		pub := &MockPublisher{}
		svc := NewOrderService(repo, nil, nil, pub)

		o, warning, err := svc.Cancel(ctx, "c")
		require.NoError(t, err)
		assert.Equal(t, WarnOrderAlreadyCanceled, warning)
		assert.Equal(t, domain.OrderStatusCanceled, o.Status)

		o, warning, err = svc.Cancel(ctx, "e")
		require.NoError(t, err)
		assert.Equal(t, WarnOrderAlreadyExpired, warning)
		assert.Equal(t, domain.OrderStatusExpired, o.Status)
		assert.NotEqual(t, WarnOrderAlreadyCanceled, WarnOrderAlreadyExpired)
		assert.Zero(t, pub.Count())
	})

	t.Run("unknown order", func(t *testing.T) {
		svc := NewOrderService(NewMockOrderRepository(), nil, nil, nil)
		_, _, err := svc.Cancel(ctx, "missing")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("recurring order cancels the subscription", func(t *testing.T) {
		gw := gateway.NewMockGateway()
		sub, err := gw.CreateSubscription(ctx, &gateway.SubscriptionRequest{Customer: "cus_1"})
		require.NoError(t, err)

		o := newOrder("o1", domain.OrderStatusPending)
		o.IsRecurring = true
		o.GatewaySubscriptionID = sub.ID
		svc := NewOrderService(NewMockOrderRepository(o), nil, gw, nil)

		_, _, err = svc.Cancel(ctx, "o1")
		require.NoError(t, err)
		assert.True(t, gw.Subscriptions[sub.ID].Deleted)
	})

	t.Run("gateway failure does not undo the cancel", func(t *testing.T) {
		o := newOrder("o1", domain.OrderStatusPending)
		o.GatewaySubscriptionID = "sub_missing"
		repo := NewMockOrderRepository(o)
		svc := NewOrderService(repo, nil, gateway.NewMockGateway(), nil)

		_, _, err := svc.Cancel(ctx, "o1")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCanceled, repo.Get("o1").Status)
	})
}

func TestOrderService_AttachTenant(t *testing.T) {
	ctx := context.Background()
	req := &dto.AttachTenantRequest{Slug: "imob-maria", Domain: "imobmaria.com.br"}

	t.Run("requires a paid order", func(t *testing.T) {
		svc := NewOrderService(NewMockOrderRepository(newOrder("o1", domain.OrderStatusPending)), nil, nil, nil)
		_, err := svc.AttachTenant(ctx, "o1", req)
		assert.ErrorIs(t, err, ErrOrderNotPaid)
	})

	t.Run("rejects an order that already has a tenant", func(t *testing.T) {
		o := newOrder("o1", domain.OrderStatusPaid)
		tid := "t1"
		o.TenantID = &tid
		svc := NewOrderService(NewMockOrderRepository(o), nil, nil, nil)
		_, err := svc.AttachTenant(ctx, "o1", req)
		assert.ErrorIs(t, err, ErrOrderHasTenant)
	})

	t.Run("onboards from the order data", func(t *testing.T) {
		tenants := NewMockTenantRepository()
		mailer := &MockEmailSender{}
		tenantSvc := NewTenantService(tenants, &MockUserRepository{}, mailer, nil, "https://painel.example.com")
		svc := NewOrderService(NewMockOrderRepository(newOrder("o1", domain.OrderStatusPaid)), tenantSvc, nil, nil)

		res, err := svc.AttachTenant(ctx, "o1", req)
		require.NoError(t, err)
		assert.Equal(t, "Maria Souza", res.Tenant.Name)
		assert.Equal(t, "imobmaria.com.br", res.Domain.Domain)
		assert.True(t, res.ActivationSent)

		require.Len(t, tenants.Onboardings, 1)
		ob := tenants.Onboardings[0]
		assert.Equal(t, "o1", ob.OrderID)
		assert.Equal(t, "maria@example.com", ob.User.Email)
		assert.False(t, ob.User.IsActive)
		assert.Len(t, ob.User.ActivationToken, 64)
		assert.Equal(t, []domain.EventType{domain.EventTenantActivation}, mailer.Events())
	})
}

func TestOrderService_Export(t *testing.T) {
	repo := NewMockOrderRepository(
		newOrder("o1", domain.OrderStatusPending),
		newOrder("o2", domain.OrderStatusPaid),
	)
	svc := NewOrderService(repo, nil, nil, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), &dto.ListOrdersQuery{Status: "paid"}, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "o2", rows[1][0])
}
