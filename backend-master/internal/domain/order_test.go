package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestOrder_IsReminderEligible(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	hourAgo := now.Add(-time.Hour)
	dayAgo := now.Add(-25 * time.Hour)

	base := func() *Order {
		return &Order{
			ID:            "o-1",
			Status:        OrderStatusPending,
			CustomerEmail: "buyer@example.com",
			CreatedAt:     now.Add(-2 * time.Hour),
		}
	}

	tests := []struct {
		name   string
		mutate func(o *Order)
		want   bool
	}{
		{name: "pending two hours old never reminded", mutate: func(o *Order) {}, want: true},
		{name: "three reminders already sent", mutate: func(o *Order) { o.ReminderCount = 3 }, want: false},
		{name: "last reminder one hour ago", mutate: func(o *Order) { o.ReminderCount = 1; o.LastReminderSentAt = &hourAgo }, want: false},
		{name: "last reminder over a day ago", mutate: func(o *Order) { o.ReminderCount = 2; o.LastReminderSentAt = &dayAgo }, want: true},
		{name: "created thirty minutes ago", mutate: func(o *Order) { o.CreatedAt = now.Add(-30 * time.Minute) }, want: false},
		{name: "created exactly one hour ago", mutate: func(o *Order) { o.CreatedAt = hourAgo }, want: true},
		{name: "paid order", mutate: func(o *Order) { o.Status = OrderStatusPaid }, want: false},
		{name: "blank email", mutate: func(o *Order) { o.CustomerEmail = "  " }, want: false},
		{name: "whitespace email", mutate: func(o *Order) { o.CustomerEmail = "\t\n" }, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := base()
			tt.mutate(o)
			if got := o.IsReminderEligible(now); got != tt.want {
				t.Errorf("IsReminderEligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrder_ApplyReminder(t *testing.T) {
	first := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	second := first.Add(25 * time.Hour)

	o := &Order{Status: OrderStatusPending}
	o.ApplyReminder(first)
	o.ApplyReminder(second)

	if o.ReminderCount != 2 {
		t.Errorf("ReminderCount = %d, want 2", o.ReminderCount)
	}
	if o.FirstReminderSentAt == nil || !o.FirstReminderSentAt.Equal(first) {
		t.Errorf("FirstReminderSentAt = %v, want %v", o.FirstReminderSentAt, first)
	}
	if o.LastReminderSentAt == nil || !o.LastReminderSentAt.Equal(second) {
		t.Errorf("LastReminderSentAt = %v, want %v", o.LastReminderSentAt, second)
	}
}

func TestOrderIDFromReference(t *testing.T) {
	o := &Order{ID: "abc-123"}
	if ref := o.ExternalReference(); ref != "order:abc-123" {
		t.Fatalf("ExternalReference() = %q", ref)
	}

	id, ok := OrderIDFromReference("order:abc-123")
	if !ok || id != "abc-123" {
		t.Errorf("OrderIDFromReference() = %q, %v", id, ok)
	}
	if _, ok := OrderIDFromReference("tenant:1"); ok {
		t.Error("OrderIDFromReference() accepted a foreign prefix")
	}
	if _, ok := OrderIDFromReference("order:"); ok {
		t.Error("OrderIDFromReference() accepted an empty id")
	}
}

func TestComputeTotal(t *testing.T) {
	got := ComputeTotal(12, decimal.RequireFromString("100.00"))
	if !got.Equal(decimal.RequireFromString("1200.00")) {
		t.Errorf("ComputeTotal() = %s, want 1200.00", got)
	}
}

func TestBillingCycle(t *testing.T) {
	if BillingCycleAnnual.Months() != 12 || BillingCycleQuarterly.Months() != 3 {
		t.Error("unexpected cycle length")
	}
	if BillingCycle("weekly").Valid() {
		t.Error("weekly should not be a valid cycle")
	}
}

func TestEmailSettings_Masked(t *testing.T) {
	s := EmailSettings{SMTPPassword: "hunter2", SMTPHost: "smtp.example.com"}
	m := s.Masked()
	if m.SMTPPassword == "hunter2" {
		t.Error("password not masked")
	}
	if s.SMTPPassword != "hunter2" {
		t.Error("Masked() modified the receiver")
	}
}
