package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingCycle is how often a plan is charged
type BillingCycle string

const (
	BillingCycleMonthly    BillingCycle = "monthly"
	BillingCycleQuarterly  BillingCycle = "quarterly"
	BillingCycleSemiannual BillingCycle = "semiannual"
	BillingCycleAnnual     BillingCycle = "annual"
)

// Months returns the default length of the cycle
func (c BillingCycle) Months() int {
	switch c {
	case BillingCycleMonthly:
		return 1
	case BillingCycleQuarterly:
		return 3
	case BillingCycleSemiannual:
		return 6
	case BillingCycleAnnual:
		return 12
	}
	return 0
}

// Valid reports whether c is a known cycle
func (c BillingCycle) Valid() bool {
	return c.Months() > 0
}

// Plan is a billing package offered at checkout
type Plan struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	BillingCycle  BillingCycle    `json:"billing_cycle"`
	Months        int             `json:"months"`
	PricePerMonth decimal.Decimal `json:"price_per_month"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Features      []string        `json:"features"`
	IsActive      bool            `json:"is_active"`
	IsFeatured    bool            `json:"is_featured"`
	SortOrder     int             `json:"sort_order"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ComputeTotal returns months * price per month rounded to cents
func ComputeTotal(months int, pricePerMonth decimal.Decimal) decimal.Decimal {
	return pricePerMonth.Mul(decimal.NewFromInt(int64(months))).Round(2)
}
