package domain

import (
	"time"

	"github.com/google/uuid"
)

// BillingInterval represents how often a plan renews.
type BillingInterval string

const (
	BillingIntervalMonth BillingInterval = "month"
	BillingIntervalYear  BillingInterval = "year"
)

// Plan represents a purchasable subscription plan.
type Plan struct {
	ID         uuid.UUID       `json:"id"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	PriceCents int64           `json:"price_cents"` // In smallest currency unit
	Currency   string          `json:"currency"`    // ISO 4217
	Interval   BillingInterval `json:"interval"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// PeriodEnd returns the end of a billing period starting at from.
func (p *Plan) PeriodEnd(from time.Time) time.Time {
	if p.Interval == BillingIntervalYear {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}
