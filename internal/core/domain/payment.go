package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the lifecycle state of a simulated charge.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSuccess    PaymentStatus = "success"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// Payment represents a single charge attempt against a subscription.
// ExternalReference is the caller-supplied correlation ID and is unique
// per payment.
type Payment struct {
	ID                uuid.UUID     `json:"id"`
	ExternalReference string        `json:"external_reference"`
	SubscriptionID    *uuid.UUID    `json:"subscription_id,omitempty"`
	AmountCents       int64         `json:"amount_cents"` // In smallest currency unit
	Currency          string        `json:"currency"`     // ISO 4217
	Status            PaymentStatus `json:"status"`
	FailureReason     *string       `json:"failure_reason,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// IsTerminal returns true if the payment reached a final state.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusSuccess || p.Status == PaymentStatusFailed
}
