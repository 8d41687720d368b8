package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus represents the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusPending  SubscriptionStatus = "pending"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// Subscription ties a user to a plan for a recurring billing period.
type Subscription struct {
	ID                 uuid.UUID          `json:"id"`
	UserID             uuid.UUID          `json:"user_id"`
	PlanID             uuid.UUID          `json:"plan_id"`
	Status             SubscriptionStatus `json:"status"`
	CurrentPeriodStart time.Time          `json:"current_period_start"`
	CurrentPeriodEnd   time.Time          `json:"current_period_end"`
	CancelAtPeriodEnd  bool               `json:"cancel_at_period_end"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// IsBillable returns true if the subscription can accept a payment outcome.
func (s *Subscription) IsBillable() bool {
	return s.Status == SubscriptionStatusPending ||
		s.Status == SubscriptionStatusActive ||
		s.Status == SubscriptionStatusPastDue
}

// IsCanceled returns true if the subscription is in its terminal state.
func (s *Subscription) IsCanceled() bool {
	return s.Status == SubscriptionStatusCanceled
}

const subscriptionReferencePrefix = "sub_"

// SubscriptionReference builds the external payment reference for a
// subscription charge: sub_<subscriptionID>. The same value doubles as the
// idempotency key sent to the payment service, so a retried charge
// submission for one subscription cannot double-charge.
func SubscriptionReference(id uuid.UUID) string {
	return subscriptionReferencePrefix + id.String()
}

// SubscriptionIDFromReference recovers the subscription ID embedded in an
// external payment reference. Returns false for references that were not
// produced by SubscriptionReference.
func SubscriptionIDFromReference(ref string) (uuid.UUID, bool) {
	raw, found := strings.CutPrefix(ref, subscriptionReferencePrefix)
	if !found {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
