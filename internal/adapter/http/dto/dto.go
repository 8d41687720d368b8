// Package dto defines the request and response bodies of the HTTP API.
package dto

import (
	"time"

	"subpay/internal/core/domain"
)

// SignupRequest is the request body for account creation.
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is the response body for signup and login.
type AuthResponse struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"` // RFC 3339
}

// CreatePlanRequest is the request body for adding a plan to the catalog.
type CreatePlanRequest struct {
	Code       string `json:"code" binding:"required,safe_id,max=50"`
	Name       string `json:"name" binding:"required,min=1,max=100"`
	PriceCents int64  `json:"price_cents" binding:"required,gt=0"`
	Currency   string `json:"currency" binding:"required,len=3"`
	Interval   string `json:"interval" binding:"required,oneof=month year"`
}

// PlanResponse is the wire shape of a plan.
type PlanResponse struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
	Interval   string `json:"interval"`
	Active     bool   `json:"active"`
}

// NewPlanResponse maps a domain plan to its wire shape.
func NewPlanResponse(p *domain.Plan) PlanResponse {
	return PlanResponse{
		ID:         p.ID.String(),
		Code:       p.Code,
		Name:       p.Name,
		PriceCents: p.PriceCents,
		Currency:   p.Currency,
		Interval:   string(p.Interval),
		Active:     p.Active,
	}
}

// SubscribeRequest is the request body for starting a subscription.
type SubscribeRequest struct {
	PlanID string `json:"plan_id" binding:"required,uuid"`
}

// SubscriptionResponse is the wire shape of a subscription.
type SubscriptionResponse struct {
	ID                 string `json:"id"`
	PlanID             string `json:"plan_id"`
	Status             string `json:"status"`
	CurrentPeriodStart string `json:"current_period_start"`
	CurrentPeriodEnd   string `json:"current_period_end"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
}

// NewSubscriptionResponse maps a domain subscription to its wire shape.
func NewSubscriptionResponse(s *domain.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:                 s.ID.String(),
		PlanID:             s.PlanID.String(),
		Status:             string(s.Status),
		CurrentPeriodStart: s.CurrentPeriodStart.UTC().Format(time.RFC3339),
		CurrentPeriodEnd:   s.CurrentPeriodEnd.UTC().Format(time.RFC3339),
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
	}
}

// ChargeRequest is the request body for submitting a charge to the payment
// service.
type ChargeRequest struct {
	ExternalReference string `json:"external_reference" binding:"required,safe_id,max=100"`
	AmountCents       int64  `json:"amount_cents" binding:"required,gt=0"`
	Currency          string `json:"currency" binding:"required,len=3"`
}

// PaymentResponse is the wire shape of a payment.
type PaymentResponse struct {
	ID                string  `json:"id"`
	ExternalReference string  `json:"external_reference"`
	AmountCents       int64   `json:"amount_cents"`
	Currency          string  `json:"currency"`
	Status            string  `json:"status"`
	FailureReason     *string `json:"failure_reason,omitempty"`
}

// NewPaymentResponse maps a domain payment to its wire shape.
func NewPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID.String(),
		ExternalReference: p.ExternalReference,
		AmountCents:       p.AmountCents,
		Currency:          p.Currency,
		Status:            string(p.Status),
		FailureReason:     p.FailureReason,
	}
}

// WebhookEventRequest is the request body of an incoming payment webhook.
// Field names follow the integration contract.
type WebhookEventRequest struct {
	EventType         string            `json:"eventType" binding:"required"`
	PaymentID         string            `json:"paymentId" binding:"required,uuid"`
	ExternalReference string            `json:"externalReference" binding:"required"`
	Status            string            `json:"status" binding:"required"`
	Amount            float64           `json:"amount"`
	Currency          string            `json:"currency"`
	Timestamp         string            `json:"timestamp"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// ToDomain converts the webhook request to the domain event.
func (r WebhookEventRequest) ToDomain() domain.WebhookEvent {
	return domain.WebhookEvent{
		EventType:         domain.WebhookEventType(r.EventType),
		PaymentID:         r.PaymentID,
		ExternalReference: r.ExternalReference,
		Status:            domain.PaymentStatus(r.Status),
		Amount:            r.Amount,
		Currency:          r.Currency,
		Timestamp:         r.Timestamp,
		Metadata:          r.Metadata,
	}
}
