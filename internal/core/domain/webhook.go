package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WebhookEventType identifies the kind of payment outcome being announced.
type WebhookEventType string

const (
	WebhookEventPaymentCompleted WebhookEventType = "payment.completed"
	WebhookEventPaymentFailed    WebhookEventType = "payment.failed"
)

// WebhookEvent is the wire payload delivered to the subscription service
// after a payment reaches a terminal state. Field names and formats are part
// of the integration contract; Timestamp is ISO-8601 in UTC and Amount is in
// major currency units.
type WebhookEvent struct {
	EventType         WebhookEventType  `json:"eventType"`
	PaymentID         string            `json:"paymentId"`
	ExternalReference string            `json:"externalReference"`
	Status            PaymentStatus     `json:"status"`
	Amount            float64           `json:"amount"`
	Currency          string            `json:"currency"`
	Timestamp         string            `json:"timestamp"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// NewWebhookEvent builds the event announcing a terminal payment state.
func NewWebhookEvent(p *Payment, at time.Time) WebhookEvent {
	eventType := WebhookEventPaymentCompleted
	if p.Status == PaymentStatusFailed {
		eventType = WebhookEventPaymentFailed
	}
	var meta map[string]string
	if p.FailureReason != nil {
		meta = map[string]string{"failure_reason": *p.FailureReason}
	}
	return WebhookEvent{
		EventType:         eventType,
		PaymentID:         p.ID.String(),
		ExternalReference: p.ExternalReference,
		Status:            p.Status,
		Amount:            float64(p.AmountCents) / 100,
		Currency:          p.Currency,
		Timestamp:         at.UTC().Format(time.RFC3339),
		Metadata:          meta,
	}
}

// BuildWebhookIdempotencyKey constructs the delivery key carried in the
// Idempotency-Key header: webhook_<paymentID>_<epochMillis>. The key is
// computed once per delivery and reused across retries of that delivery.
func BuildWebhookIdempotencyKey(paymentID string, at time.Time) string {
	return fmt.Sprintf("webhook_%s_%d", paymentID, at.UnixMilli())
}

// WebhookDeliveryStatus represents the final outcome of a delivery.
type WebhookDeliveryStatus string

const (
	WebhookDeliveryStatusDelivered WebhookDeliveryStatus = "delivered"
	WebhookDeliveryStatusFailed    WebhookDeliveryStatus = "failed"
)

// WebhookDeliveryLog records the final outcome of one delivery sequence
// (all retries included). It is written best-effort for observability and
// is never read back to resume delivery.
type WebhookDeliveryLog struct {
	ID         uuid.UUID             `json:"id"`
	PaymentID  uuid.UUID             `json:"payment_id"`
	Endpoint   string                `json:"endpoint"`
	Payload    []byte                `json:"payload"`
	HTTPStatus *int                  `json:"http_status"`
	Attempts   int                   `json:"attempts"`
	Status     WebhookDeliveryStatus `json:"status"`
	LastError  *string               `json:"last_error,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
}
