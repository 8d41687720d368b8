package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscription_IsBillable(t *testing.T) {
	tests := []struct {
		name   string
		status SubscriptionStatus
		want   bool
	}{
		{"pending", SubscriptionStatusPending, true},
		{"active", SubscriptionStatusActive, true},
		{"past_due", SubscriptionStatusPastDue, true},
		{"canceled", SubscriptionStatusCanceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Subscription{Status: tt.status}
			assert.Equal(t, tt.want, s.IsBillable())
		})
	}
}

func TestPayment_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status PaymentStatus
		want   bool
	}{
		{"pending", PaymentStatusPending, false},
		{"processing", PaymentStatusProcessing, false},
		{"success", PaymentStatusSuccess, true},
		{"failed", PaymentStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Payment{Status: tt.status}
			assert.Equal(t, tt.want, p.IsTerminal())
		})
	}
}

func TestPlan_PeriodEnd(t *testing.T) {
	from := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	monthly := &Plan{Interval: BillingIntervalMonth}
	assert.Equal(t, time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC), monthly.PeriodEnd(from))

	yearly := &Plan{Interval: BillingIntervalYear}
	assert.Equal(t, time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC), yearly.PeriodEnd(from))
}

func TestIdempotencyRecord_IsExpired(t *testing.T) {
	fresh := &IdempotencyRecord{ExpiresAt: time.Now().Add(time.Hour)}
	assert.False(t, fresh.IsExpired())

	stale := &IdempotencyRecord{ExpiresAt: time.Now().Add(-time.Minute)}
	assert.True(t, stale.IsExpired())
}

func TestBuildWebhookIdempotencyKey(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	key := BuildWebhookIdempotencyKey("550e8400-e29b-41d4-a716-446655440000", at)
	assert.Equal(t, "webhook_550e8400-e29b-41d4-a716-446655440000_1700000000123", key)
}

func TestNewWebhookEvent(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	at := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	t.Run("completed", func(t *testing.T) {
		p := &Payment{
			ID:                id,
			ExternalReference: "sub_abc",
			AmountCents:       1999,
			Currency:          "USD",
			Status:            PaymentStatusSuccess,
		}
		ev := NewWebhookEvent(p, at)
		assert.Equal(t, WebhookEventPaymentCompleted, ev.EventType)
		assert.Equal(t, id.String(), ev.PaymentID)
		assert.Equal(t, "sub_abc", ev.ExternalReference)
		assert.Equal(t, PaymentStatusSuccess, ev.Status)
		assert.Equal(t, 19.99, ev.Amount)
		assert.Equal(t, "USD", ev.Currency)
		assert.Equal(t, "2025-06-01T12:30:00Z", ev.Timestamp)
		assert.Nil(t, ev.Metadata)
	})

	t.Run("failed carries reason", func(t *testing.T) {
		reason := "card_declined"
		p := &Payment{
			ID:                id,
			ExternalReference: "sub_abc",
			AmountCents:       500,
			Currency:          "EUR",
			Status:            PaymentStatusFailed,
			FailureReason:     &reason,
		}
		ev := NewWebhookEvent(p, at)
		assert.Equal(t, WebhookEventPaymentFailed, ev.EventType)
		assert.Equal(t, PaymentStatusFailed, ev.Status)
		assert.Equal(t, map[string]string{"failure_reason": "card_declined"}, ev.Metadata)
	})
}

func TestWebhookEvent_JSONShape(t *testing.T) {
	ev := WebhookEvent{
		EventType:         WebhookEventPaymentCompleted,
		PaymentID:         "pay_1",
		ExternalReference: "ref_1",
		Status:            PaymentStatusSuccess,
		Amount:            10,
		Currency:          "USD",
		Timestamp:         "2025-06-01T12:30:00Z",
	}
	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Contains(t, m, "eventType")
	assert.Contains(t, m, "paymentId")
	assert.Contains(t, m, "externalReference")
	assert.Contains(t, m, "timestamp")
	// Metadata is omitted entirely when absent.
	assert.NotContains(t, m, "metadata")
}
