package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"subpay/config"
	"subpay/internal/core/domain"
	"subpay/internal/core/ports"
	"subpay/pkg/backoff"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Headers of the webhook wire contract.
const (
	HeaderWebhookSignature = "X-Webhook-Signature"
	HeaderIdempotencyKey   = "Idempotency-Key"
)

// HTTPClient is the subset of http.Client the sender needs. Tests inject a
// stub; production uses an http.Client with a per-attempt timeout.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebhookSender delivers payment events to the configured endpoint. Each
// delivery signs the serialized payload with HMAC-SHA256 and retries
// transient failures with exponential backoff up to a bounded attempt
// count. The outcome is reported as a boolean; the sender never returns an
// error to the caller. Retry state lives only in the in-flight call: there
// is no durable outbox, and a process restart mid-retry drops the event.
type WebhookSender struct {
	endpoint    string
	maxAttempts int
	sigSvc      ports.SignatureService
	httpClient  HTTPClient
	logRepo     ports.WebhookDeliveryLogRepository // nil = delivery logging disabled
	backoff     backoff.Strategy
	sleep       func(ctx context.Context, d time.Duration) bool
	now         func() time.Time
	log         zerolog.Logger
}

// NewWebhookSender creates a webhook sender from config. A nil httpClient
// selects an http.Client with the configured per-attempt timeout.
func NewWebhookSender(
	cfg config.WebhookConfig,
	sigSvc ports.SignatureService,
	httpClient HTTPClient,
	logRepo ports.WebhookDeliveryLogRepository,
	log zerolog.Logger,
) *WebhookSender {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	return &WebhookSender{
		endpoint:    cfg.Endpoint,
		maxAttempts: maxAttempts,
		sigSvc:      sigSvc,
		httpClient:  httpClient,
		logRepo:     logRepo,
		backoff:     backoff.Exponential{Base: retryDelay},
		sleep:       sleepContext,
		now:         time.Now,
		log:         log,
	}
}

// Send delivers the event, retrying failed attempts until one succeeds or
// the attempt budget is exhausted. Returns true if and only if some attempt
// received a 2xx response.
//
// The payload is marshaled once; the signature is computed over those exact
// bytes and every attempt sends them unchanged, so the receiver can verify
// the signature against the body it reads. The idempotency key is also
// fixed per Send call, letting the receiver deduplicate retried deliveries
// of the same logical event.
func (s *WebhookSender) Send(ctx context.Context, event domain.WebhookEvent) bool {
	body, err := json.Marshal(event)
	if err != nil {
		s.log.Error().Err(err).Str("payment_id", event.PaymentID).Msg("webhook: failed to marshal event")
		return false
	}
	signature := s.sigSvc.Sign(body)
	deliveryKey := domain.BuildWebhookIdempotencyKey(event.PaymentID, s.now())

	var (
		delivered  bool
		attempts   int
		lastStatus *int
		lastErr    error
	)

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		attempts = attempt

		status, err := s.attempt(ctx, body, signature, deliveryKey)
		if err == nil && status >= 200 && status < 300 {
			s.log.Info().
				Str("payment_id", event.PaymentID).
				Int("attempt", attempt).
				Int("status", status).
				Msg("webhook: delivered")
			delivered = true
			lastStatus = &status
			lastErr = nil
			break
		}

		if err != nil {
			lastErr = err
			lastStatus = nil
			s.log.Warn().Err(err).
				Str("payment_id", event.PaymentID).
				Int("attempt", attempt).
				Msg("webhook: delivery attempt failed")
		} else {
			st := status
			lastStatus = &st
			lastErr = nil
			s.log.Warn().
				Str("payment_id", event.PaymentID).
				Int("attempt", attempt).
				Int("status", status).
				Msg("webhook: non-2xx response")
		}

		if attempt == s.maxAttempts {
			break
		}
		if !s.sleep(ctx, s.backoff.NextInterval(attempt)) {
			s.log.Warn().
				Str("payment_id", event.PaymentID).
				Msg("webhook: context canceled during backoff, giving up")
			break
		}
	}

	if !delivered {
		s.log.Error().
			Str("payment_id", event.PaymentID).
			Int("attempts", attempts).
			Msg("webhook: all delivery attempts exhausted")
	}

	s.recordOutcome(event, body, attempts, delivered, lastStatus, lastErr)
	return delivered
}

// attempt performs one HTTP POST. Returns the status code, or an error for
// transport failures and timeouts.
func (s *WebhookSender) attempt(ctx context.Context, body []byte, signature, deliveryKey string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderWebhookSignature, signature)
	req.Header.Set(HeaderIdempotencyKey, deliveryKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

// recordOutcome writes the final delivery log entry. Best-effort: the log
// is observability only and is never read back to resume delivery.
func (s *WebhookSender) recordOutcome(event domain.WebhookEvent, payload []byte, attempts int, delivered bool, httpStatus *int, lastErr error) {
	if s.logRepo == nil {
		return
	}

	paymentID, err := uuid.Parse(event.PaymentID)
	if err != nil {
		s.log.Warn().Str("payment_id", event.PaymentID).Msg("webhook: unparseable payment id, skipping delivery log")
		return
	}

	status := domain.WebhookDeliveryStatusDelivered
	if !delivered {
		status = domain.WebhookDeliveryStatusFailed
	}
	var lastErrStr *string
	if lastErr != nil {
		msg := lastErr.Error()
		lastErrStr = &msg
	}

	entry := &domain.WebhookDeliveryLog{
		ID:         uuid.New(),
		PaymentID:  paymentID,
		Endpoint:   s.endpoint,
		Payload:    payload,
		HTTPStatus: httpStatus,
		Attempts:   attempts,
		Status:     status,
		LastError:  lastErrStr,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.logRepo.Create(context.Background(), entry); err != nil {
		s.log.Warn().Err(err).Str("payment_id", event.PaymentID).Msg("webhook: failed to persist delivery log")
	}
}

// sleepContext waits for d or until ctx is done. Returns false on cancel.
func sleepContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
