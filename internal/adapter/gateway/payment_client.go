// Package gateway holds outbound clients to other services.
package gateway

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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Headers carried on every charge submission.
const (
	headerAPIKey         = "X-API-Key"
	headerIdempotencyKey = "Idempotency-Key"
)

// PaymentClient is the subscription service's HTTP client to the payment
// service. Submissions carry the caller's idempotency key so a retried
// request replays the original acceptance instead of creating a second
// charge.
type PaymentClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewPaymentClient creates a client from billing config.
func NewPaymentClient(cfg config.BillingConfig, log zerolog.Logger) *PaymentClient {
	return &PaymentClient{
		baseURL:    cfg.PaymentBaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

type chargeRequestBody struct {
	ExternalReference string `json:"external_reference"`
	AmountCents       int64  `json:"amount_cents"`
	Currency          string `json:"currency"`
}

type chargeResponseBody struct {
	Data struct {
		ID                uuid.UUID `json:"id"`
		ExternalReference string    `json:"external_reference"`
		Status            string    `json:"status"`
	} `json:"data"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// Charge submits a charge request to the payment service.
func (c *PaymentClient) Charge(ctx context.Context, req ports.ChargeRequest, idempotencyKey string) (*ports.GatewayCharge, error) {
	body, err := json.Marshal(chargeRequestBody{
		ExternalReference: req.ExternalReference,
		AmountCents:       req.AmountCents,
		Currency:          req.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/charges", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(headerAPIKey, c.apiKey)
	httpReq.Header.Set(headerIdempotencyKey, idempotencyKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("submit charge: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read charge response: %w", err)
	}

	var parsed chargeResponseBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode charge response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("charge rejected (status %d, code %s): %s", resp.StatusCode, parsed.ErrorCode, parsed.Message)
	}

	c.log.Debug().
		Str("payment_id", parsed.Data.ID.String()).
		Str("external_reference", parsed.Data.ExternalReference).
		Msg("charge accepted by payment service")

	return &ports.GatewayCharge{
		PaymentID:         parsed.Data.ID,
		ExternalReference: parsed.Data.ExternalReference,
		Status:            domain.PaymentStatus(parsed.Data.Status),
	}, nil
}
