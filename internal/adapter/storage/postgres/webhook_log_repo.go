package postgres

import (
	"context"
	"fmt"

	"subpay/internal/core/domain"
)

// WebhookLogRepo implements ports.WebhookDeliveryLogRepository.
type WebhookLogRepo struct {
	pool Pool
}

// NewWebhookLogRepo creates a new WebhookLogRepo.
func NewWebhookLogRepo(pool Pool) *WebhookLogRepo {
	return &WebhookLogRepo{pool: pool}
}

// Create inserts the final outcome of one webhook delivery sequence.
func (r *WebhookLogRepo) Create(ctx context.Context, log *domain.WebhookDeliveryLog) error {
	query := `INSERT INTO webhook_delivery_logs (id, payment_id, endpoint, payload, http_status, attempts, status, last_error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		log.ID, log.PaymentID, log.Endpoint, log.Payload, log.HTTPStatus,
		log.Attempts, log.Status, log.LastError, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook delivery log: %w", err)
	}
	return nil
}
