package postgres

import (
	"context"
	"errors"
	"fmt"

	"subpay/internal/core/domain"
	"subpay/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PaymentRepo implements ports.PaymentRepository.
type PaymentRepo struct {
	pool Pool
}

// NewPaymentRepo creates a new PaymentRepo.
func NewPaymentRepo(pool Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

// Create inserts a payment within a database transaction. A duplicate
// external reference maps to ports.ErrDuplicateExternalReference so callers
// can answer with a conflict instead of a server error.
func (r *PaymentRepo) Create(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
	query := `INSERT INTO payments (id, external_reference, subscription_id, amount_cents, currency, status, failure_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		p.ID, p.ExternalReference, p.SubscriptionID, p.AmountCents, p.Currency,
		p.Status, p.FailureReason, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrDuplicateExternalReference
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByID fetches a payment by its UUID.
func (r *PaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `SELECT id, external_reference, subscription_id, amount_cents, currency, status, failure_reason, created_at, updated_at
		FROM payments WHERE id = $1`

	p := &domain.Payment{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.ExternalReference, &p.SubscriptionID, &p.AmountCents,
		&p.Currency, &p.Status, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment by id: %w", err)
	}
	return p, nil
}

// GetByExternalReference fetches a payment by its caller-supplied reference.
func (r *PaymentRepo) GetByExternalReference(ctx context.Context, ref string) (*domain.Payment, error) {
	query := `SELECT id, external_reference, subscription_id, amount_cents, currency, status, failure_reason, created_at, updated_at
		FROM payments WHERE external_reference = $1`

	p := &domain.Payment{}
	err := r.pool.QueryRow(ctx, query, ref).Scan(
		&p.ID, &p.ExternalReference, &p.SubscriptionID, &p.AmountCents,
		&p.Currency, &p.Status, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment by reference: %w", err)
	}
	return p, nil
}

// UpdateOutcome records the terminal state of a payment within a transaction.
func (r *PaymentRepo) UpdateOutcome(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PaymentStatus, failureReason *string) error {
	query := `UPDATE payments SET status=$1, failure_reason=$2, updated_at=NOW() WHERE id=$3`

	_, err := tx.Exec(ctx, query, status, failureReason, id)
	if err != nil {
		return fmt.Errorf("update payment outcome: %w", err)
	}
	return nil
}
