package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subpay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SubscriptionRepo implements ports.SubscriptionRepository.
type SubscriptionRepo struct {
	pool Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepo.
func NewSubscriptionRepo(pool Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

// Create inserts a subscription within a database transaction.
func (r *SubscriptionRepo) Create(ctx context.Context, tx pgx.Tx, s *domain.Subscription) error {
	query := `INSERT INTO subscriptions (id, user_id, plan_id, status, current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		s.ID, s.UserID, s.PlanID, s.Status,
		s.CurrentPeriodStart, s.CurrentPeriodEnd, s.CancelAtPeriodEnd,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// GetByID fetches a subscription by its UUID.
func (r *SubscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT id, user_id, plan_id, status, current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at
		FROM subscriptions WHERE id = $1`

	s := &domain.Subscription{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.PlanID, &s.Status,
		&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CancelAtPeriodEnd,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscription by id: %w", err)
	}
	return s, nil
}

// ListByUserID returns all subscriptions belonging to a user.
func (r *SubscriptionRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Subscription, error) {
	query := `SELECT id, user_id, plan_id, status, current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at
		FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		var s domain.Subscription
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.PlanID, &s.Status,
			&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CancelAtPeriodEnd,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

// UpdateStatus changes the subscription status within a transaction.
func (r *SubscriptionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.SubscriptionStatus) error {
	query := `UPDATE subscriptions SET status=$1, updated_at=NOW() WHERE id=$2`

	_, err := tx.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	return nil
}

// UpdatePeriod sets the status and billing period boundaries together,
// used when a payment outcome activates or renews the subscription.
func (r *SubscriptionRepo) UpdatePeriod(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.SubscriptionStatus, periodStart, periodEnd time.Time) error {
	query := `UPDATE subscriptions
		SET status=$1, current_period_start=$2, current_period_end=$3, updated_at=NOW()
		WHERE id=$4`

	_, err := tx.Exec(ctx, query, status, periodStart, periodEnd, id)
	if err != nil {
		return fmt.Errorf("update subscription period: %w", err)
	}
	return nil
}

// SetCancelAtPeriodEnd flags the subscription for cancellation when the
// current period ends.
func (r *SubscriptionRepo) SetCancelAtPeriodEnd(ctx context.Context, tx pgx.Tx, id uuid.UUID, cancel bool) error {
	query := `UPDATE subscriptions SET cancel_at_period_end=$1, updated_at=NOW() WHERE id=$2`

	_, err := tx.Exec(ctx, query, cancel, id)
	if err != nil {
		return fmt.Errorf("set cancel_at_period_end: %w", err)
	}
	return nil
}
