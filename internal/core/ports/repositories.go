package ports

import (
	"context"
	"errors"
	"time"

	"subpay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrDuplicateIdempotencyKey is returned by IdempotencyStore.Save when a
// record with the same key already exists. Callers treat it as a harmless
// race outcome, not a failure.
var ErrDuplicateIdempotencyKey = errors.New("idempotency key already exists")

// ErrDuplicateExternalReference is returned by PaymentRepository.Create when
// the external reference was already used.
var ErrDuplicateExternalReference = errors.New("external reference already exists")

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// PlanRepository defines persistence operations for subscription plans.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error)
	GetByCode(ctx context.Context, code string) (*domain.Plan, error)
	ListActive(ctx context.Context) ([]domain.Plan, error)
}

// SubscriptionRepository defines persistence operations for subscriptions.
// Methods accepting pgx.Tx run inside transaction blocks so a subscription
// and its payment change together.
type SubscriptionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, sub *domain.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Subscription, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.SubscriptionStatus) error
	UpdatePeriod(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.SubscriptionStatus, periodStart, periodEnd time.Time) error
	SetCancelAtPeriodEnd(ctx context.Context, tx pgx.Tx, id uuid.UUID, cancel bool) error
}

// PaymentRepository defines persistence operations for payments.
type PaymentRepository interface {
	Create(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	GetByExternalReference(ctx context.Context, ref string) (*domain.Payment, error)
	UpdateOutcome(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PaymentStatus, failureReason *string) error
}

// IdempotencyStore defines durable storage for replayable responses.
// Get returns (nil, nil) when no record exists. Save returns
// ErrDuplicateIdempotencyKey when another writer stored the key first;
// the store's uniqueness constraint is the only concurrency control.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
	Save(ctx context.Context, rec *domain.IdempotencyRecord) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// WebhookDeliveryLogRepository records final webhook delivery outcomes.
type WebhookDeliveryLogRepository interface {
	Create(ctx context.Context, log *domain.WebhookDeliveryLog) error
}

// AuditLogRepository defines persistence for audit logs.
type AuditLogRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
