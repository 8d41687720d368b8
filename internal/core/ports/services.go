package ports

import (
	"context"
	"time"

	"subpay/internal/core/domain"

	"github.com/google/uuid"
)

// SignatureService handles HMAC-SHA256 signing and verification of webhook
// payloads. Signatures are lowercase hex over the exact payload bytes.
type SignatureService interface {
	Sign(payload []byte) string
	Verify(payload []byte, signature string) bool
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, email string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
}

// WebhookDedupStore short-circuits duplicate webhook deliveries before they
// reach the database.
type WebhookDedupStore interface {
	// CheckAndSet atomically checks if the delivery key was seen, marking it
	// if not. Returns true if the key is new, false if already seen.
	CheckAndSet(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// --- Service Ports (Business Logic) ---

// AuthService defines account authentication business logic.
type AuthService interface {
	Signup(ctx context.Context, req SignupRequest) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}

// SignupRequest holds validated input for account creation.
type SignupRequest struct {
	Email    string
	Password string
	Name     string
}

// AuthResult holds the authenticated user and their access token.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// PlanService defines plan catalog business logic.
type PlanService interface {
	Create(ctx context.Context, req CreatePlanRequest) (*domain.Plan, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error)
	ListActive(ctx context.Context) ([]domain.Plan, error)
}

// CreatePlanRequest holds validated input for plan creation.
type CreatePlanRequest struct {
	Code       string
	Name       string
	PriceCents int64
	Currency   string
	Interval   domain.BillingInterval
}

// SubscriptionService defines subscription lifecycle business logic.
type SubscriptionService interface {
	Subscribe(ctx context.Context, req SubscribeRequest) (*domain.Subscription, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Subscription, error)
	Cancel(ctx context.Context, userID, id uuid.UUID) (*domain.Subscription, error)
}

// SubscribeRequest holds validated input for starting a subscription.
type SubscribeRequest struct {
	UserID uuid.UUID
	PlanID uuid.UUID
}

// PaymentService defines the charge simulation business logic.
type PaymentService interface {
	Charge(ctx context.Context, req ChargeRequest) (*domain.Payment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
}

// ChargeRequest holds validated input for a charge.
type ChargeRequest struct {
	ExternalReference string
	AmountCents       int64
	Currency          string
}

// PaymentGateway is the subscription service's client to the payment
// service. Charge submits the request with the given idempotency key so
// retried submissions cannot double-charge.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest, idempotencyKey string) (*GatewayCharge, error)
}

// GatewayCharge is the accepted-charge acknowledgement from the payment
// service.
type GatewayCharge struct {
	PaymentID         uuid.UUID
	ExternalReference string
	Status            domain.PaymentStatus
}

// WebhookSender delivers a payment event to the configured endpoint,
// retrying with backoff. It reports success as a boolean and never returns
// an error; a false result means every attempt failed and the event is
// dropped.
type WebhookSender interface {
	Send(ctx context.Context, event domain.WebhookEvent) bool
}

// WebhookProcessor applies an incoming payment event to the subscription
// state.
type WebhookProcessor interface {
	ProcessPaymentEvent(ctx context.Context, event domain.WebhookEvent) error
}

// AuditService records audit events asynchronously.
type AuditService interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry holds the data for one audit record.
type AuditEntry struct {
	UserID       *uuid.UUID
	Action       domain.AuditAction
	ResourceType string
	ResourceID   string
	Details      string
	IPAddress    string
}
