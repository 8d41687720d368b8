package integration

import (
	"context"
	"sync"
	"time"

	"subpay/internal/core/domain"
	"subpay/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// In-memory implementations of the persistence ports. They reproduce the
// constraints the integration flows depend on (unique external reference,
// unique idempotency key) without a real database, so both services can be
// wired end to end inside a single test process.

type fakeTx struct{ pgx.Tx }

func (t *fakeTx) Commit(context.Context) error   { return nil }
func (t *fakeTx) Rollback(context.Context) error { return nil }

type fakeTransactor struct{}

func (fakeTransactor) Begin(context.Context) (pgx.Tx, error) { return &fakeTx{}, nil }

// --- users ---

type userStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.User
}

func newUserStore() *userStore {
	return &userStore{users: make(map[uuid.UUID]domain.User)}
}

func (s *userStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = *user
	return nil
}

func (s *userStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (s *userStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, nil
}

// --- plans ---

type planStore struct {
	mu    sync.Mutex
	plans map[uuid.UUID]domain.Plan
}

func newPlanStore() *planStore {
	return &planStore{plans: make(map[uuid.UUID]domain.Plan)}
}

func (s *planStore) Create(_ context.Context, plan *domain.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.ID] = *plan
	return nil
}

func (s *planStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.plans[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (s *planStore) GetByCode(_ context.Context, code string) (*domain.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.plans {
		if p.Code == code {
			out := p
			return &out, nil
		}
	}
	return nil, nil
}

func (s *planStore) ListActive(_ context.Context) ([]domain.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Plan
	for _, p := range s.plans {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- subscriptions ---

type subscriptionStore struct {
	mu   sync.Mutex
	subs map[uuid.UUID]domain.Subscription
}

func newSubscriptionStore() *subscriptionStore {
	return &subscriptionStore{subs: make(map[uuid.UUID]domain.Subscription)}
}

func (s *subscriptionStore) Create(_ context.Context, _ pgx.Tx, sub *domain.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.ID] = *sub
	return nil
}

func (s *subscriptionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subs[id]; ok {
		return &sub, nil
	}
	return nil, nil
}

func (s *subscriptionStore) ListByUserID(_ context.Context, userID uuid.UUID) ([]domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Subscription
	for _, sub := range s.subs {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *subscriptionStore) UpdateStatus(_ context.Context, _ pgx.Tx, id uuid.UUID, status domain.SubscriptionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := s.subs[id]
	sub.Status = status
	sub.UpdatedAt = time.Now().UTC()
	s.subs[id] = sub
	return nil
}

func (s *subscriptionStore) UpdatePeriod(_ context.Context, _ pgx.Tx, id uuid.UUID, status domain.SubscriptionStatus, periodStart, periodEnd time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := s.subs[id]
	sub.Status = status
	sub.CurrentPeriodStart = periodStart
	sub.CurrentPeriodEnd = periodEnd
	sub.UpdatedAt = time.Now().UTC()
	s.subs[id] = sub
	return nil
}

func (s *subscriptionStore) SetCancelAtPeriodEnd(_ context.Context, _ pgx.Tx, id uuid.UUID, cancel bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := s.subs[id]
	sub.CancelAtPeriodEnd = cancel
	sub.UpdatedAt = time.Now().UTC()
	s.subs[id] = sub
	return nil
}

func (s *subscriptionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// --- payments ---

type paymentStore struct {
	mu       sync.Mutex
	payments map[uuid.UUID]domain.Payment
	byRef    map[string]uuid.UUID
}

func newPaymentStore() *paymentStore {
	return &paymentStore{
		payments: make(map[uuid.UUID]domain.Payment),
		byRef:    make(map[string]uuid.UUID),
	}
}

func (s *paymentStore) Create(_ context.Context, _ pgx.Tx, payment *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byRef[payment.ExternalReference]; exists {
		return ports.ErrDuplicateExternalReference
	}
	s.payments[payment.ID] = *payment
	s.byRef[payment.ExternalReference] = payment.ID
	return nil
}

func (s *paymentStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.payments[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (s *paymentStore) GetByExternalReference(_ context.Context, ref string) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byRef[ref]; ok {
		p := s.payments[id]
		return &p, nil
	}
	return nil, nil
}

func (s *paymentStore) UpdateOutcome(_ context.Context, _ pgx.Tx, id uuid.UUID, status domain.PaymentStatus, failureReason *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.payments[id]
	p.Status = status
	p.FailureReason = failureReason
	p.UpdatedAt = time.Now().UTC()
	s.payments[id] = p
	return nil
}

func (s *paymentStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}

// --- idempotency records ---

type idempotencyStore struct {
	mu      sync.Mutex
	records map[string]domain.IdempotencyRecord
}

func newIdempotencyStore() *idempotencyStore {
	return &idempotencyStore{records: make(map[string]domain.IdempotencyRecord)}
}

func (s *idempotencyStore) Get(_ context.Context, key string) (*domain.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[key]; ok {
		out := rec
		return &out, nil
	}
	return nil, nil
}

func (s *idempotencyStore) Save(_ context.Context, rec *domain.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.Key]; exists {
		return ports.ErrDuplicateIdempotencyKey
	}
	s.records[rec.Key] = *rec
	return nil
}

func (s *idempotencyStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for key, rec := range s.records {
		if rec.IsExpired() {
			delete(s.records, key)
			deleted++
		}
	}
	return deleted, nil
}

func (s *idempotencyStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// --- webhook delivery logs ---

type webhookLogStore struct {
	mu   sync.Mutex
	logs []domain.WebhookDeliveryLog
}

func newWebhookLogStore() *webhookLogStore { return &webhookLogStore{} }

func (s *webhookLogStore) Create(_ context.Context, log *domain.WebhookDeliveryLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, *log)
	return nil
}

func (s *webhookLogStore) all() []domain.WebhookDeliveryLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.WebhookDeliveryLog, len(s.logs))
	copy(out, s.logs)
	return out
}

// --- audit logs ---

type auditLogStore struct {
	mu   sync.Mutex
	logs []domain.AuditLog
}

func newAuditLogStore() *auditLogStore { return &auditLogStore{} }

func (s *auditLogStore) Create(_ context.Context, log *domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, *log)
	return nil
}
