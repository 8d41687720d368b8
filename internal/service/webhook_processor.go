package service

import (
	"context"
	"fmt"
	"time"

	"subpay/internal/core/domain"
	"subpay/internal/core/ports"
	"subpay/pkg/apperror"

	"github.com/rs/zerolog"
)

// WebhookProcessorImpl implements ports.WebhookProcessor: it maps an
// incoming payment event onto the owning subscription. Processing is
// idempotent at the state level: reapplying an already-applied event writes
// the same subscription state again.
type WebhookProcessorImpl struct {
	subRepo     ports.SubscriptionRepository
	planRepo    ports.PlanRepository
	paymentRepo ports.PaymentRepository
	transactor  ports.DBTransactor
	log         zerolog.Logger

	now func() time.Time
}

// NewWebhookProcessor creates a new WebhookProcessorImpl.
func NewWebhookProcessor(
	subRepo ports.SubscriptionRepository,
	planRepo ports.PlanRepository,
	paymentRepo ports.PaymentRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WebhookProcessorImpl {
	return &WebhookProcessorImpl{
		subRepo:     subRepo,
		planRepo:    planRepo,
		paymentRepo: paymentRepo,
		transactor:  transactor,
		log:         log,
		now:         time.Now,
	}
}

// ProcessPaymentEvent applies a payment outcome to the referenced
// subscription: completed activates it and starts a fresh billing period,
// failed marks it past due. Events for references that do not point at a
// subscription are acknowledged and skipped so the sender stops retrying.
func (s *WebhookProcessorImpl) ProcessPaymentEvent(ctx context.Context, event domain.WebhookEvent) error {
	switch event.EventType {
	case domain.WebhookEventPaymentCompleted, domain.WebhookEventPaymentFailed:
	default:
		return apperror.Validation(fmt.Sprintf("unsupported event type: %s", event.EventType))
	}

	payment, err := s.paymentRepo.GetByExternalReference(ctx, event.ExternalReference)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get payment: %w", err))
	}
	if payment == nil {
		return apperror.ErrPaymentNotFound()
	}

	subID, ok := domain.SubscriptionIDFromReference(event.ExternalReference)
	if !ok {
		s.log.Warn().
			Str("external_reference", event.ExternalReference).
			Msg("webhook: reference is not a subscription charge, skipping")
		return nil
	}

	sub, err := s.subRepo.GetByID(ctx, subID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get subscription: %w", err))
	}
	if sub == nil {
		return apperror.ErrSubscriptionNotFound()
	}
	if !sub.IsBillable() {
		s.log.Warn().
			Str("subscription_id", sub.ID.String()).
			Str("status", string(sub.Status)).
			Msg("webhook: subscription not billable, skipping")
		return nil
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	switch event.EventType {
	case domain.WebhookEventPaymentCompleted:
		plan, err := s.planRepo.GetByID(ctx, sub.PlanID)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("get plan: %w", err))
		}
		if plan == nil {
			return apperror.ErrPlanNotFound()
		}
		periodStart := s.now().UTC()
		if err := s.subRepo.UpdatePeriod(ctx, dbTx, sub.ID, domain.SubscriptionStatusActive, periodStart, plan.PeriodEnd(periodStart)); err != nil {
			return apperror.InternalError(fmt.Errorf("activate subscription: %w", err))
		}
	case domain.WebhookEventPaymentFailed:
		if err := s.subRepo.UpdateStatus(ctx, dbTx, sub.ID, domain.SubscriptionStatusPastDue); err != nil {
			return apperror.InternalError(fmt.Errorf("mark subscription past due: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("subscription_id", sub.ID.String()).
		Str("event_type", string(event.EventType)).
		Str("payment_id", event.PaymentID).
		Msg("payment event applied")

	return nil
}
