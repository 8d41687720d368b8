package service

import (
	"context"
	"fmt"
	"time"

	"subpay/internal/core/domain"
	"subpay/internal/core/ports"
	"subpay/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SubscriptionServiceImpl implements ports.SubscriptionService. Subscribing
// creates a pending subscription, then submits the first charge to the
// payment service; the subscription only becomes active when the payment
// outcome arrives over the webhook.
type SubscriptionServiceImpl struct {
	subRepo    ports.SubscriptionRepository
	planRepo   ports.PlanRepository
	transactor ports.DBTransactor
	gateway    ports.PaymentGateway
	log        zerolog.Logger
}

// NewSubscriptionService creates a new SubscriptionServiceImpl.
func NewSubscriptionService(
	subRepo ports.SubscriptionRepository,
	planRepo ports.PlanRepository,
	transactor ports.DBTransactor,
	gateway ports.PaymentGateway,
	log zerolog.Logger,
) *SubscriptionServiceImpl {
	return &SubscriptionServiceImpl{
		subRepo:    subRepo,
		planRepo:   planRepo,
		transactor: transactor,
		gateway:    gateway,
		log:        log,
	}
}

// Subscribe starts a subscription on the given plan. The charge request is
// submitted with the subscription reference as its idempotency key, so a
// retried submission for the same subscription cannot produce two charges.
func (s *SubscriptionServiceImpl) Subscribe(ctx context.Context, req ports.SubscribeRequest) (*domain.Subscription, error) {
	plan, err := s.planRepo.GetByID(ctx, req.PlanID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get plan: %w", err))
	}
	if plan == nil {
		return nil, apperror.ErrPlanNotFound()
	}
	if !plan.Active {
		return nil, apperror.ErrPlanInactive()
	}

	now := time.Now().UTC()
	sub := &domain.Subscription{
		ID:                 uuid.New(),
		UserID:             req.UserID,
		PlanID:             req.PlanID,
		Status:             domain.SubscriptionStatusPending,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   plan.PeriodEnd(now),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.subRepo.Create(ctx, dbTx, sub); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create subscription: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	// The reference doubles as the idempotency key: the payment service
	// replays its original acceptance if this submission is retried.
	ref := domain.SubscriptionReference(sub.ID)
	charge, err := s.gateway.Charge(ctx, ports.ChargeRequest{
		ExternalReference: ref,
		AmountCents:       plan.PriceCents,
		Currency:          plan.Currency,
	}, ref)
	if err != nil {
		s.log.Error().Err(err).
			Str("subscription_id", sub.ID.String()).
			Msg("charge submission failed, subscription stays pending")
		return nil, apperror.ErrChargeRejected(err)
	}

	s.log.Info().
		Str("subscription_id", sub.ID.String()).
		Str("payment_id", charge.PaymentID.String()).
		Str("plan_code", plan.Code).
		Msg("subscription created, charge accepted")

	return sub, nil
}

// GetByID fetches a subscription, scoped to its owner.
func (s *SubscriptionServiceImpl) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Subscription, error) {
	sub, err := s.subRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get subscription: %w", err))
	}
	if sub == nil || sub.UserID != userID {
		return nil, apperror.ErrSubscriptionNotFound()
	}
	return sub, nil
}

// Cancel cancels a subscription. A pending subscription is canceled
// immediately; an active or past-due one keeps running until the end of the
// paid period.
func (s *SubscriptionServiceImpl) Cancel(ctx context.Context, userID, id uuid.UUID) (*domain.Subscription, error) {
	sub, err := s.subRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get subscription: %w", err))
	}
	if sub == nil || sub.UserID != userID {
		return nil, apperror.ErrSubscriptionNotFound()
	}
	if sub.IsCanceled() {
		return nil, apperror.ErrSubscriptionNotCancelable()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if sub.Status == domain.SubscriptionStatusPending {
		// Never paid for: no period to honor.
		if err := s.subRepo.UpdateStatus(ctx, dbTx, sub.ID, domain.SubscriptionStatusCanceled); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("cancel subscription: %w", err))
		}
		sub.Status = domain.SubscriptionStatusCanceled
	} else {
		if err := s.subRepo.SetCancelAtPeriodEnd(ctx, dbTx, sub.ID, true); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("schedule cancel: %w", err))
		}
		sub.CancelAtPeriodEnd = true
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("subscription_id", sub.ID.String()).
		Str("status", string(sub.Status)).
		Bool("cancel_at_period_end", sub.CancelAtPeriodEnd).
		Msg("subscription canceled")

	return sub, nil
}
