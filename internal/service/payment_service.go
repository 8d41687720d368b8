package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"subpay/config"
	"subpay/internal/core/domain"
	"subpay/internal/core/ports"
	"subpay/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PaymentServiceImpl implements ports.PaymentService. Charges are accepted
// synchronously in the processing state; the gateway outcome is simulated
// asynchronously after a random delay, and a signed webhook announces the
// terminal state to the subscription service.
type PaymentServiceImpl struct {
	paymentRepo ports.PaymentRepository
	transactor  ports.DBTransactor
	sender      ports.WebhookSender
	cfg         config.BillingConfig
	log         zerolog.Logger

	// Injection points for deterministic tests.
	randFloat func() float64
	sleep     func(d time.Duration)
	settled   func(paymentID uuid.UUID) // optional completion hook
}

// NewPaymentService creates a new PaymentServiceImpl.
func NewPaymentService(
	paymentRepo ports.PaymentRepository,
	transactor ports.DBTransactor,
	sender ports.WebhookSender,
	cfg config.BillingConfig,
	log zerolog.Logger,
) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		paymentRepo: paymentRepo,
		transactor:  transactor,
		sender:      sender,
		cfg:         cfg,
		log:         log,
		randFloat:   rand.Float64,
		sleep:       time.Sleep,
	}
}

// Charge accepts a charge request, persists it in the processing state, and
// starts outcome simulation in the background. A duplicate external
// reference is answered with a conflict so the same logical charge cannot
// be accepted twice.
func (s *PaymentServiceImpl) Charge(ctx context.Context, req ports.ChargeRequest) (*domain.Payment, error) {
	if req.AmountCents <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	now := time.Now().UTC()
	payment := &domain.Payment{
		ID:                uuid.New(),
		ExternalReference: req.ExternalReference,
		AmountCents:       req.AmountCents,
		Currency:          req.Currency,
		Status:            domain.PaymentStatusProcessing,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.paymentRepo.Create(ctx, dbTx, payment); err != nil {
		if errors.Is(err, ports.ErrDuplicateExternalReference) {
			return nil, apperror.ErrDuplicateReference()
		}
		return nil, apperror.InternalError(fmt.Errorf("create payment: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("external_reference", payment.ExternalReference).
		Int64("amount_cents", payment.AmountCents).
		Msg("charge accepted, simulating outcome")

	go s.settle(*payment)

	return payment, nil
}

// GetByID fetches a payment by ID.
func (s *PaymentServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get payment: %w", err))
	}
	if payment == nil {
		return nil, apperror.ErrPaymentNotFound()
	}
	return payment, nil
}

// settle simulates the gateway outcome: wait a random processing delay,
// flip to success with the configured probability, persist the terminal
// state, and fire the webhook. Runs detached from the accepting request;
// the request/response cycle never waits on it.
func (s *PaymentServiceImpl) settle(payment domain.Payment) {
	ctx := context.Background()

	s.sleep(s.processingDelay())

	now := time.Now().UTC()
	payment.UpdatedAt = now
	var failureReason *string
	if s.randFloat() < s.cfg.SuccessRate {
		payment.Status = domain.PaymentStatusSuccess
	} else {
		payment.Status = domain.PaymentStatusFailed
		reason := "card_declined"
		failureReason = &reason
		payment.FailureReason = failureReason
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("settle: begin tx failed")
		return
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.paymentRepo.UpdateOutcome(ctx, dbTx, payment.ID, payment.Status, failureReason); err != nil {
		s.log.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("settle: persist outcome failed")
		return
	}
	if err := dbTx.Commit(ctx); err != nil {
		s.log.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("settle: commit failed")
		return
	}

	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("status", string(payment.Status)).
		Msg("payment settled")

	// Fire-and-forget: a delivery that fails after all retries only logs.
	// The subscription side must reconcile missed notifications on its own.
	event := domain.NewWebhookEvent(&payment, now)
	if !s.sender.Send(ctx, event) {
		s.log.Error().
			Str("payment_id", payment.ID.String()).
			Str("event_type", string(event.EventType)).
			Msg("webhook delivery failed, event dropped")
	}

	if s.settled != nil {
		s.settled(payment.ID)
	}
}

// processingDelay picks a random delay within the configured bounds.
func (s *PaymentServiceImpl) processingDelay() time.Duration {
	min := s.cfg.MinProcessingDelay
	max := s.cfg.MaxProcessingDelay
	if max <= min {
		return min
	}
	return min + time.Duration(s.randFloat()*float64(max-min))
}
