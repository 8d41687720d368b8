package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"subpay/internal/core/domain"
	"subpay/internal/core/ports"
	"subpay/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PlanServiceImpl implements ports.PlanService.
type PlanServiceImpl struct {
	planRepo ports.PlanRepository
	log      zerolog.Logger
}

// NewPlanService creates a new PlanServiceImpl.
func NewPlanService(planRepo ports.PlanRepository, log zerolog.Logger) *PlanServiceImpl {
	return &PlanServiceImpl{planRepo: planRepo, log: log}
}

// Create adds a new plan to the catalog. Plan codes are unique.
func (s *PlanServiceImpl) Create(ctx context.Context, req ports.CreatePlanRequest) (*domain.Plan, error) {
	if req.PriceCents <= 0 {
		return nil, apperror.Validation("price must be positive")
	}

	code := strings.ToLower(strings.TrimSpace(req.Code))

	existing, err := s.planRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup plan code: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrPlanCodeExists()
	}

	now := time.Now().UTC()
	plan := &domain.Plan{
		ID:         uuid.New(),
		Code:       code,
		Name:       req.Name,
		PriceCents: req.PriceCents,
		Currency:   strings.ToUpper(req.Currency),
		Interval:   req.Interval,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create plan: %w", err))
	}

	s.log.Info().Str("plan_id", plan.ID.String()).Str("code", plan.Code).Msg("plan created")

	return plan, nil
}

// GetByID fetches a plan by ID.
func (s *PlanServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get plan: %w", err))
	}
	if plan == nil {
		return nil, apperror.ErrPlanNotFound()
	}
	return plan, nil
}

// ListActive returns all plans open for subscription.
func (s *PlanServiceImpl) ListActive(ctx context.Context) ([]domain.Plan, error) {
	plans, err := s.planRepo.ListActive(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list plans: %w", err))
	}
	return plans, nil
}
