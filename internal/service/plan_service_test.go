package service

import (
	"context"
	"testing"

	"subpay/internal/core/domain"
	"subpay/internal/core/ports"
	"subpay/internal/core/ports/mocks"
	"subpay/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupPlanService(t *testing.T) (*PlanServiceImpl, *mocks.MockPlanRepository, *gomock.Controller) {
	ctrl := gomock.NewController(t)
	planRepo := mocks.NewMockPlanRepository(ctrl)
	return NewPlanService(planRepo, zerolog.Nop()), planRepo, ctrl
}

func TestPlanService_Create(t *testing.T) {
	svc, planRepo, ctrl := setupPlanService(t)
	defer ctrl.Finish()

	planRepo.EXPECT().GetByCode(gomock.Any(), "pro-monthly").Return(nil, nil)
	planRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, plan *domain.Plan) error {
			assert.Equal(t, "pro-monthly", plan.Code)
			assert.Equal(t, "USD", plan.Currency)
			assert.True(t, plan.Active)
			return nil
		})

	plan, err := svc.Create(context.Background(), ports.CreatePlanRequest{
		Code:       " Pro-Monthly ",
		Name:       "Pro",
		PriceCents: 2999,
		Currency:   "usd",
		Interval:   domain.BillingIntervalMonth,
	})
	require.NoError(t, err)
	assert.Equal(t, "pro-monthly", plan.Code)
}

func TestPlanService_Create_CodeExists(t *testing.T) {
	svc, planRepo, ctrl := setupPlanService(t)
	defer ctrl.Finish()

	planRepo.EXPECT().GetByCode(gomock.Any(), "pro-monthly").Return(&domain.Plan{ID: uuid.New()}, nil)

	_, err := svc.Create(context.Background(), ports.CreatePlanRequest{
		Code:       "pro-monthly",
		Name:       "Pro",
		PriceCents: 2999,
		Currency:   "USD",
		Interval:   domain.BillingIntervalMonth,
	})

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PLAN_003", appErr.Code)
}

func TestPlanService_Create_InvalidPrice(t *testing.T) {
	svc, _, ctrl := setupPlanService(t)
	defer ctrl.Finish()

	_, err := svc.Create(context.Background(), ports.CreatePlanRequest{
		Code:       "free",
		Name:       "Free",
		PriceCents: 0,
		Currency:   "USD",
		Interval:   domain.BillingIntervalMonth,
	})

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VAL_001", appErr.Code)
}

func TestPlanService_GetByID_NotFound(t *testing.T) {
	svc, planRepo, ctrl := setupPlanService(t)
	defer ctrl.Finish()

	planRepo.EXPECT().GetByID(gomock.Any(), gomock.Any()).Return(nil, nil)

	_, err := svc.GetByID(context.Background(), uuid.New())

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PLAN_001", appErr.Code)
}

func TestPlanService_ListActive(t *testing.T) {
	svc, planRepo, ctrl := setupPlanService(t)
	defer ctrl.Finish()

	plans := []domain.Plan{{ID: uuid.New(), Code: "pro-monthly"}, {ID: uuid.New(), Code: "pro-yearly"}}
	planRepo.EXPECT().ListActive(gomock.Any()).Return(plans, nil)

	got, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
