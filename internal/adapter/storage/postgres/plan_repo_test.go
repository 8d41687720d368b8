package postgres

import (
	"context"
	"testing"
	"time"

	"subpay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlan() *domain.Plan {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Plan{
		ID:         uuid.New(),
		Code:       "pro-monthly",
		Name:       "Pro (monthly)",
		PriceCents: 1999,
		Currency:   "USD",
		Interval:   domain.BillingIntervalMonth,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func planColumns() []string {
	return []string{"id", "code", "name", "price_cents", "currency", "interval",
		"active", "created_at", "updated_at"}
}

func planRow(p *domain.Plan) *pgxmock.Rows {
	return pgxmock.NewRows(planColumns()).AddRow(
		p.ID, p.Code, p.Name, p.PriceCents, p.Currency, p.Interval,
		p.Active, p.CreatedAt, p.UpdatedAt,
	)
}

func TestPlanRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPlanRepo(mock)
	p := newTestPlan()

	mock.ExpectExec("INSERT INTO plans").
		WithArgs(p.ID, p.Code, p.Name, p.PriceCents, p.Currency, p.Interval,
			p.Active, p.CreatedAt, p.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPlanRepo(mock)
	p := newTestPlan()

	mock.ExpectQuery("SELECT .+ FROM plans WHERE id").
		WithArgs(p.ID).
		WillReturnRows(planRow(p))

	result, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, p.Code, result.Code)
	assert.Equal(t, p.PriceCents, result.PriceCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepo_GetByCode_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPlanRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM plans WHERE code").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(planColumns()))

	result, err := repo.GetByCode(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepo_ListActive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPlanRepo(mock)
	p1 := newTestPlan()
	p2 := newTestPlan()
	p2.Code = "pro-yearly"
	p2.Interval = domain.BillingIntervalYear
	p2.PriceCents = 19990

	rows := pgxmock.NewRows(planColumns()).
		AddRow(p1.ID, p1.Code, p1.Name, p1.PriceCents, p1.Currency, p1.Interval,
			p1.Active, p1.CreatedAt, p1.UpdatedAt).
		AddRow(p2.ID, p2.Code, p2.Name, p2.PriceCents, p2.Currency, p2.Interval,
			p2.Active, p2.CreatedAt, p2.UpdatedAt)

	mock.ExpectQuery("SELECT .+ FROM plans WHERE active").
		WillReturnRows(rows)

	result, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "pro-monthly", result[0].Code)
	assert.Equal(t, domain.BillingIntervalYear, result[1].Interval)
	assert.NoError(t, mock.ExpectationsWereMet())
}
