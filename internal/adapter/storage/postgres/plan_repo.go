package postgres

import (
	"context"
	"errors"
	"fmt"

	"subpay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PlanRepo implements ports.PlanRepository.
type PlanRepo struct {
	pool Pool
}

// NewPlanRepo creates a new PlanRepo.
func NewPlanRepo(pool Pool) *PlanRepo {
	return &PlanRepo{pool: pool}
}

// Create inserts a new plan into the database.
func (r *PlanRepo) Create(ctx context.Context, p *domain.Plan) error {
	query := `INSERT INTO plans (id, code, name, price_cents, currency, interval, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Code, p.Name, p.PriceCents, p.Currency, p.Interval, p.Active,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

// GetByID fetches a plan by its UUID.
func (r *PlanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	query := `SELECT id, code, name, price_cents, currency, interval, active, created_at, updated_at
		FROM plans WHERE id = $1`

	p := &domain.Plan{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Code, &p.Name, &p.PriceCents, &p.Currency, &p.Interval,
		&p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get plan by id: %w", err)
	}
	return p, nil
}

// GetByCode fetches a plan by its unique code.
func (r *PlanRepo) GetByCode(ctx context.Context, code string) (*domain.Plan, error) {
	query := `SELECT id, code, name, price_cents, currency, interval, active, created_at, updated_at
		FROM plans WHERE code = $1`

	p := &domain.Plan{}
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&p.ID, &p.Code, &p.Name, &p.PriceCents, &p.Currency, &p.Interval,
		&p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get plan by code: %w", err)
	}
	return p, nil
}

// ListActive returns all plans currently open for subscription.
func (r *PlanRepo) ListActive(ctx context.Context) ([]domain.Plan, error) {
	query := `SELECT id, code, name, price_cents, currency, interval, active, created_at, updated_at
		FROM plans WHERE active = TRUE ORDER BY price_cents ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active plans: %w", err)
	}
	defer rows.Close()

	var plans []domain.Plan
	for rows.Next() {
		var p domain.Plan
		if err := rows.Scan(
			&p.ID, &p.Code, &p.Name, &p.PriceCents, &p.Currency, &p.Interval,
			&p.Active, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return plans, nil
}
