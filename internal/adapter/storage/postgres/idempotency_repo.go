package postgres

import (
	"context"
	"errors"
	"fmt"

	"subpay/internal/core/domain"
	"subpay/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// IdempotencyRepo implements ports.IdempotencyStore on PostgreSQL. The
// primary key on the key column is the only concurrency control: when
// concurrent requests race on the same key, exactly one insert wins and the
// rest receive ports.ErrDuplicateIdempotencyKey.
type IdempotencyRepo struct {
	pool Pool
}

// NewIdempotencyRepo creates a new IdempotencyRepo.
func NewIdempotencyRepo(pool Pool) *IdempotencyRepo {
	return &IdempotencyRepo{pool: pool}
}

// Save stores a captured response under its idempotency key.
func (r *IdempotencyRepo) Save(ctx context.Context, rec *domain.IdempotencyRecord) error {
	query := `INSERT INTO idempotency_records (key, request_method, request_path, status_code, content_type, response_body, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		rec.Key, rec.RequestMethod, rec.RequestPath, rec.StatusCode,
		rec.ContentType, rec.ResponseBody, rec.CreatedAt, rec.ExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("insert idempotency record: %w", err)
	}
	return nil
}

// Get fetches a stored response by key. Returns (nil, nil) when absent.
// Expiry is the caller's concern; the row is returned as stored.
func (r *IdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	query := `SELECT key, request_method, request_path, status_code, content_type, response_body, created_at, expires_at
		FROM idempotency_records WHERE key = $1`

	rec := &domain.IdempotencyRecord{}
	err := r.pool.QueryRow(ctx, query, key).Scan(
		&rec.Key, &rec.RequestMethod, &rec.RequestPath, &rec.StatusCode,
		&rec.ContentType, &rec.ResponseBody, &rec.CreatedAt, &rec.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency record: %w", err)
	}
	return rec, nil
}

// DeleteExpired removes records past their retention window and returns the
// number of rows removed.
func (r *IdempotencyRepo) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM idempotency_records WHERE expires_at <= NOW()`

	tag, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete expired idempotency records: %w", err)
	}
	return tag.RowsAffected(), nil
}
