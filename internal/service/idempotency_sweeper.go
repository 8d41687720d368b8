package service

import (
	"context"
	"time"

	"subpay/internal/core/ports"

	"github.com/rs/zerolog"
)

// IdempotencySweeper periodically deletes expired idempotency records.
// Expired records are already invisible to lookups; the sweep only reclaims
// storage and releases the keys for reuse.
type IdempotencySweeper struct {
	store    ports.IdempotencyStore
	interval time.Duration
	log      zerolog.Logger
}

// NewIdempotencySweeper creates a sweeper running at the given interval.
func NewIdempotencySweeper(store ports.IdempotencyStore, interval time.Duration, log zerolog.Logger) *IdempotencySweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &IdempotencySweeper{store: store, interval: interval, log: log}
}

// Run sweeps on a ticker until ctx is canceled. Intended to run in its own
// goroutine alongside the HTTP server.
func (s *IdempotencySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug().Msg("idempotency sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *IdempotencySweeper) sweep(ctx context.Context) {
	deleted, err := s.store.DeleteExpired(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("idempotency sweep failed")
		return
	}
	if deleted > 0 {
		s.log.Debug().Int64("deleted", deleted).Msg("idempotency records swept")
	}
}
