package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/justinhsu1477/Pet-sub000/internal/domain"
)

const expireBatchSize = 100

// ExpireOverdue moves PENDING bookings whose window has already started to
// EXPIRED. Each booking goes through the optimistic path; a version loss means
// someone else just acted on it, so it is skipped and picked up (or not) on
// the next sweep.
func (s *BookingSvc) ExpireOverdue(ctx context.Context) (int, error) {
	batch, err := s.bookings.ListExpirable(ctx, s.now().UTC(), expireBatchSize)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range batch {
		_, err := s.ChangeStatus(ctx, batch[i].ID, domain.StatusExpired, "not confirmed before start", LockOptimistic)
		if err != nil {
			if errors.Is(err, domain.ErrStaleVersion) || errors.Is(err, domain.ErrInvalidTransition) {
				continue
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}

// SweepLoop runs ExpireOverdue on a ticker until ctx is cancelled.
func (s *BookingSvc) SweepLoop(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.ExpireOverdue(ctx)
			if err != nil {
				log.Printf("[expiry] sweep error: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("[expiry] expired %d bookings", n)
			}
		}
	}
}
