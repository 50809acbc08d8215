package service

import (
	"context"

	"github.com/justinhsu1477/Pet-sub000/internal/domain"
)

// LockMode selects how a status change is serialized against concurrent
// writers. The choice is the caller's; there is no automatic fallback.
type LockMode string

const (
	// LockOptimistic reads without locking and persists with a version check.
	// Losers get ErrStaleVersion and must re-read; nothing blocks.
	LockOptimistic LockMode = "optimistic"
	// LockPessimistic takes the booking and sitter row locks before reading,
	// blocking other writers until commit. For high-contention slots.
	LockPessimistic LockMode = "pessimistic"
)

// lockStrategy runs one read-validate-mutate-persist cycle. fn receives the
// booking snapshot and a timeline view consistent with the strategy's
// isolation; it mutates the booking in place or rejects the transition.
type lockStrategy interface {
	transition(ctx context.Context, id string, fn func(v domain.TimelineView, b *domain.Booking) error) (*domain.Booking, error)
}

type optimisticLock struct {
	bookings BookingStore
}

func (o optimisticLock) transition(ctx context.Context, id string, fn func(v domain.TimelineView, b *domain.Booking) error) (*domain.Booking, error) {
	b, err := o.bookings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	expected := b.Version
	before := b.Status
	if err := fn(o.bookings, b); err != nil {
		return nil, err
	}
	completed := before != domain.StatusCompleted && b.Status == domain.StatusCompleted
	if err := o.bookings.SaveVersioned(ctx, b, expected, completed); err != nil {
		return nil, err
	}
	return b, nil
}

type pessimisticLock struct {
	bookings BookingStore
}

func (p pessimisticLock) transition(ctx context.Context, id string, fn func(v domain.TimelineView, b *domain.Booking) error) (*domain.Booking, error) {
	return p.bookings.TransitionLocked(ctx, id, fn)
}
