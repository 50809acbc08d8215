package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justinhsu1477/Pet-sub000/internal/domain"
)

const defaultLockTimeout = 5 * time.Second

type BookingSvc struct {
	bookings BookingStore
	sitters  SitterStore
	pets     PetStore
	pub      EventPublisher

	// lockTimeout bounds how long the create path and the pessimistic path
	// may wait on row locks.
	lockTimeout time.Duration
	now         func() time.Time
}

func NewBookingSvc(bookings BookingStore, sitters SitterStore, pets PetStore, pub EventPublisher, lockTimeout time.Duration) *BookingSvc {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &BookingSvc{
		bookings:    bookings,
		sitters:     sitters,
		pets:        pets,
		pub:         pub,
		lockTimeout: lockTimeout,
		now:         time.Now,
	}
}

type CreateBookingInput struct {
	PetID      string
	SitterID   string
	CustomerID string
	Start      time.Time
	End        time.Time
	Notes      string
	TotalPrice int64 // cents
}

// Create reserves [Start, End) on the sitter's timeline. The insert happens
// under the sitter row lock so two customers racing for the same window cannot
// both pass the conflict check.
func (s *BookingSvc) Create(ctx context.Context, in CreateBookingInput) (*domain.Booking, error) {
	if !in.Start.Before(in.End) {
		return nil, fmt.Errorf("%w: start must be before end", domain.ErrInvalidTimeWindow)
	}
	if in.Start.Before(s.now()) {
		return nil, fmt.Errorf("%w: start is in the past", domain.ErrInvalidTimeWindow)
	}
	if in.TotalPrice < 0 {
		return nil, errors.New("total price must be non-negative")
	}

	pet, err := s.pets.ByID(ctx, in.PetID)
	if err != nil {
		return nil, err
	}
	if pet.OwnerID != in.CustomerID {
		return nil, domain.ErrUnauthorized
	}

	b := &domain.Booking{
		PetID:      in.PetID,
		SitterID:   in.SitterID,
		CustomerID: in.CustomerID,
		StartTime:  in.Start.UTC(),
		EndTime:    in.End.UTC(),
		Notes:      in.Notes,
		TotalPrice: in.TotalPrice,
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	if err := s.bookings.CreateLocked(lockCtx, b); err != nil {
		return nil, err
	}

	s.publish(ctx, "booking.created", b)
	return b, nil
}

// ChangeStatus moves a booking along the state machine under the chosen lock
// mode. Both modes run the same validation; they differ only in how the
// snapshot is protected while it is mutated.
func (s *BookingSvc) ChangeStatus(ctx context.Context, id string, target domain.BookingStatus, reason string, mode LockMode) (*domain.Booking, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, target)
	}

	apply := func(v domain.TimelineView, b *domain.Booking) error {
		return s.applyTransition(ctx, v, b, target, reason)
	}

	var (
		strat lockStrategy
		b     *domain.Booking
		err   error
	)
	switch mode {
	case LockPessimistic:
		strat = pessimisticLock{bookings: s.bookings}
		lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
		defer cancel()
		b, err = strat.transition(lockCtx, id, apply)
	default:
		strat = optimisticLock{bookings: s.bookings}
		b, err = strat.transition(ctx, id, apply)
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, eventKey(target), b)
	return b, nil
}

// applyTransition is the single validate-and-mutate routine both lock
// strategies execute. It never touches storage itself; the timeline view it
// receives matches the strategy's isolation.
func (s *BookingSvc) applyTransition(ctx context.Context, v domain.TimelineView, b *domain.Booking, target domain.BookingStatus, reason string) error {
	if !domain.CanTransition(b.Status, target) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, b.Status, target)
	}
	if target == domain.StatusConfirmed {
		conflict, err := domain.HasConflict(ctx, v, b.SitterID, b.StartTime, b.EndTime, b.ID)
		if err != nil {
			return err
		}
		if conflict {
			return domain.ErrConflict
		}
	}

	switch target {
	case domain.StatusConfirmed, domain.StatusRejected:
		if reason != "" {
			b.SitterResponse = reason
		}
	case domain.StatusCancelled, domain.StatusExpired:
		if reason != "" {
			if b.Notes != "" {
				b.Notes += "\n"
			}
			b.Notes += reason
		}
	}
	b.Status = target
	return nil
}

func (s *BookingSvc) Get(ctx context.Context, id string) (*domain.Booking, error) {
	return s.bookings.ByID(ctx, id)
}

func (s *BookingSvc) publish(ctx context.Context, key string, b *domain.Booking) {
	if s.pub == nil {
		return
	}
	_ = s.pub.PublishJSON(ctx, key, map[string]any{
		"booking_id":  b.ID,
		"pet_id":      b.PetID,
		"sitter_id":   b.SitterID,
		"customer_id": b.CustomerID,
		"status":      b.Status,
		"start":       b.StartTime.Unix(),
		"end":         b.EndTime.Unix(),
	})
}

func eventKey(target domain.BookingStatus) string {
	switch target {
	case domain.StatusConfirmed:
		return "booking.confirmed"
	case domain.StatusRejected:
		return "booking.rejected"
	case domain.StatusCancelled:
		return "booking.cancelled"
	case domain.StatusCompleted:
		return "booking.completed"
	case domain.StatusExpired:
		return "booking.expired"
	default:
		return "booking.updated"
	}
}
