package service

import (
	"context"
	"time"

	"github.com/justinhsu1477/Pet-sub000/internal/domain"
)

// Storage collaborators the booking core requires. The gorm repositories in
// internal/repository satisfy these; tests use in-memory fakes.

type BookingStore interface {
	ByID(ctx context.Context, id string) (*domain.Booking, error)
	CountOverlapping(ctx context.Context, sitterID string, start, end time.Time, excludeBookingID string) (int64, error)
	CreateLocked(ctx context.Context, b *domain.Booking) error
	SaveVersioned(ctx context.Context, b *domain.Booking, expected int64, completed bool) error
	TransitionLocked(ctx context.Context, id string, fn func(v domain.TimelineView, b *domain.Booking) error) (*domain.Booking, error)
	ListExpirable(ctx context.Context, now time.Time, limit int) ([]domain.Booking, error)
}

type SitterStore interface {
	ByID(ctx context.Context, id string) (*domain.SitterProfile, error)
	Reconcile(ctx context.Context, sitterID string) error
	ReconcileAll(ctx context.Context) (int, error)
}

type PetStore interface {
	ByID(ctx context.Context, id string) (*domain.Pet, error)
}

type RatingStore interface {
	ByID(ctx context.Context, id string) (*domain.Rating, error)
	ExistsForBooking(ctx context.Context, bookingID string) (bool, error)
	Create(ctx context.Context, r *domain.Rating) error
	Reply(ctx context.Context, ratingID, reply string) error
	WeightedAverage(ctx context.Context, sitterID string) (float64, int64, error)
	CountByStars(ctx context.Context, sitterID string) (map[int]int64, error)
	CategoryAverages(ctx context.Context, sitterID string) (domain.CategoryAverages, error)
}

// EventPublisher receives lifecycle events. Publishing is best-effort; the
// core never fails a mutation over it.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}
