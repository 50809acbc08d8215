package service

import (
	"context"

	"github.com/justinhsu1477/Pet-sub000/internal/domain"
)

type RatingSvc struct {
	ratings  RatingStore
	bookings BookingStore
	sitters  SitterStore
	pub      EventPublisher
}

func NewRatingSvc(ratings RatingStore, bookings BookingStore, sitters SitterStore, pub EventPublisher) *RatingSvc {
	return &RatingSvc{ratings: ratings, bookings: bookings, sitters: sitters, pub: pub}
}

type SubmitRatingInput struct {
	BookingID       string
	CustomerID      string
	Overall         int
	Professionalism int
	Communication   int
	Punctuality     int
	Comment         string
	Anonymous       bool
}

// Submit records a rating for a completed booking and refreshes the sitter's
// denormalized average and count. The insert and the aggregate write share one
// transaction in the store.
func (s *RatingSvc) Submit(ctx context.Context, in SubmitRatingInput) (*domain.Rating, error) {
	b, err := s.bookings.ByID(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.StatusCompleted {
		return nil, domain.ErrNotCompleted
	}
	if b.CustomerID != in.CustomerID {
		return nil, domain.ErrUnauthorized
	}
	exists, err := s.ratings.ExistsForBooking(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateRating
	}

	r := &domain.Rating{
		BookingID:       in.BookingID,
		SitterID:        b.SitterID,
		CustomerID:      in.CustomerID,
		Overall:         in.Overall,
		Professionalism: in.Professionalism,
		Communication:   in.Communication,
		Punctuality:     in.Punctuality,
		Comment:         in.Comment,
		Anonymous:       in.Anonymous,
	}
	r.FillDefaults()
	if !r.ValidScores() {
		return nil, domain.ErrInvalidRating
	}

	if err := s.ratings.Create(ctx, r); err != nil {
		return nil, err
	}

	if s.pub != nil {
		_ = s.pub.PublishJSON(ctx, "rating.created", map[string]any{
			"rating_id":  r.ID,
			"booking_id": r.BookingID,
			"sitter_id":  r.SitterID,
			"overall":    r.Overall,
			"score":      r.WeightedScore(),
		})
	}
	return r, nil
}

// Reply sets the sitter's reply on a rating. Only that rating's sitter may do
// so; the reply is the one mutable field a rating has.
func (s *RatingSvc) Reply(ctx context.Context, ratingID, sitterID, reply string) (*domain.Rating, error) {
	r, err := s.ratings.ByID(ctx, ratingID)
	if err != nil {
		return nil, err
	}
	if r.SitterID != sitterID {
		return nil, domain.ErrUnauthorized
	}
	if err := s.ratings.Reply(ctx, ratingID, reply); err != nil {
		return nil, err
	}
	r.SitterReply = reply
	return r, nil
}

// Stats summarizes a sitter's ratings: weighted average, per-category
// averages, total count and the star distribution with all five buckets
// present.
func (s *RatingSvc) Stats(ctx context.Context, sitterID string) (*domain.RatingStats, error) {
	if _, err := s.sitters.ByID(ctx, sitterID); err != nil {
		return nil, err
	}
	avg, count, err := s.ratings.WeightedAverage(ctx, sitterID)
	if err != nil {
		return nil, err
	}
	cats, err := s.ratings.CategoryAverages(ctx, sitterID)
	if err != nil {
		return nil, err
	}
	stars, err := s.ratings.CountByStars(ctx, sitterID)
	if err != nil {
		return nil, err
	}
	for star := 1; star <= 5; star++ {
		if _, ok := stars[star]; !ok {
			stars[star] = 0
		}
	}
	return &domain.RatingStats{
		Average:          domain.Round2(avg),
		PerCategory:      cats,
		TotalCount:       count,
		StarDistribution: stars,
	}, nil
}

// Reconcile rebuilds one sitter's denormalized counters from the source
// tables.
func (s *RatingSvc) Reconcile(ctx context.Context, sitterID string) error {
	return s.sitters.Reconcile(ctx, sitterID)
}
