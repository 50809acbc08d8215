package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/justinhsu1477/Pet-sub000/internal/domain"
)

// memDB backs the store fakes the way one *gorm.DB backs the real repos. The
// mutex stands in for row locks: CreateLocked and TransitionLocked hold it for
// their whole critical section, so contention tests see real serialization.
type memDB struct {
	mu       sync.Mutex
	seq      int
	bookings map[string]*domain.Booking
	sitters  map[string]*domain.SitterProfile
	pets     map[string]*domain.Pet
	ratings  map[string]*domain.Rating
}

func newMemDB() *memDB {
	return &memDB{
		bookings: map[string]*domain.Booking{},
		sitters:  map[string]*domain.SitterProfile{},
		pets:     map[string]*domain.Pet{},
		ratings:  map[string]*domain.Rating{},
	}
}

func (db *memDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s-%d", prefix, db.seq)
}

func (db *memDB) countOverlappingLocked(sitterID string, start, end time.Time, excludeID string) int64 {
	var n int64
	for _, b := range db.bookings {
		if b.SitterID != sitterID || !b.Status.Active() || b.ID == excludeID {
			continue
		}
		if b.Overlaps(start, end) {
			n++
		}
	}
	return n
}

func rawWeighted(r *domain.Rating) float64 {
	return float64(r.Overall)*domain.WeightOverall +
		float64(r.Professionalism)*domain.WeightProfessionalism +
		float64(r.Communication)*domain.WeightCommunication +
		float64(r.Punctuality)*domain.WeightPunctuality
}

func (db *memDB) ratingAggLocked(sitterID string) (avg float64, count int64) {
	var sum float64
	for _, r := range db.ratings {
		if r.SitterID != sitterID {
			continue
		}
		sum += rawWeighted(r)
		count++
	}
	if count > 0 {
		avg = sum / float64(count)
	}
	return avg, count
}

func cloneBooking(b *domain.Booking) *domain.Booking { c := *b; return &c }
func cloneSitter(s *domain.SitterProfile) *domain.SitterProfile {
	c := *s
	return &c
}
func cloneRating(r *domain.Rating) *domain.Rating { c := *r; return &c }

// fakeBookingStore implements BookingStore.

type fakeBookingStore struct{ db *memDB }

func (f *fakeBookingStore) ByID(_ context.Context, id string) (*domain.Booking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	b, ok := f.db.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (f *fakeBookingStore) CountOverlapping(_ context.Context, sitterID string, start, end time.Time, excludeID string) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return f.db.countOverlappingLocked(sitterID, start, end, excludeID), nil
}

func (f *fakeBookingStore) CreateLocked(_ context.Context, b *domain.Booking) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.sitters[b.SitterID]; !ok {
		return domain.ErrNotFound
	}
	if f.db.countOverlappingLocked(b.SitterID, b.StartTime, b.EndTime, "") > 0 {
		return domain.ErrConflict
	}
	if b.ID == "" {
		b.ID = f.db.nextID("bk")
	}
	b.Status = domain.StatusPending
	b.Version = 1
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	f.db.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (f *fakeBookingStore) SaveVersioned(_ context.Context, b *domain.Booking, expected int64, completed bool) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	stored, ok := f.db.bookings[b.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != expected {
		return domain.ErrStaleVersion
	}
	stored.Status = b.Status
	stored.Notes = b.Notes
	stored.SitterResponse = b.SitterResponse
	stored.Version = expected + 1
	stored.UpdatedAt = time.Now().UTC()
	b.Version = stored.Version
	if completed {
		s, ok := f.db.sitters[stored.SitterID]
		if !ok {
			return domain.ErrNotFound
		}
		s.CompletedBookings++
	}
	return nil
}

type memView struct{ db *memDB }

func (v memView) CountOverlapping(_ context.Context, sitterID string, start, end time.Time, excludeID string) (int64, error) {
	return v.db.countOverlappingLocked(sitterID, start, end, excludeID), nil
}

func (f *fakeBookingStore) TransitionLocked(_ context.Context, id string, fn func(v domain.TimelineView, b *domain.Booking) error) (*domain.Booking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	stored, ok := f.db.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	b := cloneBooking(stored)
	before := b.Status
	if err := fn(memView{db: f.db}, b); err != nil {
		return nil, err
	}
	b.Version = stored.Version + 1
	b.UpdatedAt = time.Now().UTC()
	f.db.bookings[id] = cloneBooking(b)
	if before != domain.StatusCompleted && b.Status == domain.StatusCompleted {
		s, ok := f.db.sitters[b.SitterID]
		if !ok {
			return nil, domain.ErrNotFound
		}
		s.CompletedBookings++
	}
	return b, nil
}

func (f *fakeBookingStore) ListExpirable(_ context.Context, now time.Time, limit int) ([]domain.Booking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []domain.Booking
	for _, b := range f.db.bookings {
		if b.Status == domain.StatusPending && !b.StartTime.After(now) {
			out = append(out, *cloneBooking(b))
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// fakeSitterStore implements SitterStore.

type fakeSitterStore struct{ db *memDB }

func (f *fakeSitterStore) ByID(_ context.Context, id string) (*domain.SitterProfile, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.sitters[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneSitter(s), nil
}

func (f *fakeSitterStore) Reconcile(_ context.Context, sitterID string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.sitters[sitterID]
	if !ok {
		return domain.ErrNotFound
	}
	var completed int64
	for _, b := range f.db.bookings {
		if b.SitterID == sitterID && b.Status == domain.StatusCompleted {
			completed++
		}
	}
	avg, count := f.db.ratingAggLocked(sitterID)
	s.CompletedBookings = completed
	s.AverageRating = domain.Round2(avg)
	s.RatingCount = count
	return nil
}

func (f *fakeSitterStore) ReconcileAll(ctx context.Context) (int, error) {
	f.db.mu.Lock()
	ids := make([]string, 0, len(f.db.sitters))
	for id := range f.db.sitters {
		ids = append(ids, id)
	}
	f.db.mu.Unlock()
	for _, id := range ids {
		if err := f.Reconcile(ctx, id); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

// fakePetStore implements PetStore.

type fakePetStore struct{ db *memDB }

func (f *fakePetStore) ByID(_ context.Context, id string) (*domain.Pet, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.pets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *p
	return &c, nil
}

// fakeRatingStore implements RatingStore.

type fakeRatingStore struct{ db *memDB }

func (f *fakeRatingStore) ByID(_ context.Context, id string) (*domain.Rating, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	r, ok := f.db.ratings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneRating(r), nil
}

func (f *fakeRatingStore) ExistsForBooking(_ context.Context, bookingID string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, r := range f.db.ratings {
		if r.BookingID == bookingID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRatingStore) Create(_ context.Context, r *domain.Rating) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, have := range f.db.ratings {
		if have.BookingID == r.BookingID {
			return domain.ErrDuplicateRating
		}
	}
	s, ok := f.db.sitters[r.SitterID]
	if !ok {
		return domain.ErrNotFound
	}
	if r.ID == "" {
		r.ID = f.db.nextID("rt")
	}
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	f.db.ratings[r.ID] = cloneRating(r)
	avg, count := f.db.ratingAggLocked(r.SitterID)
	s.AverageRating = domain.Round2(avg)
	s.RatingCount = count
	return nil
}

func (f *fakeRatingStore) Reply(_ context.Context, ratingID, reply string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	r, ok := f.db.ratings[ratingID]
	if !ok {
		return domain.ErrNotFound
	}
	r.SitterReply = reply
	return nil
}

func (f *fakeRatingStore) WeightedAverage(_ context.Context, sitterID string) (float64, int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	avg, count := f.db.ratingAggLocked(sitterID)
	return avg, count, nil
}

func (f *fakeRatingStore) CountByStars(_ context.Context, sitterID string) (map[int]int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, r := range f.db.ratings {
		if r.SitterID == sitterID {
			out[r.Overall]++
		}
	}
	return out, nil
}

func (f *fakeRatingStore) CategoryAverages(_ context.Context, sitterID string) (domain.CategoryAverages, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var sums [4]float64
	var n float64
	for _, r := range f.db.ratings {
		if r.SitterID != sitterID {
			continue
		}
		sums[0] += float64(r.Overall)
		sums[1] += float64(r.Professionalism)
		sums[2] += float64(r.Communication)
		sums[3] += float64(r.Punctuality)
		n++
	}
	if n == 0 {
		return domain.CategoryAverages{}, nil
	}
	return domain.CategoryAverages{
		Overall:         domain.Round2(sums[0] / n),
		Professionalism: domain.Round2(sums[1] / n),
		Communication:   domain.Round2(sums[2] / n),
		Punctuality:     domain.Round2(sums[3] / n),
	}, nil
}

// fakePub records published event keys.

type fakePub struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakePub) PublishJSON(_ context.Context, key string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return nil
}

// fixture wires the fakes into the services under test. Sitter "s1" and pet
// "p1" (owned by customer "c1") exist from the start.
type fixture struct {
	db       *memDB
	bookings *fakeBookingStore
	sitters  *fakeSitterStore
	pets     *fakePetStore
	ratings  *fakeRatingStore
	pub      *fakePub
	svc      *BookingSvc
	ratesvc  *RatingSvc
}

func newFixture() *fixture {
	db := newMemDB()
	db.sitters["s1"] = &domain.SitterProfile{ID: "s1", DisplayName: "Sam"}
	db.pets["p1"] = &domain.Pet{ID: "p1", OwnerID: "c1", Name: "Rex", Kind: domain.PetDog}
	fx := &fixture{
		db:       db,
		bookings: &fakeBookingStore{db: db},
		sitters:  &fakeSitterStore{db: db},
		pets:     &fakePetStore{db: db},
		ratings:  &fakeRatingStore{db: db},
		pub:      &fakePub{},
	}
	fx.svc = NewBookingSvc(fx.bookings, fx.sitters, fx.pets, fx.pub, 0)
	fx.ratesvc = NewRatingSvc(fx.ratings, fx.bookings, fx.sitters, fx.pub)
	return fx
}

// seedBooking bypasses the service to place a booking in a given state.
func (fx *fixture) seedBooking(id string, status domain.BookingStatus, start, end time.Time) *domain.Booking {
	b := &domain.Booking{
		ID:         id,
		PetID:      "p1",
		SitterID:   "s1",
		CustomerID: "c1",
		StartTime:  start,
		EndTime:    end,
		Status:     status,
		Version:    1,
	}
	fx.db.mu.Lock()
	fx.db.bookings[id] = cloneBooking(b)
	fx.db.mu.Unlock()
	return b
}
