package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/justinhsu1477/Pet-sub000/internal/domain"
)

type BookingRepo struct{ db *gorm.DB }

func NewBookingRepo(db *gorm.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

func (r *BookingRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.Booking{})
}

func (r *BookingRepo) ByID(ctx context.Context, id string) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// CountOverlapping counts active bookings on the sitter's timeline colliding
// with [start, end). Half-open overlap: adjacent windows do not collide.
func (r *BookingRepo) CountOverlapping(ctx context.Context, sitterID string, start, end time.Time, excludeID string) (int64, error) {
	return countOverlapping(r.db.WithContext(ctx), sitterID, start, end, excludeID)
}

func countOverlapping(tx *gorm.DB, sitterID string, start, end time.Time, excludeID string) (int64, error) {
	qb := tx.Model(&domain.Booking{}).
		Where("sitter_id = ? AND status IN ?", sitterID, domain.ActiveStatuses).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludeID != "" {
		qb = qb.Where("id <> ?", excludeID)
	}
	var n int64
	if err := qb.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// CreateLocked inserts a PENDING booking after serializing on the sitter row.
// The sitter's timeline is the shared resource: a new booking has no version of
// its own yet, so every creator takes the sitter lock before the overlap check.
func (r *BookingRepo) CreateLocked(ctx context.Context, b *domain.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sitter domain.SitterProfile
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&sitter, "id = ?", b.SitterID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		n, err := countOverlapping(tx, b.SitterID, b.StartTime, b.EndTime, "")
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrConflict
		}

		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		b.Status = domain.StatusPending
		b.Version = 1
		return tx.Create(b).Error
	})
}

// SaveVersioned is the optimistic conditional write: it persists b's mutable
// fields only if the stored version still equals expected, bumping the version
// by exactly 1. completed marks a transition into COMPLETED so the sitter
// counter moves in the same transaction.
func (r *BookingRepo) SaveVersioned(ctx context.Context, b *domain.Booking, expected int64, completed bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.Model(&domain.Booking{}).
			Where("id = ? AND version = ?", b.ID, expected).
			Updates(map[string]any{
				"status":          b.Status,
				"notes":           b.Notes,
				"sitter_response": b.SitterResponse,
				"version":         expected + 1,
				"updated_at":      now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&domain.Booking{}).Where("id = ?", b.ID).Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return domain.ErrNotFound
			}
			return domain.ErrStaleVersion
		}
		b.Version = expected + 1
		b.UpdatedAt = now
		if completed {
			return incrementCompleted(tx, b.SitterID)
		}
		return nil
	})
}

// TransitionLocked is the pessimistic path: the booking row and then the
// sitter row are locked FOR UPDATE, so fn's validation (including the conflict
// re-check through the transaction-scoped TimelineView) runs against a
// snapshot no creator or other transitioner can race. fn mutates b in place;
// version still advances by 1 so both paths leave identical records behind.
func (r *BookingRepo) TransitionLocked(ctx context.Context, id string, fn func(v domain.TimelineView, b *domain.Booking) error) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b domain.Booking
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&b, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		var sitter domain.SitterProfile
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&sitter, "id = ?", b.SitterID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		before := b.Status
		if err := fn(txView{tx: tx}, &b); err != nil {
			return err
		}
		b.Version++
		b.UpdatedAt = time.Now().UTC()
		if err := tx.Save(&b).Error; err != nil {
			return err
		}
		if before != domain.StatusCompleted && b.Status == domain.StatusCompleted {
			if err := incrementCompleted(tx, b.SitterID); err != nil {
				return err
			}
		}
		out = &b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListExpirable returns PENDING bookings whose window has already started.
func (r *BookingRepo) ListExpirable(ctx context.Context, now time.Time, limit int) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_time <= ?", domain.StatusPending, now).
		Order("start_time ASC").Limit(limit).Find(&out).Error
	return out, err
}

func incrementCompleted(tx *gorm.DB, sitterID string) error {
	res := tx.Model(&domain.SitterProfile{}).
		Where("id = ?", sitterID).
		UpdateColumn("completed_bookings", gorm.Expr("completed_bookings + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// txView exposes overlap counting against the open transaction. The context
// is already bound to tx, so the argument is ignored.
type txView struct{ tx *gorm.DB }

func (v txView) CountOverlapping(_ context.Context, sitterID string, start, end time.Time, excludeID string) (int64, error) {
	return countOverlapping(v.tx, sitterID, start, end, excludeID)
}
