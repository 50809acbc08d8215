package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/justinhsu1477/Pet-sub000/internal/domain"
)

type SitterRepo struct{ db *gorm.DB }

func NewSitterRepo(db *gorm.DB) *SitterRepo {
	return &SitterRepo{db: db}
}

func (r *SitterRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.SitterProfile{})
}

func (r *SitterRepo) Create(ctx context.Context, s *domain.SitterProfile) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SitterRepo) ByID(ctx context.Context, id string) (*domain.SitterProfile, error) {
	var s domain.SitterProfile
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Reconcile rebuilds the sitter's denormalized counters from the booking and
// rating tables. The counters are a cache; this is the from-scratch recompute
// that makes them trustworthy again after any drift.
func (r *SitterRepo) Reconcile(ctx context.Context, sitterID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s domain.SitterProfile
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&s, "id = ?", sitterID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		var completed int64
		err = tx.Model(&domain.Booking{}).
			Where("sitter_id = ? AND status = ?", sitterID, domain.StatusCompleted).
			Count(&completed).Error
		if err != nil {
			return err
		}

		avg, count, err := weightedAverage(tx, sitterID)
		if err != nil {
			return err
		}

		return tx.Model(&domain.SitterProfile{}).
			Where("id = ?", sitterID).
			Updates(map[string]any{
				"completed_bookings": completed,
				"average_rating":     domain.Round2(avg),
				"rating_count":       count,
			}).Error
	})
}

// ReconcileAll walks every sitter profile. Used at boot when
// RECONCILE_ON_START is set.
func (r *SitterRepo) ReconcileAll(ctx context.Context) (int, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&domain.SitterProfile{}).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	for i, id := range ids {
		if err := r.Reconcile(ctx, id); err != nil {
			return i, err
		}
	}
	return len(ids), nil
}
