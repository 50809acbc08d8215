package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/justinhsu1477/Pet-sub000/internal/domain"
)

// weightedExpr mirrors domain.WeightedScore; keep the coefficients in sync so
// a single rating's displayed score and the stored aggregate cannot drift.
const weightedExpr = "overall * 0.40 + professionalism * 0.25 + communication * 0.20 + punctuality * 0.15"

type RatingRepo struct{ db *gorm.DB }

func NewRatingRepo(db *gorm.DB) *RatingRepo {
	return &RatingRepo{db: db}
}

func (r *RatingRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.Rating{})
}

func (r *RatingRepo) ExistsForBooking(ctx context.Context, bookingID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Rating{}).
		Where("booking_id = ?", bookingID).Count(&n).Error
	return n > 0, err
}

// Create inserts the rating and refreshes the sitter's denormalized average
// and count in the same transaction, so the profile never reflects a rating
// that failed to persist (or the other way round).
func (r *RatingRepo) Create(ctx context.Context, rat *domain.Rating) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if rat.ID == "" {
			rat.ID = uuid.NewString()
		}
		if err := tx.Create(rat).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrDuplicateRating
			}
			return err
		}

		avg, count, err := weightedAverage(tx, rat.SitterID)
		if err != nil {
			return err
		}
		res := tx.Model(&domain.SitterProfile{}).
			Where("id = ?", rat.SitterID).
			Updates(map[string]any{
				"average_rating": domain.Round2(avg),
				"rating_count":   count,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// Reply sets the sitter's reply, the one mutable rating field.
func (r *RatingRepo) Reply(ctx context.Context, ratingID, reply string) error {
	res := r.db.WithContext(ctx).Model(&domain.Rating{}).
		Where("id = ?", ratingID).Update("sitter_reply", reply)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RatingRepo) ByID(ctx context.Context, id string) (*domain.Rating, error) {
	var rat domain.Rating
	if err := r.db.WithContext(ctx).First(&rat, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rat, nil
}

func (r *RatingRepo) WeightedAverage(ctx context.Context, sitterID string) (float64, int64, error) {
	return weightedAverage(r.db.WithContext(ctx), sitterID)
}

func weightedAverage(tx *gorm.DB, sitterID string) (float64, int64, error) {
	var row struct {
		Avg   float64
		Count int64
	}
	err := tx.Model(&domain.Rating{}).
		Select("COALESCE(AVG("+weightedExpr+"), 0) AS avg, COUNT(*) AS count").
		Where("sitter_id = ?", sitterID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Avg, row.Count, nil
}

// CountByStars buckets the sitter's ratings by integer overall score. Missing
// buckets are filled with zero.
func (r *RatingRepo) CountByStars(ctx context.Context, sitterID string) (map[int]int64, error) {
	var rows []struct {
		Overall int
		N       int64
	}
	err := r.db.WithContext(ctx).Model(&domain.Rating{}).
		Select("overall, COUNT(*) AS n").
		Where("sitter_id = ?", sitterID).
		Group("overall").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, row := range rows {
		out[row.Overall] = row.N
	}
	return out, nil
}

func (r *RatingRepo) CategoryAverages(ctx context.Context, sitterID string) (domain.CategoryAverages, error) {
	var row struct {
		Overall         float64
		Professionalism float64
		Communication   float64
		Punctuality     float64
	}
	err := r.db.WithContext(ctx).Model(&domain.Rating{}).
		Select("COALESCE(AVG(overall), 0) AS overall, COALESCE(AVG(professionalism), 0) AS professionalism, COALESCE(AVG(communication), 0) AS communication, COALESCE(AVG(punctuality), 0) AS punctuality").
		Where("sitter_id = ?", sitterID).
		Scan(&row).Error
	if err != nil {
		return domain.CategoryAverages{}, err
	}
	return domain.CategoryAverages{
		Overall:         domain.Round2(row.Overall),
		Professionalism: domain.Round2(row.Professionalism),
		Communication:   domain.Round2(row.Communication),
		Punctuality:     domain.Round2(row.Punctuality),
	}, nil
}
