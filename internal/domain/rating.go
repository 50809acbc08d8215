package domain

import (
	"math"
	"time"
)

// Weighted-score coefficients, summing to 1.0. The SQL aggregate in the rating
// repository must use the same numbers; WeightedScore is the single in-process
// source for per-rating display values.
const (
	WeightOverall         = 0.40
	WeightProfessionalism = 0.25
	WeightCommunication   = 0.20
	WeightPunctuality     = 0.15
)

// Rating evaluates one completed booking. At most one rating exists per
// booking. Sub-scores are 1..5; professionalism, communication and punctuality
// default to the overall score when not provided. SitterReply is the only
// field that may change after creation.
type Rating struct {
	ID              string `gorm:"primaryKey"`
	BookingID       string `gorm:"uniqueIndex"`
	SitterID        string `gorm:"index"`
	CustomerID      string `gorm:"index"`
	Overall         int
	Professionalism int
	Communication   int
	Punctuality     int
	Comment         string
	SitterReply     string
	Anonymous       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FillDefaults copies the overall score into any unset optional sub-score.
func (r *Rating) FillDefaults() {
	if r.Professionalism == 0 {
		r.Professionalism = r.Overall
	}
	if r.Communication == 0 {
		r.Communication = r.Overall
	}
	if r.Punctuality == 0 {
		r.Punctuality = r.Overall
	}
}

// ValidScores reports whether all sub-scores are inside 1..5. Call after
// FillDefaults.
func (r *Rating) ValidScores() bool {
	for _, v := range []int{r.Overall, r.Professionalism, r.Communication, r.Punctuality} {
		if v < 1 || v > 5 {
			return false
		}
	}
	return true
}

// WeightedScore computes the composite score for a single rating, rounded
// half-up to 2 decimals.
func (r *Rating) WeightedScore() float64 {
	s := float64(r.Overall)*WeightOverall +
		float64(r.Professionalism)*WeightProfessionalism +
		float64(r.Communication)*WeightCommunication +
		float64(r.Punctuality)*WeightPunctuality
	return Round2(s)
}

// Round2 rounds half-up to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RatingStats is the read model for a sitter's rating summary. StarDistribution
// always carries all five buckets, zero-filled when empty.
type RatingStats struct {
	Average          float64
	PerCategory      CategoryAverages
	TotalCount       int64
	StarDistribution map[int]int64
}

type CategoryAverages struct {
	Overall         float64
	Professionalism float64
	Communication   float64
	Punctuality     float64
}
