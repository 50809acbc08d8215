package domain

import "time"

// SitterProfile carries the sitter's denormalized counters. They are a cache
// over the booking and rating tables and must stay reconstructible from them;
// the repository's Reconcile recomputes all three from scratch.
type SitterProfile struct {
	ID                string `gorm:"primaryKey"`
	DisplayName       string
	HourlyRate        int64 // cents
	CompletedBookings int64
	AverageRating     float64
	RatingCount       int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
