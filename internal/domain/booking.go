package domain

import "time"

// Booking reserves a sitter's time window for one pet. StartTime/EndTime form a
// half-open interval [start, end): bookings touching at an endpoint do not
// overlap. Version is bumped by exactly 1 on every persisted mutation and is
// opaque to callers.
type Booking struct {
	ID             string        `gorm:"primaryKey"`
	PetID          string        `gorm:"index"`
	SitterID       string        `gorm:"index"`
	CustomerID     string        `gorm:"index"`
	StartTime      time.Time     `gorm:"index"`
	EndTime        time.Time     `gorm:"index"`
	Status         BookingStatus `gorm:"index"`
	Version        int64
	Notes          string
	SitterResponse string
	TotalPrice     int64 // cents
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Overlaps reports whether the booking's window collides with [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}
