package domain

import (
	"context"
	"time"
)

// TimelineView answers overlap queries against a sitter's active bookings.
// The booking repository satisfies it directly; the pessimistic transition
// path hands callbacks a transaction-scoped view so the check runs under the
// held locks.
type TimelineView interface {
	CountOverlapping(ctx context.Context, sitterID string, start, end time.Time, excludeBookingID string) (int64, error)
}

// HasConflict reports whether [start, end) collides with any of the sitter's
// PENDING or CONFIRMED bookings, excluding excludeBookingID when non-empty.
// Pure query; a clear timeline is not an error.
func HasConflict(ctx context.Context, v TimelineView, sitterID string, start, end time.Time, excludeBookingID string) (bool, error) {
	n, err := v.CountOverlapping(ctx, sitterID, start, end, excludeBookingID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
