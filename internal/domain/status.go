package domain

type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusRejected  BookingStatus = "REJECTED"
	StatusCancelled BookingStatus = "CANCELLED"
	StatusCompleted BookingStatus = "COMPLETED"
	StatusExpired   BookingStatus = "EXPIRED"
)

// ActiveStatuses are the statuses that occupy a sitter's timeline.
// Only these participate in overlap checks.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed}

// transitions is the full status contract in one table. Terminal states
// (REJECTED, CANCELLED, COMPLETED, EXPIRED) have no outgoing edges.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusRejected, StatusCancelled, StatusExpired},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
	StatusRejected:  nil,
	StatusCancelled: nil,
	StatusCompleted: nil,
	StatusExpired:   nil,
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status ends the booking lifecycle.
func (s BookingStatus) Terminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// Active reports whether the status blocks the sitter's time window.
func (s BookingStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s BookingStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}
