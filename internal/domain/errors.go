package domain

import "errors"

var (
	ErrNotFound          = errors.New("not_found")
	ErrInvalidTimeWindow = errors.New("invalid_time_window")
	ErrConflict          = errors.New("slot_conflict")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrStaleVersion      = errors.New("stale_version")
	ErrNotCompleted      = errors.New("booking_not_completed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrDuplicateRating   = errors.New("duplicate_rating")
	ErrInvalidRating     = errors.New("invalid_rating")
)
