package repository

import (
	"errors"
)

var (
	// ErrDuplicateSlot is returned when the active-slot unique index rejects a write.
	ErrDuplicateSlot = errors.New("slot already has an active appointment")
	// ErrStatusMismatch is returned by Update when the stored status no longer
	// matches the expected one.
	ErrStatusMismatch = errors.New("appointment status changed concurrently")
	// ErrUnavailable wraps connectivity failures, deadline expiry and server
	// errors that clear on retry.
	ErrUnavailable = errors.New("store unavailable")
)

// unavailable tags err as transient while keeping it inspectable.
func unavailable(err error) error {
	return errors.Join(ErrUnavailable, err)
}
