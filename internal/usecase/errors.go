package usecase

import (
	"errors"
	"fmt"

	"clinic-booking/internal/data/entity"
	"clinic-booking/internal/data/repository"
)

var (
	ErrUnauthenticated   = errors.New("authentication required")
	ErrForbidden         = errors.New("not allowed to access this appointment")
	ErrNotFound          = errors.New("appointment not found")
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrInvalidSlot       = errors.New("invalid slot")
	ErrInvalidInput      = errors.New("invalid input")
	ErrSlotTaken         = errors.New("slot already taken")
	ErrIllegalTransition = errors.New("illegal transition")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

// TransitionError reports a rejected status or payment change. To is the
// requested status for confirm, cancel and complete, otherwise the action
// name. It matches ErrIllegalTransition with errors.Is.
type TransitionError struct {
	From entity.AppointmentStatus
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}

func illegal(from entity.AppointmentStatus, action Action) error {
	return &TransitionError{From: from, To: requested(action)}
}

func requested(action Action) string {
	switch action {
	case ActionConfirm:
		return string(entity.StatusConfirmed)
	case ActionCancel:
		return string(entity.StatusCancelled)
	case ActionComplete:
		return string(entity.StatusCompleted)
	}
	return string(action)
}

// storeError classifies a repository failure, keeping the cause in the chain.
func storeError(op string, err error) error {
	if errors.Is(err, repository.ErrUnavailable) {
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
