package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic-booking/internal/data/entity"
	"clinic-booking/internal/data/repository"
	"clinic-booking/internal/dto/request"
	"clinic-booking/internal/dto/response"
	"clinic-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LifecycleService interface {
	Confirm(ctx context.Context, caller entity.Principal, appointmentID string) (*response.AppointmentResponse, error)
	Cancel(ctx context.Context, caller entity.Principal, appointmentID string) (*response.AppointmentResponse, error)
	Complete(ctx context.Context, caller entity.Principal, appointmentID string) (*response.AppointmentResponse, error)
	UpdatePayment(ctx context.Context, caller entity.Principal, appointmentID string, req *request.UpdatePaymentRequest) (*response.AppointmentResponse, error)
	UpdateNotes(ctx context.Context, caller entity.Principal, appointmentID string, req *request.UpdateNotesRequest) (*response.AppointmentResponse, error)
}

// maxTransitionAttempts bounds the re-read loop when a concurrent writer
// moves the status between our read and our compare-and-set.
const maxTransitionAttempts = 3

type lifecycleService struct {
	repo *repository.Repository
	loc  *time.Location
	now  func() time.Time
	log  *zap.Logger
}

func NewLifecycleService(repo *repository.Repository, loc *time.Location, log *zap.Logger) LifecycleService {
	return &lifecycleService{
		repo: repo,
		loc:  loc,
		now:  time.Now,
		log:  log.With(zap.String("service", "lifecycle")),
	}
}

// planFunc decides the patch for the current state or rejects it.
type planFunc func(a *entity.Appointment) (entity.AppointmentPatch, error)

func statusPatch(to entity.AppointmentStatus) entity.AppointmentPatch {
	return entity.AppointmentPatch{Status: &to}
}

func (s *lifecycleService) Confirm(ctx context.Context, caller entity.Principal, appointmentID string) (*response.AppointmentResponse, error) {
	return s.apply(ctx, caller, appointmentID, ActionConfirm, func(a *entity.Appointment) (entity.AppointmentPatch, error) {
		if a.Status != entity.StatusPending {
			return entity.AppointmentPatch{}, illegal(a.Status, ActionConfirm)
		}
		return statusPatch(entity.StatusConfirmed), nil
	})
}

func (s *lifecycleService) Cancel(ctx context.Context, caller entity.Principal, appointmentID string) (*response.AppointmentResponse, error) {
	return s.apply(ctx, caller, appointmentID, ActionCancel, func(a *entity.Appointment) (entity.AppointmentPatch, error) {
		if !a.Status.Open() {
			return entity.AppointmentPatch{}, illegal(a.Status, ActionCancel)
		}
		return statusPatch(entity.StatusCancelled), nil
	})
}

func (s *lifecycleService) Complete(ctx context.Context, caller entity.Principal, appointmentID string) (*response.AppointmentResponse, error) {
	return s.apply(ctx, caller, appointmentID, ActionComplete, func(a *entity.Appointment) (entity.AppointmentPatch, error) {
		if a.Status != entity.StatusConfirmed {
			return entity.AppointmentPatch{}, illegal(a.Status, ActionComplete)
		}
		start, err := SlotStart(a.ScheduledDate, a.ScheduledTime, s.loc)
		if err != nil {
			return entity.AppointmentPatch{}, err
		}
		if start.After(s.now()) {
			return entity.AppointmentPatch{}, illegal(a.Status, ActionComplete)
		}
		return statusPatch(entity.StatusCompleted), nil
	})
}

func (s *lifecycleService) UpdatePayment(ctx context.Context, caller entity.Principal, appointmentID string, req *request.UpdatePaymentRequest) (*response.AppointmentResponse, error) {
	if !caller.Valid() {
		return nil, ErrUnauthenticated
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, utils.FormatValidationErrors(errs))
	}

	var patch entity.AppointmentPatch
	if req.PaymentStatus != nil {
		status := entity.PaymentStatus(*req.PaymentStatus)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: payment status %q", ErrInvalidInput, status)
		}
		patch.PaymentStatus = &status
	}
	if req.PaymentMethod != nil {
		method := entity.PaymentMethod(*req.PaymentMethod)
		if !method.Valid() {
			return nil, fmt.Errorf("%w: payment method %q", ErrInvalidInput, method)
		}
		patch.PaymentMethod = &method
	}
	if patch.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	return s.apply(ctx, caller, appointmentID, ActionPay, func(a *entity.Appointment) (entity.AppointmentPatch, error) {
		if !a.Status.Open() {
			return entity.AppointmentPatch{}, illegal(a.Status, ActionPay)
		}
		return patch, nil
	})
}

func (s *lifecycleService) UpdateNotes(ctx context.Context, caller entity.Principal, appointmentID string, req *request.UpdateNotesRequest) (*response.AppointmentResponse, error) {
	if !caller.Valid() {
		return nil, ErrUnauthenticated
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, utils.FormatValidationErrors(errs))
	}

	notes := req.Notes
	return s.apply(ctx, caller, appointmentID, ActionNotes, func(a *entity.Appointment) (entity.AppointmentPatch, error) {
		if !a.Status.Open() {
			return entity.AppointmentPatch{}, illegal(a.Status, ActionNotes)
		}
		return entity.AppointmentPatch{Notes: &notes}, nil
	})
}

// apply loads the appointment, authorizes the caller and writes the planned
// patch as a compare-and-set on the status that was read.
func (s *lifecycleService) apply(ctx context.Context, caller entity.Principal, appointmentID string, action Action, plan planFunc) (*response.AppointmentResponse, error) {
	if !caller.Valid() {
		return nil, ErrUnauthenticated
	}

	id, err := uuid.Parse(appointmentID)
	if err != nil {
		return nil, fmt.Errorf("%w: appointment id %q", ErrInvalidInput, appointmentID)
	}

	log := s.log.With(
		zap.String("appointment_id", id.String()),
		zap.String("action", string(action)),
		zap.String("caller_id", caller.ID.String()),
		zap.String("caller_role", string(caller.Role)),
	)

	for attempt := 1; ; attempt++ {
		current, err := s.repo.Appointment.FindByID(ctx, id)
		if err != nil {
			return nil, storeError("find appointment", err)
		}
		if current == nil {
			return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
		}

		if !AllowedActions(caller, current).Has(action) {
			log.Warn("Action forbidden")
			return nil, fmt.Errorf("%s appointment %s: %w", action, id, ErrForbidden)
		}

		patch, err := plan(current)
		if err != nil {
			log.Warn("Transition rejected",
				zap.String("status", string(current.Status)),
				zap.Error(err),
			)
			return nil, err
		}

		updated, err := s.repo.Appointment.Update(ctx, id, current.Status, patch)
		if errors.Is(err, repository.ErrStatusMismatch) {
			if attempt < maxTransitionAttempts {
				log.Debug("Status changed concurrently, re-reading", zap.Int("attempt", attempt))
				continue
			}
			return nil, s.contended(ctx, id, current.Status, action, log)
		}
		if err != nil {
			return nil, storeError("update appointment", err)
		}

		log.Info("Appointment updated",
			zap.String("from", string(current.Status)),
			zap.String("status", string(updated.Status)),
			zap.String("payment_status", string(updated.PaymentStatus)),
		)
		return response.NewAppointmentResponse(updated), nil
	}
}

// contended reports the status the store holds after the last lost
// compare-and-set. The read-time status is used only if the re-read fails.
func (s *lifecycleService) contended(ctx context.Context, id uuid.UUID, seen entity.AppointmentStatus, action Action, log *zap.Logger) error {
	latest, err := s.repo.Appointment.FindByID(ctx, id)
	if err != nil || latest == nil {
		log.Warn("Re-read after contention failed", zap.Error(err))
		return illegal(seen, action)
	}
	log.Warn("Gave up after concurrent status changes",
		zap.Int("attempts", maxTransitionAttempts),
		zap.String("status", string(latest.Status)),
	)
	return illegal(latest.Status, action)
}
