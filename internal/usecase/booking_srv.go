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
	"clinic-booking/pkg/redislock"
	"clinic-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	BookAppointment(ctx context.Context, caller entity.Principal, req *request.BookAppointmentRequest) (*response.AppointmentResponse, error)
	AvailableSlots(ctx context.Context, caller entity.Principal, doctorID, date string) (*response.AvailableSlotsResponse, error)
}

type bookingService struct {
	repo   *repository.Repository
	locker redislock.Locker
	loc    *time.Location
	now    func() time.Time
	log    *zap.Logger
}

func NewBookingService(repo *repository.Repository, locker redislock.Locker, loc *time.Location, log *zap.Logger) BookingService {
	if locker == nil {
		locker = redislock.Noop{}
	}
	return &bookingService{
		repo:   repo,
		locker: locker,
		loc:    loc,
		now:    time.Now,
		log:    log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) BookAppointment(ctx context.Context, caller entity.Principal, req *request.BookAppointmentRequest) (*response.AppointmentResponse, error) {
	if !caller.Valid() {
		return nil, ErrUnauthenticated
	}
	if !caller.IsPatient() {
		return nil, fmt.Errorf("book appointment as %s: %w", caller.Role, ErrForbidden)
	}

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Book appointment validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, utils.FormatValidationErrors(errs))
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("%w: doctor id %q", ErrInvalidInput, req.DoctorID)
	}

	date, err := s.bookableDate(req.Date, req.Time)
	if err != nil {
		s.log.Warn("Rejected slot",
			zap.String("date", req.Date),
			zap.String("time", req.Time),
			zap.Error(err),
		)
		return nil, err
	}

	doctor, err := s.repo.Doctor.FindByID(ctx, doctorID)
	if err != nil {
		return nil, storeError("find doctor", err)
	}
	if doctor == nil || !doctor.Active {
		return nil, fmt.Errorf("doctor %s: %w", doctorID, ErrDoctorNotFound)
	}

	appointment := &entity.Appointment{
		Base:          entity.Base{ID: uuid.New()},
		PatientID:     caller.ID,
		Doctor:        doctor.Snapshot(),
		ScheduledDate: date,
		ScheduledTime: req.Time,
		Status:        entity.StatusPending,
		PaymentStatus: entity.PaymentStatusPending,
		PaymentMethod: entity.PaymentMethodUnset,
		Notes:         req.Notes,
	}

	if err := s.reserve(ctx, appointment); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			s.log.Warn("Slot already taken",
				zap.String("doctor_id", doctorID.String()),
				zap.String("date", req.Date),
				zap.String("time", req.Time),
			)
		}
		return nil, err
	}

	s.log.Info("Appointment booked",
		zap.String("appointment_id", appointment.ID.String()),
		zap.String("patient_id", caller.ID.String()),
		zap.String("doctor_id", doctorID.String()),
		zap.String("date", req.Date),
		zap.String("time", req.Time),
	)

	return response.NewAppointmentResponse(appointment), nil
}

// bookableDate checks the slot label and that the date lies strictly after
// today in the clinic timezone. It touches no store.
func (s *bookingService) bookableDate(rawDate, slot string) (time.Time, error) {
	if !IsBookableSlot(slot) {
		return time.Time{}, fmt.Errorf("%w: time %q is not a bookable slot", ErrInvalidSlot, slot)
	}

	date, err := utils.ParseDate(rawDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidSlot, rawDate)
	}

	today := utils.DateOf(s.now(), s.loc)
	if !date.After(today) {
		return time.Time{}, fmt.Errorf("%w: date %s is not after %s", ErrInvalidSlot, rawDate, utils.FormatDate(today))
	}

	return date, nil
}

// reserve runs the conflict check and the insert under the slot lock. The
// unique index is authoritative: a lock held elsewhere or a failing lock
// backend falls through to the store, which decides the slot.
func (s *bookingService) reserve(ctx context.Context, a *entity.Appointment) error {
	key := slotKey(a.Doctor.DoctorID, a.ScheduledDate, a.ScheduledTime)

	err := s.locker.WithLock(ctx, key, func(ctx context.Context) error {
		return s.insertIfFree(ctx, a)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redislock.ErrLockNotAcquired):
		// the holder may still fail; only a stored booking refuses the slot
		s.log.Debug("Slot lock held elsewhere, deferring to store", zap.String("slot", key))
		return s.insertIfFree(ctx, a)
	case errors.Is(err, redislock.ErrLockUnavailable):
		s.log.Warn("Slot lock unavailable, relying on store constraint",
			zap.String("slot", key),
			zap.Error(err),
		)
		return s.insertIfFree(ctx, a)
	}
	return err
}

func (s *bookingService) insertIfFree(ctx context.Context, a *entity.Appointment) error {
	existing, err := s.repo.Appointment.FindConflicting(ctx, a.Doctor.DoctorID, a.ScheduledDate, a.ScheduledTime)
	if err != nil {
		return storeError("check slot", err)
	}
	if existing != nil {
		return ErrSlotTaken
	}

	if err := s.repo.Appointment.Insert(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlot) {
			return ErrSlotTaken
		}
		return storeError("insert appointment", err)
	}
	return nil
}

func slotKey(doctorID uuid.UUID, date time.Time, slot string) string {
	return doctorID.String() + ":" + utils.FormatDate(date) + ":" + slot
}

func (s *bookingService) AvailableSlots(ctx context.Context, caller entity.Principal, doctorID, rawDate string) (*response.AvailableSlotsResponse, error) {
	if !caller.Valid() {
		return nil, ErrUnauthenticated
	}

	id, err := uuid.Parse(doctorID)
	if err != nil {
		return nil, fmt.Errorf("%w: doctor id %q", ErrInvalidInput, doctorID)
	}
	date, err := utils.ParseDate(rawDate)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q", ErrInvalidInput, rawDate)
	}

	doctor, err := s.repo.Doctor.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("find doctor", err)
	}
	if doctor == nil || !doctor.Active {
		return nil, fmt.Errorf("doctor %s: %w", id, ErrDoctorNotFound)
	}

	booked, err := s.repo.Appointment.FindBookedSlots(ctx, id, date)
	if err != nil {
		return nil, storeError("find booked slots", err)
	}
	taken := make(map[string]bool, len(booked))
	for _, slot := range booked {
		taken[slot] = true
	}

	// past and current days have nothing left to book
	open := date.After(utils.DateOf(s.now(), s.loc))

	slots := make([]response.SlotResponse, 0, len(Slots))
	for _, slot := range Slots {
		slots = append(slots, response.SlotResponse{
			Time:      slot,
			Available: open && !taken[slot],
		})
	}

	return &response.AvailableSlotsResponse{
		DoctorID: id.String(),
		Date:     utils.FormatDate(date),
		Slots:    slots,
	}, nil
}
