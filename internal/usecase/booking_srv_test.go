package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"clinic-booking/internal/data/entity"
	"clinic-booking/internal/data/repository"
	"clinic-booking/internal/dto/request"
	"clinic-booking/pkg/redislock"

	"github.com/google/uuid"
)

func bookReq(doctor entity.Doctor, date, slot string) *request.BookAppointmentRequest {
	return &request.BookAppointmentRequest{DoctorID: doctor.ID.String(), Date: date, Time: slot}
}

func TestBookAppointment_CreatesPendingSnapshot(t *testing.T) {
	c := newCore(t)
	ctx := context.Background()

	req := bookReq(dr1, "2030-01-10", "09:00")
	req.Notes = "first visit"

	got, err := c.booking.BookAppointment(ctx, patientP, req)
	if err != nil {
		t.Fatalf("BookAppointment: %v", err)
	}

	if got.Status != entity.StatusPending || got.PaymentStatus != entity.PaymentStatusPending || got.PaymentMethod != entity.PaymentMethodUnset {
		t.Fatalf("unexpected initial state: %+v", got)
	}
	if got.PatientID != patientP.ID.String() {
		t.Errorf("patient = %s, want %s", got.PatientID, patientP.ID)
	}
	if got.ScheduledDate != "2030-01-10" || got.ScheduledTime != "09:00" {
		t.Errorf("slot = %s %s", got.ScheduledDate, got.ScheduledTime)
	}
	if got.Doctor.Name != dr1.Name || got.Doctor.Fee != "50.00" {
		t.Errorf("snapshot = %+v", got.Doctor)
	}
	if got.Notes != "first visit" {
		t.Errorf("notes = %q", got.Notes)
	}

	// later directory edits do not reach the stored snapshot
	changed := dr1
	changed.Fee = changed.Fee.Add(changed.Fee)
	c.doctors.items[dr1.ID] = changed

	stored, _ := c.appointments.FindByID(ctx, uuid.MustParse(got.ID))
	if !stored.Doctor.Fee.Equal(dr1.Fee) {
		t.Errorf("snapshot fee changed to %s", stored.Doctor.Fee)
	}
}

func TestBookAppointment_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		caller entity.Principal
		req    *request.BookAppointmentRequest
		want   error
	}{
		{"no identity", entity.Principal{}, bookReq(dr1, "2030-01-10", "09:00"), ErrUnauthenticated},
		{"doctor cannot book", doctor1, bookReq(dr1, "2030-01-10", "09:00"), ErrForbidden},
		{"admin cannot book", admin, bookReq(dr1, "2030-01-10", "09:00"), ErrForbidden},
		{"lunch blackout", patientP, bookReq(dr1, "2030-01-10", "12:00"), ErrInvalidSlot},
		{"after hours", patientP, bookReq(dr1, "2030-01-10", "17:30"), ErrInvalidSlot},
		{"off the half hour", patientP, bookReq(dr1, "2030-01-10", "09:15"), ErrInvalidSlot},
		{"today", patientP, bookReq(dr1, "2029-12-01", "16:00"), ErrInvalidSlot},
		{"yesterday", patientP, bookReq(dr1, "2029-11-30", "09:00"), ErrInvalidSlot},
		{"malformed date", patientP, bookReq(dr1, "10/01/2030", "09:00"), ErrInvalidInput},
		{"malformed doctor id", patientP, &request.BookAppointmentRequest{DoctorID: "dr1", Date: "2030-01-10", Time: "09:00"}, ErrInvalidInput},
		{"unknown doctor", patientP, &request.BookAppointmentRequest{DoctorID: uuid.NewString(), Date: "2030-01-10", Time: "09:00"}, ErrDoctorNotFound},
		{"inactive doctor", patientP, bookReq(retired, "2030-01-10", "09:00"), ErrDoctorNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCore(t)
			_, err := c.booking.BookAppointment(context.Background(), tt.caller, tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if len(c.appointments.items) != 0 {
				t.Fatalf("rejected booking wrote %d records", len(c.appointments.items))
			}
		})
	}
}

func TestBookAppointment_SlotValidationSkipsStore(t *testing.T) {
	c := newCore(t)

	_, err := c.booking.BookAppointment(context.Background(), patientP, bookReq(dr1, "2029-11-01", "09:00"))
	if !errors.Is(err, ErrInvalidSlot) {
		t.Fatalf("err = %v, want ErrInvalidSlot", err)
	}
	if c.doctors.calls != 0 {
		t.Fatalf("directory consulted %d times before slot validation", c.doctors.calls)
	}
}

func TestBookAppointment_UsesClinicTimezone(t *testing.T) {
	c := newCore(t)

	c.booking.loc = time.FixedZone("UTC+9", 9*3600)
	// 20:00 UTC on Dec 1 is already Dec 2 at UTC+9
	c.clock.Set(today.Add(10 * time.Hour))

	if _, err := c.booking.BookAppointment(context.Background(), patientP, bookReq(dr1, "2029-12-02", "09:00")); !errors.Is(err, ErrInvalidSlot) {
		t.Fatalf("same-day booking in clinic zone: err = %v, want ErrInvalidSlot", err)
	}
	if _, err := c.booking.BookAppointment(context.Background(), patientP, bookReq(dr1, "2029-12-03", "09:00")); err != nil {
		t.Fatalf("next-day booking: %v", err)
	}
}

// Scenario A
func TestBookAppointment_SameSlotTwice(t *testing.T) {
	c := newCore(t)
	ctx := context.Background()

	if _, err := c.booking.BookAppointment(ctx, patientP, bookReq(dr1, "2030-01-10", "09:00")); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	_, err := c.booking.BookAppointment(ctx, patientP, bookReq(dr1, "2030-01-10", "09:00"))
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("second booking err = %v, want ErrSlotTaken", err)
	}

	// other doctors and other slots stay free
	if _, err := c.booking.BookAppointment(ctx, patientP, bookReq(dr2, "2030-01-10", "09:00")); err != nil {
		t.Fatalf("other doctor: %v", err)
	}
	if _, err := c.booking.BookAppointment(ctx, patientP, bookReq(dr1, "2030-01-10", "09:30")); err != nil {
		t.Fatalf("other slot: %v", err)
	}
}

// Scenario E
func TestBookAppointment_ConcurrentRequestsForOneSlot(t *testing.T) {
	c := newCore(t)
	const workers = 16

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			caller := entity.Principal{ID: uuid.New(), Role: entity.RolePatient}
			<-start
			_, errs[i] = c.booking.BookAppointment(context.Background(), caller, bookReq(dr2, "2030-02-01", "10:30"))
		}(i)
	}
	close(start)
	wg.Wait()

	ok, taken := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrSlotTaken):
			taken++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || taken != workers-1 {
		t.Fatalf("ok = %d, taken = %d; want exactly one success", ok, taken)
	}
}

// lostRace hides existing rows from FindConflicting so the insert hits the
// unique constraint, as when another request commits in between.
type lostRace struct {
	*memAppointments
}

func (lostRace) FindConflicting(context.Context, uuid.UUID, time.Time, string) (*entity.Appointment, error) {
	return nil, nil
}

func TestBookAppointment_DuplicateOnInsertIsSlotTaken(t *testing.T) {
	c := newCore(t)
	ctx := context.Background()

	if _, err := c.booking.BookAppointment(ctx, patientP, bookReq(dr1, "2030-01-10", "09:00")); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	c.booking.repo.Appointment = lostRace{c.appointments}
	_, err := c.booking.BookAppointment(ctx, patientQ, bookReq(dr1, "2030-01-10", "09:00"))
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("err = %v, want ErrSlotTaken", err)
	}
}

type stubLocker struct {
	err   error
	calls int
	keys  []string
}

func (l *stubLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.calls++
	l.keys = append(l.keys, key)
	if l.err != nil {
		return l.err
	}
	return fn(ctx)
}

func TestBookAppointment_SlotLock(t *testing.T) {
	t.Run("held elsewhere by a booking that failed", func(t *testing.T) {
		c := newCore(t)
		c.booking.locker = &stubLocker{err: redislock.ErrLockNotAcquired}

		got, err := c.booking.BookAppointment(context.Background(), patientP, bookReq(dr1, "2030-01-10", "09:00"))
		if err != nil {
			t.Fatalf("free slot refused while locked: %v", err)
		}
		if len(c.appointments.items) != 1 || got.Status != entity.StatusPending {
			t.Fatalf("expected one pending booking, got %d", len(c.appointments.items))
		}
	})

	t.Run("held elsewhere by a booking that landed", func(t *testing.T) {
		c := newCore(t)
		if _, err := c.booking.BookAppointment(context.Background(), patientQ, bookReq(dr1, "2030-01-10", "09:00")); err != nil {
			t.Fatalf("first booking: %v", err)
		}
		c.booking.locker = &stubLocker{err: redislock.ErrLockNotAcquired}

		_, err := c.booking.BookAppointment(context.Background(), patientP, bookReq(dr1, "2030-01-10", "09:00"))
		if !errors.Is(err, ErrSlotTaken) {
			t.Fatalf("err = %v, want ErrSlotTaken", err)
		}
		if len(c.appointments.items) != 1 {
			t.Fatalf("%d bookings stored, want 1", len(c.appointments.items))
		}
	})

	t.Run("backend down falls back to store", func(t *testing.T) {
		c := newCore(t)
		c.booking.locker = &stubLocker{err: fmt.Errorf("acquire slot lock: %w", redislock.ErrLockUnavailable)}

		if _, err := c.booking.BookAppointment(context.Background(), patientP, bookReq(dr1, "2030-01-10", "09:00")); err != nil {
			t.Fatalf("BookAppointment: %v", err)
		}
		_, err := c.booking.BookAppointment(context.Background(), patientQ, bookReq(dr1, "2030-01-10", "09:00"))
		if !errors.Is(err, ErrSlotTaken) {
			t.Fatalf("err = %v, want ErrSlotTaken", err)
		}
	})

	t.Run("key names the slot", func(t *testing.T) {
		c := newCore(t)
		locker := &stubLocker{}
		c.booking.locker = locker

		if _, err := c.booking.BookAppointment(context.Background(), patientP, bookReq(dr1, "2030-01-10", "09:00")); err != nil {
			t.Fatalf("BookAppointment: %v", err)
		}
		want := dr1.ID.String() + ":2030-01-10:09:00"
		if locker.calls != 1 || locker.keys[0] != want {
			t.Fatalf("lock keys = %v, want [%s]", locker.keys, want)
		}
	})
}

func TestBookAppointment_StoreUnavailable(t *testing.T) {
	c := newCore(t)
	c.doctors.err = errors.Join(repository.ErrUnavailable, context.DeadlineExceeded)

	_, err := c.booking.BookAppointment(context.Background(), patientP, bookReq(dr1, "2030-01-10", "09:00"))
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("cause lost: %v", err)
	}
}

func TestAvailableSlots(t *testing.T) {
	c := newCore(t)
	ctx := context.Background()

	booked, err := c.booking.BookAppointment(ctx, patientP, bookReq(dr1, "2030-01-10", "09:00"))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := c.booking.BookAppointment(ctx, patientQ, bookReq(dr1, "2030-01-10", "14:30")); err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := c.lifecycle.Cancel(ctx, patientP, booked.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	got, err := c.booking.AvailableSlots(ctx, patientQ, dr1.ID.String(), "2030-01-10")
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(got.Slots) != len(Slots) {
		t.Fatalf("got %d slots, want %d", len(got.Slots), len(Slots))
	}
	for _, s := range got.Slots {
		want := s.Time != "14:30"
		if s.Available != want {
			t.Errorf("slot %s available = %v, want %v", s.Time, s.Available, want)
		}
	}

	past, err := c.booking.AvailableSlots(ctx, patientQ, dr1.ID.String(), "2029-12-01")
	if err != nil {
		t.Fatalf("AvailableSlots today: %v", err)
	}
	for _, s := range past.Slots {
		if s.Available {
			t.Fatalf("slot %s bookable on the current day", s.Time)
		}
	}

	if _, err := c.booking.AvailableSlots(ctx, entity.Principal{}, dr1.ID.String(), "2030-01-10"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("anonymous err = %v", err)
	}
	if _, err := c.booking.AvailableSlots(ctx, patientQ, retired.ID.String(), "2030-01-10"); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("inactive doctor err = %v", err)
	}
}
