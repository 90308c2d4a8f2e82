package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"clinic-booking/internal/data/entity"
	"clinic-booking/internal/data/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"
)

// memAppointments is an in-memory store with the same partial uniqueness
// and compare-and-set semantics as the SQL implementations.
type memAppointments struct {
	mu    sync.Mutex
	items map[uuid.UUID]entity.Appointment
	order []uuid.UUID
	seq   int

	err       error // returned by every call when set
	updateErr error // returned by Update only

	// beforeUpdate runs inside Update before the status check.
	beforeUpdate func(id uuid.UUID)
}

func newMemAppointments() *memAppointments {
	return &memAppointments{items: make(map[uuid.UUID]entity.Appointment)}
}

func (m *memAppointments) Insert(_ context.Context, a *entity.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	for _, existing := range m.items {
		if existing.Status != entity.StatusCancelled &&
			existing.Doctor.DoctorID == a.Doctor.DoctorID &&
			existing.ScheduledDate.Equal(a.ScheduledDate) &&
			existing.ScheduledTime == a.ScheduledTime {
			return repository.ErrDuplicateSlot
		}
	}

	m.seq++
	ts := time.Date(2029, 1, 1, 0, 0, m.seq, 0, time.UTC)
	a.CreatedAt, a.UpdatedAt = ts, ts
	m.items[a.ID] = *a
	m.order = append(m.order, a.ID)
	return nil
}

func (m *memAppointments) get(id uuid.UUID) *entity.Appointment {
	a, ok := m.items[id]
	if !ok {
		return nil
	}
	return &a
}

func (m *memAppointments) FindByID(_ context.Context, id uuid.UUID) (*entity.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.get(id), nil
}

func (m *memAppointments) FindConflicting(_ context.Context, doctorID uuid.UUID, date time.Time, slot string) (*entity.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, id := range m.order {
		a := m.items[id]
		if a.Status != entity.StatusCancelled && a.Doctor.DoctorID == doctorID &&
			a.ScheduledDate.Equal(date) && a.ScheduledTime == slot {
			return &a, nil
		}
	}
	return nil, nil
}

func (m *memAppointments) filter(keep func(entity.Appointment) bool) ([]*entity.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*entity.Appointment
	for _, id := range m.order {
		a := m.items[id]
		if keep(a) {
			out = append(out, &a)
		}
	}
	return out, nil
}

func (m *memAppointments) FindByPatient(_ context.Context, patientID uuid.UUID) ([]*entity.Appointment, error) {
	return m.filter(func(a entity.Appointment) bool { return a.PatientID == patientID })
}

func (m *memAppointments) FindByDoctor(_ context.Context, doctorID uuid.UUID) ([]*entity.Appointment, error) {
	return m.filter(func(a entity.Appointment) bool { return a.Doctor.DoctorID == doctorID })
}

func (m *memAppointments) FindAll(_ context.Context) ([]*entity.Appointment, error) {
	return m.filter(func(entity.Appointment) bool { return true })
}

func (m *memAppointments) FindBookedSlots(_ context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	list, err := m.filter(func(a entity.Appointment) bool {
		return a.Doctor.DoctorID == doctorID && a.ScheduledDate.Equal(date) && a.Status != entity.StatusCancelled
	})
	if err != nil {
		return nil, err
	}
	slots := make([]string, 0, len(list))
	for _, a := range list {
		slots = append(slots, a.ScheduledTime)
	}
	return slots, nil
}

func (m *memAppointments) Update(_ context.Context, id uuid.UUID, expected entity.AppointmentStatus, patch entity.AppointmentPatch) (*entity.Appointment, error) {
	if m.beforeUpdate != nil {
		m.beforeUpdate(id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.updateErr != nil {
		return nil, m.updateErr
	}

	a, ok := m.items[id]
	if !ok || a.Status != expected {
		return nil, repository.ErrStatusMismatch
	}
	a = applyPatch(a, patch)
	m.seq++
	a.UpdatedAt = time.Date(2029, 1, 1, 0, 0, m.seq, 0, time.UTC)
	m.items[id] = a
	return &a, nil
}

// applyPatch mirrors the COALESCE update of the SQL stores.
func applyPatch(a entity.Appointment, p entity.AppointmentPatch) entity.Appointment {
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		a.PaymentStatus = *p.PaymentStatus
	}
	if p.PaymentMethod != nil {
		a.PaymentMethod = *p.PaymentMethod
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	return a
}

// setStatus bypasses the lifecycle rules to arrange test state.
func (m *memAppointments) setStatus(id uuid.UUID, status entity.AppointmentStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.items[id]
	a.Status = status
	m.items[id] = a
}

type memDoctors struct {
	mu    sync.Mutex
	items map[uuid.UUID]entity.Doctor
	err   error
	calls int
}

func (m *memDoctors) FindByID(_ context.Context, id uuid.UUID) (*entity.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	d, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *memDoctors) Create(_ context.Context, d *entity.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[d.ID] = *d
	return nil
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// core bundles the three services over one in-memory store.
type core struct {
	appointments *memAppointments
	doctors      *memDoctors
	clock        *testClock

	booking   *bookingService
	lifecycle *lifecycleService
	query     *queryService
}

var (
	dr1 = entity.Doctor{
		Base:         entity.Base{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111")},
		Name:         "Dr. Richard James",
		Email:        "richard@clinic.test",
		Specialty:    "General Physician",
		Fee:          decimal.RequireFromString("50.00"),
		AddressLine1: "17th Cross, Richmond",
		AddressLine2: "Circle, Ring Road, London",
		Active:       true,
	}
	dr2 = entity.Doctor{
		Base:         entity.Base{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222")},
		Name:         "Dr. Emily Larson",
		Email:        "emily@clinic.test",
		Specialty:    "Gynecologist",
		Fee:          decimal.RequireFromString("60.00"),
		AddressLine1: "27th Cross, Richmond",
		Active:       true,
	}
	retired = entity.Doctor{
		Base:      entity.Base{ID: uuid.MustParse("33333333-3333-3333-3333-333333333333")},
		Name:      "Dr. Retired",
		Specialty: "Neurologist",
		Fee:       decimal.RequireFromString("40.00"),
		Active:    false,
	}

	patientP = entity.Principal{ID: uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001"), Role: entity.RolePatient}
	patientQ = entity.Principal{ID: uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002"), Role: entity.RolePatient}
	doctor1  = entity.Principal{ID: dr1.ID, Role: entity.RoleDoctor}
	doctor2  = entity.Principal{ID: dr2.ID, Role: entity.RoleDoctor}
	admin    = entity.Principal{ID: uuid.MustParse("cccccccc-0000-0000-0000-000000000001"), Role: entity.RoleAdmin}
)

// today is the fixed "now" of every test unless a test moves the clock.
var today = time.Date(2029, 12, 1, 10, 0, 0, 0, time.UTC)

func newCore(t *testing.T) *core {
	t.Helper()

	log := zaptest.NewLogger(t)
	appointments := newMemAppointments()
	doctors := &memDoctors{items: map[uuid.UUID]entity.Doctor{
		dr1.ID:     dr1,
		dr2.ID:     dr2,
		retired.ID: retired,
	}}
	repo := &repository.Repository{
		Appointment: appointments,
		Doctor:      doctors,
		Ping:        func(context.Context) error { return nil },
	}
	clock := &testClock{t: today}

	booking := NewBookingService(repo, nil, time.UTC, log).(*bookingService)
	booking.now = clock.Now
	lifecycle := NewLifecycleService(repo, time.UTC, log).(*lifecycleService)
	lifecycle.now = clock.Now
	query := NewQueryService(appointments, log).(*queryService)

	return &core{
		appointments: appointments,
		doctors:      doctors,
		clock:        clock,
		booking:      booking,
		lifecycle:    lifecycle,
		query:        query,
	}
}
