package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic-booking/internal/data/entity"
	"clinic-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// AppointmentRepository is the appointment store. Lookups return (nil, nil)
// when nothing matches.
type AppointmentRepository interface {
	Insert(ctx context.Context, appointment *entity.Appointment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error)
	FindConflicting(ctx context.Context, doctorID uuid.UUID, date time.Time, slot string) (*entity.Appointment, error)
	FindByPatient(ctx context.Context, patientID uuid.UUID) ([]*entity.Appointment, error)
	FindByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*entity.Appointment, error)
	FindAll(ctx context.Context) ([]*entity.Appointment, error)
	FindBookedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)

	// Update applies patch only while the stored status equals expected and
	// returns ErrStatusMismatch otherwise.
	Update(ctx context.Context, id uuid.UUID, expected entity.AppointmentStatus, patch entity.AppointmentPatch) (*entity.Appointment, error)
}

const appointmentColumns = `id, patient_id, doctor_id, doctor_name, doctor_image, doctor_specialty,
		doctor_fee, doctor_address_line1, doctor_address_line2, scheduled_date, scheduled_time,
		status, payment_status, payment_method, notes, created_at, updated_at`

type appointmentRepository struct {
	db      database.PgxIface
	timeout time.Duration
	log     *zap.Logger
}

func NewAppointmentRepository(db database.PgxIface, timeout time.Duration, log *zap.Logger) AppointmentRepository {
	return &appointmentRepository{
		db:      db,
		timeout: timeout,
		log:     log.With(zap.String("repository", "appointment")),
	}
}

func scanAppointment(row pgx.Row) (*entity.Appointment, error) {
	var a entity.Appointment
	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.Doctor.DoctorID,
		&a.Doctor.Name,
		&a.Doctor.Image,
		&a.Doctor.Specialty,
		&a.Doctor.Fee,
		&a.Doctor.AddressLine1,
		&a.Doctor.AddressLine2,
		&a.ScheduledDate,
		&a.ScheduledTime,
		&a.Status,
		&a.PaymentStatus,
		&a.PaymentMethod,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.ScheduledDate = a.ScheduledDate.UTC()
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]*entity.Appointment, error) {
	defer rows.Close()

	var appointments []*entity.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment row: %w", err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return appointments, nil
}

// pgError sorts driver errors: unique violations become ErrDuplicateSlot.
// Errors that never reached the server, timeouts and server-side conditions
// that clear on retry (connection loss, serialization failures, resource
// exhaustion, cancellation and shutdown) are reported as ErrUnavailable.
func pgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return unavailable(err)
	}
	if pgErr.Code == "23505" {
		return ErrDuplicateSlot
	}
	if transientClass(pgErr.Code) || pgconn.Timeout(err) {
		return unavailable(err)
	}
	return err
}

// transientClass reports SQLSTATE classes 08 (connection exception),
// 40 (transaction rollback), 53 (insufficient resources) and
// 57 (operator intervention).
func transientClass(code string) bool {
	if len(code) < 2 {
		return false
	}
	switch code[:2] {
	case "08", "40", "53", "57":
		return true
	}
	return false
}

func (r *appointmentRepository) Insert(ctx context.Context, a *entity.Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO appointments (id, patient_id, doctor_id, doctor_name, doctor_image, doctor_specialty,
			doctor_fee, doctor_address_line1, doctor_address_line2, scheduled_date, scheduled_time,
			status, payment_status, payment_method, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		a.ID,
		a.PatientID,
		a.Doctor.DoctorID,
		a.Doctor.Name,
		a.Doctor.Image,
		a.Doctor.Specialty,
		a.Doctor.Fee,
		a.Doctor.AddressLine1,
		a.Doctor.AddressLine2,
		a.ScheduledDate,
		a.ScheduledTime,
		string(a.Status),
		string(a.PaymentStatus),
		string(a.PaymentMethod),
		a.Notes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		err = pgError(err)
		if errors.Is(err, ErrDuplicateSlot) {
			return err
		}
		r.log.Error("Failed to insert appointment",
			zap.Error(err),
			zap.String("doctor_id", a.Doctor.DoctorID.String()),
			zap.String("patient_id", a.PatientID.String()),
		)
		return fmt.Errorf("insert appointment %s: %w", a.ID, err)
	}

	return nil
}

func (r *appointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	a, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find appointment by ID",
			zap.Error(err),
			zap.String("appointment_id", id.String()),
		)
		return nil, fmt.Errorf("find appointment by ID %s: %w", id, pgError(err))
	}

	return a, nil
}

func (r *appointmentRepository) FindConflicting(ctx context.Context, doctorID uuid.UUID, date time.Time, slot string) (*entity.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1 AND scheduled_date = $2 AND scheduled_time = $3
		  AND status <> 'cancelled'
		LIMIT 1
	`

	a, err := scanAppointment(r.db.QueryRow(ctx, query, doctorID, date, slot))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to check slot conflict",
			zap.Error(err),
			zap.String("doctor_id", doctorID.String()),
			zap.Time("date", date),
			zap.String("time", slot),
		)
		return nil, fmt.Errorf("find conflicting appointment: %w", pgError(err))
	}

	return a, nil
}

func (r *appointmentRepository) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]*entity.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE patient_id = $1
		ORDER BY scheduled_date DESC, created_at DESC
	`

	rows, err := r.db.Query(ctx, query, patientID)
	if err != nil {
		r.log.Error("Failed to find appointments by patient",
			zap.Error(err),
			zap.String("patient_id", patientID.String()),
		)
		return nil, fmt.Errorf("find appointments by patient %s: %w", patientID, pgError(err))
	}

	appointments, err := collectAppointments(rows)
	if err != nil {
		return nil, fmt.Errorf("find appointments by patient %s: %w", patientID, pgError(err))
	}
	return appointments, nil
}

func (r *appointmentRepository) FindByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*entity.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1
		ORDER BY scheduled_date DESC, created_at DESC
	`

	rows, err := r.db.Query(ctx, query, doctorID)
	if err != nil {
		r.log.Error("Failed to find appointments by doctor",
			zap.Error(err),
			zap.String("doctor_id", doctorID.String()),
		)
		return nil, fmt.Errorf("find appointments by doctor %s: %w", doctorID, pgError(err))
	}

	appointments, err := collectAppointments(rows)
	if err != nil {
		return nil, fmt.Errorf("find appointments by doctor %s: %w", doctorID, pgError(err))
	}
	return appointments, nil
}

func (r *appointmentRepository) FindAll(ctx context.Context) ([]*entity.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + appointmentColumns + ` FROM appointments`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to list appointments", zap.Error(err))
		return nil, fmt.Errorf("find all appointments: %w", pgError(err))
	}

	appointments, err := collectAppointments(rows)
	if err != nil {
		return nil, fmt.Errorf("find all appointments: %w", pgError(err))
	}
	return appointments, nil
}

func (r *appointmentRepository) FindBookedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT scheduled_time
		FROM appointments
		WHERE doctor_id = $1 AND scheduled_date = $2 AND status <> 'cancelled'
	`

	rows, err := r.db.Query(ctx, query, doctorID, date)
	if err != nil {
		r.log.Error("Failed to find booked slots",
			zap.Error(err),
			zap.String("doctor_id", doctorID.String()),
		)
		return nil, fmt.Errorf("find booked slots: %w", pgError(err))
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("scan booked slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find booked slots: %w", pgError(err))
	}

	return slots, nil
}

func (r *appointmentRepository) Update(ctx context.Context, id uuid.UUID, expected entity.AppointmentStatus, patch entity.AppointmentPatch) (*entity.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE appointments
		SET status = COALESCE($3, status),
		    payment_status = COALESCE($4, payment_status),
		    payment_method = COALESCE($5, payment_method),
		    notes = COALESCE($6, notes),
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + appointmentColumns

	status, paymentStatus, paymentMethod := patchArgs(patch)
	a, err := scanAppointment(r.db.QueryRow(ctx, query,
		id,
		string(expected),
		status,
		paymentStatus,
		paymentMethod,
		patch.Notes,
	))

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStatusMismatch
	}
	if err != nil {
		err = pgError(err)
		if errors.Is(err, ErrDuplicateSlot) {
			return nil, err
		}
		r.log.Error("Failed to update appointment",
			zap.Error(err),
			zap.String("appointment_id", id.String()),
			zap.String("expected_status", string(expected)),
		)
		return nil, fmt.Errorf("update appointment %s: %w", id, err)
	}

	return a, nil
}

// patchArgs turns the typed patch pointers into nullable driver values.
func patchArgs(p entity.AppointmentPatch) (status, paymentStatus, paymentMethod *string) {
	if p.Status != nil {
		s := string(*p.Status)
		status = &s
	}
	if p.PaymentStatus != nil {
		s := string(*p.PaymentStatus)
		paymentStatus = &s
	}
	if p.PaymentMethod != nil {
		s := string(*p.PaymentMethod)
		paymentMethod = &s
	}
	return status, paymentStatus, paymentMethod
}
