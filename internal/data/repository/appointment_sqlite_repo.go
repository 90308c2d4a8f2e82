package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clinic-booking/internal/data/entity"
	"clinic-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// sqliteTimeLayout has fixed-width fractions so stored timestamps sort as text.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type sqliteAppointmentRepository struct {
	db      *sql.DB
	timeout time.Duration
	now     func() time.Time
	log     *zap.Logger
}

// NewSQLiteAppointmentRepository stores appointments in an embedded SQLite
// database with the same partial unique index as Postgres.
func NewSQLiteAppointmentRepository(db *sql.DB, timeout time.Duration, log *zap.Logger) AppointmentRepository {
	return &sqliteAppointmentRepository{
		db:      db,
		timeout: timeout,
		now:     time.Now,
		log:     log.With(zap.String("repository", "appointment_sqlite")),
	}
}

// sqliteError mirrors pgError for the SQLite driver.
func sqliteError(err error) error {
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return ErrDuplicateSlot
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return unavailable(err)
		}
		return err
	}
	return unavailable(err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteAppointment(row rowScanner) (*entity.Appointment, error) {
	var (
		a                          entity.Appointment
		id, patientID, doctorID    string
		fee, date                  string
		createdAt, updatedAt       string
		status, payStatus, payMeth string
	)
	err := row.Scan(
		&id,
		&patientID,
		&doctorID,
		&a.Doctor.Name,
		&a.Doctor.Image,
		&a.Doctor.Specialty,
		&fee,
		&a.Doctor.AddressLine1,
		&a.Doctor.AddressLine2,
		&date,
		&a.ScheduledTime,
		&status,
		&payStatus,
		&payMeth,
		&a.Notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if a.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	if a.PatientID, err = uuid.Parse(patientID); err != nil {
		return nil, fmt.Errorf("parse patient_id: %w", err)
	}
	if a.Doctor.DoctorID, err = uuid.Parse(doctorID); err != nil {
		return nil, fmt.Errorf("parse doctor_id: %w", err)
	}
	if a.Doctor.Fee, err = decimal.NewFromString(fee); err != nil {
		return nil, fmt.Errorf("parse doctor_fee: %w", err)
	}
	if a.ScheduledDate, err = utils.ParseDate(date); err != nil {
		return nil, fmt.Errorf("parse scheduled_date: %w", err)
	}
	if a.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if a.UpdatedAt, err = time.Parse(sqliteTimeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	a.Status = entity.AppointmentStatus(status)
	a.PaymentStatus = entity.PaymentStatus(payStatus)
	a.PaymentMethod = entity.PaymentMethod(payMeth)

	return &a, nil
}

func (r *sqliteAppointmentRepository) query(ctx context.Context, op, query string, args ...any) ([]*entity.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to "+op, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, sqliteError(err))
	}
	defer rows.Close()

	var appointments []*entity.Appointment
	for rows.Next() {
		a, err := scanSQLiteAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment row: %w", err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, sqliteError(err))
	}
	return appointments, nil
}

func (r *sqliteAppointmentRepository) Insert(ctx context.Context, a *entity.Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	now := r.now().UTC()
	query := `
		INSERT INTO appointments (id, patient_id, doctor_id, doctor_name, doctor_image, doctor_specialty,
			doctor_fee, doctor_address_line1, doctor_address_line2, scheduled_date, scheduled_time,
			status, payment_status, payment_method, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID.String(),
		a.PatientID.String(),
		a.Doctor.DoctorID.String(),
		a.Doctor.Name,
		a.Doctor.Image,
		a.Doctor.Specialty,
		a.Doctor.Fee.String(),
		a.Doctor.AddressLine1,
		a.Doctor.AddressLine2,
		utils.FormatDate(a.ScheduledDate),
		a.ScheduledTime,
		string(a.Status),
		string(a.PaymentStatus),
		string(a.PaymentMethod),
		a.Notes,
		now.Format(sqliteTimeLayout),
		now.Format(sqliteTimeLayout),
	)
	if err != nil {
		err = sqliteError(err)
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

	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

func (r *sqliteAppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ?`

	a, err := scanSQLiteAppointment(r.db.QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find appointment by ID",
			zap.Error(err),
			zap.String("appointment_id", id.String()),
		)
		return nil, fmt.Errorf("find appointment by ID %s: %w", id, sqliteError(err))
	}
	return a, nil
}

func (r *sqliteAppointmentRepository) FindConflicting(ctx context.Context, doctorID uuid.UUID, date time.Time, slot string) (*entity.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = ? AND scheduled_date = ? AND scheduled_time = ?
		  AND status <> 'cancelled'
		LIMIT 1
	`

	a, err := scanSQLiteAppointment(r.db.QueryRowContext(ctx, query,
		doctorID.String(), utils.FormatDate(date), slot))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to check slot conflict",
			zap.Error(err),
			zap.String("doctor_id", doctorID.String()),
			zap.String("date", utils.FormatDate(date)),
			zap.String("time", slot),
		)
		return nil, fmt.Errorf("find conflicting appointment: %w", sqliteError(err))
	}
	return a, nil
}

func (r *sqliteAppointmentRepository) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]*entity.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.query(ctx, "find appointments by patient", `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = ?
		ORDER BY scheduled_date DESC, created_at DESC
	`, patientID.String())
}

func (r *sqliteAppointmentRepository) FindByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*entity.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.query(ctx, "find appointments by doctor", `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = ?
		ORDER BY scheduled_date DESC, created_at DESC
	`, doctorID.String())
}

func (r *sqliteAppointmentRepository) FindAll(ctx context.Context) ([]*entity.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.query(ctx, "find all appointments", `SELECT `+appointmentColumns+` FROM appointments`)
}

func (r *sqliteAppointmentRepository) FindBookedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT scheduled_time
		FROM appointments
		WHERE doctor_id = ? AND scheduled_date = ? AND status <> 'cancelled'
	`, doctorID.String(), utils.FormatDate(date))
	if err != nil {
		r.log.Error("Failed to find booked slots",
			zap.Error(err),
			zap.String("doctor_id", doctorID.String()),
		)
		return nil, fmt.Errorf("find booked slots: %w", sqliteError(err))
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
		return nil, fmt.Errorf("find booked slots: %w", sqliteError(err))
	}
	return slots, nil
}

func (r *sqliteAppointmentRepository) Update(ctx context.Context, id uuid.UUID, expected entity.AppointmentStatus, patch entity.AppointmentPatch) (*entity.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE appointments
		SET status = COALESCE(?, status),
		    payment_status = COALESCE(?, payment_status),
		    payment_method = COALESCE(?, payment_method),
		    notes = COALESCE(?, notes),
		    updated_at = ?
		WHERE id = ? AND status = ?
		RETURNING ` + appointmentColumns

	status, paymentStatus, paymentMethod := patchArgs(patch)
	a, err := scanSQLiteAppointment(r.db.QueryRowContext(ctx, query,
		status,
		paymentStatus,
		paymentMethod,
		patch.Notes,
		r.now().UTC().Format(sqliteTimeLayout),
		id.String(),
		string(expected),
	))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStatusMismatch
	}
	if err != nil {
		err = sqliteError(err)
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
