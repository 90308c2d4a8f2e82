package repository

import (
	"context"
	"database/sql"
	"time"

	"clinic-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Appointment AppointmentRepository
	Doctor      DoctorRepository

	// Ping reports whether the backing store answers.
	Ping func(ctx context.Context) error
}

func NewRepository(db database.PgxIface, timeout time.Duration, log *zap.Logger) *Repository {
	return &Repository{
		Appointment: NewAppointmentRepository(db, timeout, log),
		Doctor:      NewDoctorRepository(db, timeout, log),
		Ping:        db.Ping,
	}
}

func NewSQLiteRepository(db *sql.DB, timeout time.Duration, log *zap.Logger) *Repository {
	return &Repository{
		Appointment: NewSQLiteAppointmentRepository(db, timeout, log),
		Doctor:      NewSQLiteDoctorRepository(db, timeout, log),
		Ping:        db.PingContext,
	}
}
