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
	"go.uber.org/zap"
)

// DoctorRepository is the doctor directory. FindByID returns (nil, nil) for
// unknown ids.
type DoctorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error)
	Create(ctx context.Context, doctor *entity.Doctor) error
}

const doctorColumns = `id, name, email, specialty, fee, image, address_line1, address_line2,
		active, created_at, updated_at`

type doctorRepository struct {
	db      database.PgxIface
	timeout time.Duration
	log     *zap.Logger
}

func NewDoctorRepository(db database.PgxIface, timeout time.Duration, log *zap.Logger) DoctorRepository {
	return &doctorRepository{
		db:      db,
		timeout: timeout,
		log:     log.With(zap.String("repository", "doctor")),
	}
}

func (r *doctorRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`

	var d entity.Doctor
	err := r.db.QueryRow(ctx, query, id).Scan(
		&d.ID,
		&d.Name,
		&d.Email,
		&d.Specialty,
		&d.Fee,
		&d.Image,
		&d.AddressLine1,
		&d.AddressLine2,
		&d.Active,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find doctor by ID",
			zap.Error(err),
			zap.String("doctor_id", id.String()),
		)
		return nil, fmt.Errorf("find doctor by ID %s: %w", id, pgError(err))
	}

	return &d, nil
}

func (r *doctorRepository) Create(ctx context.Context, d *entity.Doctor) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO doctors (id, name, email, specialty, fee, image, address_line1, address_line2,
			active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		d.ID,
		d.Name,
		d.Email,
		d.Specialty,
		d.Fee,
		d.Image,
		d.AddressLine1,
		d.AddressLine2,
		d.Active,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		r.log.Error("Failed to create doctor",
			zap.Error(err),
			zap.String("email", d.Email),
		)
		return fmt.Errorf("create doctor: %w", pgError(err))
	}

	return nil
}
