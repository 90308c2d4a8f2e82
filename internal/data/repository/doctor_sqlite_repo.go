package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clinic-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type sqliteDoctorRepository struct {
	db      *sql.DB
	timeout time.Duration
	now     func() time.Time
	log     *zap.Logger
}

func NewSQLiteDoctorRepository(db *sql.DB, timeout time.Duration, log *zap.Logger) DoctorRepository {
	return &sqliteDoctorRepository{
		db:      db,
		timeout: timeout,
		now:     time.Now,
		log:     log.With(zap.String("repository", "doctor_sqlite")),
	}
}

func (r *sqliteDoctorRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = ?`

	var (
		d                    entity.Doctor
		rawID, fee           string
		createdAt, updatedAt string
	)
	err := r.db.QueryRowContext(ctx, query, id.String()).Scan(
		&rawID,
		&d.Name,
		&d.Email,
		&d.Specialty,
		&fee,
		&d.Image,
		&d.AddressLine1,
		&d.AddressLine2,
		&d.Active,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find doctor by ID",
			zap.Error(err),
			zap.String("doctor_id", id.String()),
		)
		return nil, fmt.Errorf("find doctor by ID %s: %w", id, sqliteError(err))
	}

	if d.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("parse doctor id: %w", err)
	}
	if d.Fee, err = decimal.NewFromString(fee); err != nil {
		return nil, fmt.Errorf("parse doctor fee: %w", err)
	}
	if d.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if d.UpdatedAt, err = time.Parse(sqliteTimeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &d, nil
}

func (r *sqliteDoctorRepository) Create(ctx context.Context, d *entity.Doctor) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	now := r.now().UTC()
	query := `
		INSERT INTO doctors (id, name, email, specialty, fee, image, address_line1, address_line2,
			active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		d.ID.String(),
		d.Name,
		d.Email,
		d.Specialty,
		d.Fee.String(),
		d.Image,
		d.AddressLine1,
		d.AddressLine2,
		d.Active,
		now.Format(sqliteTimeLayout),
		now.Format(sqliteTimeLayout),
	)
	if err != nil {
		r.log.Error("Failed to create doctor",
			zap.Error(err),
			zap.String("email", d.Email),
		)
		return fmt.Errorf("create doctor: %w", sqliteError(err))
	}

	d.CreatedAt = now
	d.UpdatedAt = now
	return nil
}
