package entity

import (
	"time"

	"github.com/google/uuid"
)

// Base carries the identity and store-managed timestamps. Appointments are
// never deleted, so there is no soft-delete column.
type Base struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
