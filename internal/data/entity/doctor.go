package entity

import (
	"github.com/shopspring/decimal"
)

// Doctor is a directory record. The booking core only reads it.
type Doctor struct {
	Base
	Name         string          `db:"name"`
	Email        string          `db:"email"`
	Specialty    string          `db:"specialty"`
	Fee          decimal.Decimal `db:"fee"`
	Image        string          `db:"image"`
	AddressLine1 string          `db:"address_line1"`
	AddressLine2 string          `db:"address_line2"`
	Active       bool            `db:"active"`
}

// Snapshot copies the fields an appointment keeps for history.
func (d *Doctor) Snapshot() DoctorSnapshot {
	return DoctorSnapshot{
		DoctorID:     d.ID,
		Name:         d.Name,
		Image:        d.Image,
		Specialty:    d.Specialty,
		Fee:          d.Fee,
		AddressLine1: d.AddressLine1,
		AddressLine2: d.AddressLine2,
	}
}
