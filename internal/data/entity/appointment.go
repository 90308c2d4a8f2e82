package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AppointmentStatus string

// Status only moves forward:
//
//	pending → confirmed → completed
//	pending → cancelled
//	confirmed → cancelled
const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Open reports whether the appointment still accepts changes.
func (s AppointmentStatus) Open() bool {
	return s == StatusPending || s == StatusConfirmed
}

// DoctorSnapshot is the directory profile copied into the appointment at
// booking time. Later directory edits never touch it.
type DoctorSnapshot struct {
	DoctorID     uuid.UUID       `db:"doctor_id"`
	Name         string          `db:"doctor_name"`
	Image        string          `db:"doctor_image"`
	Specialty    string          `db:"doctor_specialty"`
	Fee          decimal.Decimal `db:"doctor_fee"`
	AddressLine1 string          `db:"doctor_address_line1"`
	AddressLine2 string          `db:"doctor_address_line2"`
}

type Appointment struct {
	Base
	PatientID     uuid.UUID         `db:"patient_id"`
	Doctor        DoctorSnapshot    `db:"-"`
	ScheduledDate time.Time         `db:"scheduled_date"` // midnight UTC, date only
	ScheduledTime string            `db:"scheduled_time"` // slot label, HH:MM
	Status        AppointmentStatus `db:"status"`
	PaymentStatus PaymentStatus     `db:"payment_status"`
	PaymentMethod PaymentMethod     `db:"payment_method"`
	Notes         string            `db:"notes"`
}

// AppointmentPatch lists the mutable fields; nil means leave unchanged.
type AppointmentPatch struct {
	Status        *AppointmentStatus
	PaymentStatus *PaymentStatus
	PaymentMethod *PaymentMethod
	Notes         *string
}

func (p AppointmentPatch) Empty() bool {
	return p.Status == nil && p.PaymentStatus == nil && p.PaymentMethod == nil && p.Notes == nil
}
