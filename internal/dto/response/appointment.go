package response

import (
	"time"

	"clinic-booking/internal/data/entity"
	"clinic-booking/pkg/utils"
)

type DoctorSnapshotResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Image        string `json:"image,omitempty"`
	Specialty    string `json:"specialty"`
	Fee          string `json:"fee"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
}

type AppointmentResponse struct {
	ID            string                   `json:"id"`
	PatientID     string                   `json:"patient_id"`
	Doctor        DoctorSnapshotResponse   `json:"doctor"`
	ScheduledDate string                   `json:"scheduled_date"`
	ScheduledTime string                   `json:"scheduled_time"`
	Status        entity.AppointmentStatus `json:"status"`
	PaymentStatus entity.PaymentStatus     `json:"payment_status"`
	PaymentMethod entity.PaymentMethod     `json:"payment_method"`
	Notes         string                   `json:"notes,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

func NewAppointmentResponse(a *entity.Appointment) *AppointmentResponse {
	return &AppointmentResponse{
		ID:        a.ID.String(),
		PatientID: a.PatientID.String(),
		Doctor: DoctorSnapshotResponse{
			ID:           a.Doctor.DoctorID.String(),
			Name:         a.Doctor.Name,
			Image:        a.Doctor.Image,
			Specialty:    a.Doctor.Specialty,
			Fee:          a.Doctor.Fee.StringFixed(2),
			AddressLine1: a.Doctor.AddressLine1,
			AddressLine2: a.Doctor.AddressLine2,
		},
		ScheduledDate: utils.FormatDate(a.ScheduledDate),
		ScheduledTime: a.ScheduledTime,
		Status:        a.Status,
		PaymentStatus: a.PaymentStatus,
		PaymentMethod: a.PaymentMethod,
		Notes:         a.Notes,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func NewAppointmentListResponse(list []*entity.Appointment) []*AppointmentResponse {
	out := make([]*AppointmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, NewAppointmentResponse(a))
	}
	return out
}

type SlotResponse struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type AvailableSlotsResponse struct {
	DoctorID string         `json:"doctor_id"`
	Date     string         `json:"date"`
	Slots    []SlotResponse `json:"slots"`
}
