package request

type BookAppointmentRequest struct {
	DoctorID string `json:"doctor_id" validate:"required,uuid"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"required"`
	Notes    string `json:"notes" validate:"max=1000"`
}

// UpdatePaymentRequest changes only the fields that are present.
type UpdatePaymentRequest struct {
	PaymentStatus *string `json:"payment_status,omitempty" validate:"required_without=PaymentMethod,omitempty,oneof=pending paid failed"`
	PaymentMethod *string `json:"payment_method,omitempty" validate:"required_without=PaymentStatus,omitempty,oneof=online cash"`
}

type UpdateNotesRequest struct {
	Notes string `json:"notes" validate:"max=1000"`
}
