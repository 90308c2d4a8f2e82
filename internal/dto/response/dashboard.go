package response

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type DashboardResponse struct {
	TotalAppointments int                    `json:"total_appointments"`
	Patients          int                    `json:"patients"`
	Doctors           int                    `json:"doctors"`
	ByStatus          map[string]int         `json:"by_status"`
	ByPaymentStatus   map[string]int         `json:"by_payment_status"`
	PerDay            []DayCount             `json:"per_day"`
	PaidRevenue       string                 `json:"paid_revenue"`
	Latest            []*AppointmentResponse `json:"latest"`
}
