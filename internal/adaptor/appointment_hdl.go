package adaptor

import (
	"encoding/json"
	"net/http"

	"clinic-booking/internal/dto/request"
	"clinic-booking/internal/usecase"
	"clinic-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AppointmentHandler struct {
	booking   usecase.BookingService
	lifecycle usecase.LifecycleService
	query     usecase.QueryService
	log       *zap.Logger
}

func NewAppointmentHandler(service *usecase.Service, log *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		booking:   service.Booking,
		lifecycle: service.Lifecycle,
		query:     service.Query,
		log:       log.With(zap.String("handler", "appointment")),
	}
}

// Book handles POST /api/appointments
func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	appointment, err := h.booking.BookAppointment(r.Context(), caller, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "book appointment")
		return
	}

	utils.ResponseCreated(w, "Appointment booked", appointment)
}

// Get handles GET /api/appointments/{id}
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	appointment, err := h.query.GetAppointment(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get appointment")
		return
	}

	utils.ResponseSuccess(w, "success", appointment)
}

// Confirm handles PUT /api/appointments/{id}/confirm
func (h *AppointmentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	appointment, err := h.lifecycle.Confirm(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "confirm appointment")
		return
	}

	utils.ResponseSuccess(w, "Appointment confirmed", appointment)
}

// Cancel handles PUT /api/appointments/{id}/cancel
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	appointment, err := h.lifecycle.Cancel(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "cancel appointment")
		return
	}

	utils.ResponseSuccess(w, "Appointment cancelled", appointment)
}

// Complete handles PUT /api/appointments/{id}/complete
func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	appointment, err := h.lifecycle.Complete(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "complete appointment")
		return
	}

	utils.ResponseSuccess(w, "Appointment completed", appointment)
}

// UpdatePayment handles PUT /api/appointments/{id}/payment
func (h *AppointmentHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.UpdatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	appointment, err := h.lifecycle.UpdatePayment(r.Context(), caller, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update payment")
		return
	}

	utils.ResponseSuccess(w, "Payment updated", appointment)
}

// UpdateNotes handles PUT /api/appointments/{id}/notes
func (h *AppointmentHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.UpdateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	appointment, err := h.lifecycle.UpdateNotes(r.Context(), caller, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update notes")
		return
	}

	utils.ResponseSuccess(w, "Notes updated", appointment)
}

// Mine handles GET /api/appointments/mine
func (h *AppointmentHandler) Mine(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	appointments, err := h.query.MyAppointments(r.Context(), caller)
	if err != nil {
		handleServiceError(w, h.log, err, "list my appointments")
		return
	}

	utils.ResponseSuccess(w, "success", appointments)
}

// ForDoctor handles GET /api/doctors/{doctorId}/appointments
func (h *AppointmentHandler) ForDoctor(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	appointments, err := h.query.DoctorAppointments(r.Context(), caller, chi.URLParam(r, "doctorId"))
	if err != nil {
		handleServiceError(w, h.log, err, "list doctor appointments")
		return
	}

	utils.ResponseSuccess(w, "success", appointments)
}

// AvailableSlots handles GET /api/doctors/{doctorId}/slots?date=YYYY-MM-DD
func (h *AppointmentHandler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		utils.ResponseBadRequest(w, "Query parameter date is required", nil)
		return
	}

	slots, err := h.booking.AvailableSlots(r.Context(), caller, chi.URLParam(r, "doctorId"), date)
	if err != nil {
		handleServiceError(w, h.log, err, "list available slots")
		return
	}

	utils.ResponseSuccess(w, "success", slots)
}
