package wire

import (
	"clinic-booking/internal/adaptor"
	"clinic-booking/internal/data/entity"
	"clinic-booking/pkg/middleware"
	"clinic-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAppointment(
	r chi.Router,
	h *adaptor.AppointmentHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(config.JWT, log))

		r.Route("/api/appointments", func(r chi.Router) {
			// patient only
			r.With(middleware.RequireRole(log, entity.RolePatient)).Post("/", h.Book)
			r.With(middleware.RequireRole(log, entity.RolePatient)).Get("/mine", h.Mine)

			// ownership is checked per appointment by the core
			r.Get("/{id}", h.Get)
			r.Put("/{id}/confirm", h.Confirm)
			r.Put("/{id}/cancel", h.Cancel)
			r.Put("/{id}/complete", h.Complete)
			r.Put("/{id}/payment", h.UpdatePayment)
			r.Put("/{id}/notes", h.UpdateNotes)
		})

		r.Route("/api/doctors/{doctorId}", func(r chi.Router) {
			r.With(middleware.RequireRole(log, entity.RoleDoctor, entity.RoleAdmin)).Get("/appointments", h.ForDoctor)
			r.Get("/slots", h.AvailableSlots)
		})
	})
}
