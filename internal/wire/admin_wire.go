package wire

import (
	"clinic-booking/internal/adaptor"
	"clinic-booking/internal/data/entity"
	"clinic-booking/pkg/middleware"
	"clinic-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAdmin(
	r chi.Router,
	h *adaptor.AdminHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(config.JWT, log))
		r.Use(middleware.RequireRole(log, entity.RoleAdmin))

		r.Get("/appointments", h.Appointments)
		r.Get("/dashboard", h.Dashboard)
	})
}
