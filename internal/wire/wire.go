package wire

import (
	"clinic-booking/internal/adaptor"
	"clinic-booking/internal/usecase"
	"clinic-booking/pkg/middleware"
	"clinic-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the assembled HTTP surface.
type App struct {
	Router *chi.Mux
}

// Wiring builds handlers over service and mounts every route.
func Wiring(service *usecase.Service, health *adaptor.HealthHandler, config *utils.Config, logger *zap.Logger) *App {
	handler := adaptor.NewHandler(service, health, logger)

	return &App{
		Router: setupRouter(handler, config, logger),
	}
}

func setupRouter(handler *adaptor.Handler, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))

	r.Get("/health", handler.Health.Health)
	r.Get("/health/ready", handler.Health.Ready)

	wireAppointment(r, handler.Appointment, config, logger)
	wireAdmin(r, handler.Admin, config, logger)

	return r
}
