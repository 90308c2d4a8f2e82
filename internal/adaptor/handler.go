package adaptor

import (
	"clinic-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Appointment *AppointmentHandler
	Admin       *AdminHandler
	Health      *HealthHandler
}

func NewHandler(service *usecase.Service, health *HealthHandler, log *zap.Logger) *Handler {
	return &Handler{
		Appointment: NewAppointmentHandler(service, log),
		Admin:       NewAdminHandler(service.Query, log),
		Health:      health,
	}
}
