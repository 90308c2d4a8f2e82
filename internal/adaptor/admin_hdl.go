package adaptor

import (
	"net/http"

	"clinic-booking/internal/usecase"
	"clinic-booking/pkg/utils"

	"go.uber.org/zap"
)

type AdminHandler struct {
	query usecase.QueryService
	log   *zap.Logger
}

func NewAdminHandler(query usecase.QueryService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		query: query,
		log:   log.With(zap.String("handler", "admin")),
	}
}

// Appointments handles GET /api/admin/appointments
func (h *AdminHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	appointments, err := h.query.AllAppointments(r.Context(), caller)
	if err != nil {
		handleServiceError(w, h.log, err, "list all appointments")
		return
	}

	utils.ResponseSuccess(w, "success", appointments)
}

// Dashboard handles GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	stats, err := h.query.Dashboard(r.Context(), caller)
	if err != nil {
		handleServiceError(w, h.log, err, "load dashboard")
		return
	}

	utils.ResponseSuccess(w, "success", stats)
}
