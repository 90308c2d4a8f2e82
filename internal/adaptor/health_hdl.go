package adaptor

import (
	"context"
	"net/http"
	"time"

	"clinic-booking/pkg/utils"

	"go.uber.org/zap"
)

// PingFunc checks one dependency.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	name  string
	store PingFunc
	redis PingFunc
	log   *zap.Logger
}

// NewHealthHandler reports on the store and, when redis is non-nil, on the
// slot lock backend. A Redis outage only degrades readiness.
func NewHealthHandler(name string, store, redis PingFunc, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		name:  name,
		store: store,
		redis: redis,
		log:   log.With(zap.String("handler", "health")),
	}
}

type readiness struct {
	Service      string            `json:"service"`
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	utils.ResponseSuccess(w, "ok", map[string]string{"service": h.name, "status": "ok"})
}

// Ready handles GET /health/ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := readiness{Service: h.name, Status: "ok", Dependencies: map[string]string{}}

	if err := h.store(ctx); err != nil {
		h.log.Error("Store not ready", zap.Error(err))
		resp.Dependencies["store"] = "down"
		resp.Status = "error"
	} else {
		resp.Dependencies["store"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis(ctx); err != nil {
			h.log.Warn("Redis not ready", zap.Error(err))
			resp.Dependencies["redis"] = "down"
			if resp.Status == "ok" {
				resp.Status = "degraded"
			}
		} else {
			resp.Dependencies["redis"] = "ok"
		}
	}

	if resp.Status == "error" {
		utils.ResponseJSON(w, http.StatusServiceUnavailable, false, "not ready", resp, nil)
		return
	}
	utils.ResponseSuccess(w, resp.Status, resp)
}
