package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/dropDatabas3/promptcast/internal/observability/logger"
)

// CheckFunc es un ping de componente. nil significa "componente no wired"
// y se omite del reporte.
type CheckFunc func(ctx context.Context) error

// Health expone /healthz (liveness) y /readyz (readiness con pings).
type Health struct {
	StoreCheck CheckFunc
	RedisCheck CheckFunc
}

type componentStatus struct {
	Status string `json:"status"` // "up" o "down"
	Error  string `json:"error,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"` // "ready", "degraded" o "unavailable"
	Version    string                     `json:"version,omitempty"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]componentStatus `json:"components"`
}

// Healthz responde liveness: el proceso está vivo, nada más.
func (h *Health) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Readyz responde readiness: pinga store y redis con timeout corto.
// El store caído NO baja el readiness a unavailable (degraded): los
// entitlements degradan a free y el servicio sigue sirviendo.
func (h *Health) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:     "ready",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]componentStatus),
	}
	if v := os.Getenv("SERVICE_VERSION"); v != "" {
		resp.Version = v
	}

	check := func(name string, fn CheckFunc) {
		if fn == nil {
			return
		}
		if err := fn(ctx); err != nil {
			resp.Components[name] = componentStatus{Status: "down", Error: err.Error()}
			resp.Status = "degraded"
			logger.From(r.Context()).Warn("readiness component down",
				logger.Component(name),
				logger.Err(err),
			)
			return
		}
		resp.Components[name] = componentStatus{Status: "up"}
	}

	check("store", h.StoreCheck)
	check("redis", h.RedisCheck)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
