package handler

import (
	"net/http"
	"time"

	"gatepass/internal/container"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{
		container: container,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks"`
	Streams   int               `json:"streams"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	status := "healthy"
	checks := map[string]string{
		"database": "ok",
		"redis":    "ok",
	}

	if err := h.container.DB.Health(r.Context()); err != nil {
		log.WithError(err).Warn("database health check failed")
		checks["database"] = err.Error()
		status = "degraded"
	}
	if err := h.container.RedisClient.Health(r.Context()); err != nil {
		log.WithError(err).Warn("redis health check failed")
		checks["redis"] = err.Error()
		status = "degraded"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Service:   "gatepass",
		Checks:    checks,
		Streams:   h.container.GetHub().ConnectionCount(),
	}, log)
}
