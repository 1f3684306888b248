package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/socialhub/utils"
	"go.uber.org/zap"
)

// HealthChecker is a dependency probed by the readiness check
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	database HealthChecker
	cache    HealthChecker
	logger   *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. A nil checker is reported healthy.
func NewHealthHandler(database, cache HealthChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		database: database,
		cache:    cache,
		logger:   logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness check - always returns 200 if the process is serving
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
// Readiness check - the database and the revocation cache must both answer
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	probes := []struct {
		name    string
		checker HealthChecker
	}{
		{"database", h.database},
		{"redis", h.cache},
	}
	for _, probe := range probes {
		if probe.checker == nil {
			checks[probe.name] = "healthy"
			continue
		}
		if err := probe.checker.HealthCheck(ctx); err != nil {
			h.logger.Warn("health check failed",
				zap.String("dependency", probe.name),
				zap.Error(err))
			checks[probe.name] = "unhealthy"
			allHealthy = false
			continue
		}
		checks[probe.name] = "healthy"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Success: allHealthy, Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
