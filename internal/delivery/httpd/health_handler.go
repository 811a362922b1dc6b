package httpd

import (
	"context"
	"net/http"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
)

const healthCheckTimeout = 3 * time.Second

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	}

	writeJSON(w, http.StatusOK, response)
}

// GetServiceStatus pings every dependency. The service is degraded, not down, when
// one of them fails.
func (h *Handler) GetServiceStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	response := &models.HealthCheckResponse{
		Status:       "healthy",
		Service:      serviceName,
		Dependencies: make(map[string]bool, len(h.checks)),
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:    time.Now().UTC(),
	}

	for name, check := range h.checks {
		err := check.Ping(ctx)
		response.Dependencies[name] = err == nil
		if err != nil {
			response.Status = "degraded"
			h.logger.Error().Err(err).Str("dependency", name).Msg("Health check failed")
		}
	}

	if h.workerStats != nil {
		response.Worker = h.workerStats.GetStats()
	}

	writeSuccess(w, response)
}
