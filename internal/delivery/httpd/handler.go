package httpd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/service"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/service/generator"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/worker"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const serviceName = "content-service"

// HealthChecker reports whether one dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

type WorkerStatsProvider interface {
	GetStats() worker.WorkerStats
}

type Handler struct {
	processingService  service.ProcessingService
	originalityService service.OriginalityService
	usageService       service.UsageService
	checks             map[string]HealthChecker
	workerStats        WorkerStatsProvider
	startTime          time.Time
	logger             zerolog.Logger
}

func NewHandler(
	processingService service.ProcessingService,
	originalityService service.OriginalityService,
	usageService service.UsageService,
	checks map[string]HealthChecker,
	workerStats WorkerStatsProvider,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		processingService:  processingService,
		originalityService: originalityService,
		usageService:       usageService,
		checks:             checks,
		workerStats:        workerStats,
		startTime:          time.Now(),
		logger:             logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)
	router.Get("/status", h.GetServiceStatus)

	router.Route("/api/v1", func(api chi.Router) {
		api.Route("/materials/{material_id}", func(r chi.Router) {
			r.Post("/process", h.ProcessMaterial)
			r.Get("/status", h.GetProcessingStatus)
			r.Get("/summary", h.GetSummary)
			r.Get("/questions", h.GetQuestions)
			r.Post("/originality", h.RunOriginalityCheck)
			r.Get("/originality", h.GetOriginalityReport)
		})

		api.Route("/processing", func(r chi.Router) {
			r.Post("/retry", h.RetryFailed)
			r.Get("/stats", h.GetProcessingStats)
		})

		api.Get("/usage/stats", h.GetUsageStats)
	})
}

// handleError maps service errors to status codes. Anything unrecognised is logged
// and reported as an internal error.
func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrMaterialNotFound), errors.Is(err, service.ErrReportNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyProcessing),
		errors.Is(err, service.ErrAlreadyCompleted),
		errors.Is(err, service.ErrNotReady):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, generator.ErrNoCredentials):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error().Err(err).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeSuccessStatus(w, http.StatusOK, data)
}

func writeSuccessStatus(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}
