package httpd

import (
	"errors"
	"io"
	"net/http"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/content-service/pkg/utils"
	"github.com/go-chi/chi/v5"
)

// ProcessMaterial queues the pipeline and returns immediately. A failed material may
// be re-triggered with an empty body.
func (h *Handler) ProcessMaterial(w http.ResponseWriter, r *http.Request) {
	var req models.ProcessMaterialRequest
	if err := utils.ReadJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.MaterialID = chi.URLParam(r, "material_id")

	status, err := h.processingService.Submit(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeSuccessStatus(w, http.StatusAccepted, map[string]interface{}{
		"material_id": status.MaterialID,
		"status":      status.Status,
		"message":     "Processing started asynchronously",
		"status_url":  "/api/v1/materials/" + status.MaterialID + "/status",
	})
}

func (h *Handler) GetProcessingStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.processingService.GetProcessingStatus(r.Context(), chi.URLParam(r, "material_id"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeSuccess(w, status)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.processingService.GetSummary(r.Context(), chi.URLParam(r, "material_id"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeSuccess(w, summary)
}

func (h *Handler) GetQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.processingService.GetQuestions(r.Context(), chi.URLParam(r, "material_id"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeSuccess(w, questions)
}

func (h *Handler) RetryFailed(w http.ResponseWriter, r *http.Request) {
	limit := getIntQueryParam(r, "limit", 0)

	resp, err := h.processingService.RetryFailed(r.Context(), limit)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeSuccess(w, resp)
}

func (h *Handler) GetProcessingStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.processingService.GetStats(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeSuccess(w, stats)
}

func (h *Handler) GetUsageStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.usageService.GetUsageStats(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeSuccess(w, stats)
}
