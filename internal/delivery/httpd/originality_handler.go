package httpd

import (
	"errors"
	"io"
	"net/http"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/content-service/pkg/utils"
	"github.com/go-chi/chi/v5"
)

// RunOriginalityCheck runs synchronously. The body may name a document; without
// one the material's processed document is checked.
func (h *Handler) RunOriginalityCheck(w http.ResponseWriter, r *http.Request) {
	var req models.OriginalityCheckRequest
	if err := utils.ReadJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.originalityService.RunCheck(r.Context(), chi.URLParam(r, "material_id"), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeSuccess(w, report)
}

func (h *Handler) GetOriginalityReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.originalityService.GetLatestReport(r.Context(), chi.URLParam(r, "material_id"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeSuccess(w, report)
}
