package httpd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/service"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/service/generator"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/worker"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type fakeProcessingService struct {
	service.ProcessingService
	submitted []models.ProcessMaterialRequest
	submitErr error
	statusErr error
	retryArg  int
}

func (f *fakeProcessingService) Submit(ctx context.Context, req models.ProcessMaterialRequest) (*models.ProcessingStatusResponse, error) {
	f.submitted = append(f.submitted, req)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &models.ProcessingStatusResponse{MaterialID: req.MaterialID, Status: models.ProcessingStatusPending}, nil
}

func (f *fakeProcessingService) GetProcessingStatus(ctx context.Context, materialID string) (*models.ProcessingStatusResponse, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &models.ProcessingStatusResponse{
		MaterialID: materialID,
		Status:     models.ProcessingStatusFailed,
		HasSummary: true,
		Error:      "question generation failed",
		UpdatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil
}

func (f *fakeProcessingService) RetryFailed(ctx context.Context, limit int) (*models.RetryFailedResponse, error) {
	f.retryArg = limit
	return &models.RetryFailedResponse{Retried: 1, Limit: limit}, nil
}

type fakeOriginalityService struct {
	service.OriginalityService
	requests []models.OriginalityCheckRequest
}

func (f *fakeOriginalityService) RunCheck(ctx context.Context, materialID string, req models.OriginalityCheckRequest) (*models.PlagiarismReport, error) {
	f.requests = append(f.requests, req)
	return &models.PlagiarismReport{ID: "r-1", MaterialID: materialID, OverallScore: 18}, nil
}

func (f *fakeOriginalityService) GetLatestReport(ctx context.Context, materialID string) (*models.PlagiarismReport, error) {
	return nil, fmt.Errorf("%w: %s", service.ErrReportNotFound, materialID)
}

type fakeWorkerStats struct{}

func (fakeWorkerStats) GetStats() worker.WorkerStats {
	return worker.WorkerStats{MaxWorkers: 4, QueueLength: 2}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func newTestRouter(processing *fakeProcessingService, originality *fakeOriginalityService, checks map[string]HealthChecker) http.Handler {
	h := NewHandler(processing, originality, nil, checks, fakeWorkerStats{}, zerolog.Nop())
	router := chi.NewRouter()
	h.RegisterRoutes(router)
	return router
}

func do(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func TestProcessMaterialAccepted(t *testing.T) {
	processing := &fakeProcessingService{}
	router := newTestRouter(processing, &fakeOriginalityService{}, nil)

	rec, env := do(t, router, http.MethodPost, "/api/v1/materials/m-1/process",
		`{"document_key":"materials/m-1.pdf","file_name":"m-1.pdf","mime_type":"application/pdf"}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", rec.Code)
	}
	if !env.Success {
		t.Errorf("Expected success envelope")
	}

	var data map[string]string
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if data["status_url"] != "/api/v1/materials/m-1/status" || data["status"] != "pending" {
		t.Errorf("Unexpected response data %v", data)
	}

	if len(processing.submitted) != 1 {
		t.Fatalf("Expected 1 submission, got %d", len(processing.submitted))
	}
	if got := processing.submitted[0]; got.MaterialID != "m-1" || got.DocumentKey != "materials/m-1.pdf" {
		t.Errorf("Unexpected submission %+v", got)
	}
}

func TestProcessMaterialEmptyBodyRetriggers(t *testing.T) {
	processing := &fakeProcessingService{}
	router := newTestRouter(processing, &fakeOriginalityService{}, nil)

	rec, _ := do(t, router, http.MethodPost, "/api/v1/materials/m-1/process", "")
	if rec.Code != http.StatusAccepted {
		t.Errorf("Expected status 202, got %d", rec.Code)
	}
}

func TestProcessMaterialErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		submitErr  error
		wantStatus int
	}{
		{"invalid json", `{"document_key":`, nil, http.StatusBadRequest},
		{"unknown field", `{"document":"x"}`, nil, http.StatusBadRequest},
		{"invalid request", `{}`, fmt.Errorf("%w: document_key is required", service.ErrInvalidRequest), http.StatusBadRequest},
		{"already processing", `{}`, service.ErrAlreadyProcessing, http.StatusConflict},
		{"already completed", `{}`, service.ErrAlreadyCompleted, http.StatusConflict},
		{"no credentials", `{}`, generator.ErrNoCredentials, http.StatusServiceUnavailable},
		{"broker down", `{}`, errors.New("failed to publish processing job"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeProcessingService{submitErr: tt.submitErr}, &fakeOriginalityService{}, nil)

			rec, env := do(t, router, http.MethodPost, "/api/v1/materials/m-1/process", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if env.Success || env.Error != http.StatusText(tt.wantStatus) {
				t.Errorf("Unexpected error envelope %+v", env)
			}
		})
	}
}

func TestGetProcessingStatus(t *testing.T) {
	router := newTestRouter(&fakeProcessingService{}, &fakeOriginalityService{}, nil)

	rec, env := do(t, router, http.MethodGet, "/api/v1/materials/m-7/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var status models.ProcessingStatusResponse
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatalf("Failed to decode status: %v", err)
	}
	if status.MaterialID != "m-7" || status.Status != models.ProcessingStatusFailed || status.Error == "" {
		t.Errorf("Unexpected status %+v", status)
	}

	notFound := newTestRouter(&fakeProcessingService{statusErr: service.ErrMaterialNotFound}, &fakeOriginalityService{}, nil)
	if rec, _ := do(t, notFound, http.MethodGet, "/api/v1/materials/m-7/status", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestRetryFailedPassesLimit(t *testing.T) {
	processing := &fakeProcessingService{}
	router := newTestRouter(processing, &fakeOriginalityService{}, nil)

	rec, _ := do(t, router, http.MethodPost, "/api/v1/processing/retry?limit=7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if processing.retryArg != 7 {
		t.Errorf("Expected limit 7, got %d", processing.retryArg)
	}
}

func TestOriginalityEndpoints(t *testing.T) {
	originality := &fakeOriginalityService{}
	router := newTestRouter(&fakeProcessingService{}, originality, nil)

	rec, env := do(t, router, http.MethodPost, "/api/v1/materials/m-1/originality", `{"document_key":"drafts/m-1.docx"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var report models.PlagiarismReport
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	if report.OverallScore != 18 || report.MaterialID != "m-1" {
		t.Errorf("Unexpected report %+v", report)
	}
	if originality.requests[0].DocumentKey != "drafts/m-1.docx" {
		t.Errorf("Expected document key to be passed through, got %+v", originality.requests[0])
	}

	if rec, _ := do(t, router, http.MethodGet, "/api/v1/materials/m-1/originality", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestServiceStatusDegraded(t *testing.T) {
	checks := map[string]HealthChecker{
		"database": HealthCheckFunc(func(ctx context.Context) error { return nil }),
		"rabbitmq": HealthCheckFunc(func(ctx context.Context) error { return errors.New("connection closed") }),
	}
	router := newTestRouter(&fakeProcessingService{}, &fakeOriginalityService{}, checks)

	rec, env := do(t, router, http.MethodGet, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var status models.HealthCheckResponse
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatalf("Failed to decode status: %v", err)
	}
	if status.Status != "degraded" {
		t.Errorf("Expected degraded, got %s", status.Status)
	}
	if !status.Dependencies["database"] || status.Dependencies["rabbitmq"] {
		t.Errorf("Unexpected dependencies %v", status.Dependencies)
	}
	if status.Worker == nil {
		t.Errorf("Expected worker stats")
	}
}
