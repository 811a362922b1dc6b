package models

import "time"

// Data Transfer Objects

type ProcessMaterialRequest struct {
	MaterialID  string `json:"-"`
	DocumentKey string `json:"document_key"`
	FileName    string `json:"file_name"`
	MimeType    string `json:"mime_type"`
}

type ProcessingStatusResponse struct {
	MaterialID      string           `json:"material_id"`
	Status          ProcessingStatus `json:"status"`
	HasSummary      bool             `json:"has_summary"`
	HasQuestions    bool             `json:"has_questions"`
	QuestionQuality string           `json:"question_quality,omitempty"`
	Error           string           `json:"error,omitempty"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type SummaryResponse struct {
	MaterialID string `json:"material_id"`
	Summary    string `json:"summary"`
}

type QuestionsResponse struct {
	MaterialID string     `json:"material_id"`
	Quality    string     `json:"quality,omitempty"`
	Count      int        `json:"count"`
	Questions  []Question `json:"questions"`
}

type OriginalityCheckRequest struct {
	DocumentKey string `json:"document_key,omitempty"`
	FileName    string `json:"file_name,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
}

type RetryFailedResponse struct {
	Retried   int       `json:"retried"`
	Recovered int       `json:"recovered_stalled"`
	Limit     int       `json:"limit"`
	Timestamp time.Time `json:"timestamp"`
}

type HealthCheckResponse struct {
	Status       string          `json:"status"`
	Service      string          `json:"service"`
	Dependencies map[string]bool `json:"dependencies"`
	Worker       interface{}     `json:"worker,omitempty"`
	Uptime       string          `json:"uptime"`
	Timestamp    time.Time       `json:"timestamp"`
}
