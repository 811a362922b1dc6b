package models

import (
	"time"
)

const (
	MessageTypeProcessMaterial = "material.process"
)

// ProcessingJob asks the worker to run the pipeline for one material.
type ProcessingJob struct {
	Type       string `json:"type"`
	MaterialID string `json:"material_id"`
	Timestamp  int64  `json:"timestamp"`
}

type MaterialProcessedEvent struct {
	MaterialID      string          `json:"material_id"`
	Status          string          `json:"status"`
	QuestionCount   int             `json:"question_count"`
	QuestionQuality QuestionQuality `json:"question_quality"`
	ProcessingTime  int             `json:"processing_time_ms"`
	CompletedAt     time.Time       `json:"completed_at"`
}

type MaterialFailedEvent struct {
	MaterialID string    `json:"material_id"`
	Error      string    `json:"error"`
	Attempts   int       `json:"attempts"`
	HasSummary bool      `json:"has_summary"`
	FailedAt   time.Time `json:"failed_at"`
}
