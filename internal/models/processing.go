package models

import (
	"time"
)

type ProcessingStatus string

const (
	ProcessingStatusPending    ProcessingStatus = "pending"
	ProcessingStatusProcessing ProcessingStatus = "processing"
	ProcessingStatusCompleted  ProcessingStatus = "completed"
	ProcessingStatusFailed     ProcessingStatus = "failed"
)

func (s ProcessingStatus) String() string {
	return string(s)
}

func (s ProcessingStatus) Valid() bool {
	switch s {
	case ProcessingStatusPending, ProcessingStatusProcessing, ProcessingStatusCompleted, ProcessingStatusFailed:
		return true
	}
	return false
}

func (s ProcessingStatus) IsTerminal() bool {
	return s == ProcessingStatusCompleted || s == ProcessingStatusFailed
}

// transitions lists, for every target state, the states it may be entered from.
// failed -> pending is the explicit re-trigger; nothing leaves completed.
var transitions = map[ProcessingStatus][]ProcessingStatus{
	ProcessingStatusPending:    {ProcessingStatusFailed},
	ProcessingStatusProcessing: {ProcessingStatusPending},
	ProcessingStatusCompleted:  {ProcessingStatusProcessing},
	ProcessingStatusFailed:     {ProcessingStatusPending, ProcessingStatusProcessing},
}

// SourcesOf returns the states from which next may be entered.
func SourcesOf(next ProcessingStatus) []ProcessingStatus {
	return transitions[next]
}

func (s ProcessingStatus) CanTransitionTo(next ProcessingStatus) bool {
	for _, from := range transitions[next] {
		if from == s {
			return true
		}
	}
	return false
}

type QuestionQuality string

const (
	QuestionQualityStrict      QuestionQuality = "strict"
	QuestionQualityLenient     QuestionQuality = "lenient"
	QuestionQualityPlaceholder QuestionQuality = "placeholder"

	// QuestionQualityFallback marks questions built from document sentences after generation failed.
	QuestionQualityFallback QuestionQuality = "fallback"
)

func (q QuestionQuality) Degraded() bool {
	return q != QuestionQualityStrict
}

// ProcessingRecord tracks the pipeline lifecycle of one material.
type ProcessingRecord struct {
	MaterialID      string           `json:"material_id" db:"material_id"`
	DocumentKey     string           `json:"document_key" db:"document_key"`
	FileName        string           `json:"file_name" db:"file_name"`
	MimeType        string           `json:"mime_type" db:"mime_type"`
	Status          ProcessingStatus `json:"status" db:"status"`
	HasSummary      bool             `json:"has_summary" db:"has_summary"`
	HasQuestions    bool             `json:"has_questions" db:"has_questions"`
	Summary         string           `json:"summary,omitempty" db:"summary"`
	QuestionQuality *QuestionQuality `json:"question_quality,omitempty" db:"question_quality"`
	ProcessingError *string          `json:"processing_error,omitempty" db:"processing_error"`
	Attempts        int              `json:"attempts" db:"attempts"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	StartedAt       *time.Time       `json:"started_at,omitempty" db:"started_at"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

func (r *ProcessingRecord) DocumentRef() DocumentRef {
	return DocumentRef{
		MaterialID: r.MaterialID,
		Key:        r.DocumentKey,
		FileName:   r.FileName,
		MimeType:   r.MimeType,
	}
}

func (r *ProcessingRecord) StatusView() *ProcessingStatusResponse {
	resp := &ProcessingStatusResponse{
		MaterialID:   r.MaterialID,
		Status:       r.Status,
		HasSummary:   r.HasSummary,
		HasQuestions: r.HasQuestions,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.Status == ProcessingStatusFailed && r.ProcessingError != nil {
		resp.Error = *r.ProcessingError
	}
	if r.QuestionQuality != nil {
		resp.QuestionQuality = string(*r.QuestionQuality)
	}
	return resp
}

// DocumentRef is an opaque reference to a stored document.
type DocumentRef struct {
	MaterialID string `json:"material_id"`
	Key        string `json:"document_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
}

type ProcessingStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}
