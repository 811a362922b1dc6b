package models

import (
	"time"
)

// UsageRecord is one model call. Rows are only ever inserted.
type UsageRecord struct {
	ID            string        `json:"id" db:"id"`
	MaterialID    *string       `json:"material_id,omitempty" db:"material_id"`
	OperationType OperationKind `json:"operation_type" db:"operation_type"`
	Credential    string        `json:"credential,omitempty" db:"credential"`
	InputTokens   int           `json:"input_tokens" db:"input_tokens"`
	OutputTokens  int           `json:"output_tokens" db:"output_tokens"`
	TotalTokens   int           `json:"total_tokens" db:"total_tokens"`
	Success       bool          `json:"success" db:"success"`
	ErrorMessage  *string       `json:"error_message,omitempty" db:"error_message"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

type UsageStats struct {
	OperationType OperationKind `json:"operation_type" db:"operation_type"`
	Calls         int           `json:"calls" db:"calls"`
	FailedCalls   int           `json:"failed_calls" db:"failed_calls"`
	InputTokens   int64         `json:"input_tokens" db:"input_tokens"`
	OutputTokens  int64         `json:"output_tokens" db:"output_tokens"`
	TotalTokens   int64         `json:"total_tokens" db:"total_tokens"`
	LastCallAt    *time.Time    `json:"last_call_at,omitempty" db:"last_call_at"`
}
