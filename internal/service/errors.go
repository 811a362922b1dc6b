package service

import "errors"

// Sentinels mapped to HTTP status codes by the delivery layer.
var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrMaterialNotFound  = errors.New("material not found")
	ErrAlreadyProcessing = errors.New("material is already queued or processing")
	ErrAlreadyCompleted  = errors.New("material has already been processed")
	ErrNotReady          = errors.New("result is not ready yet")
	ErrReportNotFound    = errors.New("originality report not found")

	// ErrPipelineFailed means the failure was recorded on the processing record.
	ErrPipelineFailed = errors.New("processing pipeline failed")
)
