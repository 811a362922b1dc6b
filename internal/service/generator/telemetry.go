package generator

import (
	"context"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/rs/zerolog"
)

type UsageRecorder interface {
	Record(ctx context.Context, record *models.UsageRecord) error
}

// Tracker reports every model attempt to a UsageRecorder. Recorder errors are logged and dropped.
type Tracker struct {
	recorder UsageRecorder
	logger   zerolog.Logger
}

func NewTracker(recorder UsageRecorder, logger zerolog.Logger) *Tracker {
	return &Tracker{
		recorder: recorder,
		logger:   logger,
	}
}

// Operation builds a pool operation for req that records the outcome of each attempt.
func (t *Tracker) Operation(materialID string, req models.GenerationRequest) Operation {
	return func(ctx context.Context, cred Credential) (*models.GenerationResult, error) {
		result, err := cred.Client.Generate(ctx, req)
		t.track(ctx, materialID, req.Operation, cred.ID, result, err)
		return result, err
	}
}

func (t *Tracker) track(ctx context.Context, materialID string, op models.OperationKind, credential string, result *models.GenerationResult, callErr error) {
	if t == nil || t.recorder == nil {
		return
	}

	record := &models.UsageRecord{
		OperationType: op,
		Credential:    credential,
		Success:       callErr == nil,
		CreatedAt:     time.Now().UTC(),
	}
	if materialID != "" {
		record.MaterialID = &materialID
	}
	if result != nil {
		record.InputTokens = result.Usage.InputTokens
		record.OutputTokens = result.Usage.OutputTokens
		record.TotalTokens = result.Usage.TotalTokens
	}
	if callErr != nil {
		msg := callErr.Error()
		record.ErrorMessage = &msg
	}

	defer func() {
		if r := recover(); r != nil {
			t.logger.Error().Interface("panic", r).Msg("Usage recorder panicked")
		}
	}()

	if err := t.recorder.Record(ctx, record); err != nil {
		t.logger.Warn().
			Err(err).
			Str("operation", op.String()).
			Msg("Failed to record model usage")
	}
}
