package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/repository"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/service/generator"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/worker/queue"
	"github.com/rs/zerolog"
)

const (
	defaultRetryBatchLimit = 50
	defaultStalledAfter    = 30 * time.Minute
)

type ProcessingService interface {
	Submit(ctx context.Context, req models.ProcessMaterialRequest) (*models.ProcessingStatusResponse, error)
	Process(ctx context.Context, materialID string) error
	GetProcessingStatus(ctx context.Context, materialID string) (*models.ProcessingStatusResponse, error)
	GetSummary(ctx context.Context, materialID string) (*models.SummaryResponse, error)
	GetQuestions(ctx context.Context, materialID string) (*models.QuestionsResponse, error)
	GenerateSummary(ctx context.Context, ref models.DocumentRef) (string, error)
	GenerateQuestions(ctx context.Context, ref models.DocumentRef) (*models.QuestionSet, error)
	RetryFailed(ctx context.Context, limit int) (*models.RetryFailedResponse, error)
	GetStats(ctx context.Context) (*models.ProcessingStats, error)
}

// ProcessingConfig names the routing keys of the pipeline. StalledAfter is how long a
// record may stay in processing before RetryFailed treats its worker as lost.
type ProcessingConfig struct {
	Exchange            string
	ProcessRoutingKey   string
	CompletedRoutingKey string
	FailedRoutingKey    string
	RetryBatchLimit     int
	StalledAfter        time.Duration
}

type processingService struct {
	processingRepo    repository.ProcessingRepository
	questionRepo      repository.QuestionRepository
	statusCache       repository.StatusCache
	summarizer        generator.Summarizer
	questionGenerator generator.QuestionGenerator
	publisher         queue.RabbitMQPublisher
	logger            zerolog.Logger
	config            ProcessingConfig
}

func NewProcessingService(
	processingRepo repository.ProcessingRepository,
	questionRepo repository.QuestionRepository,
	statusCache repository.StatusCache,
	summarizer generator.Summarizer,
	questionGenerator generator.QuestionGenerator,
	publisher queue.RabbitMQPublisher,
	logger zerolog.Logger,
	config ProcessingConfig,
) ProcessingService {
	if config.RetryBatchLimit < 1 {
		config.RetryBatchLimit = defaultRetryBatchLimit
	}
	if config.StalledAfter <= 0 {
		config.StalledAfter = defaultStalledAfter
	}
	if statusCache == nil {
		statusCache = repository.NewNoopStatusCache()
	}
	return &processingService{
		processingRepo:    processingRepo,
		questionRepo:      questionRepo,
		statusCache:       statusCache,
		summarizer:        summarizer,
		questionGenerator: questionGenerator,
		publisher:         publisher,
		logger:            logger,
		config:            config,
	}
}

// Submit creates a pending record and enqueues a job. A failed record is re-triggered;
// records that are pending, processing or completed are left alone.
func (s *processingService) Submit(ctx context.Context, req models.ProcessMaterialRequest) (*models.ProcessingStatusResponse, error) {
	req.MaterialID = strings.TrimSpace(req.MaterialID)
	req.DocumentKey = strings.TrimSpace(req.DocumentKey)
	if req.MaterialID == "" {
		return nil, fmt.Errorf("%w: material_id is required", ErrInvalidRequest)
	}

	existing, err := s.processingRepo.GetByMaterialID(ctx, req.MaterialID)
	if err != nil {
		return nil, fmt.Errorf("failed to load processing record: %w", err)
	}

	if existing == nil {
		if req.DocumentKey == "" {
			return nil, fmt.Errorf("%w: document_key is required", ErrInvalidRequest)
		}

		record := &models.ProcessingRecord{
			MaterialID:  req.MaterialID,
			DocumentKey: req.DocumentKey,
			FileName:    req.FileName,
			MimeType:    req.MimeType,
		}
		created, err := s.processingRepo.Create(ctx, record)
		if err != nil {
			return nil, err
		}
		if !created {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyProcessing, req.MaterialID)
		}

		return s.enqueue(ctx, record)
	}

	if !existing.Status.CanTransitionTo(models.ProcessingStatusPending) {
		if existing.Status == models.ProcessingStatusCompleted {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyCompleted, req.MaterialID)
		}
		return nil, fmt.Errorf("%w: %s", ErrAlreadyProcessing, req.MaterialID)
	}

	if req.DocumentKey != "" {
		ref := models.DocumentRef{
			MaterialID: req.MaterialID,
			Key:        req.DocumentKey,
			FileName:   req.FileName,
			MimeType:   req.MimeType,
		}
		if err := s.processingRepo.UpdateDocument(ctx, ref); err != nil {
			return nil, fmt.Errorf("failed to update document reference: %w", err)
		}
	}

	record, err := s.processingRepo.Transition(ctx, req.MaterialID, models.ProcessingStatusPending, nil)
	if err != nil {
		if errors.Is(err, repository.ErrTransitionRejected) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyProcessing, req.MaterialID)
		}
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s", ErrMaterialNotFound, req.MaterialID)
	}

	s.logger.Info().
		Str("material_id", req.MaterialID).
		Int("attempts", record.Attempts).
		Msg("Re-triggering failed material")

	return s.enqueue(ctx, record)
}

// enqueue publishes a job for a pending record. When the job cannot be published the
// record is failed so it does not sit in pending forever.
func (s *processingService) enqueue(ctx context.Context, record *models.ProcessingRecord) (*models.ProcessingStatusResponse, error) {
	job := models.ProcessingJob{
		Type:       models.MessageTypeProcessMaterial,
		MaterialID: record.MaterialID,
		Timestamp:  time.Now().Unix(),
	}

	// The pending view goes out before the job: once published, a worker may cache
	// later states at any moment.
	s.cacheStatus(ctx, record)

	if err := s.publisher.PublishJSON(ctx, s.config.Exchange, s.config.ProcessRoutingKey, job); err != nil {
		ctx = context.WithoutCancel(ctx)
		msg := fmt.Sprintf("failed to enqueue processing job: %v", err)
		failed, tErr := s.processingRepo.Transition(ctx, record.MaterialID, models.ProcessingStatusFailed, &msg)
		if tErr != nil || failed == nil {
			s.logger.Error().Err(tErr).Str("material_id", record.MaterialID).Msg("Failed to mark unqueued material as failed")
			s.invalidateStatus(ctx, record.MaterialID)
		} else {
			s.cacheStatus(ctx, failed)
		}
		return nil, fmt.Errorf("failed to publish processing job: %w", err)
	}

	s.logger.Info().
		Str("material_id", record.MaterialID).
		Str("document_key", record.DocumentKey).
		Msg("Processing job queued")

	return record.StatusView(), nil
}

// Process runs the pipeline for one pending material to a terminal state. Errors that
// were recorded on the material wrap ErrPipelineFailed.
func (s *processingService) Process(ctx context.Context, materialID string) error {
	startTime := time.Now()

	record, err := s.processingRepo.Transition(ctx, materialID, models.ProcessingStatusProcessing, nil)
	if err != nil {
		return fmt.Errorf("failed to start processing %s: %w", materialID, err)
	}
	if record == nil {
		return fmt.Errorf("%w: %s", ErrMaterialNotFound, materialID)
	}
	s.cacheStatus(ctx, record)

	s.logger.Info().
		Str("material_id", materialID).
		Int("attempt", record.Attempts).
		Msg("Processing material")

	set, err := s.runPipeline(ctx, record.DocumentRef())
	if err != nil {
		return s.fail(ctx, materialID, err)
	}

	completed, err := s.processingRepo.Transition(ctx, materialID, models.ProcessingStatusCompleted, nil)
	if err != nil {
		return s.fail(ctx, materialID, fmt.Errorf("failed to complete processing: %w", err))
	}
	s.cacheStatus(ctx, completed)

	completedAt := time.Now()
	processingTime := int(completedAt.Sub(startTime).Milliseconds())

	event := models.MaterialProcessedEvent{
		MaterialID:      materialID,
		Status:          models.ProcessingStatusCompleted.String(),
		QuestionCount:   len(set.Questions),
		QuestionQuality: set.Quality,
		ProcessingTime:  processingTime,
		CompletedAt:     completedAt,
	}
	if err := s.publisher.PublishJSON(ctx, s.config.Exchange, s.config.CompletedRoutingKey, event); err != nil {
		s.logger.Error().Err(err).Str("material_id", materialID).Msg("Failed to publish material processed event")
	}

	s.logger.Info().
		Str("material_id", materialID).
		Int("question_count", len(set.Questions)).
		Str("question_quality", string(set.Quality)).
		Int("processing_time_ms", processingTime).
		Msg("Material processing completed")

	return nil
}

// runPipeline runs the stages in order. Summary and questions are persisted one after
// the other, so a crash in between leaves has_summary set without has_questions.
func (s *processingService) runPipeline(ctx context.Context, ref models.DocumentRef) (set *models.QuestionSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("material_id", ref.MaterialID).
				Interface("panic", r).
				Msg("Processing pipeline panicked")
			set, err = nil, fmt.Errorf("pipeline panic: %v", r)
		}
	}()

	summary, err := s.GenerateSummary(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("summary generation failed: %w", err)
	}

	record, err := s.processingRepo.SaveSummary(ctx, ref.MaterialID, summary)
	if err != nil {
		return nil, err
	}
	s.cacheStatus(ctx, record)

	set, err = s.GenerateQuestions(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("question generation failed: %w", err)
	}

	for i := range set.Questions {
		set.Questions[i].MaterialID = ref.MaterialID
	}
	if err := s.questionRepo.ReplaceForMaterial(ctx, ref.MaterialID, set.Questions); err != nil {
		return nil, err
	}

	record, err = s.processingRepo.SaveQuestionState(ctx, ref.MaterialID, set.Quality)
	if err != nil {
		return nil, err
	}
	s.cacheStatus(ctx, record)

	return set, nil
}

// fail records cause on the material and publishes a failure event. The status update
// runs even when ctx is already canceled.
func (s *processingService) fail(ctx context.Context, materialID string, cause error) error {
	ctx = context.WithoutCancel(ctx)
	msg := cause.Error()

	s.logger.Error().
		Err(cause).
		Str("material_id", materialID).
		Msg("Material processing failed")

	record, err := s.processingRepo.Transition(ctx, materialID, models.ProcessingStatusFailed, &msg)
	if err != nil {
		s.logger.Error().Err(err).Str("material_id", materialID).Msg("Failed to record processing failure")
		return fmt.Errorf("%w: %w", ErrPipelineFailed, cause)
	}
	s.cacheStatus(ctx, record)

	event := models.MaterialFailedEvent{
		MaterialID: materialID,
		Error:      msg,
		FailedAt:   time.Now(),
	}
	if record != nil {
		event.Attempts = record.Attempts
		event.HasSummary = record.HasSummary
	}
	if err := s.publisher.PublishJSON(ctx, s.config.Exchange, s.config.FailedRoutingKey, event); err != nil {
		s.logger.Error().Err(err).Str("material_id", materialID).Msg("Failed to publish material failed event")
	}

	return fmt.Errorf("%w: %w", ErrPipelineFailed, cause)
}

// GetProcessingStatus never writes: the cache is read first, then the database.
func (s *processingService) GetProcessingStatus(ctx context.Context, materialID string) (*models.ProcessingStatusResponse, error) {
	cached, err := s.statusCache.Get(ctx, materialID)
	if err != nil {
		s.logger.Warn().Err(err).Str("material_id", materialID).Msg("Status cache read failed")
	}
	if cached != nil {
		return cached, nil
	}

	record, err := s.getRecord(ctx, materialID)
	if err != nil {
		return nil, err
	}
	return record.StatusView(), nil
}

func (s *processingService) GetSummary(ctx context.Context, materialID string) (*models.SummaryResponse, error) {
	record, err := s.getRecord(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if !record.HasSummary {
		return nil, fmt.Errorf("%w: summary for %s is %s", ErrNotReady, materialID, record.Status)
	}

	return &models.SummaryResponse{
		MaterialID: materialID,
		Summary:    record.Summary,
	}, nil
}

func (s *processingService) GetQuestions(ctx context.Context, materialID string) (*models.QuestionsResponse, error) {
	record, err := s.getRecord(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if !record.HasQuestions {
		return nil, fmt.Errorf("%w: questions for %s are %s", ErrNotReady, materialID, record.Status)
	}

	questions, err := s.questionRepo.GetByMaterialID(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	if questions == nil {
		questions = []models.Question{}
	}

	resp := &models.QuestionsResponse{
		MaterialID: materialID,
		Count:      len(questions),
		Questions:  questions,
	}
	if record.QuestionQuality != nil {
		resp.Quality = string(*record.QuestionQuality)
	}
	return resp, nil
}

func (s *processingService) GenerateSummary(ctx context.Context, ref models.DocumentRef) (string, error) {
	return s.summarizer.GenerateSummary(ctx, ref)
}

func (s *processingService) GenerateQuestions(ctx context.Context, ref models.DocumentRef) (*models.QuestionSet, error) {
	return s.questionGenerator.GenerateQuestions(ctx, ref)
}

// RetryFailed moves up to limit failed materials back to pending and enqueues them.
// Records stuck in processing for longer than StalledAfter are failed first, so a
// job lost with its worker becomes retryable.
func (s *processingService) RetryFailed(ctx context.Context, limit int) (*models.RetryFailedResponse, error) {
	if limit < 1 || limit > s.config.RetryBatchLimit {
		limit = s.config.RetryBatchLimit
	}

	recovered, err := s.failStalled(ctx, limit)
	if err != nil {
		return nil, err
	}

	failed, err := s.processingRepo.GetByStatus(ctx, models.ProcessingStatusFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get failed materials: %w", err)
	}

	retried := 0
	for _, record := range failed {
		pending, err := s.processingRepo.Transition(ctx, record.MaterialID, models.ProcessingStatusPending, nil)
		if err != nil || pending == nil {
			s.logger.Warn().
				Err(err).
				Str("material_id", record.MaterialID).
				Msg("Skipping failed material")
			continue
		}

		if _, err := s.enqueue(ctx, pending); err != nil {
			s.logger.Error().
				Err(err).
				Str("material_id", record.MaterialID).
				Msg("Failed to retry material")
			continue
		}

		retried++
	}

	s.logger.Info().
		Int("total_failed", len(failed)).
		Int("recovered_stalled", recovered).
		Int("retried", retried).
		Msg("Failed materials retry completed")

	return &models.RetryFailedResponse{
		Retried:   retried,
		Recovered: recovered,
		Limit:     limit,
		Timestamp: time.Now(),
	}, nil
}

func (s *processingService) failStalled(ctx context.Context, limit int) (int, error) {
	cutoff := time.Now().Add(-s.config.StalledAfter)

	stalled, err := s.processingRepo.GetStalled(ctx, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to get stalled materials: %w", err)
	}

	recovered := 0
	for _, record := range stalled {
		msg := fmt.Sprintf("processing stalled: no result within %s of start", s.config.StalledAfter)
		failed, err := s.processingRepo.Transition(ctx, record.MaterialID, models.ProcessingStatusFailed, &msg)
		if err != nil || failed == nil {
			s.logger.Warn().
				Err(err).
				Str("material_id", record.MaterialID).
				Msg("Skipping stalled material")
			continue
		}
		s.cacheStatus(ctx, failed)

		s.logger.Warn().
			Str("material_id", record.MaterialID).
			Int("attempts", failed.Attempts).
			Msg("Stalled material marked as failed")
		recovered++
	}
	return recovered, nil
}

func (s *processingService) GetStats(ctx context.Context) (*models.ProcessingStats, error) {
	return s.processingRepo.GetStats(ctx)
}

func (s *processingService) getRecord(ctx context.Context, materialID string) (*models.ProcessingRecord, error) {
	record, err := s.processingRepo.GetByMaterialID(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("failed to load processing record: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s", ErrMaterialNotFound, materialID)
	}
	return record, nil
}

// cacheStatus writes the record's view through to the cache. A view that cannot be
// written must not leave an older one behind, so the key is dropped instead.
func (s *processingService) cacheStatus(ctx context.Context, record *models.ProcessingRecord) {
	if record == nil {
		return
	}
	if err := s.statusCache.Set(ctx, record.StatusView()); err != nil {
		s.logger.Warn().Err(err).Str("material_id", record.MaterialID).Msg("Failed to cache processing status")
		s.invalidateStatus(ctx, record.MaterialID)
	}
}

func (s *processingService) invalidateStatus(ctx context.Context, materialID string) {
	if err := s.statusCache.Delete(ctx, materialID); err != nil {
		s.logger.Error().Err(err).Str("material_id", materialID).Msg("Failed to invalidate cached processing status")
	}
}
