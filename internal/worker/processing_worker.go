package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/repository"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/service"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/worker/queue"
	"github.com/rs/zerolog"
)

type ProcessingWorker interface {
	Start(ctx context.Context) error
	Stop() error
	GetStats() WorkerStats
}

type WorkerStats struct {
	BusyWorkers    int       `json:"busy_workers"`
	MaxWorkers     int       `json:"max_workers"`
	TotalProcessed int       `json:"total_processed"`
	FailedJobs     int       `json:"failed_jobs"`
	RequeuedJobs   int       `json:"requeued_jobs"`
	QueueLength    int       `json:"queue_length"`
	StartedAt      time.Time `json:"started_at"`
}

type processingWorker struct {
	workerPool    *WorkerPool
	queueConsumer queue.RabbitMQConsumer
	handler       queue.MessageHandler
	logger        zerolog.Logger
	stats         WorkerStats
	statsMutex    sync.RWMutex
	loopDone      chan struct{}
	startTime     time.Time
}

func NewProcessingWorker(
	workerPool *WorkerPool,
	queueConsumer queue.RabbitMQConsumer,
	handler queue.MessageHandler,
	logger zerolog.Logger,
) ProcessingWorker {
	return &processingWorker{
		workerPool:    workerPool,
		queueConsumer: queueConsumer,
		handler:       handler,
		logger:        logger,
		loopDone:      make(chan struct{}),
		startTime:     time.Now(),
	}
}

func (w *processingWorker) Start(ctx context.Context) error {
	w.logger.Info().Msg("Starting processing worker...")

	w.workerPool.Start()

	msgs, err := w.queueConsumer.Consume(ctx)
	if err != nil {
		close(w.loopDone)
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}

	go w.processMessages(ctx, msgs)

	w.logger.Info().Msg("Processing worker started successfully")
	return nil
}

// Stop cancels the consumer, lets the intake loop drain and waits for running
// pipelines to reach a terminal state.
func (w *processingWorker) Stop() error {
	w.logger.Info().Msg("Stopping processing worker...")

	if err := w.queueConsumer.Close(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to close queue consumer")
	}

	<-w.loopDone
	w.workerPool.Stop()

	stats := w.GetStats()
	w.logger.Info().
		Int("total_processed", stats.TotalProcessed).
		Int("failed_jobs", stats.FailedJobs).
		Dur("uptime", time.Since(w.startTime)).
		Msg("Processing worker stopped")

	return nil
}

func (w *processingWorker) processMessages(ctx context.Context, msgs <-chan queue.RabbitMQMessage) {
	defer close(w.loopDone)

	// Pipelines run to a terminal state even while the service shuts down.
	jobCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Stopping message processing")
			return
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Warn().Msg("Message channel closed")
				return
			}

			err := w.workerPool.Submit(ctx, func() {
				w.handle(jobCtx, msg)
			})
			if err != nil {
				w.logger.Warn().Err(err).Msg("Could not schedule message, requeueing")
				if nackErr := msg.Nack(false, true); nackErr != nil {
					w.logger.Error().Err(nackErr).Msg("Failed to nack message")
				}
			}
		}
	}
}

func (w *processingWorker) handle(ctx context.Context, msg queue.RabbitMQMessage) {
	err := w.handler.ProcessMessage(ctx, msg)
	if err == nil {
		if ackErr := msg.Ack(false); ackErr != nil {
			w.logger.Error().Err(ackErr).Msg("Failed to ack message")
		}
		w.record(func(s *WorkerStats) { s.TotalProcessed++ })
		return
	}

	if isPermanentError(err) {
		w.logger.Warn().Err(err).Msg("Message handled with a permanent failure")
		if ackErr := msg.Ack(false); ackErr != nil {
			w.logger.Error().Err(ackErr).Msg("Failed to ack message")
		}
		w.record(func(s *WorkerStats) { s.FailedJobs++ })
		return
	}

	w.logger.Error().Err(err).Msg("Failed to process message, requeueing")
	if nackErr := msg.Nack(false, true); nackErr != nil {
		w.logger.Error().Err(nackErr).Msg("Failed to nack message")
	}
	w.record(func(s *WorkerStats) { s.RequeuedJobs++ })
}

func (w *processingWorker) record(update func(s *WorkerStats)) {
	w.statsMutex.Lock()
	update(&w.stats)
	w.statsMutex.Unlock()
}

func (w *processingWorker) GetStats() WorkerStats {
	w.statsMutex.RLock()
	stats := w.stats
	w.statsMutex.RUnlock()

	queueLength, err := w.queueConsumer.GetQueueLength()
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to get queue length")
	} else {
		stats.QueueLength = queueLength
	}

	pool := w.workerPool.GetStats()
	stats.BusyWorkers = pool.BusyWorkers
	stats.MaxWorkers = pool.MaxWorkers
	stats.StartedAt = w.startTime

	return stats
}

// isPermanentError reports whether redelivering the message cannot help: the
// failure is already recorded on the material, or the message can never be handled.
func isPermanentError(err error) bool {
	return errors.Is(err, service.ErrPipelineFailed) ||
		errors.Is(err, service.ErrMaterialNotFound) ||
		errors.Is(err, repository.ErrTransitionRejected) ||
		errors.Is(err, queue.ErrMalformedMessage) ||
		errors.Is(err, queue.ErrUnknownMessageType)
}
