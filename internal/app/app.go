package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/config"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/delivery/httpd"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/repository"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/service"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/service/analyzer"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/service/extractor"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/service/generator"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/service/integration"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/service/parser"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/worker"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/worker/queue"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

type App struct {
	server           *http.Server
	logger           zerolog.Logger
	config           *config.Config
	db               *sql.DB
	processingWorker worker.ProcessingWorker
	workerStarted    bool
	rabbitMQRepo     repository.RabbitMQRepository
	statusCache      repository.StatusCache
	closeCredentials func() error
}

func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	a := &App{
		logger: log,
		config: cfg,
		db:     db,
	}

	if err := a.build(ctx); err != nil {
		a.closeResources()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg, log := a.config, a.logger

	rabbitMQRepo, err := repository.NewRabbitMQRepository(cfg.RabbitMQ.URL, log)
	if err != nil {
		return err
	}
	a.rabbitMQRepo = rabbitMQRepo

	if err := rabbitMQRepo.SetupQueue(
		cfg.RabbitMQ.Exchange,
		cfg.RabbitMQ.QueueName,
		cfg.RabbitMQ.RoutingKey,
	); err != nil {
		return err
	}

	publishChannel, err := rabbitMQRepo.OpenChannel()
	if err != nil {
		return err
	}
	consumeChannel, err := rabbitMQRepo.OpenChannel()
	if err != nil {
		return err
	}

	rabbitMQPublisher := queue.NewRabbitMQPublisher(publishChannel, log)
	rabbitMQConsumer := queue.NewRabbitMQConsumer(
		consumeChannel,
		cfg.RabbitMQ.QueueName,
		cfg.RabbitMQ.ConsumerTag,
		cfg.RabbitMQ.PrefetchCount,
		log,
	)

	processingRepo := repository.NewProcessingRepository(a.db, log)
	questionRepo := repository.NewQuestionRepository(a.db, log)
	reportRepo := repository.NewReportRepository(a.db, log)
	usageRepo := repository.NewUsageRepository(a.db, log)

	documentStorage, err := repository.NewMinIOStorage(cfg.MinIO, log)
	if err != nil {
		return err
	}

	a.statusCache = repository.NewNoopStatusCache()
	if cfg.Redis.Enabled {
		statusCache, err := repository.NewRedisStatusCache(cfg.Redis, log)
		if err != nil {
			return err
		}
		a.statusCache = statusCache
	}

	credentials, closeCredentials, err := integration.NewCredentials(ctx, cfg.Gemini, log)
	if err != nil {
		return fmt.Errorf("failed to create model clients: %w", err)
	}
	a.closeCredentials = closeCredentials
	if len(credentials) == 0 {
		log.Warn().Msg("No Gemini API keys configured, every model call will fail")
	}

	clientPool := generator.NewClientPool(credentials, log)
	retrier := generator.NewRetrier(clientPool, generator.RetryConfig{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BackoffBase: cfg.Retry.BackoffBase,
	}, log)

	usageService := service.NewUsageService(usageRepo, log)
	tracker := generator.NewTracker(usageService, log)
	loader := generator.NewContentLoader(documentStorage, extractor.New(), log)

	summarizer := generator.NewSummarizer(loader, retrier, tracker, log)
	questionGenerator := generator.NewQuestionGenerator(
		loader,
		retrier,
		tracker,
		parser.NewQuestionParser(cfg.Pipeline.PlaceholderQuestions, log),
		cfg.Pipeline.PlaceholderQuestions,
		log,
	)
	originalityAnalyzer := analyzer.NewOriginalityAnalyzer(
		loader,
		retrier,
		tracker,
		analyzer.OriginalityAnalyzerConfig{MaxChars: cfg.Pipeline.OriginalityMaxChars},
		log,
	)

	processingService := service.NewProcessingService(
		processingRepo,
		questionRepo,
		a.statusCache,
		summarizer,
		questionGenerator,
		rabbitMQPublisher,
		log,
		service.ProcessingConfig{
			Exchange:            cfg.RabbitMQ.Exchange,
			ProcessRoutingKey:   cfg.RabbitMQ.RoutingKey,
			CompletedRoutingKey: cfg.RabbitMQ.CompletedRouting,
			FailedRoutingKey:    cfg.RabbitMQ.FailedRouting,
			RetryBatchLimit:     cfg.Pipeline.RetryBatchLimit,
			StalledAfter:        cfg.Pipeline.StalledAfter,
		},
	)

	originalityService := service.NewOriginalityService(
		processingRepo,
		reportRepo,
		originalityAnalyzer,
		log,
	)

	workerPool := worker.NewWorkerPool(cfg.Pipeline.MaxWorkers, log)
	a.processingWorker = worker.NewProcessingWorker(
		workerPool,
		rabbitMQConsumer,
		queue.NewMessageHandler(processingService, log),
		log,
	)

	checks := map[string]httpd.HealthChecker{
		"database": processingRepo,
		"minio":    documentStorage,
	}
	checks["rabbitmq"] = httpd.HealthCheckFunc(func(ctx context.Context) error {
		if rabbitMQRepo.IsClosed() {
			return errors.New("connection closed")
		}
		return nil
	})
	if cfg.Redis.Enabled {
		checks["redis"] = a.statusCache
	}

	handler := httpd.NewHandler(
		processingService,
		originalityService,
		usageService,
		checks,
		a.processingWorker,
		log,
	)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router)

	a.server = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return nil
}

// Run starts the background worker and serves HTTP until Shutdown is called.
func (a *App) Run(ctx context.Context) error {
	if err := a.startWorker(ctx); err != nil {
		return err
	}

	a.logger.Info().Msgf("Starting content service on %s", a.config.Server.Address)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RunWorker consumes processing jobs without the HTTP server until ctx is done.
func (a *App) RunWorker(ctx context.Context) error {
	if err := a.startWorker(ctx); err != nil {
		return err
	}

	a.logger.Info().Msg("Standalone worker running")
	<-ctx.Done()
	return nil
}

func (a *App) startWorker(ctx context.Context) error {
	if err := a.processingWorker.Start(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to start processing worker")
		return err
	}
	a.workerStarted = true
	return nil
}

// Shutdown stops accepting requests, waits for running pipelines and releases
// every connection. Pipelines still running when ctx expires are left to the
// broker's redelivery.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down content service...")

	var shutdownErr error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Error().Err(err).Msg("Failed to shutdown HTTP server")
			shutdownErr = err
		}
	}

	if a.workerStarted {
		stopped := make(chan struct{})
		go func() {
			defer close(stopped)
			if err := a.processingWorker.Stop(); err != nil {
				a.logger.Error().Err(err).Msg("Failed to stop processing worker")
			}
		}()

		select {
		case <-stopped:
		case <-ctx.Done():
			a.logger.Warn().Msg("Timed out waiting for running pipelines")
		}
	}

	a.closeResources()

	a.logger.Info().Msg("Content service stopped")
	return shutdownErr
}

func (a *App) closeResources() {
	if a.rabbitMQRepo != nil {
		if err := a.rabbitMQRepo.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.statusCache != nil {
		if err := a.statusCache.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close status cache")
		}
	}

	if a.closeCredentials != nil {
		if err := a.closeCredentials(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close model clients")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}
}
