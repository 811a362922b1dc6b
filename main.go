package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/app"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/config"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/database"
	"github.com/RubachokBoss/plagiarism-checker/content-service/pkg/logger"
	"github.com/rs/zerolog"
)

func main() {
	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "serve":
		run(false)
	case "worker":
		run(true)
	case "migrate":
		direction, args := "up", []string(nil)
		if len(os.Args) > 2 {
			direction, args = os.Args[2], os.Args[3:]
		}
		runMigrations(direction, args)
	default:
		log := logger.New()
		log.Fatal().Str("command", command).Msg("Unknown command. Use serve, worker or migrate")
	}
}

func loadConfig() (*config.Config, zerolog.Logger) {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	return cfg, logger.NewWithConfig(cfg.Logging.Level, cfg.Logging.Pretty, cfg.Logging.NoColor)
}

// run starts the service. With workerOnly set, only the queue consumer runs.
func run(workerOnly bool) {
	cfg, log := loadConfig()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	log.Info().Msg("Database connection established")

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	application, err := app.New(ctx, cfg, log, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	go func() {
		var runErr error
		if workerOnly {
			runErr = application.RunWorker(ctx)
		} else {
			runErr = application.Run(ctx)
		}
		if runErr != nil {
			log.Error().Err(runErr).Msg("Application stopped with error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown gracefully")
	}
}

func runMigrations(direction string, args []string) {
	cfg, log := loadConfig()

	migrator, err := database.NewMigrator(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create migrator")
	}

	switch direction {
	case "up":
		if err := migrator.Up(); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		log.Info().Msg("Migrations applied successfully")
	case "down":
		if err := migrator.Down(); err != nil {
			log.Fatal().Err(err).Msg("Failed to rollback migrations")
		}
		log.Info().Msg("Migrations rolled back successfully")
	case "force":
		if len(args) == 0 {
			log.Fatal().Msg("Usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[0])
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid migration version")
		}
		if err := migrator.Force(version); err != nil {
			log.Fatal().Err(err).Msg("Failed to force migration version")
		}
		log.Info().Int("version", version).Msg("Migration version forced")
	default:
		log.Fatal().Msg("Invalid migration direction. Use 'up', 'down' or 'force <version>'")
	}
}
