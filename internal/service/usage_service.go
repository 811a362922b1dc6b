package service

import (
	"context"
	"fmt"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/repository"
	"github.com/rs/zerolog"
)

const usageWriteTimeout = 5 * time.Second

// UsageService is the telemetry sink for model calls.
type UsageService interface {
	Record(ctx context.Context, record *models.UsageRecord) error
	GetUsageStats(ctx context.Context) ([]models.UsageStats, error)
}

type usageService struct {
	usageRepo repository.UsageRepository
	logger    zerolog.Logger
}

func NewUsageService(usageRepo repository.UsageRepository, logger zerolog.Logger) UsageService {
	return &usageService{
		usageRepo: usageRepo,
		logger:    logger,
	}
}

// Record appends record. The write outlives a canceled model call so failed attempts
// are still counted.
func (s *usageService) Record(ctx context.Context, record *models.UsageRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), usageWriteTimeout)
	defer cancel()

	if err := s.usageRepo.Insert(writeCtx, record); err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}

	s.logger.Debug().
		Str("operation", record.OperationType.String()).
		Str("credential", record.Credential).
		Bool("success", record.Success).
		Int("total_tokens", record.TotalTokens).
		Msg("Model usage recorded")

	return nil
}

func (s *usageService) GetUsageStats(ctx context.Context) ([]models.UsageStats, error) {
	stats, err := s.usageRepo.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get usage stats: %w", err)
	}
	if stats == nil {
		stats = []models.UsageStats{}
	}
	return stats, nil
}
