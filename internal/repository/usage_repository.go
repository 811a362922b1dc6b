package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/content-service/pkg/utils"
	"github.com/rs/zerolog"
)

type UsageRepository interface {
	Insert(ctx context.Context, record *models.UsageRecord) error
	GetStats(ctx context.Context) ([]models.UsageStats, error)
}

type usageRepository struct {
	*PostgresRepository
}

func NewUsageRepository(db *sql.DB, logger zerolog.Logger) UsageRepository {
	return &usageRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *usageRepository) Insert(ctx context.Context, record *models.UsageRecord) error {
	if record.ID == "" {
		record.ID = utils.GenerateUUID()
	}

	query := `
		INSERT INTO ai_usage (
			id, material_id, operation_type, credential, input_tokens,
			output_tokens, total_tokens, success, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.MaterialID,
		record.OperationType,
		record.Credential,
		record.InputTokens,
		record.OutputTokens,
		record.TotalTokens,
		record.Success,
		record.ErrorMessage,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	return nil
}

func (r *usageRepository) GetStats(ctx context.Context) ([]models.UsageStats, error) {
	query := `
		SELECT
			operation_type,
			COUNT(*),
			COUNT(*) FILTER (WHERE NOT success),
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0),
			COALESCE(SUM(total_tokens), 0),
			MAX(created_at)
		FROM ai_usage
		GROUP BY operation_type
		ORDER BY operation_type
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage stats: %w", err)
	}
	defer rows.Close()

	stats := []models.UsageStats{}
	for rows.Next() {
		var (
			s        models.UsageStats
			lastCall sql.NullTime
		)
		if err := rows.Scan(
			&s.OperationType,
			&s.Calls,
			&s.FailedCalls,
			&s.InputTokens,
			&s.OutputTokens,
			&s.TotalTokens,
			&lastCall,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage stats: %w", err)
		}
		if lastCall.Valid {
			s.LastCallAt = &lastCall.Time
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}
