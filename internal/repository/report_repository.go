package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/content-service/pkg/utils"
	"github.com/rs/zerolog"
)

type ReportRepository interface {
	Create(ctx context.Context, report *models.PlagiarismReport) error
	GetLatestByMaterialID(ctx context.Context, materialID string) (*models.PlagiarismReport, error)
}

type reportRepository struct {
	*PostgresRepository
}

func NewReportRepository(db *sql.DB, logger zerolog.Logger) ReportRepository {
	return &reportRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *reportRepository) Create(ctx context.Context, report *models.PlagiarismReport) error {
	if report.ID == "" {
		report.ID = utils.GenerateUUID()
	}
	report.CreatedAt = time.Now().UTC()

	aiAnalysis, err := json.Marshal(report.AIAnalysis)
	if err != nil {
		return fmt.Errorf("failed to marshal ai analysis: %w", err)
	}
	webMatches, err := json.Marshal(nonNil(report.WebMatches))
	if err != nil {
		return fmt.Errorf("failed to marshal web matches: %w", err)
	}
	suggestions, err := json.Marshal(nonNil(report.Suggestions))
	if err != nil {
		return fmt.Errorf("failed to marshal suggestions: %w", err)
	}

	query := `
		INSERT INTO plagiarism_reports (
			id, material_id, overall_score, ai_score, web_match_score,
			ai_analysis, web_matches, suggestions, checked_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		report.ID,
		report.MaterialID,
		report.OverallScore,
		report.AIScore,
		report.WebMatchScore,
		string(aiAnalysis),
		string(webMatches),
		string(suggestions),
		report.CheckedAt,
		report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create plagiarism report: %w", err)
	}

	return nil
}

func (r *reportRepository) GetLatestByMaterialID(ctx context.Context, materialID string) (*models.PlagiarismReport, error) {
	query := `
		SELECT
			id, material_id, overall_score, ai_score, web_match_score,
			ai_analysis, web_matches, suggestions, checked_at, created_at
		FROM plagiarism_reports
		WHERE material_id = $1
		ORDER BY checked_at DESC
		LIMIT 1
	`

	report := &models.PlagiarismReport{}
	var aiAnalysis, webMatches, suggestions []byte

	err := r.db.QueryRowContext(ctx, query, materialID).Scan(
		&report.ID,
		&report.MaterialID,
		&report.OverallScore,
		&report.AIScore,
		&report.WebMatchScore,
		&aiAnalysis,
		&webMatches,
		&suggestions,
		&report.CheckedAt,
		&report.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plagiarism report: %w", err)
	}

	if err := json.Unmarshal(aiAnalysis, &report.AIAnalysis); err != nil {
		return nil, fmt.Errorf("failed to decode ai analysis: %w", err)
	}
	if err := json.Unmarshal(webMatches, &report.WebMatches); err != nil {
		return nil, fmt.Errorf("failed to decode web matches: %w", err)
	}
	if err := json.Unmarshal(suggestions, &report.Suggestions); err != nil {
		return nil, fmt.Errorf("failed to decode suggestions: %w", err)
	}

	return report, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
