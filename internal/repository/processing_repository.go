package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

type ProcessingRepository interface {
	// Create inserts a pending record. It reports false when the material already has one.
	Create(ctx context.Context, record *models.ProcessingRecord) (bool, error)
	GetByMaterialID(ctx context.Context, materialID string) (*models.ProcessingRecord, error)
	UpdateDocument(ctx context.Context, ref models.DocumentRef) error
	// Transition moves a record to next if its current status is an allowed source.
	Transition(ctx context.Context, materialID string, next models.ProcessingStatus, processingError *string) (*models.ProcessingRecord, error)
	SaveSummary(ctx context.Context, materialID, summary string) (*models.ProcessingRecord, error)
	SaveQuestionState(ctx context.Context, materialID string, quality models.QuestionQuality) (*models.ProcessingRecord, error)
	GetByStatus(ctx context.Context, status models.ProcessingStatus, limit int) ([]models.ProcessingRecord, error)
	// GetStalled lists processing records started before startedBefore, oldest first.
	GetStalled(ctx context.Context, startedBefore time.Time, limit int) ([]models.ProcessingRecord, error)
	GetStats(ctx context.Context) (*models.ProcessingStats, error)
	Ping(ctx context.Context) error
}

type processingRepository struct {
	*PostgresRepository
}

func NewProcessingRepository(db *sql.DB, logger zerolog.Logger) ProcessingRepository {
	return &processingRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const processingColumns = `
	material_id, document_key, file_name, mime_type, status,
	has_summary, has_questions, summary, question_quality, processing_error,
	attempts, created_at, started_at, completed_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProcessingRecord(row rowScanner) (*models.ProcessingRecord, error) {
	record := &models.ProcessingRecord{}
	var (
		quality         sql.NullString
		processingError sql.NullString
		startedAt       sql.NullTime
		completedAt     sql.NullTime
	)

	err := row.Scan(
		&record.MaterialID,
		&record.DocumentKey,
		&record.FileName,
		&record.MimeType,
		&record.Status,
		&record.HasSummary,
		&record.HasQuestions,
		&record.Summary,
		&quality,
		&processingError,
		&record.Attempts,
		&record.CreatedAt,
		&startedAt,
		&completedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if quality.Valid {
		q := models.QuestionQuality(quality.String)
		record.QuestionQuality = &q
	}
	if processingError.Valid {
		record.ProcessingError = &processingError.String
	}
	if startedAt.Valid {
		record.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		record.CompletedAt = &completedAt.Time
	}

	return record, nil
}

func (r *processingRepository) Create(ctx context.Context, record *models.ProcessingRecord) (bool, error) {
	query := `
		INSERT INTO material_processing (
			material_id, document_key, file_name, mime_type, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (material_id) DO NOTHING
	`

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query,
		record.MaterialID,
		record.DocumentKey,
		record.FileName,
		record.MimeType,
		models.ProcessingStatusPending,
		now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create processing record: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		return false, nil
	}

	record.Status = models.ProcessingStatusPending
	record.CreatedAt = now
	record.UpdatedAt = now
	return true, nil
}

func (r *processingRepository) GetByMaterialID(ctx context.Context, materialID string) (*models.ProcessingRecord, error) {
	query := `SELECT ` + processingColumns + ` FROM material_processing WHERE material_id = $1`

	record, err := scanProcessingRecord(r.db.QueryRowContext(ctx, query, materialID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get processing record: %w", err)
	}

	return record, nil
}

func (r *processingRepository) UpdateDocument(ctx context.Context, ref models.DocumentRef) error {
	query := `
		UPDATE material_processing
		SET document_key = $2, file_name = $3, mime_type = $4, updated_at = $5
		WHERE material_id = $1
	`

	_, err := r.db.ExecContext(ctx, query, ref.MaterialID, ref.Key, ref.FileName, ref.MimeType, time.Now().UTC())
	return err
}

func (r *processingRepository) Transition(ctx context.Context, materialID string, next models.ProcessingStatus, processingError *string) (*models.ProcessingRecord, error) {
	sources := models.SourcesOf(next)
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: nothing may enter %s", ErrTransitionRejected, next)
	}

	allowed := make([]string, len(sources))
	for i, s := range sources {
		allowed[i] = s.String()
	}

	var set string
	switch next {
	case models.ProcessingStatusProcessing:
		set = `, started_at = $5, completed_at = NULL, attempts = attempts + 1`
	case models.ProcessingStatusCompleted, models.ProcessingStatusFailed:
		set = `, completed_at = $5`
	case models.ProcessingStatusPending:
		set = `, started_at = NULL, completed_at = NULL`
	}

	// processing_error only ever holds a value on failed records.
	if next != models.ProcessingStatusFailed {
		processingError = nil
	}

	query := `
		UPDATE material_processing
		SET status = $2, processing_error = $3, updated_at = $5` + set + `
		WHERE material_id = $1 AND status = ANY($4)
		RETURNING ` + processingColumns

	record, err := scanProcessingRecord(r.db.QueryRowContext(ctx, query,
		materialID,
		next,
		processingError,
		pq.Array(allowed),
		time.Now().UTC(),
	))
	if err == nil {
		return record, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to update processing status: %w", err)
	}

	current, err := r.GetByMaterialID(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %s -> %s", ErrTransitionRejected, current.Status, next)
}

func (r *processingRepository) SaveSummary(ctx context.Context, materialID, summary string) (*models.ProcessingRecord, error) {
	query := `
		UPDATE material_processing
		SET summary = $2, has_summary = TRUE, updated_at = $3
		WHERE material_id = $1
		RETURNING ` + processingColumns

	record, err := scanProcessingRecord(r.db.QueryRowContext(ctx, query, materialID, summary, time.Now().UTC()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save summary: %w", err)
	}
	return record, nil
}

func (r *processingRepository) SaveQuestionState(ctx context.Context, materialID string, quality models.QuestionQuality) (*models.ProcessingRecord, error) {
	query := `
		UPDATE material_processing
		SET has_questions = TRUE, question_quality = $2, updated_at = $3
		WHERE material_id = $1
		RETURNING ` + processingColumns

	record, err := scanProcessingRecord(r.db.QueryRowContext(ctx, query, materialID, quality, time.Now().UTC()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save question state: %w", err)
	}
	return record, nil
}

func (r *processingRepository) GetByStatus(ctx context.Context, status models.ProcessingStatus, limit int) ([]models.ProcessingRecord, error) {
	query := `SELECT ` + processingColumns + `
		FROM material_processing
		WHERE status = $1
		ORDER BY updated_at
		LIMIT $2`

	return r.queryRecords(ctx, query, status, limit)
}

func (r *processingRepository) GetStalled(ctx context.Context, startedBefore time.Time, limit int) ([]models.ProcessingRecord, error) {
	query := `SELECT ` + processingColumns + `
		FROM material_processing
		WHERE status = $1 AND started_at < $2
		ORDER BY started_at
		LIMIT $3`

	return r.queryRecords(ctx, query, models.ProcessingStatusProcessing, startedBefore, limit)
}

func (r *processingRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]models.ProcessingRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query processing records: %w", err)
	}
	defer rows.Close()

	var records []models.ProcessingRecord
	for rows.Next() {
		record, err := scanProcessingRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	return records, rows.Err()
}

func (r *processingRepository) GetStats(ctx context.Context) (*models.ProcessingStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed')
		FROM material_processing
	`

	stats := &models.ProcessingStats{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.Total,
		&stats.Pending,
		&stats.Processing,
		&stats.Completed,
		&stats.Failed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get processing stats: %w", err)
	}

	return stats, nil
}
