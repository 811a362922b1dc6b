package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/content-service/pkg/utils"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

type QuestionRepository interface {
	// ReplaceForMaterial swaps the whole question set of a material in one transaction.
	ReplaceForMaterial(ctx context.Context, materialID string, questions []models.Question) error
	GetByMaterialID(ctx context.Context, materialID string) ([]models.Question, error)
}

type questionRepository struct {
	*PostgresRepository
}

func NewQuestionRepository(db *sql.DB, logger zerolog.Logger) QuestionRepository {
	return &questionRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *questionRepository) ReplaceForMaterial(ctx context.Context, materialID string, questions []models.Question) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE material_id = $1`, materialID); err != nil {
		return fmt.Errorf("failed to delete old questions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO questions (
			id, material_id, position, question_text, question_type, options,
			correct_answer, correct_answers, explanation, difficulty, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range questions {
		q := &questions[i]
		if q.ID == "" {
			q.ID = utils.GenerateUUID()
		}
		q.MaterialID = materialID
		q.CreatedAt = now

		var answers interface{}
		if len(q.CorrectAnswers) > 0 {
			answers = pq.Array(toInt64s(q.CorrectAnswers))
		}

		_, err := stmt.ExecContext(ctx,
			q.ID,
			q.MaterialID,
			q.Position,
			q.QuestionText,
			q.QuestionType,
			pq.Array(q.Options),
			q.CorrectAnswer,
			answers,
			q.Explanation,
			q.Difficulty,
			q.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert question %d: %w", q.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit questions: %w", err)
	}

	r.logger.Debug().
		Str("material_id", materialID).
		Int("questions", len(questions)).
		Msg("Questions stored")

	return nil
}

func (r *questionRepository) GetByMaterialID(ctx context.Context, materialID string) ([]models.Question, error) {
	query := `
		SELECT
			id, material_id, position, question_text, question_type, options,
			correct_answer, correct_answers, explanation, difficulty, created_at
		FROM questions
		WHERE material_id = $1
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query, materialID)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var (
			q       models.Question
			answers pq.Int64Array
		)
		err := rows.Scan(
			&q.ID,
			&q.MaterialID,
			&q.Position,
			&q.QuestionText,
			&q.QuestionType,
			pq.Array(&q.Options),
			&q.CorrectAnswer,
			&answers,
			&q.Explanation,
			&q.Difficulty,
			&q.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		for _, a := range answers {
			q.CorrectAnswers = append(q.CorrectAnswers, int(a))
		}
		questions = append(questions, q)
	}

	return questions, rows.Err()
}

func toInt64s(values []int) []int64 {
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}
