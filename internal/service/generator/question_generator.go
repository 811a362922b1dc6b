package generator

import (
	"context"
	"errors"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/service/parser"
	"github.com/rs/zerolog"
)

type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, ref models.DocumentRef) (*models.QuestionSet, error)
}

type questionGenerator struct {
	loader           *ContentLoader
	retrier          *Retrier
	tracker          *Tracker
	parser           *parser.QuestionParser
	placeholderCount int
	logger           zerolog.Logger
}

func NewQuestionGenerator(
	loader *ContentLoader,
	retrier *Retrier,
	tracker *Tracker,
	questionParser *parser.QuestionParser,
	placeholderCount int,
	logger zerolog.Logger,
) QuestionGenerator {
	return &questionGenerator{
		loader:           loader,
		retrier:          retrier,
		tracker:          tracker,
		parser:           questionParser,
		placeholderCount: placeholderCount,
		logger:           logger,
	}
}

// GenerateQuestions always returns a non-empty set unless the model cannot be
// called at all (no credentials). Generation failures fall back to questions
// built from the document's sentences.
func (g *questionGenerator) GenerateQuestions(ctx context.Context, ref models.DocumentRef) (*models.QuestionSet, error) {
	content, err := g.loader.Load(ctx, ref)
	if err != nil {
		g.logger.Error().Err(err).Str("material_id", ref.MaterialID).Msg("Failed to load document for questions")
		return g.fallback(ref, ""), nil
	}

	req := models.GenerationRequest{Operation: models.OperationGenerateQuestions}
	if content.Extracted() {
		req.Prompt = questionsPrompt(content.Text)
	} else {
		req.Prompt = questionsPrompt("")
		req.Document = &content.Document
	}

	result, err := g.retrier.Do(ctx, g.tracker.Operation(ref.MaterialID, req))
	if err != nil {
		if errors.Is(err, ErrNoCredentials) {
			return nil, err
		}
		g.logger.Error().Err(err).Str("material_id", ref.MaterialID).Msg("Question generation failed, using fallback questions")
		return g.fallback(ref, content.Text), nil
	}

	parsed := g.parser.Parse(result.Text)
	if parsed.Err() != nil {
		g.logger.Warn().
			Str("material_id", ref.MaterialID).
			Str("tier", string(parsed.Tier)).
			Msg("Question output degraded")
	}

	g.logger.Info().
		Str("material_id", ref.MaterialID).
		Int("questions", len(parsed.Questions)).
		Int("dropped", parsed.Dropped).
		Str("quality", string(parsed.Tier)).
		Msg("Questions generated")

	return &models.QuestionSet{
		Questions: parsed.Questions,
		Quality:   parsed.Tier,
	}, nil
}

func (g *questionGenerator) fallback(ref models.DocumentRef, text string) *models.QuestionSet {
	questions := parser.FromSentences(text, g.placeholderCount)
	for i := range questions {
		questions[i].Position = i + 1
	}

	g.logger.Warn().
		Str("material_id", ref.MaterialID).
		Int("questions", len(questions)).
		Msg("Using fallback questions")

	return &models.QuestionSet{
		Questions: questions,
		Quality:   models.QuestionQualityFallback,
	}
}
