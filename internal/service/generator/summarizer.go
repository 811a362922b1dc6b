package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/rs/zerolog"
)

const (
	// MinSummaryChars is the shortest extracted text worth summarizing.
	MinSummaryChars = 200

	// summaryKeepRatio bounds prompt size; the tail of long documents is cut.
	summaryKeepRatio = 0.8
)

type Summarizer interface {
	GenerateSummary(ctx context.Context, ref models.DocumentRef) (string, error)
}

type summarizer struct {
	loader  *ContentLoader
	retrier *Retrier
	tracker *Tracker
	logger  zerolog.Logger
}

func NewSummarizer(loader *ContentLoader, retrier *Retrier, tracker *Tracker, logger zerolog.Logger) Summarizer {
	return &summarizer{
		loader:  loader,
		retrier: retrier,
		tracker: tracker,
		logger:  logger,
	}
}

func (s *summarizer) GenerateSummary(ctx context.Context, ref models.DocumentRef) (string, error) {
	content, err := s.loader.Load(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	req := models.GenerationRequest{Operation: models.OperationSummarize}
	if content.Extracted() {
		text, err := prepareSummaryText(content.Text)
		if err != nil {
			return "", err
		}
		req.Prompt = summaryPrompt(text)
	} else {
		req.Prompt = summaryPrompt("")
		req.Document = &content.Document
	}

	result, err := s.retrier.Do(ctx, s.tracker.Operation(ref.MaterialID, req))
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(result.Text)
	if summary == "" {
		return "", fmt.Errorf("%w: empty summary returned", ErrGenerationFailed)
	}

	s.logger.Info().
		Str("material_id", ref.MaterialID).
		Bool("uploaded", req.Document != nil).
		Int("summary_chars", len([]rune(summary))).
		Int("total_tokens", result.Usage.TotalTokens).
		Msg("Summary generated")

	return summary, nil
}

// prepareSummaryText rejects short input and truncates the rest to 80% of its length.
func prepareSummaryText(text string) (string, error) {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) < MinSummaryChars {
		return "", fmt.Errorf("%w: extracted text has %d characters, need at least %d",
			ErrInsufficientContent, len(runes), MinSummaryChars)
	}

	keep := int(float64(len(runes)) * summaryKeepRatio)
	return string(runes[:keep]), nil
}
