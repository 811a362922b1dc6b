package analyzer

import (
	"context"
	"strings"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/service/generator"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultMaxChars = 30000

type OriginalityAnalyzer interface {
	// RunOriginalityCheck never fails. A sub-call that cannot complete contributes a zero score.
	RunOriginalityCheck(ctx context.Context, ref models.DocumentRef) *models.PlagiarismReport
}

type OriginalityAnalyzerConfig struct {
	// MaxChars caps the extracted text sent to each sub-call.
	MaxChars int
}

type originalityAnalyzer struct {
	loader  *generator.ContentLoader
	retrier *generator.Retrier
	tracker *generator.Tracker
	config  OriginalityAnalyzerConfig
	logger  zerolog.Logger
	now     func() time.Time
}

func NewOriginalityAnalyzer(
	loader *generator.ContentLoader,
	retrier *generator.Retrier,
	tracker *generator.Tracker,
	config OriginalityAnalyzerConfig,
	logger zerolog.Logger,
) OriginalityAnalyzer {
	if config.MaxChars <= 0 {
		config.MaxChars = DefaultMaxChars
	}

	return &originalityAnalyzer{
		loader:  loader,
		retrier: retrier,
		tracker: tracker,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

type aiDetectionPayload struct {
	AIScore       float64  `json:"aiScore"`
	IsAIGenerated bool     `json:"isAiGenerated"`
	Confidence    float64  `json:"confidence"`
	Indicators    []string `json:"indicators"`
	Details       string   `json:"details"`
}

type webMatchPayload struct {
	WebMatchScore float64 `json:"webMatchScore"`
	Matches       []struct {
		MatchedText     string  `json:"matchedText"`
		SourceURL       string  `json:"sourceUrl"`
		SourceTitle     string  `json:"sourceTitle"`
		MatchPercentage float64 `json:"matchPercentage"`
		MatchType       string  `json:"matchType"`
	} `json:"matches"`
}

func (a *originalityAnalyzer) RunOriginalityCheck(ctx context.Context, ref models.DocumentRef) *models.PlagiarismReport {
	startTime := a.now()

	a.logger.Info().
		Str("material_id", ref.MaterialID).
		Msg("Starting originality check")

	ai, web := aiStub(), webStub()

	content, err := a.loader.Load(ctx, ref)
	if err != nil {
		a.logger.Error().
			Err(err).
			Str("material_id", ref.MaterialID).
			Msg("Failed to load document, reporting zero scores")
	} else {
		text, doc := a.input(content)

		// Sub-call failures are absorbed, so the group never carries an error.
		var g errgroup.Group
		g.Go(func() error {
			ai = a.detectAI(ctx, ref.MaterialID, text, doc)
			return nil
		})
		g.Go(func() error {
			web = a.searchWebMatches(ctx, ref.MaterialID, text, doc)
			return nil
		})
		_ = g.Wait()
	}

	overall := Score(float64(ai.AIScore), float64(web.WebMatchScore))
	report := &models.PlagiarismReport{
		MaterialID:    ref.MaterialID,
		OverallScore:  overall,
		AIScore:       ai.AIScore,
		WebMatchScore: web.WebMatchScore,
		AIAnalysis:    ai.Analysis,
		WebMatches:    web.Matches,
		Suggestions:   GenerateSuggestions(ai, web, overall),
		CheckedAt:     a.now().UTC(),
	}

	a.logger.Info().
		Str("material_id", ref.MaterialID).
		Int("overall_score", report.OverallScore).
		Int("ai_score", report.AIScore).
		Int("web_match_score", report.WebMatchScore).
		Int("web_matches", len(report.WebMatches)).
		Dur("duration", a.now().Sub(startTime)).
		Msg("Originality check completed")

	return report
}

func (a *originalityAnalyzer) input(content *generator.Content) (string, *models.Document) {
	if !content.Extracted() {
		return "", &content.Document
	}

	runes := []rune(content.Text)
	if len(runes) > a.config.MaxChars {
		runes = runes[:a.config.MaxChars]
	}
	return string(runes), nil
}

func (a *originalityAnalyzer) detectAI(ctx context.Context, materialID, text string, doc *models.Document) models.AIDetectionResult {
	stub := aiStub()

	req := models.GenerationRequest{
		Operation: models.OperationCheckAIContent,
		Prompt:    aiDetectionPrompt(text),
		Document:  doc,
		JSON:      true,
	}

	result, err := a.retrier.Do(ctx, a.tracker.Operation(materialID, req))
	if err != nil {
		a.logger.Error().Err(err).Str("material_id", materialID).Msg("AI content check failed")
		return stub
	}

	var payload aiDetectionPayload
	if err := decodeModelJSON(result.Text, &payload); err != nil {
		a.logger.Warn().Err(err).Str("material_id", materialID).Msg("Undecodable AI content check response")
		return stub
	}

	indicators := payload.Indicators
	if indicators == nil {
		indicators = []string{}
	}

	return models.AIDetectionResult{
		AIScore: clampScore(payload.AIScore),
		Analysis: models.AIAnalysis{
			IsAIGenerated: payload.IsAIGenerated,
			Confidence:    clampScore(payload.Confidence),
			Indicators:    indicators,
			Details:       strings.TrimSpace(payload.Details),
		},
	}
}

func (a *originalityAnalyzer) searchWebMatches(ctx context.Context, materialID, text string, doc *models.Document) models.WebMatchResult {
	stub := webStub()

	req := models.GenerationRequest{
		Operation: models.OperationSearchWebMatches,
		Prompt:    webMatchPrompt(text),
		Document:  doc,
		JSON:      true,
	}

	result, err := a.retrier.Do(ctx, a.tracker.Operation(materialID, req))
	if err != nil {
		a.logger.Error().Err(err).Str("material_id", materialID).Msg("Web match search failed")
		return stub
	}

	var payload webMatchPayload
	if err := decodeModelJSON(result.Text, &payload); err != nil {
		a.logger.Warn().Err(err).Str("material_id", materialID).Msg("Undecodable web match response")
		return stub
	}

	matches := make([]models.WebMatch, 0, len(payload.Matches))
	for _, m := range payload.Matches {
		if strings.TrimSpace(m.MatchedText) == "" {
			continue
		}
		matches = append(matches, models.WebMatch{
			MatchedText:     strings.TrimSpace(m.MatchedText),
			SourceURL:       strings.TrimSpace(m.SourceURL),
			SourceTitle:     strings.TrimSpace(m.SourceTitle),
			MatchPercentage: clampScore(m.MatchPercentage),
			MatchType:       normalizeMatchType(m.MatchType),
		})
	}

	return models.WebMatchResult{
		WebMatchScore: clampScore(payload.WebMatchScore),
		Matches:       matches,
	}
}

func aiStub() models.AIDetectionResult {
	return models.AIDetectionResult{Analysis: models.AIAnalysis{
		Indicators: []string{},
		Details:    "AI content analysis was unavailable.",
	}}
}

func webStub() models.WebMatchResult {
	return models.WebMatchResult{Matches: []models.WebMatch{}}
}

func normalizeMatchType(s string) models.MatchType {
	switch models.MatchType(strings.ToLower(strings.TrimSpace(s))) {
	case models.MatchTypeExact:
		return models.MatchTypeExact
	case models.MatchTypeParaphrase:
		return models.MatchTypeParaphrase
	default:
		return models.MatchTypeSimilar
	}
}
