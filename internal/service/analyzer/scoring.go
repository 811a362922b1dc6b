package analyzer

import (
	"fmt"
	"math"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
)

const (
	aiWeight  = 0.42
	webWeight = 0.58

	// strictnessThreshold: a sub-score above it adds strictnessPenalty to the plagiarism percentage.
	strictnessThreshold = 40
	strictnessPenalty   = 2
)

// Score combines the two sub-scores into an originality score in [0, 100].
func Score(aiScore, webMatchScore float64) int {
	plagiarism := aiScore*aiWeight + webMatchScore*webWeight
	if aiScore > strictnessThreshold || webMatchScore > strictnessThreshold {
		plagiarism += strictnessPenalty
	}

	return int(math.Round(clamp(100-plagiarism, 0, 100)))
}

// GenerateSuggestions returns remediation hints ordered AI, web, matches, closing remark.
func GenerateSuggestions(ai models.AIDetectionResult, web models.WebMatchResult, overallScore int) []string {
	var suggestions []string

	switch {
	case ai.AIScore > 70:
		suggestions = append(suggestions,
			"The text shows strong signs of AI generation. Rewrite it in your own words and voice.",
			"Add personal analysis, concrete examples and course-specific references that a generator would not produce.",
		)
	case ai.AIScore > 40:
		suggestions = append(suggestions,
			"Some passages read as machine-generated. Revise them to vary sentence structure and add your own reasoning.",
		)
	}

	switch {
	case web.WebMatchScore > 50:
		suggestions = append(suggestions,
			"A large share of the text matches online sources. Cite every source you used.",
			"Paraphrase matched passages properly or mark them as direct quotations.",
		)
	case web.WebMatchScore > 20:
		suggestions = append(suggestions,
			"Parts of the text resemble online sources. Check that they are cited correctly.",
		)
	}

	if n := len(web.Matches); n > 0 {
		noun := "passages"
		if n == 1 {
			noun = "passage"
		}
		suggestions = append(suggestions,
			fmt.Sprintf("Found %d matching %s. Review each one and add a citation or rewrite it.", n, noun),
		)
	}

	switch {
	case overallScore >= 80:
		suggestions = append(suggestions, "Good originality. Keep citing your sources consistently.")
	case overallScore >= 60:
		suggestions = append(suggestions, "Acceptable originality, but the flagged parts should be revised before submission.")
	default:
		suggestions = append(suggestions, "Low originality. Substantial revision is recommended before this material is published.")
	}

	return suggestions
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampScore(v float64) int {
	return int(math.Round(clamp(v, 0, 100)))
}
