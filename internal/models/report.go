package models

import (
	"time"
)

type MatchType string

const (
	MatchTypeExact      MatchType = "exact"
	MatchTypeParaphrase MatchType = "paraphrase"
	MatchTypeSimilar    MatchType = "similar"
)

type PlagiarismReport struct {
	ID            string     `json:"id" db:"id"`
	MaterialID    string     `json:"material_id" db:"material_id"`
	OverallScore  int        `json:"overall_score" db:"overall_score"`
	AIScore       int        `json:"ai_score" db:"ai_score"`
	WebMatchScore int        `json:"web_match_score" db:"web_match_score"`
	AIAnalysis    AIAnalysis `json:"ai_analysis" db:"ai_analysis"`
	WebMatches    []WebMatch `json:"web_matches" db:"web_matches"`
	Suggestions   []string   `json:"suggestions" db:"suggestions"`
	CheckedAt     time.Time  `json:"checked_at" db:"checked_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

type AIAnalysis struct {
	IsAIGenerated bool     `json:"is_ai_generated"`
	Confidence    int      `json:"confidence"`
	Indicators    []string `json:"indicators"`
	Details       string   `json:"details"`
}

type WebMatch struct {
	MatchedText     string    `json:"matched_text"`
	SourceURL       string    `json:"source_url"`
	SourceTitle     string    `json:"source_title"`
	MatchPercentage int       `json:"match_percentage"`
	MatchType       MatchType `json:"match_type"`
}

// AIDetectionResult is the outcome of the AI-likelihood sub-call.
type AIDetectionResult struct {
	AIScore  int
	Analysis AIAnalysis
}

// WebMatchResult is the outcome of the web-match sub-call.
type WebMatchResult struct {
	WebMatchScore int
	Matches       []WebMatch
}
