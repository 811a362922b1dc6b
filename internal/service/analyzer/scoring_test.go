package analyzer

import (
	"strings"
	"testing"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
)

func TestScore(t *testing.T) {
	cases := []struct {
		ai, web float64
		want    int
	}{
		{ai: 80, web: 80, want: 18},
		{ai: 0, web: 0, want: 100},
		{ai: 40, web: 40, want: 60},
		{ai: 41, web: 0, want: 81},
		{ai: 0, web: 41, want: 74},
		{ai: 100, web: 100, want: 0},
		{ai: 10, web: 20, want: 84},
	}

	for _, tc := range cases {
		if got := Score(tc.ai, tc.web); got != tc.want {
			t.Errorf("Score(%v, %v) = %d, want %d", tc.ai, tc.web, got, tc.want)
		}
	}
}

func TestScoreStaysInRange(t *testing.T) {
	for ai := 0.0; ai <= 100; ai += 5 {
		for web := 0.0; web <= 100; web += 5 {
			got := Score(ai, web)
			if got < 0 || got > 100 {
				t.Fatalf("Score(%v, %v) = %d out of range", ai, web, got)
			}
		}
	}
}

func TestGenerateSuggestions(t *testing.T) {
	t.Run("strong signals", func(t *testing.T) {
		ai := models.AIDetectionResult{AIScore: 85}
		web := models.WebMatchResult{WebMatchScore: 60, Matches: []models.WebMatch{{MatchedText: "a"}, {MatchedText: "b"}}}

		got := GenerateSuggestions(ai, web, Score(85, 60))
		if len(got) != 6 {
			t.Fatalf("Expected 6 suggestions, got %d: %v", len(got), got)
		}
		if !strings.Contains(got[0], "strong signs of AI generation") {
			t.Errorf("Expected strong AI hint first, got %q", got[0])
		}
		if !strings.Contains(got[2], "Cite every source") {
			t.Errorf("Expected citation hint, got %q", got[2])
		}
		if !strings.Contains(got[4], "Found 2 matching passages") {
			t.Errorf("Expected match count hint, got %q", got[4])
		}
		if !strings.HasPrefix(got[5], "Low originality") {
			t.Errorf("Expected low originality remark last, got %q", got[5])
		}
	})

	t.Run("moderate signals", func(t *testing.T) {
		ai := models.AIDetectionResult{AIScore: 70}
		web := models.WebMatchResult{WebMatchScore: 50, Matches: []models.WebMatch{{MatchedText: "a"}}}

		got := GenerateSuggestions(ai, web, 65)
		want := []string{
			"Some passages read as machine-generated",
			"Parts of the text resemble online sources",
			"Found 1 matching passage.",
			"Acceptable originality",
		}
		if len(got) != len(want) {
			t.Fatalf("Expected %d suggestions, got %d: %v", len(want), len(got), got)
		}
		for i := range want {
			if !strings.Contains(got[i], want[i]) {
				t.Errorf("Suggestion %d: expected %q in %q", i, want[i], got[i])
			}
		}
	})

	t.Run("clean", func(t *testing.T) {
		got := GenerateSuggestions(models.AIDetectionResult{AIScore: 40}, models.WebMatchResult{WebMatchScore: 20}, 80)
		if len(got) != 1 || !strings.HasPrefix(got[0], "Good originality") {
			t.Errorf("Expected only the closing remark, got %v", got)
		}
	})
}

func TestDecodeModelJSON(t *testing.T) {
	cases := map[string]string{
		"plain":  `{"aiScore": 42}`,
		"fenced": "```json\n{\"aiScore\": 42}\n```",
		"prose":  "Here is the analysis:\n{\"aiScore\": 42}\nLet me know if you need more.",
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var payload aiDetectionPayload
			if err := decodeModelJSON(raw, &payload); err != nil {
				t.Fatalf("decodeModelJSON() error = %v", err)
			}
			if payload.AIScore != 42 {
				t.Errorf("Expected aiScore 42, got %v", payload.AIScore)
			}
		})
	}

	var payload aiDetectionPayload
	if err := decodeModelJSON("no json here", &payload); err == nil {
		t.Error("Expected error for output without an object")
	}
}
