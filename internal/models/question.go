package models

import (
	"fmt"
	"time"
)

type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple-choice"
	QuestionTypeTrueFalse      QuestionType = "true-false"
	QuestionTypeMultiSelect    QuestionType = "multi-select"
)

// RequiredOptions is the option count a question of this type must carry.
func (t QuestionType) RequiredOptions() int {
	if t == QuestionTypeTrueFalse {
		return 2
	}
	return 4
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Question struct {
	ID           string       `json:"id,omitempty" db:"id"`
	MaterialID   string       `json:"material_id,omitempty" db:"material_id"`
	Position     int          `json:"position" db:"position"`
	QuestionText string       `json:"question_text" db:"question_text"`
	QuestionType QuestionType `json:"question_type" db:"question_type"`
	Options      []string     `json:"options" db:"options"`

	// CorrectAnswer is the zero-based answer index. For multi-select it is the first of CorrectAnswers.
	CorrectAnswer  int        `json:"correct_answer" db:"correct_answer"`
	CorrectAnswers []int      `json:"correct_answers,omitempty" db:"correct_answers"`
	Explanation    string     `json:"explanation,omitempty" db:"explanation"`
	Difficulty     Difficulty `json:"difficulty" db:"difficulty"`
	CreatedAt      time.Time  `json:"created_at,omitempty" db:"created_at"`
}

func (q *Question) Validate() error {
	if q.QuestionText == "" {
		return fmt.Errorf("empty question text")
	}
	if len(q.Options) != q.QuestionType.RequiredOptions() {
		return fmt.Errorf("%s question needs %d options, got %d", q.QuestionType, q.QuestionType.RequiredOptions(), len(q.Options))
	}

	answers := []int{q.CorrectAnswer}
	if q.QuestionType == QuestionTypeMultiSelect {
		if len(q.CorrectAnswers) == 0 {
			return fmt.Errorf("multi-select question without answers")
		}
		answers = q.CorrectAnswers
	}
	for _, idx := range answers {
		if idx < 0 || idx >= len(q.Options) {
			return fmt.Errorf("answer index %d out of range", idx)
		}
	}
	return nil
}

// QuestionSet is the output of question generation together with its quality tier.
type QuestionSet struct {
	Questions []Question      `json:"questions"`
	Quality   QuestionQuality `json:"quality"`
}

func (s *QuestionSet) Degraded() bool {
	return s.Quality.Degraded()
}
