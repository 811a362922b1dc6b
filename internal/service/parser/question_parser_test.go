package parser

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/rs/zerolog"
)

const strictOutput = `Here are your questions.

Question 1: What is the capital of France?
Type: multiple-choice
A) Berlin
B) Paris
C) Madrid
D) Rome
Correct Answer: B
Explanation: Paris has been the capital of France
since the tenth century.
Difficulty: easy

Question 2: Which of these are prime numbers?
Type: multi-select
A) 2
B) 4
C) 3
D) 9
Correct Answers: A, C
Explanation: 2 and 3 have no divisors other than 1 and themselves.
Difficulty: hard

**Question 3:** Water boils at 100 degrees Celsius at sea level.
Type: true-false
A) True
B) False
Correct Answer: A
Explanation: Standard atmospheric pressure.

Question 4: Which planet is largest?
A) Mars
B) Jupiter
C) Venus
Correct Answer: B
Difficulty: medium
`

func TestParseStrict(t *testing.T) {
	questions, dropped := ParseStrict(strictOutput)

	if len(questions) != 3 {
		t.Fatalf("Expected 3 questions, got %d", len(questions))
	}
	if dropped != 1 {
		t.Errorf("Expected 1 dropped block, got %d", dropped)
	}

	q := questions[0]
	if q.QuestionText != "What is the capital of France?" {
		t.Errorf("Unexpected question text %q", q.QuestionText)
	}
	if q.QuestionType != models.QuestionTypeMultipleChoice {
		t.Errorf("Expected multiple-choice, got %s", q.QuestionType)
	}
	if q.CorrectAnswer != 1 {
		t.Errorf("Expected Correct Answer: B to parse as 1, got %d", q.CorrectAnswer)
	}
	if q.Difficulty != models.DifficultyEasy {
		t.Errorf("Expected easy, got %s", q.Difficulty)
	}
	if q.Explanation != "Paris has been the capital of France since the tenth century." {
		t.Errorf("Unexpected explanation %q", q.Explanation)
	}

	multi := questions[1]
	if multi.QuestionType != models.QuestionTypeMultiSelect {
		t.Errorf("Expected multi-select, got %s", multi.QuestionType)
	}
	if !reflect.DeepEqual(multi.CorrectAnswers, []int{0, 2}) {
		t.Errorf("Expected Correct Answers: A, C to parse as [0 2], got %v", multi.CorrectAnswers)
	}

	tf := questions[2]
	if tf.QuestionType != models.QuestionTypeTrueFalse || len(tf.Options) != 2 {
		t.Errorf("Expected true-false with 2 options, got %s with %d", tf.QuestionType, len(tf.Options))
	}
	if tf.Difficulty != models.DifficultyMedium {
		t.Errorf("Expected default difficulty medium, got %s", tf.Difficulty)
	}

	for _, q := range questions {
		if strings.Contains(q.QuestionText, "largest") {
			t.Errorf("Three-option multiple-choice block must be dropped, found %q", q.QuestionText)
		}
	}
}

func TestParseStrictDefaultsTypeToMultipleChoice(t *testing.T) {
	raw := `Question 1: Pick one
A) one
B) two
C) three
D) four
Correct Answer: D`

	questions, _ := ParseStrict(raw)
	if len(questions) != 1 {
		t.Fatalf("Expected 1 question, got %d", len(questions))
	}
	if questions[0].QuestionType != models.QuestionTypeMultipleChoice {
		t.Errorf("Expected multiple-choice, got %s", questions[0].QuestionType)
	}
	if questions[0].CorrectAnswer != 3 {
		t.Errorf("Expected answer 3, got %d", questions[0].CorrectAnswer)
	}
}

func TestParseStrictDropsOutOfRangeAnswer(t *testing.T) {
	raw := `Question 1: Is the sky blue?
Type: true-false
A) True
B) False
Correct Answer: C`

	questions, dropped := ParseStrict(raw)
	if len(questions) != 0 || dropped != 1 {
		t.Errorf("Expected block to be dropped, got %d questions and %d dropped", len(questions), dropped)
	}
}

func TestParseStrictAnswerGivenAsOptionText(t *testing.T) {
	raw := `Question 1: What controls what enters and leaves a cell?
A) The nucleus
B) Ribosomes
C) A cell membrane
D) Chloroplasts
Correct Answer: A cell membrane

Question 2: Which organelle makes proteins?
A) Nucleus
B) Ribosome
C) Vacuole
D) Golgi body
Correct Answer: B Ribosome`

	questions, dropped := ParseStrict(raw)
	if len(questions) != 2 || dropped != 0 {
		t.Fatalf("Expected 2 questions and no drops, got %d and %d", len(questions), dropped)
	}
	if questions[0].CorrectAnswer != 2 {
		t.Errorf("Expected option text to select index 2, got %d", questions[0].CorrectAnswer)
	}
	if questions[1].CorrectAnswer != 1 {
		t.Errorf("Expected letter B to select index 1, got %d", questions[1].CorrectAnswer)
	}
}

func TestAnswerIndexes(t *testing.T) {
	options := []string{"A tree", "Paris", "A cell membrane", "Rome"}

	tests := []struct {
		raw  string
		want []int
	}{
		{"B", []int{1}},
		{"b.", []int{1}},
		{"B) Paris", []int{1}},
		{"(D)", []int{3}},
		{"A, C", []int{0, 2}},
		{"A and C", []int{0, 2}},
		{"Option C", []int{2}},
		{"A cell membrane", []int{2}},
		{"a cell membrane.", []int{2}},
		{"D Rome", []int{3}},
		{"Rome", []int{3}},
		{"Lisbon", nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := answerIndexes(tt.raw, options); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParseStrictDropsSingleAnswerWithSeveralKeys(t *testing.T) {
	raw := `Question 1: Which city is the capital of Italy?
Type: multiple-choice
A) Paris
B) Rome
C) Madrid
D) Berlin
Correct Answer: A, B

Question 2: The Sun is a star.
Type: true-false
A) True
B) False
Correct Answer: A and B

Question 3: Which city is the capital of Spain?
A) Paris
B) Rome
C) Madrid
D) Berlin
Correct Answer: C`

	questions, dropped := ParseStrict(raw)
	if dropped != 2 {
		t.Errorf("Expected 2 dropped blocks, got %d", dropped)
	}
	if len(questions) != 1 {
		t.Fatalf("Expected 1 question, got %d", len(questions))
	}
	if !strings.Contains(questions[0].QuestionText, "Spain") || questions[0].CorrectAnswer != 2 {
		t.Errorf("Unexpected question %+v", questions[0])
	}
}

func TestParseLenient(t *testing.T) {
	raw := `1. Which gas do plants absorb?
a) Oxygen
b) Carbon dioxide
c) Nitrogen
d) Helium
Answer: Carbon dioxide

2) The Earth orbits the Sun.
Answer: True

3. Select all mammals
(a) Whale
(b) Shark
(c) Bat
(d) Trout
Answer: a, c`

	if strict, _ := ParseStrict(raw); len(strict) != 0 {
		t.Fatalf("Expected strict tier to find nothing, got %d", len(strict))
	}

	questions, _ := ParseLenient(raw)
	if len(questions) != 3 {
		t.Fatalf("Expected 3 questions, got %d", len(questions))
	}

	if questions[0].CorrectAnswer != 1 {
		t.Errorf("Expected answer matched by option text to be 1, got %d", questions[0].CorrectAnswer)
	}

	tf := questions[1]
	if tf.QuestionType != models.QuestionTypeTrueFalse {
		t.Errorf("Expected inferred true-false, got %s", tf.QuestionType)
	}
	if !reflect.DeepEqual(tf.Options, []string{"True", "False"}) || tf.CorrectAnswer != 0 {
		t.Errorf("Unexpected true-false question %+v", tf)
	}

	multi := questions[2]
	if multi.QuestionType != models.QuestionTypeMultiSelect {
		t.Errorf("Expected inferred multi-select, got %s", multi.QuestionType)
	}
	if !reflect.DeepEqual(multi.CorrectAnswers, []int{0, 2}) {
		t.Errorf("Expected [0 2], got %v", multi.CorrectAnswers)
	}
}

func TestParseFallsThroughTiers(t *testing.T) {
	p := NewQuestionParser(3, zerolog.Nop())

	strict := p.Parse(strictOutput)
	if strict.Tier != models.QuestionQualityStrict || strict.Err() != nil {
		t.Errorf("Expected strict tier without degradation, got %s (%v)", strict.Tier, strict.Err())
	}
	for i, q := range strict.Questions {
		if q.Position != i+1 {
			t.Errorf("Expected position %d, got %d", i+1, q.Position)
		}
	}

	lenient := p.Parse("1. The Moon is a planet.\nAnswer: False")
	if lenient.Tier != models.QuestionQualityLenient {
		t.Errorf("Expected lenient tier, got %s", lenient.Tier)
	}
	if !errors.Is(lenient.Err(), ErrParseDegraded) {
		t.Errorf("Expected ErrParseDegraded, got %v", lenient.Err())
	}

	garbage := p.Parse("I'm sorry, photosynthesis chlorophyll sunlight glucose production mitochondria.")
	if garbage.Tier != models.QuestionQualityPlaceholder {
		t.Errorf("Expected placeholder tier, got %s", garbage.Tier)
	}
	if len(garbage.Questions) != 3 {
		t.Errorf("Expected 3 placeholder questions, got %d", len(garbage.Questions))
	}
	if !errors.Is(garbage.Err(), ErrParseDegraded) {
		t.Errorf("Expected ErrParseDegraded, got %v", garbage.Err())
	}
}

func TestPlaceholderIsDeterministicAndValid(t *testing.T) {
	text := "Thermodynamics describes energy transfer between systems through heat and work."

	first := Placeholder(text, 4)
	second := Placeholder(text, 4)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical placeholders for identical text")
	}
	if len(first) != 4 {
		t.Errorf("Expected 4 placeholders, got %d", len(first))
	}
	for _, q := range first {
		if err := q.Validate(); err != nil {
			t.Errorf("Placeholder question invalid: %v", err)
		}
	}

	if empty := Placeholder("", 3); len(empty) != 1 {
		t.Errorf("Expected a single generic placeholder for empty text, got %d", len(empty))
	}
}

func TestFromSentences(t *testing.T) {
	text := "Short one. The mitochondria is the organelle that produces most of the cell's energy. " +
		"Photosynthesis converts light energy into chemical energy stored in glucose molecules!"

	questions := FromSentences(text, 5)
	if len(questions) != 2 {
		t.Fatalf("Expected 2 sentence questions, got %d", len(questions))
	}
	if !strings.HasPrefix(questions[0].QuestionText, "True or false: The mitochondria") {
		t.Errorf("Unexpected question text %q", questions[0].QuestionText)
	}
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			t.Errorf("Sentence question invalid: %v", err)
		}
	}
}
