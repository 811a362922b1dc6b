package parser

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
)

const placeholderExplanation = "Generated automatically because the model output could not be used. Review before publishing."

var stopWords = map[string]bool{
	"about": true, "above": true, "after": true, "again": true, "against": true, "among": true,
	"because": true, "before": true, "being": true, "below": true, "between": true, "could": true,
	"during": true, "every": true, "first": true, "other": true, "their": true, "there": true,
	"these": true, "thing": true, "those": true, "through": true, "under": true, "until": true,
	"where": true, "which": true, "while": true, "would": true, "should": true, "might": true,
	"question": true, "answer": true, "correct": true, "explanation": true, "difficulty": true,
}

// Placeholder builds up to n true/false questions around random content words of text.
// The word choice is seeded from the text so equal input gives equal output. At least
// one question is always returned.
func Placeholder(text string, n int) []models.Question {
	if n < 1 {
		n = 1
	}

	words := contentWords(text)
	rng := rand.New(rand.NewPCG(textSeed(text), 0x9e3779b97f4a7c15))
	rng.Shuffle(len(words), func(i, j int) { words[i], words[j] = words[j], words[i] })
	if len(words) > n {
		words = words[:n]
	}

	if len(words) == 0 {
		return []models.Question{trueFalse("This material should be reviewed before attempting the assessment.", models.DifficultyEasy)}
	}

	questions := make([]models.Question, 0, len(words))
	for _, w := range words {
		questions = append(questions, trueFalse(
			fmt.Sprintf("The term \"%s\" is discussed in this material.", w),
			models.DifficultyEasy,
		))
	}
	return questions
}

var sentenceSplitRe = regexp.MustCompile(`[.!?]+(?:\s+|$)`)

// FromSentences turns the first n well-formed sentences of text into true/false
// statements. It falls back to Placeholder when text has no usable sentences.
func FromSentences(text string, n int) []models.Question {
	if n < 1 {
		n = 1
	}

	var questions []models.Question
	for _, sentence := range sentenceSplitRe.Split(text, -1) {
		sentence = strings.Join(strings.Fields(sentence), " ")
		length := len([]rune(sentence))
		if length < 40 || length > 300 || len(strings.Fields(sentence)) < 6 {
			continue
		}

		questions = append(questions, trueFalse("True or false: "+sentence+".", models.DifficultyEasy))
		if len(questions) == n {
			break
		}
	}

	if len(questions) == 0 {
		return Placeholder(text, n)
	}
	return questions
}

func trueFalse(text string, difficulty models.Difficulty) models.Question {
	return models.Question{
		QuestionText:  text,
		QuestionType:  models.QuestionTypeTrueFalse,
		Options:       []string{"True", "False"},
		CorrectAnswer: 0,
		Explanation:   placeholderExplanation,
		Difficulty:    difficulty,
	}
}

func contentWords(text string) []string {
	seen := make(map[string]bool)
	var words []string
	for _, field := range strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) }) {
		w := strings.ToLower(field)
		if len([]rune(w)) < 5 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	return words
}

func textSeed(text string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return h.Sum64()
}
