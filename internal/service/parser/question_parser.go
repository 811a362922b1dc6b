package parser

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/rs/zerolog"
)

// ErrParseDegraded flags output that did not come from the strict tier.
// It describes quality, callers must not treat it as a failure.
var ErrParseDegraded = errors.New("question output parsed in degraded mode")

type Result struct {
	Questions []models.Question
	Tier      models.QuestionQuality
	Dropped   int
}

func (r *Result) Err() error {
	if r.Tier.Degraded() {
		return ErrParseDegraded
	}
	return nil
}

type QuestionParser struct {
	placeholderCount int
	logger           zerolog.Logger
}

func NewQuestionParser(placeholderCount int, logger zerolog.Logger) *QuestionParser {
	if placeholderCount < 1 {
		placeholderCount = 5
	}
	return &QuestionParser{
		placeholderCount: placeholderCount,
		logger:           logger,
	}
}

// Parse decodes raw model output, stepping down strict -> lenient -> placeholder until
// one tier yields at least one question. The result is never empty.
func (p *QuestionParser) Parse(raw string) *Result {
	questions, dropped := ParseStrict(raw)
	if len(questions) > 0 {
		if dropped > 0 {
			p.logger.Debug().Int("dropped", dropped).Msg("Dropped malformed question blocks")
		}
		return &Result{Questions: number(questions), Tier: models.QuestionQualityStrict, Dropped: dropped}
	}

	questions, dropped = ParseLenient(raw)
	if len(questions) > 0 {
		p.logger.Warn().
			Int("questions", len(questions)).
			Int("dropped", dropped).
			Msg("Strict question parse found nothing, using lenient parse")
		return &Result{Questions: number(questions), Tier: models.QuestionQualityLenient, Dropped: dropped}
	}

	p.logger.Warn().
		Int("raw_length", len(raw)).
		Msg("Model output had no parsable questions, generating placeholders")

	return &Result{
		Questions: number(Placeholder(raw, p.placeholderCount)),
		Tier:      models.QuestionQualityPlaceholder,
		Dropped:   dropped,
	}
}

var (
	strictMarkerRe  = regexp.MustCompile(`(?im)^[ \t]*[*#]*[ \t]*question[ \t]+\d+[ \t]*\**[ \t]*[:.)][ \t]*\**`)
	lenientMarkerRe = regexp.MustCompile(`(?im)^[ \t]*[*#]*[ \t]*(?:q(?:uestion)?[ \t]*)?\d+[ \t]*\**[ \t]*[:.)](?:[ \t]+|$)`)

	strictOptionRe  = regexp.MustCompile(`^([A-D])[).][ \t]*(.+)$`)
	lenientOptionRe = regexp.MustCompile(`^[(\[]?([A-Da-d])[)\].:\-][ \t]*(.+)$`)

	strictAnswerRe  = regexp.MustCompile(`(?i)^correct[ \t]+answers?[ \t]*:[ \t]*(.*)$`)
	lenientAnswerRe = regexp.MustCompile(`(?i)^(?:the[ \t]+)?(?:correct[ \t]+)?(?:answers?|options?|solutions?|key)(?:[ \t]+(?:is|are))?[ \t]*[:\-=][ \t]*(.*)$`)

	typeRe        = regexp.MustCompile(`(?i)^(?:question[ \t]+)?type[ \t]*:[ \t]*(.*)$`)
	explanationRe = regexp.MustCompile(`(?i)^(?:explanation|rationale|reason)[ \t]*:[ \t]*(.*)$`)
	difficultyRe  = regexp.MustCompile(`(?i)^(?:difficulty|level)[ \t]*:[ \t]*(.*)$`)
)

type grammar struct {
	option  *regexp.Regexp
	answer  *regexp.Regexp
	lenient bool
}

var (
	strictGrammar  = grammar{option: strictOptionRe, answer: strictAnswerRe}
	lenientGrammar = grammar{option: lenientOptionRe, answer: lenientAnswerRe, lenient: true}
)

// ParseStrict splits on "Question N:" markers and keeps only blocks that satisfy the
// option count and answer bounds of their type. It returns the accepted questions and
// the number of dropped blocks.
func ParseStrict(raw string) ([]models.Question, int) {
	return parseBlocks(splitBlocks(raw, strictMarkerRe), strictGrammar)
}

// ParseLenient accepts numbered items or blank-line separated paragraphs, lowercase
// option letters, free "Answer:" labels and answers given as option text.
func ParseLenient(raw string) ([]models.Question, int) {
	blocks := splitBlocks(raw, lenientMarkerRe)
	if len(blocks) == 0 {
		blocks = splitParagraphs(raw)
	}
	return parseBlocks(blocks, lenientGrammar)
}

func splitBlocks(raw string, marker *regexp.Regexp) []string {
	locs := marker.FindAllStringIndex(raw, -1)
	blocks := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		blocks = append(blocks, raw[loc[1]:end])
	}
	return blocks
}

func splitParagraphs(raw string) []string {
	var blocks []string
	for _, para := range regexp.MustCompile(`\n[ \t]*\n`).Split(raw, -1) {
		if strings.TrimSpace(para) != "" {
			blocks = append(blocks, para)
		}
	}
	return blocks
}

func parseBlocks(blocks []string, g grammar) ([]models.Question, int) {
	var (
		questions []models.Question
		dropped   int
	)
	for _, block := range blocks {
		q, ok := parseBlock(block, g)
		if !ok {
			dropped++
			continue
		}
		questions = append(questions, *q)
	}
	return questions, dropped
}

func parseBlock(block string, g grammar) (*models.Question, bool) {
	var (
		text          string
		declaredType  string
		answerRaw     string
		hasAnswer     bool
		options       []string
		explanation   []string
		inExplanation bool
		difficulty    = models.DifficultyMedium
	)

	for _, line := range strings.Split(block, "\n") {
		line = cleanLine(line)
		if line == "" {
			continue
		}

		if m := typeRe.FindStringSubmatch(line); m != nil {
			declaredType = m[1]
			inExplanation = false
			continue
		}
		if m := g.answer.FindStringSubmatch(line); m != nil {
			answerRaw, hasAnswer = m[1], true
			inExplanation = false
			continue
		}
		if m := explanationRe.FindStringSubmatch(line); m != nil {
			explanation = append(explanation[:0], m[1])
			inExplanation = true
			continue
		}
		if m := difficultyRe.FindStringSubmatch(line); m != nil {
			difficulty = normalizeDifficulty(m[1])
			inExplanation = false
			continue
		}
		if m := g.option.FindStringSubmatch(line); m != nil && text != "" {
			// Options must run A, B, C, D in order; anything else is ignored.
			if letterIndex(m[1]) == len(options) {
				options = append(options, strings.TrimSpace(m[2]))
			}
			inExplanation = false
			continue
		}
		if inExplanation {
			explanation = append(explanation, line)
			continue
		}
		if text == "" {
			text = line
			if g.lenient {
				text = trimQuestionPrefix(text)
			}
		}
	}

	if text == "" {
		return nil, false
	}

	q := &models.Question{
		QuestionText: text,
		QuestionType: models.QuestionTypeMultipleChoice,
		Options:      options,
		Explanation:  strings.TrimSpace(strings.Join(explanation, " ")),
		Difficulty:   difficulty,
	}

	if qt, ok := normalizeType(declaredType); ok {
		q.QuestionType = qt
	}

	var answers []int
	if hasAnswer {
		answers = answerIndexes(answerRaw, options)
	}

	if g.lenient {
		inferLenientType(q, declaredType, answerRaw, &answers)
	}

	if len(q.Options) < q.QuestionType.RequiredOptions() {
		return nil, false
	}
	q.Options = q.Options[:q.QuestionType.RequiredOptions()]

	answers = inBounds(answers, len(q.Options))
	if len(answers) == 0 {
		return nil, false
	}
	// A single-answer question with several keyed options has no usable key.
	if q.QuestionType != models.QuestionTypeMultiSelect && len(answers) > 1 {
		return nil, false
	}
	if q.QuestionType == models.QuestionTypeMultiSelect {
		q.CorrectAnswers = answers
	}
	q.CorrectAnswer = answers[0]

	if err := q.Validate(); err != nil {
		return nil, false
	}
	return q, true
}

// inferLenientType fills in what a loosely formatted block leaves implicit.
func inferLenientType(q *models.Question, declaredType, answerRaw string, answers *[]int) {
	if declaredType == "" {
		switch {
		case len(*answers) > 1:
			q.QuestionType = models.QuestionTypeMultiSelect
		case isTrueFalseOptions(q.Options) || (len(q.Options) == 0 && isTrueFalseWord(answerRaw)):
			q.QuestionType = models.QuestionTypeTrueFalse
		}
	}

	if q.QuestionType == models.QuestionTypeTrueFalse && len(q.Options) == 0 {
		q.Options = []string{"True", "False"}
		if len(*answers) == 0 && isTrueFalseWord(answerRaw) {
			if strings.HasPrefix(strings.ToLower(strings.TrimSpace(answerRaw)), "t") {
				*answers = []int{0}
			} else {
				*answers = []int{1}
			}
		}
	}
}

// answerIndexes reads leading option letters ("B", "A, C", "A and C", "B) Paris").
// A lone bare letter followed by more words ("A cell membrane") is read as option
// text first and as a letter only when no option matches.
func answerIndexes(raw string, options []string) []int {
	letters, marked, trailing := leadingLetters(raw)
	if len(letters) > 0 && (marked || len(letters) > 1 || !trailing) {
		return letters
	}
	if idx := optionByText(raw, options); idx >= 0 {
		return []int{idx}
	}
	return letters
}

// leadingLetters collects the option letters that open an answer. marked reports
// whether they were punctuated or introduced by "option", trailing whether words
// follow them.
func leadingLetters(raw string) (letters []int, marked, trailing bool) {
	spaced := strings.NewReplacer(",", " , ", ";", " ; ", "/", " / ", "&", " & ").Replace(raw)
	fields := strings.Fields(spaced)

	for i, field := range fields {
		lower := strings.ToLower(field)
		switch {
		case field == "," || field == ";" || field == "/" || field == "&":
			marked = true
			continue
		case lower == "and":
			continue
		case i == 0 && (lower == "option" || lower == "options"):
			marked = true
			continue
		}

		tok := strings.Trim(field, "()[]{}.:*\"'")
		idx := letterIndex(tok)
		if len(tok) != 1 || idx < 0 {
			return letters, marked, true
		}
		if tok != field {
			marked = true
		}
		letters = append(letters, idx)
	}
	return letters, marked, false
}

func optionByText(raw string, options []string) int {
	answer := strings.ToLower(strings.Trim(strings.TrimSpace(raw), ".\"'"))
	if answer == "" {
		return -1
	}
	for i, opt := range options {
		if strings.ToLower(opt) == answer {
			return i
		}
	}
	return -1
}

func inBounds(indexes []int, n int) []int {
	seen := make(map[int]bool, len(indexes))
	out := make([]int, 0, len(indexes))
	for _, idx := range indexes {
		if idx < 0 || idx >= n || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

func letterIndex(s string) int {
	if len(s) != 1 {
		return -1
	}
	c := unicode.ToUpper(rune(s[0]))
	if c < 'A' || c > 'D' {
		return -1
	}
	return int(c - 'A')
}

func normalizeType(s string) (models.QuestionType, bool) {
	key := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)

	switch {
	case key == "":
		return "", false
	case strings.Contains(key, "truefalse") || key == "tf" || strings.Contains(key, "boolean"):
		return models.QuestionTypeTrueFalse, true
	case strings.Contains(key, "multiselect") || strings.Contains(key, "multipleselect") ||
		strings.Contains(key, "multipleanswer") || strings.Contains(key, "multipleresponse") ||
		strings.Contains(key, "selectall"):
		return models.QuestionTypeMultiSelect, true
	case strings.Contains(key, "multiplechoice") || strings.Contains(key, "singlechoice") || key == "mcq":
		return models.QuestionTypeMultipleChoice, true
	}
	return "", false
}

func normalizeDifficulty(s string) models.Difficulty {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "easy") || strings.Contains(s, "simple") || strings.Contains(s, "basic"):
		return models.DifficultyEasy
	case strings.Contains(s, "hard") || strings.Contains(s, "difficult") || strings.Contains(s, "challenging"):
		return models.DifficultyHard
	}
	return models.DifficultyMedium
}

func isTrueFalseOptions(options []string) bool {
	return len(options) >= 2 &&
		strings.EqualFold(options[0], "true") &&
		strings.EqualFold(options[1], "false")
}

func isTrueFalseWord(s string) bool {
	s = strings.ToLower(strings.Trim(strings.TrimSpace(s), ".!"))
	return s == "true" || s == "false" || s == "t" || s == "f"
}

// cleanLine strips markdown emphasis and bullets that models like to add.
func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-•> \t")
	line = strings.ReplaceAll(line, "**", "")
	line = strings.ReplaceAll(line, "__", "")
	return strings.TrimSpace(line)
}

var questionPrefixRe = regexp.MustCompile(`(?i)^(?:q(?:uestion)?[ \t]*\d*[ \t]*[:.)][ \t]*)`)

func trimQuestionPrefix(s string) string {
	return strings.TrimSpace(questionPrefixRe.ReplaceAllString(s, ""))
}

func number(questions []models.Question) []models.Question {
	for i := range questions {
		questions[i].Position = i + 1
	}
	return questions
}
