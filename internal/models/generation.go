package models

type OperationKind string

const (
	OperationSummarize         OperationKind = "summarize"
	OperationGenerateQuestions OperationKind = "generate_questions"
	OperationCheckAIContent    OperationKind = "check_ai_content"
	OperationSearchWebMatches  OperationKind = "search_web_matches"
)

func (k OperationKind) String() string {
	return string(k)
}

// Document is a document body handed to the model service when local extraction is not possible.
type Document struct {
	Name     string
	MimeType string
	Data     []byte
}

type GenerationRequest struct {
	Operation OperationKind
	Prompt    string
	// Document, when set, is uploaded and referenced next to the prompt.
	Document *Document
	// JSON asks the service for a JSON object response.
	JSON bool
}

type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type GenerationResult struct {
	Text  string
	Usage TokenUsage
}
