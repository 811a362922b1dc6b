package integration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/config"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/service/generator"
	"github.com/RubachokBoss/plagiarism-checker/content-service/pkg/utils"
	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

const (
	defaultCallTimeout        = 120 * time.Second
	defaultUploadPollInterval = 2 * time.Second
	defaultUploadMaxPolls     = 30
	deleteTimeout             = 10 * time.Second
)

// GeminiClient talks to the Gemini API with a single API key.
type GeminiClient struct {
	client             *genai.Client
	model              string
	temperature        float32
	callTimeout        time.Duration
	uploadPollInterval time.Duration
	uploadMaxPolls     int
	logger             zerolog.Logger
}

func NewGeminiClient(ctx context.Context, apiKey string, cfg config.GeminiConfig, logger zerolog.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &GeminiClient{
		client:             client,
		model:              cfg.Model,
		temperature:        cfg.Temperature,
		callTimeout:        cfg.CallTimeout,
		uploadPollInterval: cfg.UploadPollInterval,
		uploadMaxPolls:     cfg.UploadMaxPolls,
		logger:             logger,
	}
	if c.callTimeout <= 0 {
		c.callTimeout = defaultCallTimeout
	}
	if c.uploadPollInterval <= 0 {
		c.uploadPollInterval = defaultUploadPollInterval
	}
	if c.uploadMaxPolls <= 0 {
		c.uploadMaxPolls = defaultUploadMaxPolls
	}

	return c, nil
}

// NewCredentials builds one client per configured API key, in configuration order.
// The returned close function releases all of them.
func NewCredentials(ctx context.Context, cfg config.GeminiConfig, logger zerolog.Logger) ([]generator.Credential, func() error, error) {
	var (
		creds   []generator.Credential
		clients []*GeminiClient
	)

	closeAll := func() error {
		var errs []error
		for _, c := range clients {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	for _, key := range cfg.Credentials() {
		label := utils.MaskKey(key)
		client, err := NewGeminiClient(ctx, key, cfg, logger.With().Str("credential", label).Logger())
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("credential %s: %w", label, err)
		}
		clients = append(clients, client)
		creds = append(creds, generator.Credential{ID: label, Client: client})
	}

	logger.Info().
		Int("credentials", len(creds)).
		Str("model", cfg.Model).
		Msg("Gemini clients initialized")

	return creds, closeAll, nil
}

func (c *GeminiClient) Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(c.temperature)
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}

	parts := []genai.Part{genai.Text(req.Prompt)}
	if req.Document != nil {
		file, err := c.upload(ctx, req.Document)
		if err != nil {
			return nil, err
		}
		defer c.deleteFile(file.Name)

		parts = append(parts, genai.FileData{MIMEType: file.MIMEType, URI: file.URI})
	}

	startTime := time.Now()
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, wrapError(err)
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return nil, fmt.Errorf("empty response from Gemini for %s", req.Operation)
	}

	result := &models.GenerationResult{Text: text}
	if usage := resp.UsageMetadata; usage != nil {
		result.Usage = models.TokenUsage{
			InputTokens:  int(usage.PromptTokenCount),
			OutputTokens: int(usage.CandidatesTokenCount),
			TotalTokens:  int(usage.TotalTokenCount),
		}
	}

	c.logger.Debug().
		Str("operation", req.Operation.String()).
		Bool("uploaded", req.Document != nil).
		Int("total_tokens", result.Usage.TotalTokens).
		Dur("duration", time.Since(startTime)).
		Msg("Gemini call completed")

	return result, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// upload sends doc to the file API and waits for it to become active.
func (c *GeminiClient) upload(ctx context.Context, doc *models.Document) (*genai.File, error) {
	if len(doc.Data) == 0 {
		return nil, errors.New("document is empty")
	}

	mimeType := doc.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(doc.Data)
	}

	file, err := c.client.UploadFile(ctx, "", bytes.NewReader(doc.Data), &genai.UploadFileOptions{
		DisplayName: doc.Name,
		MIMEType:    mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload document to Gemini: %w", wrapError(err))
	}

	for i := 0; i < c.uploadMaxPolls && file.State == genai.FileStateProcessing; i++ {
		select {
		case <-ctx.Done():
			c.deleteFile(file.Name)
			return nil, ctx.Err()
		case <-time.After(c.uploadPollInterval):
		}

		current, err := c.client.GetFile(ctx, file.Name)
		if err != nil {
			c.deleteFile(file.Name)
			return nil, fmt.Errorf("failed to get uploaded file status: %w", wrapError(err))
		}
		file = current
	}

	if file.State != genai.FileStateActive {
		c.deleteFile(file.Name)
		if file.State == genai.FileStateFailed {
			return nil, errors.New("gemini failed to process the uploaded document")
		}
		return nil, fmt.Errorf("uploaded document did not become active after %d polls", c.uploadMaxPolls)
	}

	if file.MIMEType == "" {
		file.MIMEType = mimeType
	}
	return file, nil
}

func (c *GeminiClient) deleteFile(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()

	if err := c.client.DeleteFile(ctx, name); err != nil {
		c.logger.Warn().Err(err).Str("file", name).Msg("Failed to delete uploaded file")
	}
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
	}
	return text.String()
}
