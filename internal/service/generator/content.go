package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/rs/zerolog"
)

type DocumentSource interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

type TextExtractor interface {
	Extract(fileName, mimeType string, data []byte) (string, error)
}

// Content is a fetched document together with its extracted text, if any.
type Content struct {
	Ref        models.DocumentRef
	Document   models.Document
	Text       string
	ExtractErr error
}

// Extracted reports whether local extraction produced text. When it did not,
// generation falls back to uploading Document.
func (c *Content) Extracted() bool {
	return c.Text != ""
}

type ContentLoader struct {
	source    DocumentSource
	extractor TextExtractor
	logger    zerolog.Logger
}

func NewContentLoader(source DocumentSource, extractor TextExtractor, logger zerolog.Logger) *ContentLoader {
	return &ContentLoader{
		source:    source,
		extractor: extractor,
		logger:    logger,
	}
}

// Load fetches the document and tries local text extraction. Extraction failure is
// not an error; only a failed fetch is.
func (l *ContentLoader) Load(ctx context.Context, ref models.DocumentRef) (*Content, error) {
	if strings.TrimSpace(ref.Key) == "" {
		return nil, errors.New("empty document key")
	}

	data, err := l.source.Fetch(ctx, ref.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document %s: %w", ref.Key, err)
	}

	content := &Content{
		Ref: ref,
		Document: models.Document{
			Name:     ref.FileName,
			MimeType: ref.MimeType,
			Data:     data,
		},
	}

	text, err := l.extractor.Extract(ref.FileName, ref.MimeType, data)
	if err != nil {
		content.ExtractErr = err
		l.logger.Info().
			Err(err).
			Str("material_id", ref.MaterialID).
			Str("file_name", ref.FileName).
			Msg("Local extraction failed, document will be uploaded")
		return content, nil
	}

	content.Text = strings.TrimSpace(text)
	l.logger.Debug().
		Str("material_id", ref.MaterialID).
		Int("chars", len([]rune(content.Text))).
		Msg("Document text extracted")

	return content, nil
}
