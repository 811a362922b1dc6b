package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/rs/zerolog"
)

var (
	ErrMalformedMessage   = errors.New("malformed message")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// JobProcessor runs the processing pipeline for one material.
type JobProcessor interface {
	Process(ctx context.Context, materialID string) error
}

type MessageHandler interface {
	ProcessMessage(ctx context.Context, msg RabbitMQMessage) error
}

type messageHandler struct {
	processor JobProcessor
	logger    zerolog.Logger
}

func NewMessageHandler(processor JobProcessor, logger zerolog.Logger) MessageHandler {
	return &messageHandler{
		processor: processor,
		logger:    logger,
	}
}

// ProcessMessage decodes a job and routes it by type. Decoding problems wrap
// ErrMalformedMessage; they will never succeed on redelivery.
func (h *messageHandler) ProcessMessage(ctx context.Context, msg RabbitMQMessage) error {
	var job models.ProcessingJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	// Jobs published without a type are routed by key.
	msgType := job.Type
	if msgType == "" {
		msgType = msg.RoutingKey
	}

	switch msgType {
	case models.MessageTypeProcessMaterial:
		materialID := strings.TrimSpace(job.MaterialID)
		if materialID == "" {
			return fmt.Errorf("%w: empty material_id", ErrMalformedMessage)
		}

		h.logger.Info().
			Str("material_id", materialID).
			Bool("redelivered", msg.Redelivered).
			Msg("Handling processing job")

		return h.processor.Process(ctx, materialID)

	default:
		h.logger.Warn().Str("type", msgType).Msg("Unknown message type")
		return fmt.Errorf("%w: %q", ErrUnknownMessageType, msgType)
	}
}
