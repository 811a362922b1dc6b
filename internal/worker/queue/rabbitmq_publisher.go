package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const publishTimeout = 5 * time.Second

type RabbitMQPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
	PublishJSON(ctx context.Context, exchange, routingKey string, payload interface{}) error
	Close() error
}

type rabbitMQPublisher struct {
	mu      sync.Mutex
	channel *amqp.Channel
	logger  zerolog.Logger
}

func NewRabbitMQPublisher(channel *amqp.Channel, logger zerolog.Logger) RabbitMQPublisher {
	return &rabbitMQPublisher{
		channel: channel,
		logger:  logger,
	}
}

func (p *rabbitMQPublisher) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.channel.PublishWithContext(
		publishCtx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s/%s: %w", exchange, routingKey, err)
	}

	p.logger.Debug().
		Str("exchange", exchange).
		Str("routing_key", routingKey).
		Int("bytes", len(body)).
		Msg("Message published")

	return nil
}

func (p *rabbitMQPublisher) PublishJSON(ctx context.Context, exchange, routingKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return p.Publish(ctx, exchange, routingKey, body)
}

func (p *rabbitMQPublisher) Close() error {
	// The channel is closed by the RabbitMQ repository.
	return nil
}
