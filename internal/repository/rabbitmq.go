package repository

import (
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// RabbitMQRepository owns the broker connection and topology. Publishers and consumers
// each get their own channel from OpenChannel.
type RabbitMQRepository interface {
	OpenChannel() (*amqp.Channel, error)
	SetupExchange(exchange string) error
	SetupQueue(exchange, queue, routingKey string) error
	IsClosed() bool
	Close() error
}

type rabbitMQRepository struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  zerolog.Logger

	mu       sync.Mutex
	channels []*amqp.Channel
}

func NewRabbitMQRepository(url string, logger zerolog.Logger) (RabbitMQRepository, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	logger.Info().Msg("Connected to RabbitMQ")

	return &rabbitMQRepository{
		conn:    conn,
		channel: channel,
		logger:  logger,
	}, nil
}

func (r *rabbitMQRepository) OpenChannel() (*amqp.Channel, error) {
	channel, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	r.mu.Lock()
	r.channels = append(r.channels, channel)
	r.mu.Unlock()

	return channel, nil
}

func (r *rabbitMQRepository) SetupExchange(exchange string) error {
	err := r.channel.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	return nil
}

func (r *rabbitMQRepository) SetupQueue(exchange, queue, routingKey string) error {
	if err := r.SetupExchange(exchange); err != nil {
		return err
	}

	q, err := r.channel.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	err = r.channel.QueueBind(
		q.Name,     // queue name
		routingKey, // routing key
		exchange,   // exchange
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	r.logger.Info().
		Str("exchange", exchange).
		Str("queue", q.Name).
		Str("routing_key", routingKey).
		Msg("RabbitMQ queue setup complete")

	return nil
}

func (r *rabbitMQRepository) IsClosed() bool {
	return r.conn == nil || r.conn.IsClosed()
}

func (r *rabbitMQRepository) Close() error {
	r.mu.Lock()
	channels := append(r.channels, r.channel)
	r.channels = nil
	r.mu.Unlock()

	for _, ch := range channels {
		if ch == nil {
			continue
		}
		if err := ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			r.logger.Error().Err(err).Msg("Failed to close RabbitMQ channel")
		}
	}

	if r.conn != nil && !r.conn.IsClosed() {
		if err := r.conn.Close(); err != nil {
			r.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	return nil
}
