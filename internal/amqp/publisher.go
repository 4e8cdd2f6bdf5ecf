// Package amqp forwards domain events to a RabbitMQ topic exchange.
package amqp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/dafibh/gastify/gastify-backend/internal/websocket"
)

const publishTimeout = 5 * time.Second

// channel is the part of *amqp091.Channel the publisher uses
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher implements websocket.EventPublisher on an AMQP exchange.
// Routing keys are the event type, e.g. "expense.created".
type Publisher struct {
	conn     *amqp091.Connection
	channel  channel
	exchange string
	mu       sync.Mutex
}

var _ websocket.EventPublisher = (*Publisher)(nil)

// NewPublisher dials url and declares a durable topic exchange
func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p, err := newPublisher(ch, exchange)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string) (*Publisher, error) {
	err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{channel: ch, exchange: exchange}, nil
}

// Publish sends the event with the user ID as a header. Failures are logged, not returned.
func (p *Publisher) Publish(userID uuid.UUID, event websocket.Event) {
	body, err := event.ToJSON()
	if err != nil {
		log.Error().Err(err).Str("event_type", event.Type).Msg("Failed to serialize event for AMQP")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	// amqp091 channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		event.Type, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    event.Timestamp,
			MessageId:    uuid.NewString(),
			Headers:      amqp091.Table{"user_id": userID.String()},
			Body:         body,
		},
	)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID.String()).
			Str("event_type", event.Type).
			Msg("Failed to publish event to AMQP")
		return
	}

	log.Debug().
		Str("user_id", userID.String()).
		Str("event_type", event.Type).
		Str("exchange", p.exchange).
		Msg("Published event to AMQP")
}

// Close closes the channel and connection
func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
