package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is the topic exchange handshake events are published to
const DefaultExchange = "handshake_events"

// AMQPPublisher publishes events to a durable topic exchange, using the
// event type as routing key
type AMQPPublisher struct {
	conn     *amqp.Connection
	exchange string
}

// NewAMQPPublisher declares the exchange and returns a publisher on conn
func NewAMQPPublisher(conn *amqp.Connection, exchange string) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{conn: conn, exchange: exchange}, nil
}

func (p *AMQPPublisher) PublishHandshake(ctx context.Context, e HandshakeEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	err = ch.PublishWithContext(ctx,
		p.exchange,
		e.Type,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    e.OccurredOn,
			Type:         e.Type,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}
