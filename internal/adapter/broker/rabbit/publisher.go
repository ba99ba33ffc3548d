package rabbit

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/framescan/framescan/internal/domain"
	"github.com/framescan/framescan/internal/port"
)

// Publisher is the producer-side fire-and-forget enqueue used by the upload
// API. It keeps one connection and opens a short-lived channel per publish.
type Publisher struct {
	conn  *amqp.Connection
	queue string
}

func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Properties: amqp.Table{"connection_name": "framescan-api"},
	})
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close() //nolint:errcheck
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close() //nolint:errcheck

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		conn.Close() //nolint:errcheck
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	return &Publisher{conn: conn, queue: queue}, nil
}

func (p *Publisher) Publish(ctx context.Context, msg domain.JobMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal job message: %w", err)
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close() //nolint:errcheck

	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		CorrelationId: msg.CorrelationID,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publish job %s: %w", msg.JobID, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.conn.Close()
}

var _ port.JobPublisher = (*Publisher)(nil)
