// Package rabbit owns the RabbitMQ side of the pipeline: the durable queue
// consumer that feeds the processor, and the producer-side publisher.
package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/framescan/framescan/internal/domain"
	"github.com/framescan/framescan/internal/infrastructure/logger"
	"github.com/framescan/framescan/internal/port"
)

const reconnectBackoff = 5 * time.Second

// Consumer receives job messages one prefetch slot at a time, invokes the
// processor and acks or nacks based on the outcome. It owns the broker
// connection: connection and channel values live inside a single consume
// session and are rebuilt from scratch after every broker-signaled shutdown.
type Consumer struct {
	url       string
	queue     string
	prefetch  int
	processor port.JobProcessor
	backoff   time.Duration
}

func NewConsumer(url, queue string, prefetch int, processor port.JobProcessor) *Consumer {
	if prefetch < 1 {
		prefetch = 1
	}
	return &Consumer{
		url:       url,
		queue:     queue,
		prefetch:  prefetch,
		processor: processor,
		backoff:   reconnectBackoff,
	}
}

// Run loops Disconnected -> Connecting -> Consuming until ctx is cancelled.
// Any broker fault ends the current session; the loop waits a fixed backoff
// and dials again.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		err := c.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logger.Warn.Printf("consumer session ended: %v; reconnecting in %s", err, c.backoff)
		select {
		case <-time.After(c.backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// consume runs one broker session: dial, open a channel, apply the prefetch
// bound, declare the durable queue and drain deliveries until ctx is
// cancelled or the broker signals a shutdown at any level.
func (c *Consumer) consume(ctx context.Context) error {
	conn, err := amqp.DialConfig(c.url, amqp.Config{
		Properties: amqp.Table{"connection_name": "framescan-worker"},
	})
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close() //nolint:errcheck

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close() //nolint:errcheck

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}

	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.queue, err)
	}

	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming %s: %w", c.queue, err)
	}

	// Connection-, channel- and consumer-level shutdown notifications all
	// collapse into one pending signal; the loop reacts to whichever fires
	// first.
	restart := newRestartSignal()
	restart.watchConnection(conn)
	restart.watchChannel(ch)

	logger.Info.Printf("consuming queue %s (prefetch %d)", c.queue, c.prefetch)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-restart.fired():
			return fmt.Errorf("broker shutdown from %s: %w", req.source, req.err)
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handleDelivery(ctx, d)
		}
	}
}

// handleDelivery is the single place that decides requeue vs. drop. Malformed
// messages are acked away; anything the processor could not finish goes back
// to the queue for another attempt.
func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var msg domain.JobMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		logger.Warn.Printf("dropping malformed message (delivery tag %d): %v", d.DeliveryTag, err)
		c.ack(d)
		return
	}

	logger.Info.Printf("received job %s (correlation %q)", msg.JobID, msg.CorrelationID)

	_, err := c.processor.Process(ctx, msg)
	switch {
	case err == nil:
		c.ack(d)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		logger.Info.Printf("shutdown during job %s; returning message to queue", msg.JobID)
		c.nackRequeue(d)
	default:
		// Failed status and the failure notification were already handled by
		// the processor; redelivery gives the job another attempt.
		logger.Error.Printf("job %s failed: %v", msg.JobID, err)
		c.nackRequeue(d)
	}
}

func (c *Consumer) ack(d amqp.Delivery) {
	if err := d.Ack(false); err != nil {
		logger.Error.Printf("ack delivery %d: %v", d.DeliveryTag, err)
	}
}

func (c *Consumer) nackRequeue(d amqp.Delivery) {
	if err := d.Nack(false, true); err != nil {
		logger.Error.Printf("nack delivery %d: %v", d.DeliveryTag, err)
	}
}
