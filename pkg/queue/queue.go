// Package queue is a thin layer over RabbitMQ: named durable queues, JSON
// bodies, manual acknowledgement. Delivery is at-least-once and unordered;
// every consumer has to be idempotent.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// OfferPublished fans out follower registration and mail after a request
	// is promoted.
	OfferPublished = "offer-published"
	// CommentReply mails the author of the comment that was replied to.
	CommentReply = "comment-reply"
	// CommentFanOut mails every follower of the commented offer.
	CommentFanOut = "comment-fan-out"
	// SendMail delivers a single prepared message.
	SendMail = "send-mail"
)

func NewPublisher(logger *slog.Logger, url string) (*Publisher, error) {
	conn, channel, err := dial(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{logger: logger, conn: conn, channel: channel}, nil
}

type Publisher struct {
	logger  *slog.Logger
	conn    *amqp.Connection
	channel *amqp.Channel
}

func (p *Publisher) Publish(ctx context.Context, queue string, payload any) error {
	if _, err := declare(p.channel, queue); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for queue %q: %v", queue, err)
	}

	err = p.channel.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to queue %q: %v", queue, err)
	}
	return nil
}

func (p *Publisher) Close() {
	closeQuietly(p.logger, p.channel, p.conn)
}

func NewConsumer(logger *slog.Logger, url string) (*Consumer, error) {
	conn, channel, err := dial(url)
	if err != nil {
		return nil, err
	}
	return &Consumer{logger: logger, conn: conn, channel: channel}, nil
}

type Consumer struct {
	logger  *slog.Logger
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Consume registers handler for the queue and dispatches deliveries on a
// separate goroutine. The handler is responsible for ack/nack.
func (c *Consumer) Consume(queue string, handler func(d amqp.Delivery)) error {
	if _, err := declare(c.channel, queue); err != nil {
		return err
	}

	deliveries, err := c.channel.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume queue %q: %v", queue, err)
	}

	go func() {
		for d := range deliveries {
			handler(d)
		}
		c.logger.Info("Queue consumer stopped", "queue", queue)
	}()
	return nil
}

func (c *Consumer) Close() {
	closeQuietly(c.logger, c.channel, c.conn)
}

func dial(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to rabbitmq: %v", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open rabbitmq channel: %v", err)
	}
	return conn, channel, nil
}

func declare(channel *amqp.Channel, queue string) (amqp.Queue, error) {
	q, err := channel.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return q, fmt.Errorf("failed to declare queue %q: %v", queue, err)
	}
	return q, nil
}

func closeQuietly(logger *slog.Logger, channel *amqp.Channel, conn *amqp.Connection) {
	if err := channel.Close(); err != nil {
		logger.Warn("Failed to close rabbitmq channel", "error", err)
	}
	if err := conn.Close(); err != nil {
		logger.Warn("Failed to close rabbitmq connection", "error", err)
	}
}
