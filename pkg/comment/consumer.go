package comment

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/offerboard/offer-manager/pkg/queue"

	amqp "github.com/rabbitmq/amqp091-go"
)

type consumer interface {
	Consume(queue string, handler func(d amqp.Delivery)) error
}

func NewNotificationConsumer(logger *slog.Logger, consumer consumer, service *Service) *notificationConsumer {
	return &notificationConsumer{
		logger:   logger,
		consumer: consumer,
		service:  service,
	}
}

type notificationConsumer struct {
	logger   *slog.Logger
	consumer consumer
	service  *Service
}

// Consume registers the reply and fan-out handlers.
func (c *notificationConsumer) Consume() error {
	err := c.consumer.Consume(queue.CommentReply, func(d amqp.Delivery) {
		c.handle(d, queue.CommentReply, func(message queue.CommentMessage) error {
			return c.service.HandleReply(context.Background(), message.ID)
		})
	})
	if err != nil {
		return err
	}

	return c.consumer.Consume(queue.CommentFanOut, func(d amqp.Delivery) {
		c.handle(d, queue.CommentFanOut, func(message queue.CommentMessage) error {
			return c.service.HandleFanOut(context.Background(), message.ID, message.AuthorID)
		})
	})
}

func (c *notificationConsumer) handle(d amqp.Delivery, queueName string, handler func(message queue.CommentMessage) error) {
	var message queue.CommentMessage
	if err := json.Unmarshal(d.Body, &message); err != nil {
		c.logger.Error("Failed to unmarshal comment message", "queue", queueName, "error", err)
		c.nack(d, false)
		return
	}

	if err := handler(message); err != nil {
		c.logger.Error("Failed to handle comment message", "queue", queueName, "comment", message.ID, "error", err)
		c.nack(d, true)
		return
	}

	if err := d.Ack(false); err != nil {
		c.logger.Error("Failed to acknowledge comment message", "queue", queueName, "error", err)
	}
}

func (c *notificationConsumer) nack(d amqp.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		c.logger.Error("Failed to negatively acknowledge comment message", "error", err)
	}
}
