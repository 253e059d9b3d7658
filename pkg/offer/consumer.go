package offer

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

func NewPublishedConsumer(logger *slog.Logger, consumer consumer, service *Service) *publishedConsumer {
	return &publishedConsumer{
		logger:   logger,
		consumer: consumer,
		service:  service,
	}
}

type publishedConsumer struct {
	logger   *slog.Logger
	consumer consumer
	service  *Service
}

func (c *publishedConsumer) Consume() error {
	return c.consumer.Consume(queue.OfferPublished, func(d amqp.Delivery) {
		var message queue.OfferMessage
		if err := json.Unmarshal(d.Body, &message); err != nil {
			c.logger.Error("Failed to unmarshal offer-published message", "error", err)
			c.nack(d, false)
			return
		}

		if err := c.service.HandlePublished(context.Background(), message.ID); err != nil {
			c.logger.Error("Failed to handle published offer", "offer", message.ID, "error", err)
			c.nack(d, true)
			return
		}

		if err := d.Ack(false); err != nil {
			c.logger.Error("Failed to acknowledge offer-published message", "error", err)
		}
	})
}

func (c *publishedConsumer) nack(d amqp.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		c.logger.Error("Failed to negatively acknowledge offer-published message", "error", err)
	}
}
