package mailer

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/offerboard/offer-manager/pkg/queue"

	amqp "github.com/rabbitmq/amqp091-go"
)

type consumer interface {
	Consume(queue string, handler func(d amqp.Delivery)) error
}

type sender interface {
	Send(to, subject, plain, html string) error
}

func NewSendMailConsumer(logger *slog.Logger, consumer consumer, sender sender) *sendMailConsumer {
	return &sendMailConsumer{
		logger:   logger,
		consumer: consumer,
		sender:   sender,
	}
}

type sendMailConsumer struct {
	logger   *slog.Logger
	consumer consumer
	sender   sender
}

func (c *sendMailConsumer) Consume() error {
	return c.consumer.Consume(queue.SendMail, func(d amqp.Delivery) {
		var message queue.MailMessage
		if err := json.Unmarshal(d.Body, &message); err != nil {
			c.logger.Error("Failed to unmarshal send-mail message", "error", err)
			c.nack(d, false)
			return
		}

		// fan-out staggers deliveries; wait out the remainder
		if wait := time.Until(message.NotBefore); wait > 0 {
			time.Sleep(wait)
		}

		if err := c.sender.Send(message.To, message.Subject, message.Plain, message.HTML); err != nil {
			c.logger.Error("Failed to send mail", "to", message.To, "error", err)
			c.nack(d, true)
			return
		}

		if err := d.Ack(false); err != nil {
			c.logger.Error("Failed to acknowledge send-mail message", "error", err)
		}
	})
}

func (c *sendMailConsumer) nack(d amqp.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		c.logger.Error("Failed to negatively acknowledge send-mail message", "error", err)
	}
}
