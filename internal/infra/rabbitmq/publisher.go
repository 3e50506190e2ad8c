package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"obligation_reminder_bot/internal/domain/notification"

	"github.com/streadway/amqp"
)

// Publisher is the subset of *amqp.Channel used to publish.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Channel hands reminders to a broker for a downstream delivery worker. It
// implements notification.Channel.
type Channel struct {
	publisher  Publisher
	exchange   string
	routingKey string
	now        func() time.Time
}

func NewChannel(p Publisher, exchange, routingKey string) *Channel {
	return &Channel{
		publisher:  p,
		exchange:   exchange,
		routingKey: routingKey,
		now:        time.Now,
	}
}

func (c *Channel) Send(ctx context.Context, recipient, body string) error {
	const op = "rabbitmq.Channel.Send"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	msg := notification.Message{
		Recipient: recipient,
		Body:      body,
		CreatedAt: c.now().UTC(),
	}
	if err := PublishMessage(c.publisher, c.exchange, c.routingKey, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// PublishMessage publishes message as persistent JSON.
func PublishMessage(p Publisher, exchange, routingKey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.Publish(
		exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
