package workqueue

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/submitd/submitd/internal/config"
	"github.com/submitd/submitd/internal/domain/fanout"
)

// Handler processes one delivered work message. A non-nil error causes the
// message to be requeued.
type Handler func(ctx context.Context, message fanout.WorkMessage) error

type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

func NewConsumer(conf config.RabbitClient) (*Consumer, error) {
	conn, err := amqp.Dial(conf.Uri)
	if err != nil {
		return nil, err
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := channel.QueueDeclare(conf.Queue, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}
	return &Consumer{
		conn:    conn,
		channel: channel,
		queue:   conf.Queue,
	}, nil
}

// Run consumes work messages until the context is cancelled or the delivery
// channel closes. Messages are acked only after the handler succeeds, so a
// crash mid-processing redelivers; handlers must be idempotent.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return amqp.ErrClosed
			}
			c.handleDelivery(ctx, handler, delivery)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, handler Handler, delivery amqp.Delivery) {
	var message fanout.WorkMessage
	if err := json.Unmarshal(delivery.Body, &message); err != nil {
		// requeueing a message that cannot be parsed would loop forever
		log.Error().Err(err).Msg("Dropping unparseable work message")
		_ = delivery.Nack(false, false)
		return
	}
	if err := handler(ctx, message); err != nil {
		log.Error().
			Err(err).
			Str("submission_id", string(message.SubmissionID)).
			Msg("Work message handling failed, requeueing")
		_ = delivery.Nack(false, true)
		return
	}
	_ = delivery.Ack(false)
}

func (c *Consumer) Close() {
	c.channel.Close()
	c.conn.Close()
}
