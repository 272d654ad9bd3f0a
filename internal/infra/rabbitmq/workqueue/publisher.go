// workqueue sends accepted-submission work messages to a durable RabbitMQ
// queue and consumes them on the analytics side.
package workqueue

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/submitd/submitd/internal/config"
	"github.com/submitd/submitd/internal/domain/fanout"
)

type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

func NewPublisher(conf config.RabbitClient) (*Publisher, error) {
	conn, err := amqp.Dial(conf.Uri)
	if err != nil {
		return nil, err
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	// durable queue; work messages must survive a broker restart
	if _, err := channel.QueueDeclare(conf.Queue, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}
	return &Publisher{
		conn:    conn,
		channel: channel,
		queue:   conf.Queue,
	}, nil
}

func (p *Publisher) EnqueueWork(ctx context.Context, message fanout.WorkMessage) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         messageBytes,
	})
}

// Check verifies the connection is alive so setup can fail fast.
func (p *Publisher) Check(ctx context.Context) error {
	if p.conn.IsClosed() {
		return amqp.ErrClosed
	}
	return nil
}

func (p *Publisher) Close() {
	p.channel.Close()
	p.conn.Close()
}

var _ fanout.QueueSink = (*Publisher)(nil)
