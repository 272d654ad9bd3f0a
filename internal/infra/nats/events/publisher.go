// events publishes accepted-submission events to a NATS JetStream subject.
package events

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/submitd/submitd/internal/config"
	"github.com/submitd/submitd/internal/domain/fanout"
)

type Publisher struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	subject string
}

func NewPublisher(conf config.NatsClient) (*Publisher, error) {
	conn, err := nats.Connect(conf.Address)
	if err != nil {
		return nil, err
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Publisher{
		conn:    conn,
		js:      js,
		subject: conf.Subject,
	}, nil
}

func (p *Publisher) PublishEvent(ctx context.Context, event fanout.Event) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(p.subject, eventBytes, nats.Context(ctx))
	return err
}

// Check verifies the connection is alive so setup can fail fast.
func (p *Publisher) Check(ctx context.Context) error {
	if !p.conn.IsConnected() {
		return nats.ErrConnectionClosed
	}
	return nil
}

func (p *Publisher) Close() {
	p.conn.Close()
}

var _ fanout.EventSink = (*Publisher)(nil)
