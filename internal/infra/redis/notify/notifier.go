// notify delivers human-readable acceptance notices over Redis pub/sub.
package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/submitd/submitd/internal/config"
	"github.com/submitd/submitd/internal/domain/fanout"
)

type RedisNotifier struct {
	client  *redis.Client
	channel string
}

func NewNotifier(client *redis.Client, conf config.Notifier) fanout.NoticeSink {
	return &RedisNotifier{
		client:  client,
		channel: conf.Channel,
	}
}

func (n *RedisNotifier) Notify(ctx context.Context, notice fanout.Notice) error {
	noticeBytes, err := json.Marshal(notice)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, n.channel, noticeBytes).Err()
}
