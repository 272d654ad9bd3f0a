// common holds Redis client construction shared by the rate-window store and
// the notification publisher.
package common

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/submitd/submitd/internal/config"
)

// NewClient returns a configured redis.Client based on the given conf
func NewClient(conf config.RedisClient) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Address,
		Password: conf.Password,
		DB:       conf.Db,
	})
}

// Check pings the server so setup can fail fast on a bad address.
func Check(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
