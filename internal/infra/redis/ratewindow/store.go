// ratewindow is the Redis-backed WindowStore. Conditional replacement is done
// with WATCH/MULTI/EXEC: the key is watched, the stored window is compared
// against the caller's snapshot, and the write goes through a transaction
// that Redis aborts if the key changed underneath us. Either mismatch path
// surfaces as a domain Conflict, which the limiter retries.
package ratewindow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/submitd/submitd/internal/domain/ratelimit"
	"github.com/submitd/submitd/internal/domain/submission"
)

const keyPrefix = "submitd:ratewindow:"

type RedisStore struct {
	client *redis.Client
	// keys idle for longer than the window can never influence admission
	// again, so they are given a TTL and left to expire
	keyTtl time.Duration
}

func NewStore(client *redis.Client, windowSize time.Duration) ratelimit.WindowStore {
	return &RedisStore{
		client: client,
		keyTtl: 2 * windowSize,
	}
}

func (s *RedisStore) Get(ctx context.Context, user submission.UserId) (ratelimit.Window, error) {
	raw, err := s.client.Get(ctx, buildKey(user)).Result()
	if err == redis.Nil {
		return ratelimit.Window{User: user}, nil
	}
	if err != nil {
		return ratelimit.Window{}, err
	}
	var persisted persistedWindow
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		return ratelimit.Window{}, err
	}
	return persisted.toDomainWindow(), nil
}

func (s *RedisStore) ReplaceIf(ctx context.Context, user submission.UserId, prev ratelimit.Window, next ratelimit.Window) error {
	key := buildKey(user)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		stored := ratelimit.Window{User: user}
		switch {
		case err == redis.Nil:
			// no window yet; matches an empty snapshot
		case err != nil:
			return err
		default:
			var persisted persistedWindow
			if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
				return err
			}
			stored = persisted.toDomainWindow()
		}
		if !sameTimestamps(stored.Timestamps, prev.Timestamps) {
			return ratelimit.Conflict{User: user}
		}
		nextBytes, err := json.Marshal(toPersistedWindow(&next))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, nextBytes, s.keyTtl)
			return nil
		})
		return err
	}
	err := s.client.Watch(ctx, txf, key)
	if err == redis.TxFailedErr {
		return ratelimit.Conflict{User: user}
	}
	return err
}

func buildKey(user submission.UserId) string {
	return keyPrefix + string(user)
}

func sameTimestamps(a []time.Time, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Unix() != b[i].Unix() {
			return false
		}
	}
	return true
}

type persistedWindow struct {
	User       string  `json:"user"`
	Timestamps []int64 `json:"timestamps"`
}

func toPersistedWindow(w *ratelimit.Window) persistedWindow {
	timestamps := make([]int64, 0, len(w.Timestamps))
	for _, t := range w.Timestamps {
		timestamps = append(timestamps, t.Unix())
	}
	return persistedWindow{
		User:       string(w.User),
		Timestamps: timestamps,
	}
}

func (p *persistedWindow) toDomainWindow() ratelimit.Window {
	timestamps := make([]time.Time, 0, len(p.Timestamps))
	for _, t := range p.Timestamps {
		timestamps = append(timestamps, time.Unix(t, 0).UTC())
	}
	return ratelimit.Window{
		User:       submission.UserId(p.User),
		Timestamps: timestamps,
	}
}
