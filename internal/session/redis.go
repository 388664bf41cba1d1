package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// maxTxRetries bounds optimistic retries when a watched key changes mid-upsert.
const maxTxRetries = 3

// RedisStore keeps JSON values in Redis under a key prefix.
// A zero TTL stores keys without expiry.
type RedisStore[T any] struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store using client. Keys are prefix+id.
func NewRedisStore[T any](client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore[T] {
	return &RedisStore[T]{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore[T]) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var v T

	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, false, nil
	}
	if err != nil {
		return v, false, fmt.Errorf("redis get %s: %w", id, err)
	}

	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return v, true, nil
}

// Upsert runs mutate inside a WATCH/MULTI transaction, retrying when another
// writer touched the key first.
func (s *RedisStore[T]) Upsert(ctx context.Context, id string, mutate func(*T) error) error {
	key := s.key(id)

	txf := func(tx *redis.Tx) error {
		var v T
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("redis get %s: %w", id, err)
		default:
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("decoding session %s: %w", id, err)
			}
		}

		if err := mutate(&v); err != nil {
			return err
		}

		out, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding session %s: %w", id, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis upsert %s: too many concurrent writers", id)
}

func (s *RedisStore[T]) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", id, err)
	}
	return nil
}

var _ Store[Record] = (*RedisStore[Record])(nil)
