package localcache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const maxOptimisticRetries = 16

// RedisStore keeps entries under a namespace in Redis. Updates use WATCH/MULTI
// and retry when another writer touched the key in between.
type RedisStore struct {
	rdb       *redis.Client
	namespace string
}

func NewRedisStore(rdb *redis.Client, namespace string) *RedisStore {
	return &RedisStore{rdb: rdb, namespace: namespace}
}

func (s *RedisStore) key(k string) string {
	if s.namespace == "" {
		return k
	}
	return s.namespace + ":" + k
}

func (s *RedisStore) Read(ctx context.Context, key string) ([]byte, error) {
	value, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", key, err)
	}
	return value, nil
}

func (s *RedisStore) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	k := s.key(key)

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, k).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxOptimisticRetries; i++ {
		err := s.rdb.Watch(ctx, txf, k)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("update %q: %w", key, err)
	}
	return fmt.Errorf("update %q: too much contention", key)
}

// Close is a no-op; the client is owned by the container.
func (s *RedisStore) Close() error {
	return nil
}
