package creds

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore создаёт хранилище учётных данных поверх Redis
// (например, redis://:pass@host:6379/0). Если prefix пустой —
// используется "mech:creds:".
//
// Вариант для серверных агентов, где несколько инстансов делят
// одну сессию механика; мобильному сценарию соответствует FileStore.
func NewRedisStore(redisURL, prefix string) (Store, error) {
	if prefix == "" {
		prefix = "mech:creds:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &redisStore{rdb: rdb, prefix: prefix}, nil
}

func (s *redisStore) key(k string) string { return s.prefix + k }

func (s *redisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}

		return "", err
	}

	return v, nil
}

func (s *redisStore) Set(ctx context.Context, key, value string) error {
	// Без TTL: временем жизни управляют сами токены (клейм exp),
	// а очисткой — завершение сессии.
	return s.rdb.Set(ctx, s.key(key), value, 0).Err()
}

func (s *redisStore) RemoveAll(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, s.key(k))
	}

	return s.rdb.Del(ctx, full...).Err()
}

func (s *redisStore) Close() error { return s.rdb.Close() }
