package kv

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const scanCount = 100

// Redis implements fiber.Storage on a go-redis client. Every key is stored below prefix.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ fiber.Storage = (*Redis)(nil)

// NewRedis wraps client. An empty prefix stores keys unchanged.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix != "" {
		prefix += ":"
	}

	return &Redis{client: client, prefix: prefix}
}

// Get returns nil without error for missing keys.
func (r *Redis) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}

	val, err := r.client.Get(context.Background(), r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	return val, err
}

// Set stores val. A zero exp keeps the key until deleted.
func (r *Redis) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}

	return r.client.Set(context.Background(), r.prefix+key, val, exp).Err()
}

func (r *Redis) Delete(key string) error {
	if key == "" {
		return nil
	}

	return r.client.Del(context.Background(), r.prefix+key).Err()
}

// Reset deletes the keys below the prefix, or the whole database without a prefix.
func (r *Redis) Reset() error {
	ctx := context.Background()

	if r.prefix == "" {
		return r.client.FlushDB(ctx).Err()
	}

	iter := r.client.Scan(ctx, 0, r.prefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}

	return iter.Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
