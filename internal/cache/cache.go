// Package cache - быстрый путь дедупликации вебхуков через Redis.
// Журнал в базе остается источником истины, кэш только экономит транзакцию.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 5 * time.Second

// EventCache помнит уже обработанные события провайдера
type EventCache interface {
	Seen(ctx context.Context, provider, eventID string) (bool, error)
	Mark(ctx context.Context, provider, eventID string) error
}

// Connect создает клиента и проверяет соединение ping'ом
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// RedisEventCache - ключ webhook:<provider>:<event_id> живет ttl
type RedisEventCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisEventCache(client redis.Cmdable, ttl time.Duration) *RedisEventCache {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &RedisEventCache{client: client, ttl: ttl}
}

func (c *RedisEventCache) Seen(ctx context.Context, provider, eventID string) (bool, error) {
	n, err := c.client.Exists(ctx, key(provider, eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("event cache check: %w", err)
	}
	return n > 0, nil
}

func (c *RedisEventCache) Mark(ctx context.Context, provider, eventID string) error {
	if err := c.client.Set(ctx, key(provider, eventID), "1", c.ttl).Err(); err != nil {
		return fmt.Errorf("event cache mark: %w", err)
	}
	return nil
}

func key(provider, eventID string) string {
	return fmt.Sprintf("webhook:%s:%s", provider, eventID)
}

type nopCache struct{}

func (nopCache) Seen(context.Context, string, string) (bool, error) { return false, nil }
func (nopCache) Mark(context.Context, string, string) error         { return nil }

// Nop - кэш без Redis: каждое событие идет в журнал
func Nop() EventCache { return nopCache{} }
