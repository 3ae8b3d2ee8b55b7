package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/infra/metrics"
)

const exclusionsKeyPrefix = "discovery:excluded:"

// RedisExclusions хранит скрытые владельцем профили в множестве Redis.
type RedisExclusions struct {
	client *redis.Client
	ttl    time.Duration
}

var _ domain.ExclusionStore = (*RedisExclusions)(nil)

// NewRedisExclusions создаёт хранилище исключений. ttl<=0 означает бессрочное хранение.
func NewRedisExclusions(client *redis.Client, ttl time.Duration) *RedisExclusions {
	return &RedisExclusions{client: client, ttl: ttl}
}

// Excluded возвращает идентификаторы скрытых профилей.
func (s *RedisExclusions) Excluded(ctx context.Context, ownerID string) ([]string, error) {
	if ownerID == "" {
		return nil, nil
	}
	key := exclusionsKey(ownerID)
	start := time.Now()
	ids, err := s.client.SMembers(ctx, key).Result()
	metrics.ObserveNetworkRequest("redis", "smembers", exclusionsKeyPrefix, start, err)
	if err != nil {
		return nil, fmt.Errorf("load exclusions: %w", err)
	}
	return ids, nil
}

// Exclude скрывает профиль для владельца.
func (s *RedisExclusions) Exclude(ctx context.Context, ownerID, profileID string) error {
	if ownerID == "" || profileID == "" {
		return fmt.Errorf("exclude: owner and profile are required")
	}
	key := exclusionsKey(ownerID)
	start := time.Now()
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, key, profileID)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	metrics.ObserveNetworkRequest("redis", "sadd", exclusionsKeyPrefix, start, err)
	if err != nil {
		return fmt.Errorf("save exclusion: %w", err)
	}
	return nil
}

func exclusionsKey(ownerID string) string {
	return exclusionsKeyPrefix + ownerID
}
