package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/strandline/ferrybooking/config"
	"github.com/strandline/ferrybooking/internal/domain"
)

type RedisCache struct {
	client     *redis.Client
	sailingTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, sailingTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		sailingTTL: sailingTTL,
	}
}

func (c *RedisCache) GetSailings(ctx context.Context) ([]domain.Sailing, error) {
	data, err := c.client.Get(ctx, sailingsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var sailings []domain.Sailing
	if err := json.Unmarshal(data, &sailings); err != nil {
		return nil, err
	}
	return sailings, nil
}

func (c *RedisCache) SetSailings(ctx context.Context, sailings []domain.Sailing) error {
	payload, err := json.Marshal(sailings)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sailingsKey(), payload, c.sailingTTL).Err()
}

func (c *RedisCache) GetCapacity(ctx context.Context, sailingID int64) (*domain.CapacityInfo, error) {
	data, err := c.client.Get(ctx, capacityKey(sailingID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var info domain.CapacityInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *RedisCache) SetCapacity(ctx context.Context, info *domain.CapacityInfo) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, capacityKey(info.SailingID), payload, c.sailingTTL).Err()
}

// InvalidateSailing drops the cached ledger snapshot after a reserve/release so
// readers never see stale availability for longer than one round trip.
func (c *RedisCache) InvalidateSailing(ctx context.Context, sailingID int64) error {
	return c.client.Del(ctx, capacityKey(sailingID), sailingsKey()).Err()
}

func sailingsKey() string {
	return "cache:sailings"
}

func capacityKey(sailingID int64) string {
	return fmt.Sprintf("cache:sailing:%d:capacity", sailingID)
}
