package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/andresuchdata/stocksense/internal/config"
	"github.com/andresuchdata/stocksense/internal/domain"
	"github.com/redis/go-redis/v9"
)

const forecastLatestKeyPrefix = "forecast:latest:"

// ForecastCache holds the latest forecast per product for the reorder pass.
type ForecastCache interface {
	GetLatest(ctx context.Context, productID int64) (*domain.Forecast, bool, error)
	SetLatest(ctx context.Context, f domain.Forecast) error
	Invalidate(ctx context.Context, productID int64) error
	Close() error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) GetLatest(ctx context.Context, productID int64) (*domain.Forecast, bool, error) {
	payload, err := c.client.Get(ctx, forecastLatestKey(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	f, err := decodeForecast(payload)
	if err != nil {
		return nil, false, err
	}
	return f, true, nil
}

func (c *redisForecastCache) SetLatest(ctx context.Context, f domain.Forecast) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}

	if err := c.client.Set(ctx, forecastLatestKey(f.ProductID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) Invalidate(ctx context.Context, productID int64) error {
	if err := c.client.Del(ctx, forecastLatestKey(productID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) Close() error {
	return c.client.Close()
}

func (c *noopForecastCache) GetLatest(context.Context, int64) (*domain.Forecast, bool, error) {
	return nil, false, nil
}

func (c *noopForecastCache) SetLatest(context.Context, domain.Forecast) error {
	return nil
}

func (c *noopForecastCache) Invalidate(context.Context, int64) error {
	return nil
}

func (c *noopForecastCache) Close() error {
	return nil
}

func forecastLatestKey(productID int64) string {
	return forecastLatestKeyPrefix + strconv.FormatInt(productID, 10)
}

func decodeForecast(payload []byte) (*domain.Forecast, error) {
	var f domain.Forecast
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, fmt.Errorf("decode forecast cache: %w", err)
	}
	return &f, nil
}
