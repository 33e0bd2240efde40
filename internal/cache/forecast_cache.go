package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tranvda/mfg-backend/internal/config"
	"github.com/tranvda/mfg-backend/internal/domain"
)

const (
	forecastKeyPrefix     = "forecast:list"
	forecastScanBatchSize = 100
)

type ForecastCache interface {
	Get(ctx context.Context, filter domain.ForecastFilter) ([]domain.InventoryForecast, bool, error)
	Set(ctx context.Context, filter domain.ForecastFilter, forecasts []domain.InventoryForecast) error
	InvalidateAll(ctx context.Context) error
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

	client, _, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(cfg.ForecastTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &redisForecastCache{client: client, ttl: ttl}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) Get(ctx context.Context, filter domain.ForecastFilter) ([]domain.InventoryForecast, bool, error) {
	payload, err := c.client.Get(ctx, buildForecastKey(filter)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var forecasts []domain.InventoryForecast
	if err := json.Unmarshal(payload, &forecasts); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}
	return forecasts, true, nil
}

func (c *redisForecastCache) Set(ctx context.Context, filter domain.ForecastFilter, forecasts []domain.InventoryForecast) error {
	payload, err := json.Marshal(forecasts)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}

	if err := c.client.Set(ctx, buildForecastKey(filter), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix, forecastScanBatchSize)
}

func (n *noopForecastCache) Get(ctx context.Context, filter domain.ForecastFilter) ([]domain.InventoryForecast, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) Set(ctx context.Context, filter domain.ForecastFilter, forecasts []domain.InventoryForecast) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildForecastKey(filter domain.ForecastFilter) string {
	return fmt.Sprintf("%s:%s", forecastKeyPrefix, forecastFilterHash(filter))
}

func forecastFilterHash(filter domain.ForecastFilter) string {
	ids := make([]string, 0, len(filter.MaterialIDs))
	for _, id := range filter.MaterialIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	sort.Strings(ids)

	parts := []string{
		"ids=" + strings.Join(ids, ","),
		fmt.Sprintf("min_risk=%.2f", filter.MinRisk),
		fmt.Sprintf("critical=%t", filter.OnlyCritical),
		fmt.Sprintf("page=%d", filter.Page),
		fmt.Sprintf("size=%d", filter.PageSize),
	}

	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
