package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/cache"
)

// PricingResultRedisCache 定价结果的 Redis 缓存
type PricingResultRedisCache struct {
	cache        *cache.RedisCache
	resultPrefix string
	latestPrefix string
	ttl          time.Duration
}

// NewPricingResultRedisCache 创建定价结果缓存
func NewPricingResultRedisCache(c *cache.RedisCache) *PricingResultRedisCache {
	return &PricingResultRedisCache{
		cache:        c,
		resultPrefix: "pricing_result:",
		latestPrefix: "pricing_latest:",
		ttl:          15 * time.Minute,
	}
}

// SaveResult 按 ID 与按标的最新两个键写入
func (r *PricingResultRedisCache) SaveResult(ctx context.Context, result *domain.PricingResult) error {
	if result == nil {
		return nil
	}
	if err := r.cache.SetJSON(ctx, r.resultKey(result.ID), result, r.ttl); err != nil {
		return err
	}
	return r.cache.SetJSON(ctx, r.latestKey(result.Symbol), result, r.ttl)
}

func (r *PricingResultRedisCache) GetResult(ctx context.Context, id string) (*domain.PricingResult, error) {
	if id == "" {
		return nil, nil
	}
	return r.get(ctx, r.resultKey(id))
}

func (r *PricingResultRedisCache) GetLatestBySymbol(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	if symbol == "" {
		return nil, nil
	}
	return r.get(ctx, r.latestKey(symbol))
}

func (r *PricingResultRedisCache) get(ctx context.Context, key string) (*domain.PricingResult, error) {
	data, err := r.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if data == "" {
		return nil, nil
	}
	var result domain.PricingResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *PricingResultRedisCache) resultKey(id string) string {
	return fmt.Sprintf("%s%s", r.resultPrefix, id)
}

func (r *PricingResultRedisCache) latestKey(symbol string) string {
	return fmt.Sprintf("%s%s", r.latestPrefix, symbol)
}
