package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const priceKeyPrefix = "streamfund:price:"

// PriceCache shares resolved USD prices between indexer replicas.
type PriceCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewPriceCache(client redis.Cmdable, ttl time.Duration) *PriceCache {
	return &PriceCache{client: client, ttl: ttl}
}

func priceKey(oracleID string) string {
	return priceKeyPrefix + oracleID
}

// Get returns (price, true, nil) on a hit and (zero, false, nil) on a miss.
func (c *PriceCache) Get(ctx context.Context, oracleID string) (decimal.Decimal, bool, error) {
	raw, err := c.client.Get(ctx, priceKey(oracleID)).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("get price %s: %w", oracleID, err)
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse cached price %s: %w", oracleID, err)
	}
	return price, true, nil
}

func (c *PriceCache) Set(ctx context.Context, oracleID string, price decimal.Decimal) error {
	if err := c.client.Set(ctx, priceKey(oracleID), price.String(), c.ttl).Err(); err != nil {
		return fmt.Errorf("set price %s: %w", oracleID, err)
	}
	return nil
}
