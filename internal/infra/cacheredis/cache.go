// Package cacheredis shares engine results between processes through Redis.
package cacheredis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"patentdesk/internal/domain"
	"patentdesk/internal/usecase"
)

const keyPrefix = "patentdesk:result:"

type Cache struct {
	client *redis.Client
}

func NewCache(addr, password string, db int) (*Cache, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Cache{client: client}, nil
}

// Ping checks that the server is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) Get(ctx context.Context, key string) (*domain.VerificationResult, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var result domain.VerificationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("decode cached result: %w", err)
	}
	return &result, true, nil
}

// Put stores value; a non-positive ttl keeps the entry until evicted.
func (c *Cache) Put(ctx context.Context, key string, value domain.VerificationResult, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	return c.client.Set(ctx, keyPrefix+key, raw, ttl).Err()
}

var _ usecase.ResultCache = (*Cache)(nil)
