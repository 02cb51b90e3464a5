// Package cache keeps the latest batch result and campaign snapshots in
// Redis so API reads and restarts don't depend on the in-memory store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/campaign-optimizer/internal/engine"
)

const (
	latestBatchKey    = "optimizer:batch:latest"
	campaignKeyPrefix = "optimizer:campaign:"
)

// ResultCache stores decision outputs in Redis with a fixed TTL.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a cache over an existing Redis client.
func New(client *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{client: client, ttl: ttl}
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, addr, password string, db int, ttl time.Duration) (*ResultCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return New(client, ttl), nil
}

// PutBatch stores the latest batch result.
func (c *ResultCache) PutBatch(ctx context.Context, result *engine.BatchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal batch %s: %w", result.BatchID, err)
	}
	if err := c.client.Set(ctx, latestBatchKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache batch %s: %w", result.BatchID, err)
	}
	return nil
}

// LatestBatch returns the most recently cached batch result, or
// engine.ErrNotFound when the key is absent or expired.
func (c *ResultCache) LatestBatch(ctx context.Context) (*engine.BatchResult, error) {
	data, err := c.client.Get(ctx, latestBatchKey).Bytes()
	if err == redis.Nil {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read cached batch: %w", err)
	}
	var result engine.BatchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode cached batch: %w", err)
	}
	return &result, nil
}

// PutSnapshot stores a campaign snapshot under its campaign id.
func (c *ResultCache) PutSnapshot(ctx context.Context, snap *engine.MetricSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", snap.CampaignID, err)
	}
	if err := c.client.Set(ctx, campaignKeyPrefix+snap.CampaignID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache snapshot %s: %w", snap.CampaignID, err)
	}
	return nil
}

// Snapshot returns a cached campaign snapshot by id.
func (c *ResultCache) Snapshot(ctx context.Context, campaignID string) (*engine.MetricSnapshot, error) {
	data, err := c.client.Get(ctx, campaignKeyPrefix+campaignID).Bytes()
	if err == redis.Nil {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read cached snapshot %s: %w", campaignID, err)
	}
	var snap engine.MetricSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode cached snapshot %s: %w", campaignID, err)
	}
	return &snap, nil
}

// Close releases the underlying client.
func (c *ResultCache) Close() error {
	return c.client.Close()
}
