package redisclient

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quote-service/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

//go:embed scripts/release_lock.lua
var releaseLockScript string

// ErrLockHeld is returned when a quote lock could not be acquired within the
// wait budget.
var ErrLockHeld = errors.New("quote lock held by another writer")

type Client struct {
	rdb           *redis.Client
	releaseScript *redis.Script
	cacheTTL      time.Duration
	lockTTL       time.Duration
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int, cacheTTL, lockTTL time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:           rdb,
		releaseScript: redis.NewScript(releaseLockScript),
		cacheTTL:      cacheTTL,
		lockTTL:       lockTTL,
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func quoteKey(id int64) string {
	return fmt.Sprintf("quote:%d", id)
}

func quoteLockKey(id int64) string {
	return fmt.Sprintf("lock:quote:%d", id)
}

// GetQuote returns a cached assembled quote, or nil on a miss
func (c *Client) GetQuote(ctx context.Context, id int64) (*models.QuoteDetail, error) {
	data, err := c.rdb.Get(ctx, quoteKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var detail models.QuoteDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached quote: %w", err)
	}
	return &detail, nil
}

// SetQuote caches an assembled quote with the configured TTL
func (c *Client) SetQuote(ctx context.Context, detail *models.QuoteDetail) error {
	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}
	return c.rdb.Set(ctx, quoteKey(detail.ID), data, c.cacheTTL).Err()
}

// InvalidateQuote drops the cached copy of a quote
func (c *Client) InvalidateQuote(ctx context.Context, id int64) error {
	return c.rdb.Del(ctx, quoteKey(id)).Err()
}

// SetItemCost caches an item's current cost basis for fast margin lookups
func (c *Client) SetItemCost(ctx context.Context, itemID int64, cost string) error {
	return c.rdb.Set(ctx, fmt.Sprintf("item-cost:%d", itemID), cost, c.cacheTTL).Err()
}

// GetItemCost returns a cached item cost, or "" on a miss
func (c *Client) GetItemCost(ctx context.Context, itemID int64) (string, error) {
	cost, err := c.rdb.Get(ctx, fmt.Sprintf("item-cost:%d", itemID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return cost, err
}

// AcquireQuoteLock takes a short-TTL advisory lock on a quote, polling
// briefly so concurrent writers queue. Returns an owner token for release.
func (c *Client) AcquireQuoteLock(ctx context.Context, quoteID int64) (string, error) {
	token := uuid.New().String()
	key := quoteLockKey(quoteID)

	deadline := time.Now().Add(c.lockTTL)
	for {
		ok, err := c.rdb.SetNX(ctx, key, token, c.lockTTL).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
		if time.Now().After(deadline) {
			return "", ErrLockHeld
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(25 * time.Millisecond):
		}
	}
}

// ReleaseQuoteLock releases the lock if the token still owns it, so an
// expired lock taken over by another writer is never deleted from under it.
func (c *Client) ReleaseQuoteLock(ctx context.Context, quoteID int64, token string) error {
	_, err := c.releaseScript.Run(ctx, c.rdb, []string{quoteLockKey(quoteID)}, token).Result()
	if err != nil {
		return fmt.Errorf("release lock script failed: %w", err)
	}
	return nil
}
