package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ezrakhuzadi/atc-drone/internal/types"
)

// RedisClientInterface defines the Redis operations used by our client
type RedisClientInterface interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Keys(ctx context.Context, pattern string) *redis.StringSliceCmd
	Close() error
}

// Client manages Redis connections and operations
type Client struct {
	client RedisClientInterface
}

// New creates a new Redis client
func New(addr string) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // no password set
		DB:       0,  // use default DB
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: client}, nil
}

// NewWithClient creates a new Redis client with a custom RedisClientInterface (useful for testing)
func NewWithClient(client RedisClientInterface) *Client {
	return &Client{client: client}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

func positionKey(droneID string) string {
	return fmt.Sprintf("drone:%s", droneID)
}

func conflictKey(pair [2]string) string {
	return fmt.Sprintf("conflict:%s:%s", pair[0], pair[1])
}

// StorePosition caches the latest position for a drone
func (c *Client) StorePosition(ctx context.Context, pos *types.DronePosition) error {
	data, err := json.Marshal(pos)
	if err != nil {
		return fmt.Errorf("failed to marshal position: %w", err)
	}

	return c.client.Set(ctx, positionKey(pos.DroneID), data, 1*time.Hour).Err()
}

// GetPosition retrieves the cached position for a drone, or nil if absent
func (c *Client) GetPosition(ctx context.Context, droneID string) (*types.DronePosition, error) {
	data, err := c.client.Get(ctx, positionKey(droneID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}

	var pos types.DronePosition
	if err := json.Unmarshal(data, &pos); err != nil {
		return nil, fmt.Errorf("failed to unmarshal position: %w", err)
	}
	return &pos, nil
}

// DeletePosition removes the cached position for a drone
func (c *Client) DeletePosition(ctx context.Context, droneID string) error {
	return c.client.Del(ctx, positionKey(droneID)).Err()
}

// StoreConflict caches an active conflict keyed by its sorted drone pair
func (c *Client) StoreConflict(ctx context.Context, conflict *types.Conflict) error {
	data, err := json.Marshal(conflict)
	if err != nil {
		return fmt.Errorf("failed to marshal conflict: %w", err)
	}

	return c.client.Set(ctx, conflictKey(conflict.PairKey()), data, 24*time.Hour).Err()
}

// ReplaceActiveConflicts swaps the cached active-conflict set for the one
// produced by the latest scan. Conflicts are rebuilt from scratch every
// scan, so stale keys are deleted rather than merged.
func (c *Client) ReplaceActiveConflicts(ctx context.Context, conflicts []types.Conflict) error {
	keys, err := c.client.Keys(ctx, "conflict:*").Result()
	if err != nil {
		return fmt.Errorf("failed to list conflict keys: %w", err)
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to clear conflict keys: %w", err)
		}
	}

	for i := range conflicts {
		if err := c.StoreConflict(ctx, &conflicts[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetActiveConflicts returns all cached active conflicts
func (c *Client) GetActiveConflicts(ctx context.Context) ([]types.Conflict, error) {
	keys, err := c.client.Keys(ctx, "conflict:*").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list conflict keys: %w", err)
	}

	var conflicts []types.Conflict
	for _, key := range keys {
		data, err := c.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			continue // Expired between KEYS and GET
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get conflict %s: %w", key, err)
		}

		var conflict types.Conflict
		if err := json.Unmarshal(data, &conflict); err != nil {
			return nil, fmt.Errorf("failed to unmarshal conflict %s: %w", key, err)
		}
		conflicts = append(conflicts, conflict)
	}
	return conflicts, nil
}
