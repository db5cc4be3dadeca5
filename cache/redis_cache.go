package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/calderweb/forest_service/models"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements CacheProvider using Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new Redis cache provider
func NewRedisCache() *RedisCache {
	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		redisHost = "localhost"
	}
	redisPort := os.Getenv("REDIS_PORT")
	if redisPort == "" {
		redisPort = "6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", redisHost, redisPort),
		Password: "", // no password set
		DB:       0,  // use default DB
	})

	return &RedisCache{
		client: client,
		ttl:    5 * time.Minute,
	}
}

// NewRedisCacheWithClient creates a Redis cache provider with a custom
// client, used by tests.
func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    5 * time.Minute,
	}
}

// Initialize performs any necessary setup for the cache provider
func (c *RedisCache) Initialize() error {
	ctx := context.Background()
	_, err := c.client.Ping(ctx).Result()
	return err
}

func forestKey(forest models.Forest) string {
	return "forest:" + string(forest)
}

// GetForest retrieves a forest's tree from cache if available
func (c *RedisCache) GetForest(forest models.Forest) ([]*models.TreeNode, bool) {
	ctx := context.Background()
	data, err := c.client.Get(ctx, forestKey(forest)).Result()
	if err != nil {
		return nil, false
	}

	var tree []*models.TreeNode
	if err := json.Unmarshal([]byte(data), &tree); err != nil {
		return nil, false
	}
	return tree, true
}

// SetForest stores a forest's tree in cache
func (c *RedisCache) SetForest(forest models.Forest, tree []*models.TreeNode) {
	ctx := context.Background()
	data, err := json.Marshal(tree)
	if err != nil {
		return
	}

	c.client.Set(ctx, forestKey(forest), data, c.ttl)
}

// Invalidate removes one forest's cached tree
func (c *RedisCache) Invalidate(forest models.Forest) {
	ctx := context.Background()
	c.client.Del(ctx, forestKey(forest))
}

// SetCacheTTL sets the cache time-to-live duration
func (c *RedisCache) SetCacheTTL(ttl time.Duration) {
	c.ttl = ttl
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
