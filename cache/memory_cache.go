package cache

import (
	"sync"
	"time"

	"github.com/calderweb/forest_service/models"
)

// MemoryCache implements CacheProvider using in-memory storage
type MemoryCache struct {
	mu       sync.RWMutex
	data     map[models.Forest][]*models.TreeNode
	ttl      time.Duration
	expiries map[models.Forest]time.Time
}

// NewMemoryCache creates a new in-memory cache provider
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		ttl:      5 * time.Minute,
		data:     make(map[models.Forest][]*models.TreeNode),
		expiries: make(map[models.Forest]time.Time),
	}
}

// Initialize performs any necessary setup for the cache provider
func (c *MemoryCache) Initialize() error {
	return nil
}

// GetForest retrieves a forest's tree from cache if available
func (c *MemoryCache) GetForest(forest models.Forest) ([]*models.TreeNode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	expiry, exists := c.expiries[forest]
	if !exists || time.Now().After(expiry) {
		return nil, false
	}

	if tree, ok := c.data[forest]; ok {
		return tree, true
	}
	return nil, false
}

// SetForest stores a forest's tree in cache
func (c *MemoryCache) SetForest(forest models.Forest, tree []*models.TreeNode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[forest] = tree
	c.expiries[forest] = time.Now().Add(c.ttl)
}

// Invalidate removes one forest's cached tree
func (c *MemoryCache) Invalidate(forest models.Forest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, forest)
	delete(c.expiries, forest)
}

// SetCacheTTL sets the cache time-to-live duration
func (c *MemoryCache) SetCacheTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ttl = ttl
	now := time.Now()
	for forest := range c.data {
		c.expiries[forest] = now.Add(ttl)
	}
}
