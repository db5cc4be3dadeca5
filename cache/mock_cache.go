package cache

import (
	"errors"
	"sync"
	"time"

	"github.com/calderweb/forest_service/models"
)

// MockCache implements CacheProvider for testing. It records call counts
// and can be switched into a failing mode.
type MockCache struct {
	mu sync.Mutex

	data     map[models.Forest][]*models.TreeNode
	expiries map[models.Forest]time.Time
	ttl      time.Duration

	// ShouldFail makes every operation fail or miss when true
	ShouldFail bool

	getCalls        int
	setCalls        int
	invalidateCalls int
	ttlCalls        int
	initCalls       int
}

// NewMockCache creates a new mock cache provider
func NewMockCache() *MockCache {
	return &MockCache{
		data:     make(map[models.Forest][]*models.TreeNode),
		expiries: make(map[models.Forest]time.Time),
		ttl:      5 * time.Minute,
	}
}

// Initialize performs any necessary setup for the cache provider
func (c *MockCache) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.initCalls++
	if c.ShouldFail {
		return errors.New("mock cache initialization failed")
	}
	return nil
}

// GetForest retrieves a forest's tree from the mock cache
func (c *MockCache) GetForest(forest models.Forest) ([]*models.TreeNode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.getCalls++
	if c.ShouldFail {
		return nil, false
	}
	if expiry, ok := c.expiries[forest]; !ok || time.Now().After(expiry) {
		return nil, false
	}
	tree, ok := c.data[forest]
	return tree, ok
}

// SetForest stores a forest's tree in the mock cache
func (c *MockCache) SetForest(forest models.Forest, tree []*models.TreeNode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setCalls++
	if c.ShouldFail {
		return
	}
	c.data[forest] = tree
	c.expiries[forest] = time.Now().Add(c.ttl)
}

// Invalidate removes one forest's cached tree
func (c *MockCache) Invalidate(forest models.Forest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.invalidateCalls++
	delete(c.data, forest)
	delete(c.expiries, forest)
}

// SetCacheTTL sets the cache time-to-live duration
func (c *MockCache) SetCacheTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ttlCalls++
	c.ttl = ttl
	now := time.Now()
	for forest := range c.data {
		c.expiries[forest] = now.Add(ttl)
	}
}

// GetCallCounts returns the number of calls to each provider method
func (c *MockCache) GetCallCounts() (get, set, invalidate, ttl, initialize int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.getCalls, c.setCalls, c.invalidateCalls, c.ttlCalls, c.initCalls
}

// Reset clears stored data, call counts and the failure flag
func (c *MockCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[models.Forest][]*models.TreeNode)
	c.expiries = make(map[models.Forest]time.Time)
	c.ShouldFail = false
	c.getCalls = 0
	c.setCalls = 0
	c.invalidateCalls = 0
	c.ttlCalls = 0
	c.initCalls = 0
}
