package cache

import (
	"os"
	"sync"
	"time"

	"github.com/calderweb/forest_service/models"
)

var (
	provider CacheProvider
	once     sync.Once
	mu       sync.RWMutex
)

// CacheProvider defines the interface for cache implementations. The
// cached unit is one forest's assembled tree; mutations invalidate only
// the forest they touched.
type CacheProvider interface {
	// GetForest retrieves a forest's assembled tree from cache.
	// Returns the tree and whether it was found.
	GetForest(forest models.Forest) ([]*models.TreeNode, bool)

	// SetForest stores a forest's assembled tree in cache.
	SetForest(forest models.Forest, tree []*models.TreeNode)

	// Invalidate removes one forest's cached tree. Called after every
	// mutation of that forest.
	Invalidate(forest models.Forest)

	// SetCacheTTL sets the cache time-to-live duration.
	SetCacheTTL(ttl time.Duration)

	// Initialize performs any necessary setup for the cache provider,
	// such as establishing connections. Returns an error if setup fails.
	Initialize() error
}

// Initialize sets up the cache provider. DynamoDB is used when
// CACHE_PROVIDER=dynamodb (the Lambda deployment), Redis when REDIS_HOST
// is set, the in-memory provider otherwise.
func Initialize() error {
	var err error
	once.Do(func() {
		switch {
		case os.Getenv("CACHE_PROVIDER") == "dynamodb":
			provider, err = NewDynamoDBCache()
			if err != nil {
				return
			}
		case os.Getenv("REDIS_HOST") != "":
			provider = NewRedisCache()
		default:
			provider = NewMemoryCache()
		}
		err = provider.Initialize()
	})
	return err
}

// GetForest retrieves a forest's tree from cache if available
func GetForest(forest models.Forest) ([]*models.TreeNode, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return provider.GetForest(forest)
}

// SetForest stores a forest's tree in cache
func SetForest(forest models.Forest, tree []*models.TreeNode) {
	mu.Lock()
	defer mu.Unlock()
	provider.SetForest(forest, tree)
}

// Invalidate removes one forest's cached tree
func Invalidate(forest models.Forest) {
	mu.Lock()
	defer mu.Unlock()
	provider.Invalidate(forest)
}

// SetCacheTTL sets the cache time-to-live duration
func SetCacheTTL(ttl time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	provider.SetCacheTTL(ttl)
}

// SetProvider allows changing the cache provider at runtime
func SetProvider(p CacheProvider) error {
	mu.Lock()
	defer mu.Unlock()
	if err := p.Initialize(); err != nil {
		return err
	}
	provider = p
	return nil
}

// ResetProvider resets the cache provider for testing
func ResetProvider() {
	mu.Lock()
	defer mu.Unlock()
	provider = nil
	once = sync.Once{}
}
