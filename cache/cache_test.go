package cache

import (
	"testing"
	"time"

	"github.com/calderweb/forest_service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() []*models.TreeNode {
	root := models.NewTreeNode(models.Node{
		ID:     1,
		Forest: models.ForestCatalog,
		Label:  "Root",
		Target: "/root",
		Active: true,
	})
	return []*models.TreeNode{root}
}

func testCacheProvider(t *testing.T, provider CacheProvider) {
	tree := sampleTree()

	// Set and get
	provider.SetForest(models.ForestCatalog, tree)
	cachedTree, found := provider.GetForest(models.ForestCatalog)
	require.True(t, found)
	assert.Equal(t, tree, cachedTree)

	// Another forest is a separate entry
	_, found = provider.GetForest(models.ForestNavHeader)
	assert.False(t, found)

	// Invalidation is per forest
	provider.SetForest(models.ForestNavHeader, tree)
	provider.Invalidate(models.ForestCatalog)
	_, found = provider.GetForest(models.ForestCatalog)
	assert.False(t, found)
	_, found = provider.GetForest(models.ForestNavHeader)
	assert.True(t, found)
	provider.Invalidate(models.ForestNavHeader)

	// Expiration
	provider.SetCacheTTL(1 * time.Second)
	provider.SetForest(models.ForestCatalog, tree)
	time.Sleep(2 * time.Second)
	_, found = provider.GetForest(models.ForestCatalog)
	assert.False(t, found)
}

func TestMemoryCache(t *testing.T) {
	memoryCache := NewMemoryCache()
	assert.NoError(t, memoryCache.Initialize())

	testCacheProvider(t, memoryCache)
}

func TestDynamoDBCache(t *testing.T) {
	mockClient := NewMockDynamoDBClient()
	dynamoCache := NewDynamoDBCacheWithClient(mockClient)
	assert.NoError(t, dynamoCache.Initialize())

	// Initialize twice: the second run finds the existing table
	assert.NoError(t, dynamoCache.Initialize())

	testCacheProvider(t, dynamoCache)
}

func TestMockCache(t *testing.T) {
	mockCache := NewMockCache()
	assert.NoError(t, mockCache.Initialize())

	testCacheProvider(t, mockCache)

	// Call counts
	get, set, invalidate, ttl, initialize := mockCache.GetCallCounts()
	assert.Greater(t, get, 0, "GetForest should have been called")
	assert.Greater(t, set, 0, "SetForest should have been called")
	assert.Greater(t, invalidate, 0, "Invalidate should have been called")
	assert.Greater(t, ttl, 0, "SetCacheTTL should have been called")
	assert.Equal(t, 1, initialize, "Initialize should have been called once")

	// Failure mode
	mockCache.Reset()
	mockCache.ShouldFail = true
	assert.Error(t, mockCache.Initialize())
	tree, found := mockCache.GetForest(models.ForestCatalog)
	assert.Nil(t, tree)
	assert.False(t, found)

	// Reset clears counts and the failure flag
	mockCache.Reset()
	get, set, invalidate, ttl, initialize = mockCache.GetCallCounts()
	assert.Zero(t, get)
	assert.Zero(t, set)
	assert.Zero(t, invalidate)
	assert.Zero(t, ttl)
	assert.Zero(t, initialize)
	assert.False(t, mockCache.ShouldFail)
}

func TestFacadeProviderSwap(t *testing.T) {
	mockCache := NewMockCache()
	require.NoError(t, SetProvider(mockCache))
	defer ResetProvider()

	SetForest(models.ForestCatalog, sampleTree())
	cached, found := GetForest(models.ForestCatalog)
	assert.True(t, found)
	assert.Len(t, cached, 1)

	Invalidate(models.ForestCatalog)
	_, found = GetForest(models.ForestCatalog)
	assert.False(t, found)
}
