package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderweb/forest_service/cache"
	"github.com/calderweb/forest_service/models"
	"github.com/calderweb/forest_service/repository"
	"github.com/calderweb/forest_service/tree"
)

func setupTest(t *testing.T) (*gin.Engine, *tree.Manager, *cache.MockCache) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepository()
	require.NoError(t, repo.Initialize(context.Background()))

	mock := cache.NewMockCache()
	require.NoError(t, cache.SetProvider(mock))
	t.Cleanup(func() {
		if err := repo.Cleanup(context.Background()); err != nil {
			t.Errorf("Failed to cleanup repository: %v", err)
		}
		cache.ResetProvider()
	})

	manager := tree.NewManager(repo)
	router := gin.New()
	NewTreeHandler(manager).Register(router.Group("/api"))

	return router, manager, mock
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedNode(t *testing.T, manager *tree.Manager, forest models.Forest, label string, parentID *int64) *models.Node {
	t.Helper()
	node, err := manager.Create(context.Background(), tree.CreateInput{
		Forest:   forest,
		Label:    label,
		Target:   "/" + label,
		ParentID: parentID,
	})
	require.NoError(t, err)
	return node
}

func TestGetForestCacheMissThenHit(t *testing.T) {
	router, manager, mock := setupTest(t)

	root := seedNode(t, manager, models.ForestCatalog, "books", nil)
	seedNode(t, manager, models.ForestCatalog, "fiction", &root.ID)

	// Cache miss: built from the store and cached
	w := performRequest(router, "GET", "/api/forests/catalog/tree", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	data := response["data"].([]interface{})
	require.Len(t, data, 1)
	rootJSON := data[0].(map[string]interface{})
	assert.Equal(t, "books", rootJSON["label"])
	children := rootJSON["children"].([]interface{})
	require.Len(t, children, 1)
	assert.Equal(t, "fiction", children[0].(map[string]interface{})["label"])

	_, setCalls, _, _, _ := mock.GetCallCounts()
	assert.Equal(t, 1, setCalls)

	// Cache hit: no second store build
	w = performRequest(router, "GET", "/api/forests/catalog/tree", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	_, setCalls, _, _, _ = mock.GetCallCounts()
	assert.Equal(t, 1, setCalls)
}

func TestGetForestEmpty(t *testing.T) {
	router, _, _ := setupTest(t)

	w := performRequest(router, "GET", "/api/forests/catalog/tree", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Empty(t, response["data"])
}

func TestListNodes(t *testing.T) {
	router, manager, _ := setupTest(t)

	root := seedNode(t, manager, models.ForestCatalog, "books", nil)
	seedNode(t, manager, models.ForestCatalog, "fiction", &root.ID)
	seedNode(t, manager, models.ForestCatalog, "poetry", &root.ID)

	w := performRequest(router, "GET", fmt.Sprintf("/api/forests/catalog/nodes?parentId=%d", root.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].([]interface{})
	require.Len(t, data, 2)
	assert.Equal(t, "fiction", data[0].(map[string]interface{})["label"])
	assert.Equal(t, "poetry", data[1].(map[string]interface{})["label"])

	// Root level listing
	w = performRequest(router, "GET", "/api/forests/catalog/nodes", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, "GET", "/api/forests/catalog/nodes?parentId=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateNode(t *testing.T) {
	router, _, mock := setupTest(t)

	w := performRequest(router, "POST", "/api/forests/catalog/nodes", map[string]interface{}{
		"label":  "books",
		"target": "/books",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var node models.Node
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &node))
	assert.Equal(t, "books", node.Label)
	assert.Equal(t, models.ForestCatalog, node.Forest)
	assert.Equal(t, 0, node.Position)
	assert.True(t, node.Active)

	_, _, invalidateCalls, _, _ := mock.GetCallCounts()
	assert.Equal(t, 1, invalidateCalls)
}

func TestCreateNodeValidation(t *testing.T) {
	router, _, _ := setupTest(t)

	// label is required
	w := performRequest(router, "POST", "/api/forests/catalog/nodes", map[string]interface{}{
		"target": "/books",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// unknown parent
	w = performRequest(router, "POST", "/api/forests/catalog/nodes", map[string]interface{}{
		"label":    "books",
		"target":   "/books",
		"parentId": 999,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateNodeCrossForestParent(t *testing.T) {
	router, manager, _ := setupTest(t)

	navRoot := seedNode(t, manager, models.ForestNavHeader, "home", nil)

	w := performRequest(router, "POST", "/api/forests/catalog/nodes", map[string]interface{}{
		"label":    "books",
		"target":   "/books",
		"parentId": navRoot.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateNode(t *testing.T) {
	router, manager, mock := setupTest(t)

	node := seedNode(t, manager, models.ForestCatalog, "books", nil)

	w := performRequest(router, "PUT", fmt.Sprintf("/api/nodes/%d", node.ID), map[string]interface{}{
		"label": "Books & Media",
		"slug":  "books-media",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Node
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Books & Media", updated.Label)
	assert.Equal(t, "books-media", updated.Slug)
	assert.Equal(t, node.Target, updated.Target)

	_, _, invalidateCalls, _, _ := mock.GetCallCounts()
	assert.Equal(t, 1, invalidateCalls)

	w = performRequest(router, "PUT", "/api/nodes/999", map[string]interface{}{
		"label": "nope",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, "PUT", "/api/nodes/abc", map[string]interface{}{
		"label": "nope",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToggleActive(t *testing.T) {
	router, manager, _ := setupTest(t)

	node := seedNode(t, manager, models.ForestCatalog, "books", nil)
	require.True(t, node.Active)

	w := performRequest(router, "PATCH", fmt.Sprintf("/api/nodes/%d/active", node.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var toggled models.Node
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &toggled))
	assert.False(t, toggled.Active)

	w = performRequest(router, "PATCH", fmt.Sprintf("/api/nodes/%d/active", node.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &toggled))
	assert.True(t, toggled.Active)
}

func TestReparentNode(t *testing.T) {
	router, manager, _ := setupTest(t)

	booksNode := seedNode(t, manager, models.ForestCatalog, "books", nil)
	mediaNode := seedNode(t, manager, models.ForestCatalog, "media", nil)
	fiction := seedNode(t, manager, models.ForestCatalog, "fiction", &booksNode.ID)

	w := performRequest(router, "PATCH", fmt.Sprintf("/api/nodes/%d/parent", fiction.ID), map[string]interface{}{
		"parentId": mediaNode.ID,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var moved models.Node
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &moved))
	require.NotNil(t, moved.ParentID)
	assert.Equal(t, mediaNode.ID, *moved.ParentID)
	assert.Equal(t, 0, moved.Position)

	// Promote to root level with a null parentId
	w = performRequest(router, "PATCH", fmt.Sprintf("/api/nodes/%d/parent", fiction.ID), map[string]interface{}{
		"parentId": nil,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &moved))
	assert.Nil(t, moved.ParentID)
}

func TestReparentNodeRejectsCycle(t *testing.T) {
	router, manager, _ := setupTest(t)

	booksNode := seedNode(t, manager, models.ForestCatalog, "books", nil)
	fiction := seedNode(t, manager, models.ForestCatalog, "fiction", &booksNode.ID)
	novels := seedNode(t, manager, models.ForestCatalog, "novels", &fiction.ID)

	// Moving a node under its own descendant must fail
	w := performRequest(router, "PATCH", fmt.Sprintf("/api/nodes/%d/parent", booksNode.ID), map[string]interface{}{
		"parentId": novels.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Self-parenting must fail too
	w = performRequest(router, "PATCH", fmt.Sprintf("/api/nodes/%d/parent", booksNode.ID), map[string]interface{}{
		"parentId": booksNode.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown parent
	w = performRequest(router, "PATCH", fmt.Sprintf("/api/nodes/%d/parent", booksNode.ID), map[string]interface{}{
		"parentId": 999,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMoveNode(t *testing.T) {
	router, manager, _ := setupTest(t)

	first := seedNode(t, manager, models.ForestCatalog, "books", nil)
	second := seedNode(t, manager, models.ForestCatalog, "media", nil)

	w := performRequest(router, "PATCH", fmt.Sprintf("/api/nodes/%d/move", second.ID), map[string]interface{}{
		"direction": "up",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)

	nodes, err := manager.List(context.Background(), models.ForestCatalog, nil)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, second.ID, nodes[0].ID)
	assert.Equal(t, first.ID, nodes[1].ID)

	// Already first: boundary
	w = performRequest(router, "PATCH", fmt.Sprintf("/api/nodes/%d/move", second.ID), map[string]interface{}{
		"direction": "up",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Direction must be up or down
	w = performRequest(router, "PATCH", fmt.Sprintf("/api/nodes/%d/move", second.ID), map[string]interface{}{
		"direction": "sideways",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReorderNodes(t *testing.T) {
	router, manager, _ := setupTest(t)

	a := seedNode(t, manager, models.ForestCatalog, "a", nil)
	b := seedNode(t, manager, models.ForestCatalog, "b", nil)
	c := seedNode(t, manager, models.ForestCatalog, "c", nil)

	w := performRequest(router, "PUT", "/api/forests/catalog/order", map[string]interface{}{
		"orderedIds": []int64{c.ID, a.ID, b.ID},
	})
	assert.Equal(t, http.StatusNoContent, w.Code)

	nodes, err := manager.List(context.Background(), models.ForestCatalog, nil)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, c.ID, nodes[0].ID)
	assert.Equal(t, a.ID, nodes[1].ID)
	assert.Equal(t, b.ID, nodes[2].ID)

	// Incomplete permutation is rejected
	w = performRequest(router, "PUT", "/api/forests/catalog/order", map[string]interface{}{
		"orderedIds": []int64{a.ID, b.ID},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// IDs from another sibling group are rejected
	w = performRequest(router, "PUT", "/api/forests/catalog/order", map[string]interface{}{
		"orderedIds": []int64{a.ID, b.ID, 999},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteNode(t *testing.T) {
	router, manager, _ := setupTest(t)

	booksNode := seedNode(t, manager, models.ForestCatalog, "books", nil)
	fiction := seedNode(t, manager, models.ForestCatalog, "fiction", &booksNode.ID)

	// Blocked while it has children
	w := performRequest(router, "DELETE", fmt.Sprintf("/api/nodes/%d", booksNode.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Leaf deletion succeeds
	w = performRequest(router, "DELETE", fmt.Sprintf("/api/nodes/%d", fiction.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = performRequest(router, "DELETE", fmt.Sprintf("/api/nodes/%d", booksNode.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Gone now
	w = performRequest(router, "DELETE", fmt.Sprintf("/api/nodes/%d", booksNode.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteNodeCascade(t *testing.T) {
	router, manager, _ := setupTest(t)

	booksNode := seedNode(t, manager, models.ForestCatalog, "books", nil)
	fiction := seedNode(t, manager, models.ForestCatalog, "fiction", &booksNode.ID)
	seedNode(t, manager, models.ForestCatalog, "novels", &fiction.ID)

	w := performRequest(router, "DELETE", fmt.Sprintf("/api/nodes/%d?cascade=true", booksNode.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	nodes, err := manager.List(context.Background(), models.ForestCatalog, nil)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestMutationsInvalidateForestCache(t *testing.T) {
	router, manager, mock := setupTest(t)

	node := seedNode(t, manager, models.ForestCatalog, "books", nil)

	// Warm the cache
	w := performRequest(router, "GET", "/api/forests/catalog/tree", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, "PATCH", fmt.Sprintf("/api/nodes/%d/active", node.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, found := mock.GetForest(models.ForestCatalog)
	assert.False(t, found)
}
