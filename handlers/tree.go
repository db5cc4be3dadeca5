package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/calderweb/forest_service/cache"
	"github.com/calderweb/forest_service/models"
	"github.com/calderweb/forest_service/tree"

	"github.com/gin-gonic/gin"
)

// TreeHandler handles tree-related HTTP requests. It is a thin layer
// over the tree manager plus a per-forest read cache.
type TreeHandler struct {
	manager *tree.Manager
}

// NewTreeHandler creates a new TreeHandler instance
func NewTreeHandler(manager *tree.Manager) *TreeHandler {
	return &TreeHandler{
		manager: manager,
	}
}

// Register wires the handler's routes into the given router group
func (h *TreeHandler) Register(api *gin.RouterGroup) {
	api.GET("/forests/:forest/tree", h.GetForest)
	api.GET("/forests/:forest/nodes", h.ListNodes)
	api.POST("/forests/:forest/nodes", h.CreateNode)
	api.PUT("/forests/:forest/order", h.ReorderNodes)
	api.PUT("/nodes/:id", h.UpdateNode)
	api.PATCH("/nodes/:id/active", h.ToggleActive)
	api.PATCH("/nodes/:id/parent", h.ReparentNode)
	api.PATCH("/nodes/:id/move", h.MoveNode)
	api.DELETE("/nodes/:id", h.DeleteNode)
}

// GetForest returns the nested view of one forest
func (h *TreeHandler) GetForest(c *gin.Context) {
	forest := models.Forest(c.Param("forest"))

	// Try to get from cache first
	if cachedTree, found := cache.GetForest(forest); found {
		c.JSON(http.StatusOK, gin.H{"data": cachedTree})
		return
	}

	roots, warnings, err := h.manager.GetForest(c.Request.Context(), forest)
	if err != nil {
		writeError(c, err)
		return
	}

	cache.SetForest(forest, roots)

	response := gin.H{"data": roots}
	if len(warnings) > 0 {
		response["warnings"] = warnings
	}
	c.JSON(http.StatusOK, response)
}

// ListNodes returns one sibling level in ascending position
func (h *TreeHandler) ListNodes(c *gin.Context) {
	forest := models.Forest(c.Param("forest"))

	var parentID *int64
	if raw := c.Query("parentId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parentId"})
			return
		}
		parentID = &id
	}

	nodes, err := h.manager.List(c.Request.Context(), forest, parentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": nodes})
}

// CreateNode creates a new node at the end of its sibling group
func (h *TreeHandler) CreateNode(c *gin.Context) {
	forest := models.Forest(c.Param("forest"))

	var req models.CreateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	node, err := h.manager.Create(c.Request.Context(), tree.CreateInput{
		Forest:      forest,
		Label:       req.Label,
		Target:      req.Target,
		Slug:        req.Slug,
		Description: req.Description,
		Icon:        req.Icon,
		Image:       req.Image,
		ParentID:    req.ParentID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	cache.Invalidate(forest)
	c.JSON(http.StatusCreated, node)
}

// UpdateNode edits a node's display fields
func (h *TreeHandler) UpdateNode(c *gin.Context) {
	id, ok := nodeID(c)
	if !ok {
		return
	}

	var req models.UpdateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	node, err := h.manager.Update(c.Request.Context(), id, tree.UpdateInput{
		Label:       req.Label,
		Target:      req.Target,
		Slug:        req.Slug,
		Description: req.Description,
		Icon:        req.Icon,
		Image:       req.Image,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	cache.Invalidate(node.Forest)
	c.JSON(http.StatusOK, node)
}

// ToggleActive flips a node's visibility flag
func (h *TreeHandler) ToggleActive(c *gin.Context) {
	id, ok := nodeID(c)
	if !ok {
		return
	}

	node, err := h.manager.ToggleActive(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	cache.Invalidate(node.Forest)
	c.JSON(http.StatusOK, node)
}

// ReparentNode moves a node under a new parent
func (h *TreeHandler) ReparentNode(c *gin.Context) {
	id, ok := nodeID(c)
	if !ok {
		return
	}

	var req models.ReparentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	node, err := h.manager.Reparent(c.Request.Context(), id, req.ParentID)
	if err != nil {
		writeError(c, err)
		return
	}

	cache.Invalidate(node.Forest)
	c.JSON(http.StatusOK, node)
}

// MoveNode swaps a node with its adjacent sibling
func (h *TreeHandler) MoveNode(c *gin.Context) {
	id, ok := nodeID(c)
	if !ok {
		return
	}

	var req models.MoveNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The node's forest is not in the URL; resolve it for invalidation.
	node, err := h.manager.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	dir, _ := tree.ParseDirection(req.Direction)
	if err := h.manager.MoveAdjacent(c.Request.Context(), id, dir); err != nil {
		writeError(c, err)
		return
	}

	cache.Invalidate(node.Forest)
	c.Status(http.StatusNoContent)
}

// ReorderNodes applies a full explicit ordering to one sibling group
func (h *TreeHandler) ReorderNodes(c *gin.Context) {
	forest := models.Forest(c.Param("forest"))

	var req models.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.manager.ReassignOrder(c.Request.Context(), forest, req.ParentID, req.OrderedIDs); err != nil {
		writeError(c, err)
		return
	}

	cache.Invalidate(forest)
	c.Status(http.StatusNoContent)
}

// DeleteNode removes a node, optionally cascading to its subtree.
// Blocking on children is the default; pass ?cascade=true to delete the
// whole subtree.
func (h *TreeHandler) DeleteNode(c *gin.Context) {
	id, ok := nodeID(c)
	if !ok {
		return
	}

	cascade := c.Query("cascade") == "true"

	node, err := h.manager.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.manager.Delete(c.Request.Context(), id, cascade); err != nil {
		writeError(c, err)
		return
	}

	cache.Invalidate(node.Forest)
	c.Status(http.StatusNoContent)
}

// nodeID parses the :id path parameter
func nodeID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid node id"})
		return 0, false
	}
	return id, true
}

// writeError maps the tree error taxonomy onto HTTP status codes
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tree.ErrNotFound), errors.Is(err, tree.ErrUnknownParent):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, tree.ErrHasChildren):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, tree.ErrInvalidInput),
		errors.Is(err, tree.ErrInvalidParent),
		errors.Is(err, tree.ErrForestMismatch),
		errors.Is(err, tree.ErrBoundary),
		errors.Is(err, tree.ErrSetMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		// storage failures and anything unexpected
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
