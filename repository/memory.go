package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/calderweb/forest_service/models"
)

// MemoryRepository implements Repository with an in-process map. It is
// used by unit tests and by the Lambda entrypoint when no database is
// configured.
type MemoryRepository struct {
	mu     sync.RWMutex
	nodes  map[int64]*models.Node
	nextID int64
}

// NewMemoryRepository creates a new in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nodes:  make(map[int64]*models.Node),
		nextID: 1,
	}
}

// Initialize performs any necessary setup
func (m *MemoryRepository) Initialize(ctx context.Context) error {
	return nil
}

// Cleanup drops all stored nodes
func (m *MemoryRepository) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes = make(map[int64]*models.Node)
	m.nextID = 1
	return nil
}

// GetByID retrieves a node by ID
func (m *MemoryRepository) GetByID(ctx context.Context, id int64) (*models.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, ok := m.nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	copied := *node
	return &copied, nil
}

// ListByParent retrieves the direct children of parentID, position ascending
func (m *MemoryRepository) ListByParent(ctx context.Context, forest models.Forest, parentID *int64) ([]*models.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*models.Node
	for _, node := range m.nodes {
		if node.Forest != forest {
			continue
		}
		if !sameParent(node.ParentID, parentID) {
			continue
		}
		copied := *node
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Position != result[j].Position {
			return result[i].Position < result[j].Position
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// ListForest retrieves all nodes of one forest, ordered by ID
func (m *MemoryRepository) ListForest(ctx context.Context, forest models.Forest) ([]*models.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*models.Node
	for _, node := range m.nodes {
		if node.Forest != forest {
			continue
		}
		copied := *node
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Insert stores a new node and returns it with its assigned ID
func (m *MemoryRepository) Insert(ctx context.Context, node *models.Node) (*models.Node, error) {
	if node.Label == "" || node.Forest == "" {
		return nil, ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	created := *node
	if created.ID == 0 {
		created.ID = m.nextID
		m.nextID++
	} else if created.ID >= m.nextID {
		m.nextID = created.ID + 1
	}

	stored := created
	m.nodes[created.ID] = &stored
	return &created, nil
}

// UpdateFields applies a partial update to a node
func (m *MemoryRepository) UpdateFields(ctx context.Context, id int64, fields models.NodeFields) (*models.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	node, ok := m.nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}

	if fields.Label != nil {
		node.Label = *fields.Label
	}
	if fields.Target != nil {
		node.Target = *fields.Target
	}
	if fields.Slug != nil {
		node.Slug = *fields.Slug
	}
	if fields.Description != nil {
		node.Description = *fields.Description
	}
	if fields.Icon != nil {
		node.Icon = *fields.Icon
	}
	if fields.Image != nil {
		node.Image = *fields.Image
	}
	if fields.Active != nil {
		node.Active = *fields.Active
	}
	if fields.Position != nil {
		node.Position = *fields.Position
	}
	if fields.Parent != nil {
		if fields.Parent.ID == nil {
			node.ParentID = nil
		} else {
			parentID := *fields.Parent.ID
			node.ParentID = &parentID
		}
	}

	copied := *node
	return &copied, nil
}

// DeleteByID removes a single node
func (m *MemoryRepository) DeleteByID(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.nodes[id]; !ok {
		return ErrNodeNotFound
	}
	delete(m.nodes, id)
	return nil
}

// WithTransaction executes fn against a deep copy of the store and swaps
// the copy in only if fn succeeds. Concurrent transactions are serialized
// by the store lock, matching the single-writer guarantee a database
// transaction would give a sibling group.
func (m *MemoryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &MemoryRepository{
		nodes:  make(map[int64]*models.Node, len(m.nodes)),
		nextID: m.nextID,
	}
	for id, node := range m.nodes {
		copied := *node
		tx.nodes[id] = &copied
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}

	m.nodes = tx.nodes
	m.nextID = tx.nextID
	return nil
}

// sameParent reports whether two optional parent references are equal
func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
