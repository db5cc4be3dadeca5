package tree

import (
	"context"
	"errors"

	"github.com/calderweb/forest_service/models"
	"github.com/calderweb/forest_service/repository"
)

// Manager is the facade over the tree core. It validates every mutation
// against the forest invariants (acyclicity, same-forest parents, dense
// sibling positions) before anything is written, and runs each
// read-modify-write sequence inside one store transaction.
type Manager struct {
	store repository.Repository
}

// NewManager creates a Manager backed by the given store
func NewManager(store repository.Repository) *Manager {
	return &Manager{store: store}
}

// CreateInput carries the fields of a new node. Slug, Description, Icon
// and Image are only used by category forests and may stay empty.
type CreateInput struct {
	Forest      models.Forest
	Label       string
	Target      string
	Slug        string
	Description string
	Icon        string
	Image       string
	ParentID    *int64
}

// UpdateInput carries a partial edit of a node's display fields. Parent
// and position changes go through Reparent and the reorder operations.
type UpdateInput struct {
	Label       *string
	Target      *string
	Slug        *string
	Description *string
	Icon        *string
	Image       *string
}

// Create appends a new node at the end of its sibling group. New nodes
// start out active.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*models.Node, error) {
	if in.Forest == "" || in.Label == "" || in.Target == "" {
		return nil, ErrInvalidInput
	}

	var created *models.Node
	err := m.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		if in.ParentID != nil {
			parent, err := tx.GetByID(ctx, *in.ParentID)
			if err != nil {
				return m.translate("create", err, ErrUnknownParent)
			}
			if parent.Forest != in.Forest {
				return ErrForestMismatch
			}
		}

		siblings, err := tx.ListByParent(ctx, in.Forest, in.ParentID)
		if err != nil {
			return &StorageError{Op: "create", Err: err}
		}

		created, err = tx.Insert(ctx, &models.Node{
			Forest:      in.Forest,
			Label:       in.Label,
			Target:      in.Target,
			Slug:        in.Slug,
			Description: in.Description,
			Icon:        in.Icon,
			Image:       in.Image,
			ParentID:    in.ParentID,
			Position:    len(siblings),
			Active:      true,
		})
		if err != nil {
			return &StorageError{Op: "create", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, m.wrapTx("create", err)
	}
	return created, nil
}

// Update edits a node's display fields. It never touches the parent,
// position or active flag.
func (m *Manager) Update(ctx context.Context, id int64, in UpdateInput) (*models.Node, error) {
	if (in.Label != nil && *in.Label == "") || (in.Target != nil && *in.Target == "") {
		return nil, ErrInvalidInput
	}

	node, err := m.store.UpdateFields(ctx, id, models.NodeFields{
		Label:       in.Label,
		Target:      in.Target,
		Slug:        in.Slug,
		Description: in.Description,
		Icon:        in.Icon,
		Image:       in.Image,
	})
	if err != nil {
		return nil, m.translate("update", err, ErrNotFound)
	}
	return node, nil
}

// ToggleActive flips a node's visibility flag. Children are not touched;
// an inactive parent with active children is legal, display-time
// filtering is the caller's concern.
func (m *Manager) ToggleActive(ctx context.Context, id int64) (*models.Node, error) {
	var updated *models.Node
	err := m.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		node, err := tx.GetByID(ctx, id)
		if err != nil {
			return m.translate("toggle", err, ErrNotFound)
		}
		active := !node.Active
		updated, err = tx.UpdateFields(ctx, id, models.NodeFields{Active: &active})
		if err != nil {
			return m.translate("toggle", err, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, m.wrapTx("toggle", err)
	}
	return updated, nil
}

// Reparent moves a node (and so its whole subtree) under a new parent,
// or to the root level when newParentID is nil. The old sibling group is
// re-normalized and the node is appended at the end of the new group.
// The whole sequence commits atomically or not at all.
func (m *Manager) Reparent(ctx context.Context, id int64, newParentID *int64) (*models.Node, error) {
	var updated *models.Node
	err := m.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		node, err := tx.GetByID(ctx, id)
		if err != nil {
			return m.translate("reparent", err, ErrNotFound)
		}

		if sameID(node.ParentID, newParentID) {
			updated = node
			return nil
		}

		if newParentID != nil {
			parent, err := tx.GetByID(ctx, *newParentID)
			if err != nil {
				return m.translate("reparent", err, ErrUnknownParent)
			}
			if parent.Forest != node.Forest {
				return ErrForestMismatch
			}

			all, err := tx.ListForest(ctx, node.Forest)
			if err != nil {
				return &StorageError{Op: "reparent", Err: err}
			}
			if WouldCreateCycle(NodeIndex(all), id, *newParentID) {
				return ErrInvalidParent
			}
		}

		// Close the gap in the old sibling group
		oldSiblings, err := tx.ListByParent(ctx, node.Forest, node.ParentID)
		if err != nil {
			return &StorageError{Op: "reparent", Err: err}
		}
		remaining := withoutNode(oldSiblings, id)
		if err := persistPositions(ctx, tx, "reparent", remaining, Normalize(remaining)); err != nil {
			return err
		}

		// Append at the end of the new group
		newSiblings, err := tx.ListByParent(ctx, node.Forest, newParentID)
		if err != nil {
			return &StorageError{Op: "reparent", Err: err}
		}
		position := len(newSiblings)

		updated, err = tx.UpdateFields(ctx, id, models.NodeFields{
			Position: &position,
			Parent:   &models.ParentRef{ID: newParentID},
		})
		if err != nil {
			return m.translate("reparent", err, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, m.wrapTx("reparent", err)
	}
	return updated, nil
}

// MoveAdjacent swaps a node with its immediate sibling in the given
// direction. A move beyond the first or last position fails with
// ErrBoundary and changes nothing.
func (m *Manager) MoveAdjacent(ctx context.Context, id int64, dir Direction) error {
	err := m.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		node, err := tx.GetByID(ctx, id)
		if err != nil {
			return m.translate("move", err, ErrNotFound)
		}

		siblings, err := tx.ListByParent(ctx, node.Forest, node.ParentID)
		if err != nil {
			return &StorageError{Op: "move", Err: err}
		}

		reordered, err := MoveAdjacent(siblings, id, dir)
		if err != nil {
			return err
		}
		return persistPositions(ctx, tx, "move", siblings, reordered)
	})
	return m.wrapTx("move", err)
}

// ReassignOrder applies a full explicit ordering to one sibling group,
// as produced by drag and drop. orderedIDs must be exactly a permutation
// of the group's current ids.
func (m *Manager) ReassignOrder(ctx context.Context, forest models.Forest, parentID *int64, orderedIDs []int64) error {
	err := m.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		if parentID != nil {
			parent, err := tx.GetByID(ctx, *parentID)
			if err != nil {
				return m.translate("reorder", err, ErrUnknownParent)
			}
			if parent.Forest != forest {
				return ErrForestMismatch
			}
		}

		siblings, err := tx.ListByParent(ctx, forest, parentID)
		if err != nil {
			return &StorageError{Op: "reorder", Err: err}
		}

		reordered, err := Reassign(siblings, orderedIDs)
		if err != nil {
			return err
		}
		return persistPositions(ctx, tx, "reorder", siblings, reordered)
	})
	return m.wrapTx("reorder", err)
}

// Delete removes a node. With cascade the whole subtree goes with it;
// without, a node that still has children fails with ErrHasChildren.
// The former sibling group is re-normalized so no position gap remains.
func (m *Manager) Delete(ctx context.Context, id int64, cascade bool) error {
	err := m.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		node, err := tx.GetByID(ctx, id)
		if err != nil {
			return m.translate("delete", err, ErrNotFound)
		}

		children, err := tx.ListByParent(ctx, node.Forest, &id)
		if err != nil {
			return &StorageError{Op: "delete", Err: err}
		}
		if len(children) > 0 && !cascade {
			return ErrHasChildren
		}

		if cascade {
			// Collect the subtree breadth-first, then delete leaves-first
			// to respect the parent_id foreign key.
			var subtree []int64
			queue := children
			for len(queue) > 0 {
				current := queue[0]
				queue = queue[1:]
				subtree = append(subtree, current.ID)

				grandchildren, err := tx.ListByParent(ctx, node.Forest, &current.ID)
				if err != nil {
					return &StorageError{Op: "delete", Err: err}
				}
				queue = append(queue, grandchildren...)
			}
			for i := len(subtree) - 1; i >= 0; i-- {
				if err := tx.DeleteByID(ctx, subtree[i]); err != nil {
					return &StorageError{Op: "delete", Err: err}
				}
			}
		}

		if err := tx.DeleteByID(ctx, id); err != nil {
			return m.translate("delete", err, ErrNotFound)
		}

		// Close the gap in the former sibling group
		siblings, err := tx.ListByParent(ctx, node.Forest, node.ParentID)
		if err != nil {
			return &StorageError{Op: "delete", Err: err}
		}
		return persistPositions(ctx, tx, "delete", siblings, Normalize(siblings))
	})
	return m.wrapTx("delete", err)
}

// Get returns a single node by id
func (m *Manager) Get(ctx context.Context, id int64) (*models.Node, error) {
	node, err := m.store.GetByID(ctx, id)
	if err != nil {
		return nil, m.translate("get", err, ErrNotFound)
	}
	return node, nil
}

// List returns one sibling level in ascending position, or the forest's
// roots when parentID is nil.
func (m *Manager) List(ctx context.Context, forest models.Forest, parentID *int64) ([]*models.Node, error) {
	nodes, err := m.store.ListByParent(ctx, forest, parentID)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return nodes, nil
}

// GetForest returns the nested view of one forest, together with any
// integrity warnings the builder found.
func (m *Manager) GetForest(ctx context.Context, forest models.Forest) ([]*models.TreeNode, []Warning, error) {
	nodes, err := m.store.ListForest(ctx, forest)
	if err != nil {
		return nil, nil, &StorageError{Op: "forest", Err: err}
	}
	roots, warnings := BuildForest(nodes)
	return roots, warnings, nil
}

// persistPositions writes back only the positions that changed between
// the original group and its reordered counterpart.
func persistPositions(ctx context.Context, tx repository.Repository, op string, original, reordered []*models.Node) error {
	previous := make(map[int64]int, len(original))
	for _, node := range original {
		previous[node.ID] = node.Position
	}
	for _, node := range reordered {
		if prev, ok := previous[node.ID]; ok && prev == node.Position {
			continue
		}
		position := node.Position
		if _, err := tx.UpdateFields(ctx, node.ID, models.NodeFields{Position: &position}); err != nil {
			return &StorageError{Op: op, Err: err}
		}
	}
	return nil
}

// translate maps a store lookup failure to the right taxonomy error and
// wraps anything else as a StorageError.
func (m *Manager) translate(op string, err error, notFound error) error {
	if errors.Is(err, repository.ErrNodeNotFound) {
		return notFound
	}
	return &StorageError{Op: op, Err: err}
}

// wrapTx classifies the error coming out of WithTransaction: taxonomy
// errors pass through, anything else (begin/commit failures included)
// becomes a StorageError.
func (m *Manager) wrapTx(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	for _, known := range []error{
		ErrInvalidInput, ErrUnknownParent, ErrForestMismatch, ErrInvalidParent,
		ErrHasChildren, ErrBoundary, ErrSetMismatch, ErrNotFound,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return &StorageError{Op: op, Err: err}
}

func withoutNode(nodes []*models.Node, id int64) []*models.Node {
	result := make([]*models.Node, 0, len(nodes))
	for _, node := range nodes {
		if node.ID != id {
			result = append(result, node)
		}
	}
	return result
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
