package tree

import (
	"sort"

	"github.com/calderweb/forest_service/models"
)

// Direction selects the neighbor a node swaps with in MoveAdjacent
type Direction int

const (
	// Up moves a node one place toward position 0
	Up Direction = iota
	// Down moves a node one place toward the end of its group
	Down
)

// ParseDirection maps the wire value ("up"/"down") to a Direction
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "up":
		return Up, true
	case "down":
		return Down, true
	}
	return 0, false
}

// Normalize returns the sibling group with positions reassigned to a
// dense 0-based sequence. The relative order is kept stable: ties on the
// previous position are broken by id, so repeated normalization of an
// already-dense group is a no-op. The input is not mutated.
func Normalize(siblings []*models.Node) []*models.Node {
	result := copySiblings(siblings)
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Position != result[j].Position {
			return result[i].Position < result[j].Position
		}
		return result[i].ID < result[j].ID
	})
	for i, node := range result {
		node.Position = i
	}
	return result
}

// MoveAdjacent swaps the positions of nodeID and its immediate neighbor
// in the given direction. The group is normalized first, so the swap is
// well defined even on sparse input. Fails with ErrBoundary when the
// node is already first (Up) or last (Down); no sibling is altered on
// failure. Fails with ErrNotFound when nodeID is not in the group.
func MoveAdjacent(siblings []*models.Node, nodeID int64, dir Direction) ([]*models.Node, error) {
	result := Normalize(siblings)

	idx := -1
	for i, node := range result {
		if node.ID == nodeID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrNotFound
	}

	neighbor := idx - 1
	if dir == Down {
		neighbor = idx + 1
	}
	if neighbor < 0 || neighbor >= len(result) {
		return nil, ErrBoundary
	}

	result[idx].Position, result[neighbor].Position = result[neighbor].Position, result[idx].Position
	result[idx], result[neighbor] = result[neighbor], result[idx]
	return result, nil
}

// Reassign sets the group's positions to follow orderedIDs. Fails with
// ErrSetMismatch unless orderedIDs is exactly a permutation of the
// group's ids; nothing is changed on failure.
func Reassign(siblings []*models.Node, orderedIDs []int64) ([]*models.Node, error) {
	if len(orderedIDs) != len(siblings) {
		return nil, ErrSetMismatch
	}

	byID := make(map[int64]*models.Node, len(siblings))
	for _, node := range copySiblings(siblings) {
		byID[node.ID] = node
	}

	result := make([]*models.Node, 0, len(orderedIDs))
	for i, id := range orderedIDs {
		node, ok := byID[id]
		if !ok {
			// Foreign id, or a duplicate that was already consumed
			return nil, ErrSetMismatch
		}
		delete(byID, id)
		node.Position = i
		result = append(result, node)
	}
	return result, nil
}

func copySiblings(siblings []*models.Node) []*models.Node {
	result := make([]*models.Node, len(siblings))
	for i, node := range siblings {
		copied := *node
		result[i] = &copied
	}
	return result
}
