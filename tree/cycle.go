package tree

import (
	"github.com/calderweb/forest_service/models"
)

// WouldCreateCycle reports whether assigning candidateParentID as the
// parent of nodeID would make the node its own ancestor. It walks the
// ancestor chain of the candidate parent; the walk is bounded by the
// node count, so it terminates even on already-corrupt data.
func WouldCreateCycle(nodes map[int64]*models.Node, nodeID, candidateParentID int64) bool {
	if candidateParentID == nodeID {
		return true
	}

	current, ok := nodes[candidateParentID]
	for hops := 0; ok && hops <= len(nodes); hops++ {
		if current.ID == nodeID {
			return true
		}
		if current.ParentID == nil {
			return false
		}
		current, ok = nodes[*current.ParentID]
	}
	return false
}

// NodeIndex builds the id lookup map WouldCreateCycle consumes
func NodeIndex(nodes []*models.Node) map[int64]*models.Node {
	index := make(map[int64]*models.Node, len(nodes))
	for _, node := range nodes {
		index[node.ID] = node
	}
	return index
}
