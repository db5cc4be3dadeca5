package tree

import (
	"fmt"
	"sort"

	"github.com/calderweb/forest_service/models"
)

// Warning flags an integrity problem found while assembling a forest,
// such as a node whose parent id points at a missing record. The node is
// promoted to a root rather than dropped.
type Warning struct {
	NodeID  int64  `json:"nodeId"`
	Message string `json:"message"`
}

// BuildForest converts a flat slice of nodes into a nested forest. Every
// input node appears exactly once in the output; children are ordered by
// ascending position with the id as tie breaker. The input is not
// mutated, so the function is safe to call once per read request.
func BuildForest(nodes []*models.Node) ([]*models.TreeNode, []Warning) {
	if len(nodes) == 0 {
		return []*models.TreeNode{}, nil
	}

	// First pass: wrap every node and index by id
	nodeMap := make(map[int64]*models.TreeNode, len(nodes))
	for _, node := range nodes {
		nodeMap[node.ID] = models.NewTreeNode(*node)
	}

	// Second pass: attach children, promoting orphans to roots
	var (
		roots    []*models.TreeNode
		warnings []Warning
	)
	for _, node := range nodes {
		wrapped := nodeMap[node.ID]
		if node.ParentID == nil {
			roots = append(roots, wrapped)
			continue
		}
		parent, ok := nodeMap[*node.ParentID]
		if !ok {
			warnings = append(warnings, Warning{
				NodeID:  node.ID,
				Message: fmt.Sprintf("parent %d does not exist; node promoted to root", *node.ParentID),
			})
			roots = append(roots, wrapped)
			continue
		}
		parent.AddChild(wrapped)
	}

	sortSiblings(roots)
	for _, wrapped := range nodeMap {
		sortSiblings(wrapped.Children)
	}

	return roots, warnings
}

// Flatten walks a forest in pre-order and returns the flat node records.
// It is the inverse of BuildForest for a well-formed node set.
func Flatten(forest []*models.TreeNode) []*models.Node {
	var out []*models.Node
	var walk func(nodes []*models.TreeNode)
	walk = func(nodes []*models.TreeNode) {
		for _, node := range nodes {
			flat := node.Node
			out = append(out, &flat)
			walk(node.Children)
		}
	}
	walk(forest)
	return out
}

func sortSiblings(siblings []*models.TreeNode) {
	sort.SliceStable(siblings, func(i, j int) bool {
		if siblings[i].Position != siblings[j].Position {
			return siblings[i].Position < siblings[j].Position
		}
		return siblings[i].ID < siblings[j].ID
	})
}
