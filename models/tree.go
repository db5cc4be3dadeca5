package models

// Forest identifies one independent node hierarchy. Categories and each
// navigation menu live in separate forests; edges never cross forests.
type Forest string

const (
	ForestCatalog   Forest = "catalog"
	ForestNavHeader Forest = "nav:header"
	ForestNavFooter Forest = "nav:footer"
)

// Node is the flat persisted record. Nesting is never stored; the tree
// package derives it from ParentID links on every read.
type Node struct {
	ID          int64  `json:"id"`
	Forest      Forest `json:"forest"`
	Label       string `json:"label"`
	Target      string `json:"target"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Image       string `json:"image,omitempty"`
	ParentID    *int64 `json:"parentId"`
	Position    int    `json:"position"`
	Active      bool   `json:"active"`
}

// TreeNode is a Node plus its assembled children, ordered by ascending
// Position.
type TreeNode struct {
	Node
	Children []*TreeNode `json:"children"`
}

// NewTreeNode wraps a flat node for tree assembly
func NewTreeNode(n Node) *TreeNode {
	return &TreeNode{
		Node:     n,
		Children: make([]*TreeNode, 0),
	}
}

// AddChild appends a child node to the current node
func (n *TreeNode) AddChild(child *TreeNode) {
	n.Children = append(n.Children, child)
}

// ParentRef carries a new parent assignment. A nil ID moves the node to
// the root level of its forest.
type ParentRef struct {
	ID *int64
}

// NodeFields describes a partial update. Nil fields are left untouched.
type NodeFields struct {
	Label       *string
	Target      *string
	Slug        *string
	Description *string
	Icon        *string
	Image       *string
	Active      *bool
	Position    *int
	Parent      *ParentRef
}
