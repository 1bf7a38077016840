package layout

import (
	"github.com/google/uuid"
)

// Orientation of a split node. Horizontal places children side by side,
// Vertical stacks them.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// ContentKind describes what a leaf pane shows.
type ContentKind string

const (
	ContentTerminal ContentKind = "terminal"
	ContentSettings ContentKind = "settings"
	ContentContext  ContentKind = "context"
	ContentEmpty    ContentKind = "empty"
)

// MinPaneSize is the smallest share (percent) either side of a split may take.
const MinPaneSize = 10.0

// Node is one node of a group's binary pane tree. A leaf carries a content
// descriptor; a split carries an orientation, exactly two children and a
// two-element size vector summing to ~100.
type Node struct {
	ID string

	// Leaf fields
	Content    ContentKind
	TerminalID string

	// Split fields
	Orientation Orientation
	Children    [2]*Node
	Sizes       [2]float64

	// Last size vector observed while both children were visible. Restored
	// when a collapsed child becomes visible again.
	lastBothVisible [2]float64
}

// IsLeaf reports whether the node is a leaf pane.
func (n *Node) IsLeaf() bool {
	return n.Children[0] == nil && n.Children[1] == nil
}

// newLeaf creates a leaf with a fresh stable id.
func newLeaf(content ContentKind, terminalID string) *Node {
	return &Node{
		ID:         uuid.NewString(),
		Content:    content,
		TerminalID: terminalID,
	}
}

// newSplit creates a split over two children with default 50/50 sizes.
func newSplit(orientation Orientation, first, second *Node) *Node {
	return &Node{
		ID:              uuid.NewString(),
		Orientation:     orientation,
		Children:        [2]*Node{first, second},
		Sizes:           [2]float64{50, 50},
		lastBothVisible: [2]float64{50, 50},
	}
}

// find returns the node with the given id and its parent (nil for the root).
func (n *Node) find(id string) (node, parent *Node) {
	if n == nil {
		return nil, nil
	}
	if n.ID == id {
		return n, nil
	}
	for _, child := range n.Children {
		if child == nil {
			continue
		}
		if child.ID == id {
			return child, n
		}
		if found, p := child.find(id); found != nil {
			if p == nil {
				p = child
			}
			return found, p
		}
	}
	return nil, nil
}

// walkLeaves visits every leaf under n.
func (n *Node) walkLeaves(visit func(*Node)) {
	if n == nil {
		return
	}
	if n.IsLeaf() {
		visit(n)
		return
	}
	for _, child := range n.Children {
		child.walkLeaves(visit)
	}
}

// clone deep-copies the subtree. Accessors hand out clones so readers never
// alias nodes the mutation paths rewrite in place.
func (n *Node) clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Children[0] = n.Children[0].clone()
	c.Children[1] = n.Children[1].clone()
	return &c
}

// contains reports whether the subtree rooted at n holds the given node id.
func (n *Node) contains(id string) bool {
	found, _ := n.find(id)
	return found != nil
}

// clampSizes clamps both sides to the minimum and renormalizes to 100.
func clampSizes(sizes [2]float64) [2]float64 {
	total := sizes[0] + sizes[1]
	if total <= 0 {
		return [2]float64{50, 50}
	}
	a := sizes[0] / total * 100
	if a < MinPaneSize {
		a = MinPaneSize
	}
	if a > 100-MinPaneSize {
		a = 100 - MinPaneSize
	}
	return [2]float64{a, 100 - a}
}
