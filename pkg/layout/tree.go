// Package layout manages per-group binary split-pane trees: pane mutation
// operations, terminal metadata, drop-zone moves, visibility collapse and
// maximize state.
package layout

import (
	"sync"

	"github.com/OptimiLabs/velocity-sub007/errors"
)

// groupLayout is the layout state of one group: its pane tree, terminal
// metadata and maximize state.
type groupLayout struct {
	root          *Node
	terminals     map[string]*Terminal
	maximizedPane string
}

// Tree holds the pane layouts of all groups. It is the authoritative source
// for which terminal lives in which group.
type Tree struct {
	mu     sync.RWMutex
	groups map[string]*groupLayout

	// onChange is invoked after any mutation, with the affected group id.
	// Size notifications caused by the tree's own collapse/expand logic are
	// suppressed via the programmatic flag so they cannot feed back.
	onChange     func(groupID string)
	programmatic bool
}

// NewTree creates an empty layout tree.
func NewTree() *Tree {
	return &Tree{groups: make(map[string]*groupLayout)}
}

// OnChange registers the change-notification callback.
func (t *Tree) OnChange(fn func(groupID string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

// changeFn returns the notification callback to invoke after unlocking, or
// nil when notifications are suppressed. Must be called with the lock held
// so a concurrent render cannot flip the programmatic flag between the check
// and the invocation.
func (t *Tree) changeFn() func(groupID string) {
	if t.programmatic || t.onChange == nil {
		return nil
	}
	return t.onChange
}

// EnsureGroup creates an empty layout entry for a group if none exists.
func (t *Tree) EnsureGroup(groupID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureGroupLocked(groupID)
}

func (t *Tree) ensureGroupLocked(groupID string) *groupLayout {
	g, ok := t.groups[groupID]
	if !ok {
		g = &groupLayout{terminals: make(map[string]*Terminal)}
		t.groups[groupID] = g
	}
	return g
}

// RemoveGroup drops a group's layout and terminal metadata.
func (t *Tree) RemoveGroup(groupID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.groups, groupID)
}

// AlignGroups reconciles layout entries with the merged group set: entries
// for groups not in keep are removed, and every kept group gets an entry.
func (t *Tree) AlignGroups(keep []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	keepSet := make(map[string]bool, len(keep))
	for _, id := range keep {
		keepSet[id] = true
	}
	for id := range t.groups {
		if !keepSet[id] {
			delete(t.groups, id)
		}
	}
	for _, id := range keep {
		t.ensureGroupLocked(id)
	}
}

// Groups returns the ids of all groups with a layout entry.
func (t *Tree) Groups() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]string, 0, len(t.groups))
	for id := range t.groups {
		ids = append(ids, id)
	}
	return ids
}

// HasGroup reports whether the group has a layout entry.
func (t *Tree) HasGroup(groupID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.groups[groupID]
	return ok
}

// Root returns a snapshot of a group's pane tree (nil when the group has no
// panes yet). Mutations in place never show through the returned nodes.
func (t *Tree) Root(groupID string) *Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if g, ok := t.groups[groupID]; ok {
		return g.root.clone()
	}
	return nil
}

// Leaves returns snapshots of all leaf panes of a group in tree order.
func (t *Tree) Leaves(groupID string) []*Node {
	t.mu.RLock()
	defer t.mu.RUnlock()

	g, ok := t.groups[groupID]
	if !ok || g.root == nil {
		return nil
	}
	var leaves []*Node
	g.root.walkLeaves(func(n *Node) { leaves = append(leaves, n.clone()) })
	return leaves
}

// findGroupLeaf locates a leaf within a group, erroring when absent.
func (t *Tree) findGroupLeaf(groupID, leafID string) (*groupLayout, *Node, error) {
	g, ok := t.groups[groupID]
	if !ok {
		return nil, nil, errors.GroupNotFound(groupID)
	}
	if g.root == nil {
		return nil, nil, errors.PaneNotFound(leafID)
	}
	node, _ := g.root.find(leafID)
	if node == nil || !node.IsLeaf() {
		return nil, nil, errors.PaneNotFound(leafID)
	}
	return g, node, nil
}
