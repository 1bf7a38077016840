package layout

import (
	"github.com/OptimiLabs/velocity-sub007/errors"
)

// OpenPane adds a leaf to a group: the first pane becomes the root, later
// panes split the root horizontally 50/50. Returns the new leaf id.
func (t *Tree) OpenPane(groupID string, content ContentKind, terminalID string) string {
	t.mu.Lock()

	g := t.ensureGroupLocked(groupID)
	leaf := newLeaf(content, terminalID)
	if g.root == nil {
		g.root = leaf
	} else {
		g.root = newSplit(Horizontal, g.root, leaf)
	}

	notify := t.changeFn()
	t.mu.Unlock()
	if notify != nil {
		notify(groupID)
	}
	return leaf.ID
}

// SplitLeaf splits a leaf into two along the given orientation. The original
// leaf keeps its content and becomes the first child; the new empty leaf gets
// a fresh id and becomes the second. Default sizes are 50/50.
func (t *Tree) SplitLeaf(groupID, leafID string, orientation Orientation) (string, error) {
	t.mu.Lock()

	_, leaf, err := t.findGroupLeaf(groupID, leafID)
	if err != nil {
		t.mu.Unlock()
		return "", err
	}

	moved := &Node{ID: leaf.ID, Content: leaf.Content, TerminalID: leaf.TerminalID}
	fresh := newLeaf(ContentEmpty, "")

	// The old leaf's slot in the tree becomes the split node. The moved pane
	// keeps its id, so a maximized pane stays maximized across the split.
	split := newSplit(orientation, moved, fresh)
	*leaf = *split

	notify := t.changeFn()
	t.mu.Unlock()
	if notify != nil {
		notify(groupID)
	}
	return fresh.ID, nil
}

// CloseLeaf removes a leaf, promoting its sibling into the parent's slot.
// Closing the last pane removes the group's layout entry; the second return
// value reports that case. Terminal metadata for the closed pane is released.
func (t *Tree) CloseLeaf(groupID, leafID string) (removedGroup bool, err error) {
	t.mu.Lock()

	g, leaf, err := t.findGroupLeaf(groupID, leafID)
	if err != nil {
		t.mu.Unlock()
		return false, err
	}

	if leaf.TerminalID != "" {
		delete(g.terminals, leaf.TerminalID)
	}
	if g.maximizedPane == leaf.ID {
		g.maximizedPane = ""
	}

	if g.root.ID == leaf.ID {
		// Last pane: the group layout goes away with it.
		delete(t.groups, groupID)
		notify := t.changeFn()
		t.mu.Unlock()
		if notify != nil {
			notify(groupID)
		}
		return true, nil
	}

	_, parent := g.root.find(leaf.ID)
	sibling := parent.Children[0]
	if sibling.ID == leaf.ID {
		sibling = parent.Children[1]
	}

	// Promote the sibling into the parent's slot.
	*parent = *sibling

	notify := t.changeFn()
	t.mu.Unlock()
	if notify != nil {
		notify(groupID)
	}
	return false, nil
}

// SwapLeaves exchanges the content of two leaves without touching siblings
// or sizes.
func (t *Tree) SwapLeaves(groupID, aID, bID string) error {
	t.mu.Lock()

	_, a, err := t.findGroupLeaf(groupID, aID)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	_, b, err := t.findGroupLeaf(groupID, bID)
	if err != nil {
		t.mu.Unlock()
		return err
	}

	a.Content, b.Content = b.Content, a.Content
	a.TerminalID, b.TerminalID = b.TerminalID, a.TerminalID

	notify := t.changeFn()
	t.mu.Unlock()
	if notify != nil {
		notify(groupID)
	}
	return nil
}

// ResizeSplit updates a split's size vector. Each side is clamped to the
// minimum and the pair renormalized to sum 100. The current sizes are also
// remembered for collapse restoration.
func (t *Tree) ResizeSplit(groupID, splitID string, sizes [2]float64) error {
	t.mu.Lock()

	g, ok := t.groups[groupID]
	if !ok {
		t.mu.Unlock()
		return errors.GroupNotFound(groupID)
	}
	if g.root == nil {
		t.mu.Unlock()
		return errors.PaneNotFound(splitID)
	}
	node, _ := g.root.find(splitID)
	if node == nil || node.IsLeaf() {
		t.mu.Unlock()
		return errors.PaneNotFound(splitID)
	}

	node.Sizes = clampSizes(sizes)
	node.lastBothVisible = node.Sizes

	notify := t.changeFn()
	t.mu.Unlock()
	if notify != nil {
		notify(groupID)
	}
	return nil
}

// Maximize renders only the branch containing the given leaf; siblings are
// hidden but stay mounted.
func (t *Tree) Maximize(groupID, leafID string) error {
	t.mu.Lock()

	g, leaf, err := t.findGroupLeaf(groupID, leafID)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	g.maximizedPane = leaf.ID

	notify := t.changeFn()
	t.mu.Unlock()
	if notify != nil {
		notify(groupID)
	}
	return nil
}

// Restore clears the group's maximize state.
func (t *Tree) Restore(groupID string) {
	t.mu.Lock()
	if g, ok := t.groups[groupID]; ok {
		g.maximizedPane = ""
	}
	notify := t.changeFn()
	t.mu.Unlock()
	if notify != nil {
		notify(groupID)
	}
}

// MaximizedPane returns the maximized leaf id of a group, if any.
func (t *Tree) MaximizedPane(groupID string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if g, ok := t.groups[groupID]; ok {
		return g.maximizedPane
	}
	return ""
}

// MovePane detaches a leaf and re-inserts it relative to a target leaf
// according to the drop zone. The center zone swaps the two panes' contents
// instead of creating a new split. Source and target may be in different
// groups; terminal metadata follows the pane.
func (t *Tree) MovePane(srcGroupID, srcLeafID, dstGroupID, dstLeafID string, zone DropZone) error {
	if srcGroupID == dstGroupID && srcLeafID == dstLeafID {
		return nil
	}

	if zone == ZoneCenter {
		return t.movePaneSwap(srcGroupID, srcLeafID, dstGroupID, dstLeafID)
	}

	t.mu.Lock()

	_, src, err := t.findGroupLeaf(srcGroupID, srcLeafID)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	if _, _, err := t.findGroupLeaf(dstGroupID, dstLeafID); err != nil {
		t.mu.Unlock()
		return err
	}

	// Capture the moved pane and its terminal metadata before detaching.
	moved := &Node{ID: src.ID, Content: src.Content, TerminalID: src.TerminalID}
	var movedTerm *Terminal
	if src.TerminalID != "" {
		movedTerm = t.groups[srcGroupID].terminals[src.TerminalID]
		delete(t.groups[srcGroupID].terminals, src.TerminalID)
	}

	t.detachLeafLocked(srcGroupID, src)

	// The tree may have been restructured; find the target again.
	dstGroup, dst, err := t.findGroupLeaf(dstGroupID, dstLeafID)
	if err != nil {
		t.mu.Unlock()
		return err
	}

	// Replace the target's slot with a split holding the moved pane on the
	// zone's side.
	orientation := Horizontal
	if zone == ZoneTop || zone == ZoneBottom {
		orientation = Vertical
	}
	kept := &Node{ID: dst.ID, Content: dst.Content, TerminalID: dst.TerminalID}
	first, second := moved, kept
	if zone == ZoneRight || zone == ZoneBottom {
		first, second = kept, moved
	}

	split := newSplit(orientation, first, second)
	*dst = *split

	if movedTerm != nil {
		dstGroup.terminals[movedTerm.ID] = movedTerm
	}

	notify := t.changeFn()
	t.mu.Unlock()
	if notify != nil {
		notify(srcGroupID)
		if dstGroupID != srcGroupID {
			notify(dstGroupID)
		}
	}
	return nil
}

// movePaneSwap handles the center drop zone: contents trade places.
func (t *Tree) movePaneSwap(srcGroupID, srcLeafID, dstGroupID, dstLeafID string) error {
	if srcGroupID == dstGroupID {
		return t.SwapLeaves(srcGroupID, srcLeafID, dstLeafID)
	}

	t.mu.Lock()

	srcGroup, src, err := t.findGroupLeaf(srcGroupID, srcLeafID)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	dstGroup, dst, err := t.findGroupLeaf(dstGroupID, dstLeafID)
	if err != nil {
		t.mu.Unlock()
		return err
	}

	// Terminal metadata crosses groups with the content.
	if src.TerminalID != "" {
		if term, ok := srcGroup.terminals[src.TerminalID]; ok {
			delete(srcGroup.terminals, src.TerminalID)
			dstGroup.terminals[term.ID] = term
		}
	}
	if dst.TerminalID != "" {
		if term, ok := dstGroup.terminals[dst.TerminalID]; ok {
			delete(dstGroup.terminals, dst.TerminalID)
			srcGroup.terminals[term.ID] = term
		}
	}

	src.Content, dst.Content = dst.Content, src.Content
	src.TerminalID, dst.TerminalID = dst.TerminalID, src.TerminalID

	notify := t.changeFn()
	t.mu.Unlock()
	if notify != nil {
		notify(srcGroupID)
		notify(dstGroupID)
	}
	return nil
}

// detachLeafLocked removes a leaf from its group, promoting the sibling.
// Terminal metadata is intentionally left for the caller to move.
func (t *Tree) detachLeafLocked(groupID string, leaf *Node) {
	g := t.groups[groupID]
	if g.maximizedPane == leaf.ID {
		g.maximizedPane = ""
	}

	if g.root.ID == leaf.ID {
		delete(t.groups, groupID)
		return
	}

	_, parent := g.root.find(leaf.ID)
	sibling := parent.Children[0]
	if sibling.ID == leaf.ID {
		sibling = parent.Children[1]
	}
	*parent = *sibling
}
