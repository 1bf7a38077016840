package layout

// VisibilityContext controls which panes render under a multi-session view.
type VisibilityContext struct {
	// ActiveSessionID filters terminal panes to one session; empty means no
	// filter.
	ActiveSessionID string
	// FocusedPaneID stays visible regardless of the filter, so a session
	// switch does not flash the focused pane out and back in.
	FocusedPaneID string
}

// RenderPane is a resolved node of the effective layout: visibility applied,
// collapsed panes carried with zero size, maximize honored. Node is a
// snapshot copy, safe to read after the call without holding the tree's
// lock.
type RenderPane struct {
	Node     *Node
	Visible  bool
	Sizes    [2]float64
	Children [2]*RenderPane
}

// EffectiveLayout resolves a group's tree against the visibility context.
// When exactly one child of a split is invisible, that side collapses to
// zero and the sibling expands to 100; invisible panes stay in the result
// (mounted, zero-sized). When both children are visible again the split's
// last both-visible ratio is restored onto the tree. A both-invisible split
// renders its first child at full size to avoid a blank split.
//
// Tree mutations performed here (ratio restoration) run with the
// programmatic flag set, so they never re-enter via change notifications.
func (t *Tree) EffectiveLayout(groupID string, vis VisibilityContext) *RenderPane {
	t.mu.Lock()
	defer t.mu.Unlock()

	g, ok := t.groups[groupID]
	if !ok || g.root == nil {
		return nil
	}

	t.programmatic = true
	defer func() { t.programmatic = false }()

	root := g.root
	if g.maximizedPane != "" {
		if node, _ := g.root.find(g.maximizedPane); node != nil {
			root = node
		}
	}

	return t.resolveLocked(g, root, vis)
}

func (t *Tree) resolveLocked(g *groupLayout, n *Node, vis VisibilityContext) *RenderPane {
	if n.IsLeaf() {
		snap := *n
		return &RenderPane{Node: &snap, Visible: t.leafVisibleLocked(g, n, vis)}
	}

	first := t.resolveLocked(g, n.Children[0], vis)
	second := t.resolveLocked(g, n.Children[1], vis)

	// The pane carries a snapshot so renderers may keep reading it after
	// the lock is released; only the live node is mutated below.
	snap := *n
	snap.Children = [2]*Node{first.Node, second.Node}
	pane := &RenderPane{
		Node:     &snap,
		Visible:  first.Visible || second.Visible,
		Children: [2]*RenderPane{first, second},
	}

	switch {
	case first.Visible && second.Visible:
		// Both visible: restore the last ratio captured while both were
		// simultaneously visible, and keep capturing the current one.
		n.Sizes = n.lastBothVisible
		snap.Sizes = n.Sizes
		pane.Sizes = n.Sizes
	case first.Visible:
		pane.Sizes = [2]float64{100, 0}
	case second.Visible:
		pane.Sizes = [2]float64{0, 100}
	default:
		// Never render a fully blank split: fall back to the first child.
		first.Visible = true
		pane.Visible = true
		pane.Sizes = [2]float64{100, 0}
	}

	return pane
}

// leafVisibleLocked implements the multi-session visibility rule: visible
// when no filter is active, when the bound session matches, or when the leaf
// is the focused pane.
func (t *Tree) leafVisibleLocked(g *groupLayout, n *Node, vis VisibilityContext) bool {
	if vis.ActiveSessionID == "" {
		return true
	}
	if n.ID == vis.FocusedPaneID {
		return true
	}
	if n.Content != ContentTerminal || n.TerminalID == "" {
		return true
	}
	term, ok := g.terminals[n.TerminalID]
	if !ok {
		return true
	}
	return term.SessionID == vis.ActiveSessionID
}

// NotifyUserResize is the entry point for size changes originating from the
// UI's pane widgets. Notifications that arrive while the tree itself is
// resizing programmatically are dropped, which makes the resize feedback
// loop structurally impossible.
func (t *Tree) NotifyUserResize(groupID, splitID string, sizes [2]float64) error {
	t.mu.RLock()
	programmatic := t.programmatic
	t.mu.RUnlock()
	if programmatic {
		return nil
	}
	return t.ResizeSplit(groupID, splitID, sizes)
}
