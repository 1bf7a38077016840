package layout

import (
	"github.com/OptimiLabs/velocity-sub007/errors"
)

// RegisterTerminal records terminal metadata in a group and opens a pane for
// it. Returns the new leaf id.
func (t *Tree) RegisterTerminal(groupID string, term *Terminal) string {
	t.mu.Lock()
	g := t.ensureGroupLocked(groupID)
	g.terminals[term.ID] = term
	t.mu.Unlock()

	return t.OpenPane(groupID, ContentTerminal, term.ID)
}

// ReleaseTerminal drops a terminal's metadata and closes its pane if one is
// bound to it.
func (t *Tree) ReleaseTerminal(terminalID string) {
	t.mu.Lock()

	var groupID, leafID string
	for gid, g := range t.groups {
		if _, ok := g.terminals[terminalID]; !ok {
			continue
		}
		delete(g.terminals, terminalID)
		groupID = gid
		if g.root != nil {
			g.root.walkLeaves(func(n *Node) {
				if n.TerminalID == terminalID {
					leafID = n.ID
				}
			})
		}
		break
	}
	t.mu.Unlock()

	if leafID != "" {
		_, _ = t.CloseLeaf(groupID, leafID)
	}
}

// Terminal returns a terminal's metadata and its group.
func (t *Tree) Terminal(terminalID string) (*Terminal, string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for gid, g := range t.groups {
		if term, ok := g.terminals[terminalID]; ok {
			return term, gid, true
		}
	}
	return nil, "", false
}

// GroupContainsTerminal reports whether the group's metadata map holds the
// terminal. The ownership registry uses this to validate cache hits.
func (t *Tree) GroupContainsTerminal(groupID, terminalID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	g, ok := t.groups[groupID]
	if !ok {
		return false
	}
	_, ok = g.terminals[terminalID]
	return ok
}

// TerminalForSession returns the terminal bound to a session id, if any.
// Reconciliation uses this to reconstruct sessions from surviving terminals.
func (t *Tree) TerminalForSession(sessionID string) (*Terminal, string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for gid, g := range t.groups {
		for _, term := range g.terminals {
			if term.SessionID == sessionID {
				return term, gid, true
			}
		}
	}
	return nil, "", false
}

// AllTerminalIDs returns every known terminal id across all groups, for the
// post-connect ownership sync.
func (t *Tree) AllTerminalIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var ids []string
	for _, g := range t.groups {
		for id := range g.terminals {
			ids = append(ids, id)
		}
	}
	return ids
}

// TerminalsForSession returns all terminal ids bound to a session across all
// groups. Archive and remove close each of them.
func (t *Tree) TerminalsForSession(sessionID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var ids []string
	for _, g := range t.groups {
		for id, term := range g.terminals {
			if term.SessionID == sessionID {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// PruneTerminals releases every terminal whose session id is not in keep.
// Reconciliation calls this after merging server sessions to drop orphans.
func (t *Tree) PruneTerminals(keep map[string]bool) []string {
	t.mu.RLock()
	var orphaned []string
	for _, g := range t.groups {
		for id, term := range g.terminals {
			if term.SessionID != "" && !keep[term.SessionID] {
				orphaned = append(orphaned, id)
			}
		}
	}
	t.mu.RUnlock()

	for _, id := range orphaned {
		t.ReleaseTerminal(id)
	}
	return orphaned
}

// SetTerminalState updates a terminal's lifecycle state and exit code.
func (t *Tree) SetTerminalState(terminalID string, state TerminalState, exitCode *int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, g := range t.groups {
		if term, ok := g.terminals[terminalID]; ok {
			term.State = state
			term.ExitCode = exitCode
			return nil
		}
	}
	return errors.New(errors.ErrCodeTerminalNotFound, "terminal not registered").
		WithDetail("terminalId", terminalID)
}

// SetTerminalCwd records a working-directory change.
func (t *Tree) SetTerminalCwd(terminalID, cwd string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, g := range t.groups {
		if term, ok := g.terminals[terminalID]; ok {
			term.Cwd = cwd
			return nil
		}
	}
	return errors.New(errors.ErrCodeTerminalNotFound, "terminal not registered").
		WithDetail("terminalId", terminalID)
}

// BindSession rebinds a terminal to a session id.
func (t *Tree) BindSession(terminalID, sessionID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, g := range t.groups {
		if term, ok := g.terminals[terminalID]; ok {
			term.SessionID = sessionID
			return nil
		}
	}
	return errors.New(errors.ErrCodeTerminalNotFound, "terminal not registered").
		WithDetail("terminalId", terminalID)
}
