// Package ownership maintains the derived cache mapping a terminal id to the
// group and session that currently own it. The layout tree stays the source
// of truth; every cache hit is validated against it and stale entries are
// rebuilt by a full scan.
package ownership

import (
	"sync"
	"time"

	"github.com/OptimiLabs/velocity-sub007/pkg/layout"
)

// Owner identifies the group and session a terminal belongs to.
type Owner struct {
	GroupID   string
	SessionID string
}

// activityThrottle is the minimum interval between group-activity bumps per
// terminal. Raw output frames arrive at high frequency; bumping on every
// byte would trigger a full ownership scan per byte.
const activityThrottle = 30 * time.Second

// Registry resolves terminal ownership with a validated cache.
type Registry struct {
	mu    sync.Mutex
	tree  *layout.Tree
	cache map[string]Owner

	lastActivity map[string]time.Time
	now          func() time.Time
}

// NewRegistry creates a registry deriving from the given layout tree.
func NewRegistry(tree *layout.Tree) *Registry {
	return &Registry{
		tree:         tree,
		cache:        make(map[string]Owner),
		lastActivity: make(map[string]time.Time),
		now:          time.Now,
	}
}

// Resolve returns the owner of a terminal. A cached entry is only trusted if
// the cached group still contains the terminal; otherwise the entry is
// dropped and one full scan across all groups finds the new owner (or
// concludes there is none).
func (r *Registry) Resolve(terminalID string) (Owner, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.cache[terminalID]; ok {
		if r.tree.GroupContainsTerminal(owner.GroupID, terminalID) {
			// Session binding may have changed without a group move.
			if term, _, found := r.tree.Terminal(terminalID); found {
				owner.SessionID = term.SessionID
				r.cache[terminalID] = owner
			}
			return owner, true
		}
		delete(r.cache, terminalID)
	}

	term, groupID, found := r.tree.Terminal(terminalID)
	if !found {
		return Owner{}, false
	}

	owner := Owner{GroupID: groupID, SessionID: term.SessionID}
	r.cache[terminalID] = owner
	return owner, true
}

// Invalidate drops a cached entry, forcing the next Resolve to rescan.
func (r *Registry) Invalidate(terminalID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, terminalID)
	delete(r.lastActivity, terminalID)
}

// BumpActivity reports whether a group-activity bump should fire for output
// on this terminal, throttled to once per 30 seconds per terminal. When it
// fires, the owning group id is returned.
func (r *Registry) BumpActivity(terminalID string) (string, bool) {
	r.mu.Lock()
	last, seen := r.lastActivity[terminalID]
	ts := r.now()
	if seen && ts.Sub(last) < activityThrottle {
		r.mu.Unlock()
		return "", false
	}
	r.lastActivity[terminalID] = ts
	r.mu.Unlock()

	owner, ok := r.Resolve(terminalID)
	if !ok {
		return "", false
	}
	return owner.GroupID, true
}
