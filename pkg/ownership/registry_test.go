package ownership

import (
	"testing"
	"time"

	"github.com/OptimiLabs/velocity-sub007/pkg/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCachesAndValidates(t *testing.T) {
	tree := layout.NewTree()
	a := tree.RegisterTerminal("g1", &layout.Terminal{ID: "t1", SessionID: "s1", State: layout.TerminalRunning})
	tree.SplitLeaf("g1", a, layout.Horizontal)
	b := tree.RegisterTerminal("g2", &layout.Terminal{ID: "t2", SessionID: "s2", State: layout.TerminalRunning})

	reg := NewRegistry(tree)

	owner, ok := reg.Resolve("t1")
	require.True(t, ok)
	assert.Equal(t, Owner{GroupID: "g1", SessionID: "s1"}, owner)

	// Move the pane to another group behind the registry's back; the stale
	// cache entry must be dropped and rescanned, not trusted.
	require.NoError(t, tree.MovePane("g1", a, "g2", b, layout.ZoneRight))

	owner, ok = reg.Resolve("t1")
	require.True(t, ok)
	assert.Equal(t, "g2", owner.GroupID)
}

func TestResolveUnknownTerminal(t *testing.T) {
	reg := NewRegistry(layout.NewTree())
	_, ok := reg.Resolve("nope")
	assert.False(t, ok)
}

func TestResolveTracksSessionRebind(t *testing.T) {
	tree := layout.NewTree()
	tree.RegisterTerminal("g1", &layout.Terminal{ID: "t1", SessionID: "s1", State: layout.TerminalRunning})
	reg := NewRegistry(tree)

	owner, ok := reg.Resolve("t1")
	require.True(t, ok)
	assert.Equal(t, "s1", owner.SessionID)

	require.NoError(t, tree.BindSession("t1", "s9"))
	owner, ok = reg.Resolve("t1")
	require.True(t, ok)
	assert.Equal(t, "s9", owner.SessionID)
}

func TestBumpActivityThrottle(t *testing.T) {
	tree := layout.NewTree()
	tree.RegisterTerminal("g1", &layout.Terminal{ID: "t1", SessionID: "s1", State: layout.TerminalRunning})

	reg := NewRegistry(tree)
	now := time.Unix(1000, 0)
	reg.now = func() time.Time { return now }

	groupID, fired := reg.BumpActivity("t1")
	require.True(t, fired)
	assert.Equal(t, "g1", groupID)

	// Output frames inside the window are swallowed.
	now = now.Add(10 * time.Second)
	_, fired = reg.BumpActivity("t1")
	assert.False(t, fired)

	now = now.Add(25 * time.Second)
	_, fired = reg.BumpActivity("t1")
	assert.True(t, fired)
}

func TestBumpActivityUnknownTerminal(t *testing.T) {
	reg := NewRegistry(layout.NewTree())
	_, fired := reg.BumpActivity("ghost")
	assert.False(t, fired)
}
