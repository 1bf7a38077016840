package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTwoSessionGroup makes one group with a terminal pane per session.
func buildTwoSessionGroup(t *testing.T) (*Tree, string, string) {
	t.Helper()
	tree := NewTree()
	a := tree.RegisterTerminal("g1", &Terminal{ID: "t1", SessionID: "s1", State: TerminalRunning})
	b := tree.RegisterTerminal("g1", &Terminal{ID: "t2", SessionID: "s2", State: TerminalRunning})
	return tree, a, b
}

func TestEffectiveLayoutNoFilterShowsEverything(t *testing.T) {
	tree, _, _ := buildTwoSessionGroup(t)

	root := tree.EffectiveLayout("g1", VisibilityContext{})
	require.NotNil(t, root)
	assert.True(t, root.Visible)
	assert.True(t, root.Children[0].Visible)
	assert.True(t, root.Children[1].Visible)
	assert.InDelta(t, 100, root.Sizes[0]+root.Sizes[1], 0.001)
}

func TestEffectiveLayoutCollapsesFilteredPane(t *testing.T) {
	tree, _, _ := buildTwoSessionGroup(t)

	root := tree.EffectiveLayout("g1", VisibilityContext{ActiveSessionID: "s1"})
	require.NotNil(t, root)
	assert.True(t, root.Children[0].Visible)
	assert.False(t, root.Children[1].Visible)
	// The invisible side collapses to zero; the sibling takes everything.
	assert.Equal(t, [2]float64{100, 0}, root.Sizes)
}

func TestEffectiveLayoutFocusedPaneStaysVisible(t *testing.T) {
	tree, _, b := buildTwoSessionGroup(t)

	root := tree.EffectiveLayout("g1", VisibilityContext{ActiveSessionID: "s1", FocusedPaneID: b})
	require.NotNil(t, root)
	// The focused pane is exempt from the filter to avoid a flash during
	// session switches.
	assert.True(t, root.Children[1].Visible)
	assert.InDelta(t, 100, root.Sizes[0]+root.Sizes[1], 0.001)
}

func TestEffectiveLayoutRestoresRatioAfterExpand(t *testing.T) {
	tree, _, _ := buildTwoSessionGroup(t)
	splitID := tree.Root("g1").ID

	// User drags the divider while both panes are visible.
	require.NoError(t, tree.NotifyUserResize("g1", splitID, [2]float64{70, 30}))

	// Collapse one side, then bring it back.
	collapsed := tree.EffectiveLayout("g1", VisibilityContext{ActiveSessionID: "s1"})
	assert.Equal(t, [2]float64{100, 0}, collapsed.Sizes)

	expanded := tree.EffectiveLayout("g1", VisibilityContext{})
	assert.InDelta(t, 70, expanded.Sizes[0], 0.001)
	assert.InDelta(t, 30, expanded.Sizes[1], 0.001)
}

func TestEffectiveLayoutNeverBlankSplit(t *testing.T) {
	tree, _, _ := buildTwoSessionGroup(t)

	// A filter matching neither session would leave both children invisible.
	root := tree.EffectiveLayout("g1", VisibilityContext{ActiveSessionID: "s-elsewhere"})
	require.NotNil(t, root)
	assert.True(t, root.Visible)
	assert.True(t, root.Children[0].Visible || root.Children[1].Visible,
		"a split must never render with both children invisible")
}

func TestEffectiveLayoutMaximize(t *testing.T) {
	tree, a, _ := buildTwoSessionGroup(t)

	require.NoError(t, tree.Maximize("g1", a))
	root := tree.EffectiveLayout("g1", VisibilityContext{})
	require.NotNil(t, root)
	// Only the maximized branch renders.
	assert.Equal(t, a, root.Node.ID)

	tree.Restore("g1")
	root = tree.EffectiveLayout("g1", VisibilityContext{})
	assert.False(t, root.Node.IsLeaf())
}

func TestProgrammaticResizeSuppressesNotifications(t *testing.T) {
	tree, _, _ := buildTwoSessionGroup(t)

	var notifications []string
	tree.OnChange(func(groupID string) {
		notifications = append(notifications, groupID)
		// A UI that echoes layout changes back as resize events must not
		// loop; the guard drops the echo while the tree is mid-resolve.
	})

	before := len(notifications)
	tree.EffectiveLayout("g1", VisibilityContext{ActiveSessionID: "s1"})
	tree.EffectiveLayout("g1", VisibilityContext{})
	assert.Equal(t, before, len(notifications),
		"collapse/expand resolution must not emit change notifications")
}

func TestEffectiveLayoutNodesAreSnapshots(t *testing.T) {
	tree, _, _ := buildTwoSessionGroup(t)
	splitID := tree.Root("g1").ID

	root := tree.EffectiveLayout("g1", VisibilityContext{})
	require.NotNil(t, root)
	sizesBefore := root.Node.Sizes

	require.NoError(t, tree.ResizeSplit("g1", splitID, [2]float64{80, 20}))

	// The resolved panes must not alias the live tree after the call.
	assert.Equal(t, sizesBefore, root.Node.Sizes)
	assert.Equal(t, [2]float64{80, 20}, tree.Root("g1").Sizes)
}

func TestConcurrentRenderAndMutate(t *testing.T) {
	tree, a, _ := buildTwoSessionGroup(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			leaf, err := tree.SplitLeaf("g1", a, Vertical)
			if err != nil {
				return
			}
			if _, err := tree.CloseLeaf("g1", leaf); err != nil {
				return
			}
		}
	}()

	for i := 0; i < 200; i++ {
		if root := tree.EffectiveLayout("g1", VisibilityContext{ActiveSessionID: "s1"}); root != nil {
			root.Node.walkLeaves(func(*Node) {})
		}
		tree.Leaves("g1")
	}
	<-done
}
