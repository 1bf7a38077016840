package console

import (
	"testing"

	"github.com/OptimiLabs/velocity-sub007/pkg/layout"
	"github.com/OptimiLabs/velocity-sub007/pkg/protocol"
	"github.com/OptimiLabs/velocity-sub007/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileGroupsMerge(t *testing.T) {
	t.Chdir(t.TempDir())
	f := newFixture(t, nil)

	// One group exists only locally.
	f.store.PutGroup(&Group{ID: "local-g", Label: "local", CreatedAt: 10})
	f.tree.EnsureGroup("local-g")

	f.core.HandleResumableGroups(1, protocol.ResumableGroups{
		Groups: []protocol.GroupInfo{
			{ID: "g1", Label: "api work", CreatedAt: 5, LastActivityAt: 6},
		},
	})

	_, ok := f.store.Group("g1")
	assert.True(t, ok, "server group created locally")
	_, ok = f.store.Group("local-g")
	assert.True(t, ok, "local group survives")
	assert.ElementsMatch(t, []string{"g1", "local-g"}, f.tree.Groups())

	creates := framesOf[protocol.GroupCreate](f.sender)
	require.Len(t, creates, 1, "only the local-only group is pushed")
	assert.Equal(t, "local-g", creates[0].GroupID)
}

func TestReconcileGroupsOncePerEpoch(t *testing.T) {
	t.Chdir(t.TempDir())
	f := newFixture(t, nil)

	frame := protocol.ResumableGroups{Groups: []protocol.GroupInfo{{ID: "g1", Label: "one"}}}
	f.core.HandleResumableGroups(1, frame)
	f.store.UpdateGroup("g1", func(g *Group) { g.Label = "renamed locally" })

	// A replayed frame for the same epoch must not clobber local state.
	f.core.HandleResumableGroups(1, frame)
	g, _ := f.store.Group("g1")
	assert.Equal(t, "renamed locally", g.Label)

	// The next epoch reconciles again.
	f.core.HandleResumableGroups(2, frame)
	g, _ = f.store.Group("g1")
	assert.Equal(t, "one", g.Label)
}

func TestReconcileSessionRebuiltFromTerminal(t *testing.T) {
	t.Chdir(t.TempDir())
	f := newFixture(t, nil)
	f.tree.RegisterTerminal("g1", &layout.Terminal{
		ID: "t1", Command: "claude", SessionID: "s1", State: layout.TerminalRunning,
	})

	f.core.HandleResumableSessions(1, protocol.ResumableSessions{
		Sessions: []protocol.SessionInfo{
			{ID: "s1", Label: "fix-auth", Cwd: "/work", GroupID: "g2", CreatedAt: 7},
		},
	})

	sess, ok := f.store.Session("s1")
	require.True(t, ok)
	assert.Equal(t, StatusActive, sess.Status)
	assert.Equal(t, "t1", sess.TerminalID)
	assert.Equal(t, "claude", sess.Provider, "provider inferred from the launch command")
	assert.Equal(t, "g1", sess.GroupID, "the terminal's live group wins")

	setGroups := framesOf[protocol.SessionSetGroup](f.sender)
	require.Len(t, setGroups, 1, "disagreement pushed back to the backend")
	assert.Equal(t, "g1", setGroups[0].GroupID)
}

func TestReconcileExitedTerminalYieldsIdleSession(t *testing.T) {
	t.Chdir(t.TempDir())
	f := newFixture(t, nil)
	code := 0
	f.tree.RegisterTerminal("g1", &layout.Terminal{
		ID: "t1", Command: "claude", SessionID: "s1",
		State: layout.TerminalExited, ExitCode: &code,
	})

	f.core.HandleResumableSessions(1, protocol.ResumableSessions{
		Sessions: []protocol.SessionInfo{{ID: "s1", Label: "done", GroupID: "g1"}},
	})

	sess, ok := f.store.Session("s1")
	require.True(t, ok)
	assert.Equal(t, StatusIdle, sess.Status)
	assert.Empty(t, sess.TerminalID)
}

func TestReconcileOrphanSessionRemoved(t *testing.T) {
	t.Chdir(t.TempDir())
	f := newFixture(t, nil)

	f.core.HandleResumableSessions(1, protocol.ResumableSessions{
		Sessions: []protocol.SessionInfo{{ID: "ghost", Label: "no terminal"}},
	})

	_, ok := f.store.Session("ghost")
	assert.False(t, ok)
	removes := framesOf[protocol.RemoveSession](f.sender)
	require.Len(t, removes, 1)
	assert.Equal(t, "ghost", removes[0].ConsoleSessionID)
}

func TestReconcileHonorsPendingDeletions(t *testing.T) {
	t.Chdir(t.TempDir())
	f := newFixture(t, nil)

	st, err := state.Load()
	require.NoError(t, err)
	st.AddPendingDeletion("s9")
	require.NoError(t, state.Save(st))

	// Even though a terminal survived, the user deleted s9 while offline.
	f.tree.RegisterTerminal("g1", &layout.Terminal{
		ID: "t9", SessionID: "s9", State: layout.TerminalRunning,
	})

	f.core.HandleResumableSessions(1, protocol.ResumableSessions{
		Sessions: []protocol.SessionInfo{{ID: "s9", Label: "deleted offline"}},
	})

	_, ok := f.store.Session("s9")
	assert.False(t, ok)
	removes := framesOf[protocol.RemoveSession](f.sender)
	require.Len(t, removes, 1)
	assert.Equal(t, "s9", removes[0].ConsoleSessionID)

	st, err = state.Load()
	require.NoError(t, err)
	assert.Empty(t, st.PendingDeletions(), "queued deletion cleared after delivery")
}

func TestReconcilePrunesOrphanTerminals(t *testing.T) {
	t.Chdir(t.TempDir())
	f := newFixture(t, nil)
	f.tree.RegisterTerminal("g1", &layout.Terminal{
		ID: "t1", SessionID: "s1", State: layout.TerminalRunning,
	})
	f.tree.RegisterTerminal("g1", &layout.Terminal{
		ID: "t2", SessionID: "zombie", State: layout.TerminalRunning,
	})

	f.core.HandleResumableSessions(1, protocol.ResumableSessions{
		Sessions: []protocol.SessionInfo{{ID: "s1", Label: "alive", GroupID: "g1"}},
	})

	_, _, ok := f.tree.Terminal("t1")
	assert.True(t, ok, "terminal with a live session survives")
	_, _, ok = f.tree.Terminal("t2")
	assert.False(t, ok, "terminal bound to an unknown session is pruned")
}

func TestReconcileIdempotentByID(t *testing.T) {
	t.Chdir(t.TempDir())
	f := newFixture(t, nil)
	f.tree.RegisterTerminal("g1", &layout.Terminal{
		ID: "t1", SessionID: "s1", State: layout.TerminalRunning,
	})

	// A duplicate entry inside one frame must not double anything.
	f.core.HandleResumableSessions(1, protocol.ResumableSessions{
		Sessions: []protocol.SessionInfo{
			{ID: "s1", Label: "first", GroupID: "g1"},
			{ID: "s1", Label: "first", GroupID: "g1"},
		},
	})

	assert.Len(t, f.store.Sessions(), 1)
	assert.Len(t, f.tree.TerminalsForSession("s1"), 1)
}

func TestReconcileRepersistsOfflineCreations(t *testing.T) {
	t.Chdir(t.TempDir())
	f := newFixture(t, nil)

	// Created while disconnected: local record + terminal, unknown upstream.
	sess, err := f.core.Create(CreateOptions{Label: "offline-born", GroupID: "g1"})
	require.NoError(t, err)
	f.sender.mu.Lock()
	f.sender.frames = nil
	f.sender.mu.Unlock()

	f.core.HandleResumableSessions(1, protocol.ResumableSessions{})

	_, ok := f.store.Session(sess.ID)
	assert.True(t, ok, "offline-created session survives reconciliation")
	persists := framesOf[protocol.SessionPersist](f.sender)
	require.Len(t, persists, 1)
	assert.Equal(t, sess.ID, persists[0].ConsoleSessionID)
}

func TestOnConnectSyncsTerminalsAfterHydration(t *testing.T) {
	t.Chdir(t.TempDir())
	f := newFixture(t, nil)
	f.tree.RegisterTerminal("g1", &layout.Terminal{
		ID: "t1", SessionID: "s1", State: layout.TerminalRunning,
	})

	f.core.HandleResumableGroups(1, protocol.ResumableGroups{
		Groups: []protocol.GroupInfo{{ID: "g1"}},
	})
	f.core.HandleResumableSessions(1, protocol.ResumableSessions{
		Sessions: []protocol.SessionInfo{{ID: "s1", GroupID: "g1"}},
	})

	f.core.OnConnect(1)

	timeouts := framesOf[protocol.OrphanTimeout](f.sender)
	require.Len(t, timeouts, 1)
	assert.Equal(t, 60000, timeouts[0].TimeoutMs)

	syncs := framesOf[protocol.PtySyncActive](f.sender)
	require.Len(t, syncs, 1)
	assert.Equal(t, []string{"t1"}, syncs[0].TerminalIDs)
}

func TestSyncWaitsForHydration(t *testing.T) {
	t.Chdir(t.TempDir())
	f := newFixture(t, nil)

	// Epoch 2 never hydrates; the bounded retry loop must give up without
	// sending a sync frame.
	f.core.syncActiveTerminals(2)
	assert.Empty(t, framesOf[protocol.PtySyncActive](f.sender))
}
