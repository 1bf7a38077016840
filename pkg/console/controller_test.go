package console

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	velocityerrors "github.com/OptimiLabs/velocity-sub007/errors"
	"github.com/OptimiLabs/velocity-sub007/pkg/archive"
	"github.com/OptimiLabs/velocity-sub007/pkg/protocol"
	"github.com/OptimiLabs/velocity-sub007/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSession(t *testing.T) {
	f := newFixture(t, nil)

	sess, err := f.core.Create(CreateOptions{Label: "fix-auth", Cwd: "/work/api"})
	require.NoError(t, err)

	assert.Equal(t, StatusActive, sess.Status)
	assert.Equal(t, "claude", sess.Provider)
	assert.Equal(t, "claude-sonnet-4", sess.Model, "provider default model applies")
	assert.Equal(t, "medium", sess.Effort)
	assert.NotEmpty(t, sess.TerminalID)
	assert.NotEmpty(t, sess.GroupID)

	// Terminal registered and owned.
	term, groupID, ok := f.tree.Terminal(sess.TerminalID)
	require.True(t, ok)
	assert.Equal(t, sess.GroupID, groupID)
	assert.Equal(t, "claude", term.Command)
	assert.Contains(t, term.Args, "--model")

	owner, ok := f.owners.Resolve(sess.TerminalID)
	require.True(t, ok)
	assert.Equal(t, sess.ID, owner.SessionID)

	// Persistence pushed.
	persists := framesOf[protocol.SessionPersist](f.sender)
	require.Len(t, persists, 1)
	assert.Equal(t, sess.ID, persists[0].ConsoleSessionID)
	groups := framesOf[protocol.GroupCreate](f.sender)
	require.Len(t, groups, 1)
	setGroups := framesOf[protocol.SessionSetGroup](f.sender)
	require.Len(t, setGroups, 1)
	assert.Equal(t, sess.GroupID, setGroups[0].GroupID)
}

func TestCreateDisabledProvider(t *testing.T) {
	f := newFixture(t, nil)

	sess, err := f.core.Create(CreateOptions{Label: "try-codex", Provider: "codex"})

	require.Error(t, err)
	assert.True(t, velocityerrors.Is(err, velocityerrors.ErrCodeProviderDisabled))
	assert.Contains(t, err.Error(), "providers.codex", "error names the settings location")
	assert.Nil(t, sess, "no session id allocated")
	assert.Empty(t, f.store.Sessions())
	assert.Empty(t, f.tree.Groups(), "layout unchanged")
	assert.Empty(t, f.sender.sent(), "nothing pushed to the backend")
	assert.Empty(t, *f.notices, "user-triggered refusal is an error, not a notice")
}

func TestCreateDisabledProviderAuto(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.core.Create(CreateOptions{Label: "auto", Provider: "codex", Auto: true})

	require.Error(t, err)
	require.Len(t, *f.notices, 1, "auto-triggered refusal surfaces as one muted notice")
}

func TestCreateShellSkipsProviderPolicy(t *testing.T) {
	f := newFixture(t, nil)

	sess, err := f.core.Create(CreateOptions{Label: "scratch", Kind: KindShell})
	require.NoError(t, err)
	assert.Empty(t, sess.Provider)

	term, _, ok := f.tree.Terminal(sess.TerminalID)
	require.True(t, ok)
	assert.Equal(t, "sh", term.Command)
}

func TestStopAndRestart(t *testing.T) {
	f := newFixture(t, nil)
	sess, err := f.core.Create(CreateOptions{Label: "loop", Cwd: "/work"})
	require.NoError(t, err)
	firstTerminal := sess.TerminalID

	require.NoError(t, f.core.Stop(sess.ID))

	stopped, _ := f.store.Session(sess.ID)
	assert.Equal(t, StatusIdle, stopped.Status)
	assert.Empty(t, stopped.TerminalID)
	_, _, ok := f.tree.Terminal(firstTerminal)
	assert.False(t, ok, "terminal released from the layout")
	closes := framesOf[protocol.PtyClose](f.sender)
	require.Len(t, closes, 1)
	assert.Equal(t, firstTerminal, closes[0].TerminalID)

	require.NoError(t, f.core.SetModel(sess.ID, "claude-opus-4"))
	require.NoError(t, f.core.Restart(sess.ID))

	restarted, _ := f.store.Session(sess.ID)
	assert.Equal(t, StatusActive, restarted.Status)
	assert.NotEmpty(t, restarted.TerminalID)
	assert.NotEqual(t, firstTerminal, restarted.TerminalID)

	term, _, ok := f.tree.Terminal(restarted.TerminalID)
	require.True(t, ok)
	assert.Contains(t, term.Args, "claude-opus-4", "stored override applied at restart")
}

func TestRestartDisabledProvider(t *testing.T) {
	f := newFixture(t, nil)
	sess, err := f.core.Create(CreateOptions{Label: "x"})
	require.NoError(t, err)

	// Force the session onto the disabled provider, as if config changed.
	f.store.UpdateSession(sess.ID, func(s *Session) { s.Provider = "codex" })

	err = f.core.Restart(sess.ID)
	require.Error(t, err)
	assert.True(t, velocityerrors.Is(err, velocityerrors.ErrCodeProviderDisabled))
}

func TestRemove(t *testing.T) {
	f := newFixture(t, nil)
	sess, err := f.core.Create(CreateOptions{Label: "bye"})
	require.NoError(t, err)

	require.NoError(t, f.core.Remove(sess.ID))

	_, ok := f.store.Session(sess.ID)
	assert.False(t, ok)
	assert.Len(t, framesOf[protocol.PtyClose](f.sender), 1)
	removes := framesOf[protocol.RemoveSession](f.sender)
	require.Len(t, removes, 1)
	assert.Equal(t, sess.ID, removes[0].ConsoleSessionID)

	assert.True(t, velocityerrors.Is(f.core.Remove("nope"), velocityerrors.ErrCodeSessionNotFound))
}

func TestRemoveOfflineQueuesDeletion(t *testing.T) {
	t.Chdir(t.TempDir())
	f := newFixture(t, nil)
	sess, err := f.core.Create(CreateOptions{Label: "bye"})
	require.NoError(t, err)

	f.sender.mu.Lock()
	f.sender.open = false
	f.sender.mu.Unlock()

	require.NoError(t, f.core.Remove(sess.ID))

	st, err := state.Load()
	require.NoError(t, err)
	assert.Contains(t, st.PendingDeletions(), sess.ID)
}

func TestRemovingLastSessionDropsGroup(t *testing.T) {
	f := newFixture(t, nil)
	first, err := f.core.Create(CreateOptions{Label: "one"})
	require.NoError(t, err)
	second, err := f.core.Create(CreateOptions{Label: "two", GroupID: first.GroupID})
	require.NoError(t, err)

	require.NoError(t, f.core.Remove(first.ID))
	_, ok := f.store.Group(first.GroupID)
	assert.True(t, ok, "group survives while a session remains")

	require.NoError(t, f.core.Remove(second.ID))
	_, ok = f.store.Group(first.GroupID)
	assert.False(t, ok, "removing the last session destroys the group")
	assert.False(t, f.tree.HasGroup(first.GroupID))
}

func TestArchiveClosesTerminalsAndRemoves(t *testing.T) {
	var archived archive.ArchivedSession
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&archived))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := newFixture(t, archive.NewClient(server.URL))
	sess, err := f.core.Create(CreateOptions{Label: "done", Cwd: "/work"})
	require.NoError(t, err)

	require.NoError(t, f.core.Archive(context.Background(), sess.ID))

	_, ok := f.store.Session(sess.ID)
	assert.False(t, ok, "record removed locally")
	assert.Empty(t, f.tree.TerminalsForSession(sess.ID), "all linked terminals closed")
	assert.Len(t, framesOf[protocol.PtyClose](f.sender), 1)
	assert.Len(t, framesOf[protocol.RemoveSession](f.sender), 1)

	assert.Equal(t, sess.ID, archived.Session.ID)
	require.Len(t, archived.Terminals, 1)
	assert.Equal(t, "claude", archived.Terminals[0].Command)

	_, ok = f.store.Group(sess.GroupID)
	assert.False(t, ok, "archiving the last session destroys the group")
	assert.False(t, f.tree.HasGroup(sess.GroupID))
}

func TestArchiveFailureLeavesStateUntouched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "storage full", http.StatusInternalServerError)
	}))
	defer server.Close()

	f := newFixture(t, archive.NewClient(server.URL))
	sess, err := f.core.Create(CreateOptions{Label: "keep"})
	require.NoError(t, err)
	sentBefore := len(f.sender.sent())

	err = f.core.Archive(context.Background(), sess.ID)
	require.Error(t, err)
	assert.True(t, velocityerrors.Is(err, velocityerrors.ErrCodeArchiveFailed))

	got, ok := f.store.Session(sess.ID)
	require.True(t, ok, "session survives a failed archive")
	assert.Equal(t, StatusActive, got.Status)
	assert.Len(t, f.tree.TerminalsForSession(sess.ID), 1, "terminal survives")
	assert.Len(t, f.sender.sent(), sentBefore, "nothing pushed on failure")
}

func TestRestoreYieldsIdleSession(t *testing.T) {
	record := archive.ArchivedSession{
		Session: archive.SessionRecord{
			ID:        "s-old",
			Label:     "revived",
			Cwd:       "/work",
			Provider:  "claude",
			Model:     "claude-sonnet-4",
			GroupID:   "g-old",
			CreatedAt: 42,
		},
		Terminals: []archive.TerminalRecord{
			{ID: "t-old", Command: "claude", Cwd: "/work"},
		},
	}
	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(record))
	}))
	defer server.Close()

	f := newFixture(t, archive.NewClient(server.URL))
	sess, err := f.core.Restore(context.Background(), "s-old")
	require.NoError(t, err)

	assert.Equal(t, StatusIdle, sess.Status)
	assert.Empty(t, sess.TerminalID, "no live terminal after restore")
	assert.Equal(t, "g-old", sess.GroupID)

	term, groupID, ok := f.tree.Terminal("t-old")
	require.True(t, ok, "terminal metadata recreated")
	assert.Equal(t, "g-old", groupID)
	assert.False(t, term.Alive(), "recreated terminal is not running")

	assert.Equal(t, []string{http.MethodGet, http.MethodDelete}, methods,
		"restore consumes the archived record")
}

func TestRestoreMissingSession(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	f := newFixture(t, archive.NewClient(server.URL))
	_, err := f.core.Restore(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, velocityerrors.Is(err, velocityerrors.ErrCodeRestoreFailed))
	assert.Empty(t, f.store.Sessions())
}

func TestRenameAndOverrides(t *testing.T) {
	f := newFixture(t, nil)
	sess, err := f.core.Create(CreateOptions{Label: "old-name"})
	require.NoError(t, err)

	require.NoError(t, f.core.Rename(sess.ID, "new-name"))
	got, _ := f.store.Session(sess.ID)
	assert.Equal(t, "new-name", got.Label)
	renames := framesOf[protocol.RenameSession](f.sender)
	require.Len(t, renames, 1)
	assert.Equal(t, "new-name", renames[0].Label)

	require.NoError(t, f.core.SetEffort(sess.ID, "high"))
	require.NoError(t, f.core.SetEnv(sess.ID, map[string]string{"FOO": "bar"}))
	got, _ = f.store.Session(sess.ID)
	assert.Equal(t, "high", got.Effort)
	assert.Equal(t, "bar", got.Env["FOO"])
}

func TestSetGroupMovesTerminals(t *testing.T) {
	f := newFixture(t, nil)
	sess, err := f.core.Create(CreateOptions{Label: "mover"})
	require.NoError(t, err)
	target := f.core.CreateGroup("target")

	require.NoError(t, f.core.SetGroup(sess.ID, target.ID))

	got, _ := f.store.Session(sess.ID)
	assert.Equal(t, target.ID, got.GroupID)
	_, groupID, ok := f.tree.Terminal(sess.TerminalID)
	require.True(t, ok)
	assert.Equal(t, target.ID, groupID)

	owner, ok := f.owners.Resolve(sess.TerminalID)
	require.True(t, ok)
	assert.Equal(t, target.ID, owner.GroupID)

	setGroups := framesOf[protocol.SessionSetGroup](f.sender)
	assert.Equal(t, target.ID, setGroups[len(setGroups)-1].GroupID)

	err = f.core.SetGroup(sess.ID, "ghost-group")
	assert.True(t, velocityerrors.Is(err, velocityerrors.ErrCodeGroupNotFound))
}
