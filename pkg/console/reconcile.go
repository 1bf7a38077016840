package console

import (
	"github.com/OptimiLabs/velocity-sub007/pkg/layout"
	"github.com/OptimiLabs/velocity-sub007/pkg/protocol"
	"github.com/OptimiLabs/velocity-sub007/state"
)

// HandleResumableGroups merges the backend's group list into local state.
// Runs once per connection epoch; replays are ignored. Idempotent by id, so
// a duplicate frame inside an epoch cannot double-create anything.
func (c *Core) HandleResumableGroups(epoch uint64, frame protocol.ResumableGroups) {
	c.mu.Lock()
	if epoch <= c.groupsEpoch {
		c.mu.Unlock()
		return
	}
	c.groupsEpoch = epoch
	c.mu.Unlock()

	server := make(map[string]bool, len(frame.Groups))
	for _, info := range frame.Groups {
		server[info.ID] = true
		if _, ok := c.store.Group(info.ID); ok {
			c.store.UpdateGroup(info.ID, func(g *Group) {
				g.Label = info.Label
				g.LastActivityAt = info.LastActivityAt
			})
			continue
		}
		c.store.PutGroup(&Group{
			ID:             info.ID,
			Label:          info.Label,
			CreatedAt:      info.CreatedAt,
			LastActivityAt: info.LastActivityAt,
		})
	}

	// Local-only groups survive and get pushed to the backend.
	merged := make([]string, 0, len(server))
	for id := range server {
		merged = append(merged, id)
	}
	for _, g := range c.store.Groups() {
		if !server[g.ID] {
			merged = append(merged, g.ID)
			c.sender.Send(protocol.NewGroupCreate(g.ID, g.Label, g.CreatedAt))
		}
	}

	c.tree.AlignGroups(merged)
	c.logger.WithField("groups", len(merged)).Debug("Reconciled groups")
}

// HandleResumableSessions merges the backend's session list into local
// state. Sessions the user deleted while offline are removed server-side and
// skipped. A session whose terminal survived locally is reconstructed around
// that terminal; a server session with no local presence at all is an orphan
// and its removal is pushed. Afterwards, local terminals bound to sessions
// the server no longer knows are pruned.
func (c *Core) HandleResumableSessions(epoch uint64, frame protocol.ResumableSessions) {
	c.mu.Lock()
	if epoch <= c.sessionsEpoch {
		c.mu.Unlock()
		return
	}
	c.sessionsEpoch = epoch
	c.mu.Unlock()

	st, err := state.Load()
	if err != nil {
		c.logger.WithError(err).Warn("Could not load local state, pending deletions unavailable")
		st = make(state.State)
	}
	pending := make(map[string]bool)
	for _, id := range st.PendingDeletions() {
		pending[id] = true
	}
	stateDirty := false

	keep := make(map[string]bool, len(frame.Sessions))
	for _, info := range frame.Sessions {
		if pending[info.ID] {
			if c.sender.Send(protocol.NewRemoveSession(info.ID)) {
				st.RemovePendingDeletion(info.ID)
				stateDirty = true
			}
			continue
		}

		if _, ok := c.store.Session(info.ID); ok {
			// Already known locally; refresh the server-owned fields.
			keep[info.ID] = true
			c.store.UpdateSession(info.ID, func(s *Session) {
				s.Label = info.Label
				if info.GroupID != "" {
					s.GroupID = info.GroupID
				}
			})
			continue
		}

		term, termGroup, ok := c.tree.TerminalForSession(info.ID)
		if !ok {
			// No surviving terminal and no local record: nothing to resume.
			keepRemoving := c.sender.Send(protocol.NewRemoveSession(info.ID))
			if !keepRemoving {
				st.AddPendingDeletion(info.ID)
				stateDirty = true
			}
			continue
		}

		keep[info.ID] = true
		sess := c.reconstructSession(info, term, termGroup)
		c.store.PutSession(sess)

		// The terminal's live group wins a disagreement; tell the backend.
		if info.GroupID != termGroup {
			c.sender.Send(protocol.NewSessionSetGroup(info.ID, termGroup))
		}
	}
	if stateDirty {
		if err := state.Save(st); err != nil {
			c.logger.WithError(err).Warn("Could not save local state")
		}
	}

	// Local sessions the server never saw (created while offline) get
	// re-persisted if a terminal still backs them, and dropped otherwise.
	for _, sess := range c.store.Sessions() {
		if keep[sess.ID] {
			continue
		}
		if _, _, ok := c.tree.TerminalForSession(sess.ID); ok {
			keep[sess.ID] = true
			c.sender.Send(protocol.SessionPersist{
				Type:             protocol.TypeSessionPersist,
				ConsoleSessionID: sess.ID,
				Cwd:              sess.Cwd,
				Label:            sess.Label,
				CreatedAt:        sess.CreatedAt,
				FirstPrompt:      sess.FirstPrompt,
				AgentName:        sess.AgentName,
			})
			if sess.GroupID != "" {
				c.sender.Send(protocol.NewSessionSetGroup(sess.ID, sess.GroupID))
			}
			continue
		}
		c.store.DeleteSession(sess.ID)
	}

	// Terminals bound to dropped sessions are orphans.
	for _, id := range c.tree.PruneTerminals(keep) {
		c.owners.Invalidate(id)
		c.logger.WithField("terminalId", id).Debug("Pruned orphan terminal")
	}

	c.logger.WithField("sessions", len(keep)).Debug("Reconciled sessions")
}

// reconstructSession rebuilds a Session around a terminal that survived in
// the local layout, inferring the provider and deriving status from the
// terminal's lifecycle state.
func (c *Core) reconstructSession(info protocol.SessionInfo, term *layout.Terminal, termGroup string) *Session {
	sess := &Session{
		ID:             info.ID,
		Label:          info.Label,
		Cwd:            info.Cwd,
		Kind:           Kind(info.Kind),
		Provider:       InferProvider(info.Provider, term.Command, info.Model, c.settings),
		Model:          info.Model,
		GroupID:        termGroup,
		CreatedAt:      info.CreatedAt,
		LastActivityAt: c.now(),
		FirstPrompt:    info.FirstPrompt,
		AgentName:      info.AgentName,
	}
	if sess.Kind == "" {
		sess.Kind = KindAgent
	}
	if term.Alive() {
		sess.Status = StatusActive
		sess.TerminalID = term.ID
	} else {
		sess.Status = StatusIdle
	}
	return sess
}
