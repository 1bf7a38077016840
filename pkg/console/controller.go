package console

import (
	"context"

	"github.com/OptimiLabs/velocity-sub007/errors"
	"github.com/OptimiLabs/velocity-sub007/pkg/archive"
	"github.com/OptimiLabs/velocity-sub007/pkg/layout"
	"github.com/OptimiLabs/velocity-sub007/pkg/notify"
	"github.com/OptimiLabs/velocity-sub007/pkg/protocol"
	"github.com/OptimiLabs/velocity-sub007/state"
)

// CreateOptions describes a session to create.
type CreateOptions struct {
	Label    string
	Cwd      string
	Kind     Kind
	Provider string
	Model    string
	Effort   string
	Env      map[string]string
	GroupID  string

	FirstPrompt string
	AgentName   string

	// Auto marks creations triggered by automation rather than a user
	// action. A disabled provider then surfaces as a muted notice instead
	// of an error dialog.
	Auto bool
}

// Create allocates a new session and its terminal. Refused when the
// resolved provider's CLI is disabled in velocity.yml: no session id is
// allocated, no terminal is requested and the layout is untouched.
func (c *Core) Create(opts CreateOptions) (*Session, error) {
	kind := opts.Kind
	if kind == "" {
		kind = KindAgent
	}

	provider := ""
	command := "sh"
	model, effort := opts.Model, opts.Effort
	if kind == KindAgent {
		provider = InferProvider(opts.Provider, "", opts.Model, c.settings)
		if !c.settings.ProviderEnabled(provider) {
			err := errors.ProviderDisabled(provider)
			if opts.Auto {
				c.notifier.Notify(notify.LevelInfo, err.Message)
				c.logger.WithField("provider", provider).Debug("Auto-create refused, provider disabled")
			}
			return nil, err
		}
		command = c.settings.ProviderCommand(provider)
		defModel, defEffort := c.settings.ProviderDefaults(provider)
		if model == "" {
			model = defModel
		}
		if effort == "" {
			effort = defEffort
		}
	}

	groupID := opts.GroupID
	if groupID == "" {
		groupID = c.CreateGroup(opts.Label).ID
	} else if _, ok := c.store.Group(groupID); !ok {
		now := c.now()
		c.store.PutGroup(&Group{ID: groupID, Label: opts.Label, CreatedAt: now, LastActivityAt: now})
		c.tree.EnsureGroup(groupID)
		c.sender.Send(protocol.NewGroupCreate(groupID, opts.Label, now))
	}

	now := c.now()
	sess := &Session{
		ID:             c.newID(),
		Label:          opts.Label,
		Cwd:            opts.Cwd,
		Kind:           kind,
		Provider:       provider,
		Status:         StatusActive,
		TerminalID:     c.newID(),
		Model:          model,
		Effort:         effort,
		Env:            opts.Env,
		GroupID:        groupID,
		CreatedAt:      now,
		LastActivityAt: now,
		FirstPrompt:    opts.FirstPrompt,
		AgentName:      opts.AgentName,
	}

	c.tree.RegisterTerminal(groupID, &layout.Terminal{
		ID:        sess.TerminalID,
		Command:   command,
		Args:      providerArgs(model, effort),
		Cwd:       opts.Cwd,
		Env:       opts.Env,
		SessionID: sess.ID,
		State:     layout.TerminalRunning,
	})
	c.store.PutSession(sess)

	c.sender.Send(protocol.SessionPersist{
		Type:             protocol.TypeSessionPersist,
		ConsoleSessionID: sess.ID,
		Cwd:              sess.Cwd,
		Label:            sess.Label,
		CreatedAt:        sess.CreatedAt,
		FirstPrompt:      sess.FirstPrompt,
		AgentName:        sess.AgentName,
	})
	c.sender.Send(protocol.NewSessionSetGroup(sess.ID, groupID))

	c.logger.WithField("sessionId", sess.ID).WithField("provider", provider).Info("Created session")
	return sess.Clone(), nil
}

// providerArgs builds the CLI arguments carrying model and effort overrides.
func providerArgs(model, effort string) []string {
	var args []string
	if model != "" {
		args = append(args, "--model", model)
	}
	if effort != "" {
		args = append(args, "--effort", effort)
	}
	return args
}

// Stop closes a session's terminal but keeps the record, flipping it idle.
func (c *Core) Stop(sessionID string) error {
	sess, ok := c.store.Session(sessionID)
	if !ok {
		return errors.SessionNotFound(sessionID)
	}
	if sess.TerminalID != "" {
		c.closeTerminal(sess.TerminalID)
	}
	c.store.UpdateSession(sessionID, func(s *Session) {
		s.Status = StatusIdle
		s.TerminalID = ""
		s.LastActivityAt = c.now()
	})
	return nil
}

// Restart closes the session's current terminal, if any, and launches a
// fresh one with the stored model/effort/env overrides applied. The same
// provider policy as Create applies.
func (c *Core) Restart(sessionID string) error {
	sess, ok := c.store.Session(sessionID)
	if !ok {
		return errors.SessionNotFound(sessionID)
	}

	command := "sh"
	if sess.Kind == KindAgent {
		provider := InferProvider(sess.Provider, "", sess.Model, c.settings)
		if !c.settings.ProviderEnabled(provider) {
			return errors.ProviderDisabled(provider)
		}
		command = c.settings.ProviderCommand(provider)
	}

	if sess.TerminalID != "" {
		c.closeTerminal(sess.TerminalID)
	}

	terminalID := c.newID()
	c.tree.RegisterTerminal(sess.GroupID, &layout.Terminal{
		ID:        terminalID,
		Command:   command,
		Args:      providerArgs(sess.Model, sess.Effort),
		Cwd:       sess.Cwd,
		Env:       sess.Env,
		SessionID: sess.ID,
		State:     layout.TerminalRunning,
	})
	c.store.UpdateSession(sessionID, func(s *Session) {
		s.Status = StatusActive
		s.TerminalID = terminalID
		s.LastActivityAt = c.now()
	})
	c.logger.WithField("sessionId", sessionID).Info("Restarted session")
	return nil
}

// Remove deletes a session for good: all linked terminals are closed, the
// local record is dropped and the backend is told to forget it. When the
// push cannot be delivered, the deletion is queued locally and replayed on
// the next reconnect.
func (c *Core) Remove(sessionID string) error {
	sess, ok := c.store.Session(sessionID)
	if !ok {
		return errors.SessionNotFound(sessionID)
	}
	for _, terminalID := range c.tree.TerminalsForSession(sessionID) {
		c.closeTerminal(terminalID)
	}
	c.store.DeleteSession(sessionID)
	c.pushRemoval(sessionID)
	c.dropGroupIfEmpty(sess.GroupID)
	return nil
}

// Archive persists the session record and its terminal metadata to the
// archive service, then removes the session locally. A failed HTTP call
// aborts the whole operation with local state unchanged.
func (c *Core) Archive(ctx context.Context, sessionID string) error {
	sess, ok := c.store.Session(sessionID)
	if !ok {
		return errors.SessionNotFound(sessionID)
	}
	if c.archive == nil {
		return errors.ArchiveFailed(sessionID, errors.New(errors.ErrCodeConfigInvalid, "no archive service configured"))
	}

	terminalIDs := c.tree.TerminalsForSession(sessionID)
	record := archive.ArchivedSession{
		Session: archive.SessionRecord{
			ID:        sess.ID,
			Label:     sess.Label,
			Cwd:       sess.Cwd,
			Kind:      string(sess.Kind),
			Provider:  sess.Provider,
			Model:     sess.Model,
			Effort:    sess.Effort,
			Env:       sess.Env,
			GroupID:   sess.GroupID,
			CreatedAt: sess.CreatedAt,
		},
	}
	for _, id := range terminalIDs {
		term, _, ok := c.tree.Terminal(id)
		if !ok {
			continue
		}
		record.Terminals = append(record.Terminals, archive.TerminalRecord{
			ID:      term.ID,
			Command: term.Command,
			Args:    term.Args,
			Cwd:     term.Cwd,
			Env:     term.Env,
		})
	}

	if err := c.archive.Archive(ctx, record); err != nil {
		return errors.ArchiveFailed(sessionID, err)
	}

	for _, id := range terminalIDs {
		c.closeTerminal(id)
	}
	c.store.DeleteSession(sessionID)
	c.pushRemoval(sessionID)
	c.dropGroupIfEmpty(sess.GroupID)
	c.logger.WithField("sessionId", sessionID).Info("Archived session")
	return nil
}

// Restore fetches an archived session and recreates it idle: the record and
// its terminal metadata come back, but no process runs until the next
// restart.
func (c *Core) Restore(ctx context.Context, sessionID string) (*Session, error) {
	if c.archive == nil {
		return nil, errors.RestoreFailed(sessionID, errors.New(errors.ErrCodeConfigInvalid, "no archive service configured"))
	}
	archived, err := c.archive.Restore(ctx, sessionID)
	if err != nil {
		return nil, errors.RestoreFailed(sessionID, err)
	}

	rec := archived.Session
	groupID := rec.GroupID
	if groupID == "" {
		groupID = c.CreateGroup(rec.Label).ID
	} else if _, ok := c.store.Group(groupID); !ok {
		now := c.now()
		c.store.PutGroup(&Group{ID: groupID, Label: rec.Label, CreatedAt: now, LastActivityAt: now})
		c.tree.EnsureGroup(groupID)
		c.sender.Send(protocol.NewGroupCreate(groupID, rec.Label, now))
	}

	sess := &Session{
		ID:             rec.ID,
		Label:          rec.Label,
		Cwd:            rec.Cwd,
		Kind:           Kind(rec.Kind),
		Provider:       rec.Provider,
		Status:         StatusIdle,
		Model:          rec.Model,
		Effort:         rec.Effort,
		Env:            rec.Env,
		GroupID:        groupID,
		CreatedAt:      rec.CreatedAt,
		LastActivityAt: c.now(),
	}
	if sess.Kind == "" {
		sess.Kind = KindAgent
	}
	c.store.PutSession(sess)

	// Terminal metadata returns in exited state; panes come back, processes
	// do not.
	for _, tr := range archived.Terminals {
		c.tree.RegisterTerminal(groupID, &layout.Terminal{
			ID:        tr.ID,
			Command:   tr.Command,
			Args:      tr.Args,
			Cwd:       tr.Cwd,
			Env:       tr.Env,
			SessionID: rec.ID,
			State:     layout.TerminalExited,
		})
	}

	c.sender.Send(protocol.SessionPersist{
		Type:             protocol.TypeSessionPersist,
		ConsoleSessionID: sess.ID,
		Cwd:              sess.Cwd,
		Label:            sess.Label,
		CreatedAt:        sess.CreatedAt,
	})
	c.sender.Send(protocol.NewSessionSetGroup(sess.ID, groupID))

	// The archived record is consumed. A failed cleanup only logs; the
	// restore itself has already taken effect.
	if err := c.archive.Delete(ctx, sessionID); err != nil {
		c.logger.WithError(err).Warn("Could not delete archived record after restore")
	}

	c.logger.WithField("sessionId", sessionID).Info("Restored session")
	return sess.Clone(), nil
}

// Rename updates the session label locally and server-side.
func (c *Core) Rename(sessionID, label string) error {
	if !c.store.UpdateSession(sessionID, func(s *Session) { s.Label = label }) {
		return errors.SessionNotFound(sessionID)
	}
	c.sender.Send(protocol.NewRenameSession(sessionID, label))
	return nil
}

// SetModel stores a model override, applied at the next restart.
func (c *Core) SetModel(sessionID, model string) error {
	if !c.store.UpdateSession(sessionID, func(s *Session) { s.Model = model }) {
		return errors.SessionNotFound(sessionID)
	}
	return nil
}

// SetEffort stores an effort override, applied at the next restart.
func (c *Core) SetEffort(sessionID, effort string) error {
	if !c.store.UpdateSession(sessionID, func(s *Session) { s.Effort = effort }) {
		return errors.SessionNotFound(sessionID)
	}
	return nil
}

// SetEnv stores environment overrides, applied at the next restart.
func (c *Core) SetEnv(sessionID string, env map[string]string) error {
	if !c.store.UpdateSession(sessionID, func(s *Session) { s.Env = env }) {
		return errors.SessionNotFound(sessionID)
	}
	return nil
}

// SetGroup moves a session and its terminals into another group.
func (c *Core) SetGroup(sessionID, groupID string) error {
	sess, ok := c.store.Session(sessionID)
	if !ok {
		return errors.SessionNotFound(sessionID)
	}
	if _, ok := c.store.Group(groupID); !ok {
		return errors.GroupNotFound(groupID)
	}
	if sess.GroupID == groupID {
		return nil
	}

	for _, terminalID := range c.tree.TerminalsForSession(sessionID) {
		term, _, ok := c.tree.Terminal(terminalID)
		if !ok {
			continue
		}
		moved := *term
		c.tree.ReleaseTerminal(terminalID)
		c.tree.RegisterTerminal(groupID, &moved)
		c.owners.Invalidate(terminalID)
	}

	c.store.UpdateSession(sessionID, func(s *Session) { s.GroupID = groupID })
	c.sender.Send(protocol.NewSessionSetGroup(sessionID, groupID))
	return nil
}

// CreateGroup allocates a new group locally and pushes it to the backend.
func (c *Core) CreateGroup(label string) *Group {
	now := c.now()
	g := &Group{
		ID:             c.newID(),
		Label:          label,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	c.store.PutGroup(g)
	c.tree.EnsureGroup(g.ID)
	c.sender.Send(protocol.NewGroupCreate(g.ID, g.Label, g.CreatedAt))
	return g.Clone()
}

// closeTerminal asks the backend to terminate the process and releases the
// terminal locally.
func (c *Core) closeTerminal(terminalID string) {
	c.sender.Send(protocol.NewPtyClose(terminalID))
	c.tree.ReleaseTerminal(terminalID)
	c.owners.Invalidate(terminalID)
}

// dropGroupIfEmpty destroys a group once its last session is gone: the store
// record and any remaining layout entry go away together, so the group's tab
// stops rendering and reconciliation does not push it back to the backend as
// a local-only group.
func (c *Core) dropGroupIfEmpty(groupID string) {
	if groupID == "" || len(c.store.SessionsInGroup(groupID)) > 0 {
		return
	}
	c.store.DeleteGroup(groupID)
	c.tree.RemoveGroup(groupID)
	c.logger.WithField("groupId", groupID).Debug("Dropped empty group")
}

// pushRemoval tells the backend to forget a session, falling back to the
// local pending-deletion queue when the socket is closed.
func (c *Core) pushRemoval(sessionID string) {
	if c.sender.Send(protocol.NewRemoveSession(sessionID)) {
		return
	}
	st, err := state.Load()
	if err != nil {
		c.logger.WithError(err).Warn("Could not load local state to queue deletion")
		return
	}
	st.AddPendingDeletion(sessionID)
	if err := state.Save(st); err != nil {
		c.logger.WithError(err).Warn("Could not save local state")
	}
}
